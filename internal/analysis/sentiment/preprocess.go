package sentiment

import (
	"regexp"
	"strings"
)

var (
	urlRegex     = regexp.MustCompile(`https?://\S+`)
	mentionRegex = regexp.MustCompile(`@[A-Za-z0-9_.]+`)
	spaceRegex   = regexp.MustCompile(`\s+`)
)

// emojiTokens maps a fixed emoji table to sentiment-bearing tokens.
// Unknown emoji pass through untouched and are ignored by the lexicon.
var emojiTokens = map[string]string{
	"😍": "love",
	"❤️": "love",
	"😊": "happy",
	"🎉": "amazing",
	"👍": "good",
	"🔥": "amazing",
	"😡": "angry",
	"😠": "angry",
	"👎": "bad",
	"😢": "sad",
	"😭": "sad",
	"💔": "terrible",
	"🤮": "disgusting",
}

// Preprocess normalizes event text for scoring: URLs and @mentions are
// stripped, hashtag text is kept (minus the #), known emoji become
// sentiment tokens, whitespace collapses, and everything is lowercased.
func Preprocess(text string) string {
	s := urlRegex.ReplaceAllString(text, " ")
	s = mentionRegex.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "#", "")
	for emoji, token := range emojiTokens {
		s = strings.ReplaceAll(s, emoji, " "+token+" ")
	}
	s = spaceRegex.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// Tokenize splits preprocessed text into scoring tokens, stripping
// punctuation from token edges. Punctuation counts are reported separately
// because the lexical model weighs exclamation and question emphasis.
func Tokenize(text string) (tokens []string, exclaims, questions int) {
	exclaims = strings.Count(text, "!")
	questions = strings.Count(text, "?")

	for _, raw := range strings.Fields(text) {
		tok := strings.Trim(raw, ".,!?;:'\"()[]")
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens, exclaims, questions
}
