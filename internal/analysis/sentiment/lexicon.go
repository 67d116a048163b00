package sentiment

import "context"

// lexicon is the fixed scored vocabulary for the lexical model.
// Scores are in [-1,1]; tokens absent from the table contribute nothing.
var lexicon = map[string]float64{
	// positive
	"love": 0.9, "amazing": 0.9, "excellent": 0.9, "perfect": 0.9,
	"best": 0.8, "great": 0.7, "fantastic": 0.9, "wonderful": 0.8,
	"good": 0.5, "nice": 0.5, "happy": 0.6, "awesome": 0.8,
	"recommend": 0.6, "thanks": 0.4, "thank": 0.4, "helpful": 0.5,
	"fast": 0.3, "beautiful": 0.6, "impressed": 0.7, "works": 0.3,

	// negative
	"hate": -0.9, "terrible": -0.9, "awful": -0.9, "horrible": -0.9,
	"worst": -0.9, "broken": -0.8, "bad": -0.5, "poor": -0.5,
	"disappointed": -0.7, "disappointing": -0.7, "useless": -0.8,
	"refund": -0.6, "scam": -0.9, "angry": -0.7, "sad": -0.5,
	"slow": -0.4, "waste": -0.7, "never": -0.3, "disgusting": -0.9,
	"defective": -0.8, "damaged": -0.7, "wrong": -0.4, "problem": -0.4,
}

// intensifiers multiply the score of the token that follows them.
var intensifiers = map[string]float64{
	"very":       1.5,
	"extremely":  1.8,
	"really":     1.4,
	"so":         1.3,
	"completely": 1.6,
	"absolutely": 1.7,
	"totally":    1.5,
	"slightly":   0.6,
	"somewhat":   0.7,
}

// negations flip the sign of scored tokens within the negation window.
var negations = map[string]bool{
	"not": true, "no": true, "never": true, "isnt": true, "isn't": true,
	"dont": true, "don't": true, "doesnt": true, "doesn't": true,
	"wont": true, "won't": true, "cant": true, "can't": true,
}

// negationWindow is how many following tokens a negation affects.
const negationWindow = 3

// LexicalModel is the deterministic fallback sentiment model. It scores by
// lexicon lookup with intensifier multipliers, a 3-word negation window,
// and punctuation emphasis, normalized by token count.
type LexicalModel struct{}

// Name identifies the model in ensemble sub-scores.
func (LexicalModel) Name() string { return "lexical" }

// Score computes the lexical sentiment of preprocessed text.
// The returned score is in [-1,1]; confidence grows with the density of
// scored tokens.
func (LexicalModel) Score(_ context.Context, text string) (float64, float64, error) {
	tokens, exclaims, questions := Tokenize(text)
	if len(tokens) == 0 {
		return 0, 0.5, nil
	}

	var total float64
	var scored int
	negatedUntil := -1
	intensity := 1.0

	for i, tok := range tokens {
		if negations[tok] {
			negatedUntil = i + negationWindow
			continue
		}
		if mult, ok := intensifiers[tok]; ok {
			intensity = mult
			continue
		}

		score, ok := lexicon[tok]
		if !ok {
			intensity = 1.0
			continue
		}

		score *= intensity
		intensity = 1.0
		if i <= negatedUntil {
			score = -score
		}
		total += score
		scored++
	}

	// Exclamation marks amplify whatever direction the text leans;
	// question marks mildly dampen (uncertainty).
	emphasis := 1.0 + 0.1*float64(min(exclaims, 3)) - 0.05*float64(min(questions, 2))
	total *= emphasis

	normalized := total / float64(len(tokens)) * 3.0 // rescale: few strong words should still register
	normalized = clamp(normalized, -1, 1)

	confidence := 0.5 + 0.4*clamp(float64(scored)/float64(len(tokens))*2, 0, 1)
	return normalized, confidence, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
