package topics

import (
	"math"
	"strings"
	"time"

	"github.com/ignite/engage/internal/domain"
)

// featureVector is the numeric representation of one event used for
// clustering. Layout: vocabulary TF-IDF terms, then platform one-hot,
// then cyclic hour/day encodings, then log-scaled engagement.
type featureVector []float64

// vectorizer builds feature vectors against a fixed vocabulary. Document
// frequencies come from the event history at build time, so vectors from
// one batch are comparable with each other.
type vectorizer struct {
	vocabulary []string
	df         map[string]int
	docs       int
}

func newVectorizer(vocabulary []string, history []*domain.SocialEvent) *vectorizer {
	v := &vectorizer{
		vocabulary: vocabulary,
		df:         make(map[string]int, len(vocabulary)),
		docs:       len(history),
	}
	for _, ev := range history {
		text := strings.ToLower(ev.Content.Text)
		for _, term := range vocabulary {
			if strings.Contains(text, term) {
				v.df[term]++
			}
		}
	}
	return v
}

// dims returns the total vector width.
func (v *vectorizer) dims() int {
	return len(v.vocabulary) + len(domain.AllPlatforms) + 4 + 1
}

func (v *vectorizer) vectorize(ev *domain.SocialEvent) featureVector {
	vec := make(featureVector, 0, v.dims())
	text := strings.ToLower(ev.Content.Text)
	tokens := strings.Fields(text)

	// TF-IDF over the configured vocabulary
	for _, term := range v.vocabulary {
		tf := float64(strings.Count(text, term))
		if len(tokens) > 0 {
			tf /= float64(len(tokens))
		}
		idf := math.Log(float64(v.docs+1) / float64(v.df[term]+1))
		vec = append(vec, tf*idf)
	}

	// Platform one-hot
	for _, p := range domain.AllPlatforms {
		if ev.Platform == p {
			vec = append(vec, 1)
		} else {
			vec = append(vec, 0)
		}
	}

	// Cyclic time-of-day and day-of-week encodings
	hour := float64(ev.Timestamp.UTC().Hour())
	day := float64(ev.Timestamp.UTC().Weekday())
	vec = append(vec,
		math.Sin(2*math.Pi*hour/24),
		math.Cos(2*math.Pi*hour/24),
		math.Sin(2*math.Pi*day/7),
		math.Cos(2*math.Pi*day/7),
	)

	// Log-scaled total engagement
	total := ev.Engagement.Likes + ev.Engagement.Shares + ev.Engagement.Comments
	vec = append(vec, math.Log1p(float64(total)))

	return vec
}

// cosineDistance is 1 - cosine similarity; zero vectors are maximally distant.
func cosineDistance(a, b featureVector) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

func euclideanDistance(a, b featureVector) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// jaccardDistance treats non-zero dimensions as set membership.
func jaccardDistance(a, b featureVector) float64 {
	var inter, union int
	for i := range a {
		ai, bi := a[i] != 0, b[i] != 0
		if ai && bi {
			inter++
		}
		if ai || bi {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return 1 - float64(inter)/float64(union)
}

// jaccardText is set Jaccard similarity over whitespace tokens, used for
// cluster coherence and duplicate-ish comparisons.
func jaccardText(a, b string) float64 {
	sa := tokenSet(a)
	sb := tokenSet(b)
	if len(sa) == 0 && len(sb) == 0 {
		return 1
	}
	var inter int
	for tok := range sa {
		if sb[tok] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[strings.Trim(tok, ".,!?;:'\"()")] = true
	}
	delete(set, "")
	return set
}

// centroid averages a set of vectors.
func centroid(vecs []featureVector) featureVector {
	if len(vecs) == 0 {
		return nil
	}
	out := make(featureVector, len(vecs[0]))
	for _, v := range vecs {
		for i := range v {
			out[i] += v[i]
		}
	}
	for i := range out {
		out[i] /= float64(len(vecs))
	}
	return out
}

// timeRange returns the min and max timestamps over events.
func timeRange(events []*domain.SocialEvent) (time.Time, time.Time) {
	if len(events) == 0 {
		return time.Time{}, time.Time{}
	}
	first, last := events[0].Timestamp, events[0].Timestamp
	for _, ev := range events[1:] {
		if ev.Timestamp.Before(first) {
			first = ev.Timestamp
		}
		if ev.Timestamp.After(last) {
			last = ev.Timestamp
		}
	}
	return first, last
}
