package local

import (
	"hash/fnv"
	"math"
)

const (
	// Dimensions each hashed feature is spread across.
	featureSpread = 6

	wordWeight    = 1.0
	trigramWeight = 0.35

	// The first leadTokens content tokens of a text carry a recipe's title
	// and are weighted by leadBoost.
	leadTokens = 4
	leadBoost  = 1.5

	// A token seen n times weighs 1 + repeatDamping*ln(n) times a single use.
	repeatDamping = 0.3

	// Weight of a category token relative to the word that implied it.
	categoryWeight = 0.7
)

// model is a deterministic bag-of-features encoder. Each token contributes a
// signed hashed vector for the whole word plus one per character trigram,
// so spelling variants and shared stems land near each other.
type model struct {
	dim   int
	vocab *Vocabulary
}

func newModel(dim int, vocab *Vocabulary) *model {
	return &model{dim: dim, vocab: vocab}
}

// term is a distinct token of a text and its pooled weight.
type term struct {
	token  string
	count  int
	boost  float32
	weight float32
}

// terms collapses tokens into distinct terms in first-seen order, applying
// the lead boost, repeat damping and category expansion.
func (m *model) terms(tokens []string) []*term {
	byToken := make(map[string]*term, len(tokens))
	out := make([]*term, 0, len(tokens))
	for i, tok := range tokens {
		t, ok := byToken[tok]
		if !ok {
			t = &term{token: tok, boost: 1}
			byToken[tok] = t
			out = append(out, t)
		}
		t.count++
		if i < leadTokens {
			t.boost = leadBoost
		}
	}

	for _, t := range out {
		damping := 1 + repeatDamping*float32(math.Log(float64(t.count)))
		t.weight = m.vocab.weight(t.token) * t.boost * damping
	}

	// category terms follow the word terms
	words := len(out)
	for _, t := range out[:words] {
		cat, ok := m.vocab.category(t.token)
		if !ok {
			continue
		}
		w := categoryWeight * t.boost * m.vocab.weight(cat)
		existing, ok := byToken[cat]
		if !ok {
			existing = &term{token: cat}
			byToken[cat] = existing
			out = append(out, existing)
		}
		if w > existing.weight {
			existing.weight = w
		}
	}
	return out
}

// embed pools the weighted token vectors of text and L2-normalizes the
// result. Text without content tokens yields the zero vector.
func (m *model) embed(text string) []float32 {
	out := make([]float32, m.dim)
	tokens := tokenize(text, m.vocab)
	if len(tokens) == 0 {
		return out
	}

	tokenVec := make([]float32, m.dim)
	pooled := false
	for _, t := range m.terms(tokens) {
		if t.weight == 0 {
			continue
		}
		clear(tokenVec)
		m.addFeature(tokenVec, "w:"+t.token, wordWeight)
		grams := trigrams(t.token)
		for _, g := range grams {
			m.addFeature(tokenVec, "t:"+g, trigramWeight/float32(len(grams)))
		}
		normalizeVector(tokenVec)
		for i, v := range tokenVec {
			out[i] += v * t.weight
		}
		pooled = true
	}

	if !pooled {
		return out
	}
	return normalizeVector(out)
}

// addFeature spreads a feature's weight over featureSpread positions with
// hash-derived signs.
func (m *model) addFeature(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	seed := h.Sum64()

	for i := 0; i < featureSpread; i++ {
		seed = splitmix64(seed)
		idx := int(seed % uint64(m.dim))
		if seed&(1<<63) != 0 {
			vec[idx] -= weight
		} else {
			vec[idx] += weight
		}
	}
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
