package local

import (
	"fmt"
	"os"
	"strings"

	"github.com/poiesic/recipesearch/ai"
	"gopkg.in/yaml.v3"
)

// Vocabulary tunes the local model for a domain.
// Synonyms map a word onto the canonical form it should share a vector with.
// Categories add a broader term next to a specific one, so "cookie" keeps its
// own vector and also pulls toward "dessert". Weights scale a token's
// contribution to the pooled vector.
type Vocabulary struct {
	Synonyms   map[string]string  `yaml:"synonyms"`
	Categories map[string]string  `yaml:"categories"`
	Weights    map[string]float32 `yaml:"weights"`
	StopWords  []string           `yaml:"stop_words"`

	stop map[string]bool
}

// DefaultVocabulary returns the built-in cooking vocabulary.
func DefaultVocabulary() *Vocabulary {
	v := &Vocabulary{
		Synonyms: map[string]string{
			"aubergine": "eggplant",
			"courgette": "zucchini",
			"coriander": "cilantro",
			"scallion":  "onion",
			"shallot":   "onion",
			"garbanzo":  "chickpea",
			"prawn":     "shrimp",
			"mince":     "ground",
			"minced":    "ground",
			"noodle":    "pasta",
			"spaghetti": "pasta",
			"penne":     "pasta",
			"macaroni":  "pasta",
			"linguine":  "pasta",
			"chilli":    "chili",
			"veggie":    "vegetable",
			"grill":     "grilled",
			"bbq":       "grilled",
			"barbecue":  "grilled",
			"fast":      "quick",
			"easy":      "quick",
			"simple":    "quick",
			"weeknight": "quick",
		},
		Categories: map[string]string{
			"cake":      "dessert",
			"cookie":    "dessert",
			"biscuit":   "dessert",
			"brownie":   "dessert",
			"pie":       "dessert",
			"tart":      "dessert",
			"pudding":   "dessert",
			"stew":      "soup",
			"chowder":   "soup",
			"bisque":    "soup",
			"broth":     "soup",
			"bake":      "oven",
			"baked":     "oven",
			"roast":     "oven",
			"roasted":   "oven",
			"chili":     "spicy",
			"jalapeno":  "spicy",
			"vegan":     "vegetarian",
			"beef":      "meat",
			"pork":      "meat",
			"lamb":      "meat",
			"veal":      "meat",
			"chicken":   "poultry",
			"turkey":    "poultry",
			"duck":      "poultry",
			"salmon":    "fish",
			"tuna":      "fish",
			"cod":       "fish",
			"trout":     "fish",
			"breakfast": "morning",
			"brunch":    "morning",
		},
		Weights: map[string]float32{
			"recipe":     0.3,
			"cup":        0.3,
			"tablespoon": 0.3,
			"teaspoon":   0.3,
			"tbsp":       0.3,
			"tsp":        0.3,
			"gram":       0.3,
			"minute":     0.4,
			"add":        0.4,
			"serve":      0.4,
			"cook":       0.5,
		},
	}
	v.index()
	return v
}

// LoadVocabulary reads a YAML vocabulary file and merges it over the defaults.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrModelLoad, err)
	}

	var file Vocabulary
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ai.ErrModelLoad, path, err)
	}

	v := DefaultVocabulary()
	for word, canon := range file.Synonyms {
		v.Synonyms[strings.ToLower(word)] = strings.ToLower(canon)
	}
	for word, cat := range file.Categories {
		v.Categories[strings.ToLower(word)] = strings.ToLower(cat)
	}
	for word, weight := range file.Weights {
		if weight < 0 {
			return nil, fmt.Errorf("%w: negative weight for %q", ai.ErrModelLoad, word)
		}
		v.Weights[strings.ToLower(word)] = weight
	}
	v.StopWords = append(v.StopWords, file.StopWords...)
	v.index()
	return v, nil
}

func (v *Vocabulary) index() {
	v.stop = make(map[string]bool, len(v.StopWords))
	for _, w := range v.StopWords {
		v.stop[strings.ToLower(w)] = true
	}
}

func (v *Vocabulary) isStopWord(word string) bool {
	return v != nil && v.stop[word]
}

func (v *Vocabulary) synonym(word string) (string, bool) {
	if v == nil {
		return "", false
	}
	canon, ok := v.Synonyms[word]
	return canon, ok
}

func (v *Vocabulary) canonical(word string) string {
	if v == nil {
		return word
	}
	if canon, ok := v.Synonyms[word]; ok {
		return canon
	}
	return word
}

func (v *Vocabulary) category(token string) (string, bool) {
	if v == nil {
		return "", false
	}
	cat, ok := v.Categories[token]
	return cat, ok && cat != token
}

func (v *Vocabulary) weight(token string) float32 {
	if v == nil {
		return 1
	}
	if w, ok := v.Weights[token]; ok {
		return w
	}
	return 1
}
