// Package local is the in-process embedding backend.
//
// The model is a deterministic hashed-feature encoder: text is tokenized
// (lowercase, punctuation and quantities stripped, stop words dropped,
// synonyms folded), each token becomes a signed hashed vector of the word and
// its character trigrams, and the token vectors are averaged and
// L2-normalized. Leading tokens, usually a recipe's title, weigh more, and
// repeated tokens are damped. It needs no network access and no model files;
// an optional YAML vocabulary adds synonyms, categories, weights and stop
// words:
//
//	synonyms:
//	  aubergine: eggplant
//	categories:
//	  tiramisu: dessert
//	weights:
//	  recipe: 0.3
//	stop_words:
//	  - yummy
//
// Default returns a process-wide provider whose model is loaded lazily on
// first use. Databases with the default model settings share it;
// ResetDefault tears it down between tests.
package local
