package ml

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/bibbank/vulntriage/internal/domain/model"
)

// Tokens are runs of two or more Unicode word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// TfidfVectorizer is a fitted TF-IDF text vectorizer exported as JSON.
// It implements port.FeatureTransformer. The vocabulary is never mutated.
type TfidfVectorizer struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	Version     string         `json:"version"`
	Norm        string         `json:"norm"`
	IDF         []float64      `json:"idf"`
	StopWords   []string       `json:"stop_words"`
	Lowercase   *bool          `json:"lowercase,omitempty"`
	NgramRange  [2]int         `json:"ngram_range"`
	SublinearTF bool           `json:"sublinear_tf"`

	stopWords map[string]struct{}
}

func (v *TfidfVectorizer) init() error {
	if len(v.Vocabulary) == 0 {
		return fmt.Errorf("vocabulary is empty")
	}
	dim := len(v.Vocabulary)
	for term, idx := range v.Vocabulary {
		if idx < 0 || idx >= dim {
			return fmt.Errorf("term %q has index %d outside [0,%d)", term, idx, dim)
		}
	}
	if v.IDF != nil && len(v.IDF) != dim {
		return fmt.Errorf("idf has %d weights for %d terms", len(v.IDF), dim)
	}
	if v.NgramRange == [2]int{} {
		v.NgramRange = [2]int{1, 1}
	}
	if v.NgramRange[0] < 1 || v.NgramRange[1] < v.NgramRange[0] {
		return fmt.Errorf("invalid ngram_range %v", v.NgramRange)
	}
	switch v.Norm {
	case "", "l2", "l1", "none":
	default:
		return fmt.Errorf("unsupported norm %q", v.Norm)
	}
	if v.Norm == "" {
		v.Norm = "l2"
	}
	v.stopWords = make(map[string]struct{}, len(v.StopWords))
	for _, w := range v.StopWords {
		v.stopWords[w] = struct{}{}
	}
	return nil
}

// Dim returns the output vector dimension.
func (v *TfidfVectorizer) Dim() int {
	return len(v.Vocabulary)
}

// Transform encodes text into a normalised TF-IDF vector. Unknown terms are ignored,
// so any string (including the empty one) yields a vector of the fitted dimension.
func (v *TfidfVectorizer) Transform(text string) (model.FeatureVector, error) {
	values := make([]float64, v.Dim())

	for _, term := range v.analyze(text) {
		if idx, ok := v.Vocabulary[term]; ok {
			values[idx]++
		}
	}

	for i, tf := range values {
		if tf == 0 {
			continue
		}
		if v.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		if v.IDF != nil {
			tf *= v.IDF[i]
		}
		values[i] = tf
	}

	normalize(values, v.Norm)

	for i, x := range values {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return model.FeatureVector{}, fmt.Errorf("feature %d is not finite", i)
		}
	}
	return model.NewFeatureVector(values), nil
}

// analyze tokenizes text, drops stop words and expands word n-grams.
func (v *TfidfVectorizer) analyze(text string) []string {
	if v.Lowercase == nil || *v.Lowercase {
		text = strings.ToLower(text)
	}
	raw := tokenPattern.FindAllString(text, -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if _, stop := v.stopWords[tok]; !stop {
			tokens = append(tokens, tok)
		}
	}

	minN, maxN := v.NgramRange[0], v.NgramRange[1]
	if minN == 1 && maxN == 1 {
		return tokens
	}

	var terms []string
	if minN == 1 {
		terms = append(terms, tokens...)
		minN = 2
	}
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

func normalize(values []float64, norm string) {
	var total float64
	switch norm {
	case "l2":
		for _, x := range values {
			total += x * x
		}
		total = math.Sqrt(total)
	case "l1":
		for _, x := range values {
			total += math.Abs(x)
		}
	default:
		return
	}
	if total == 0 {
		return
	}
	for i := range values {
		values[i] /= total
	}
}
