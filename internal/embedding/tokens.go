package embedding

import (
	"math"
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// Words returns the letter runs of text in their original case.
func Words(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

// Tokens returns lowercased words with stopwords removed.
func Tokens(text string) []string {
	raw := Words(strings.ToLower(text))
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// IsStopword reports whether a lowercased token carries no topical signal.
func IsStopword(tok string) bool {
	_, ok := stopwords[tok]
	return ok
}

// Normalize scales vec to unit L2 norm in place. Zero vectors are left alone.
func Normalize(vec []float64) {
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] /= norm
	}
}

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"i", "he", "she", "they", "we", "you", "his", "her", "their", "our", "your", "my", "me", "him", "them", "us", "had", "has", "have", "not", "no", "said", "would", "could", "there", "which", "who", "what", "when", "all", "one",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
