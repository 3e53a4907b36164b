// Package summarizer extracts a short preview from a book text.
package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"bookmap/internal/domain"
	"bookmap/internal/embedding"
)

const (
	defaultSentences = 3
	// DefaultWindow is how much of a text's opening is considered, in characters.
	DefaultWindow = 20000
)

var sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

var _ domain.Summarizer = (*FrequencySummarizer)(nil)

// Sentences splits text on terminal punctuation. Text without any is returned
// as a single trimmed sentence; blank text yields none.
func Sentences(text string) []string {
	raw := sentencePattern.FindAllString(text, -1)
	if len(raw) == 0 {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.Join(strings.Fields(s), " "); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// FrequencySummarizer ranks sentences by the normalised frequency of their
// content words.
type FrequencySummarizer struct {
	window int
}

// NewFrequencySummarizer returns a summarizer reading at most window characters
// of each text. A non-positive window reads the whole text.
func NewFrequencySummarizer(window int) *FrequencySummarizer {
	return &FrequencySummarizer{window: window}
}

// Summarize returns up to maxSentences of the best scoring sentences in their
// original order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = defaultSentences
	}
	sentences := Sentences(s.opening(text))
	if len(sentences) == 0 {
		return "", nil
	}

	freq := map[string]float64{}
	tokens := make([][]string, len(sentences))
	for i, sent := range sentences {
		tokens[i] = embedding.Tokens(sent)
		for _, tok := range tokens[i] {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, toks := range tokens {
		score := 0.0
		for _, tok := range toks {
			score += freq[tok]
		}
		// long sentences would otherwise always win
		if l := float64(len(embedding.Words(sentences[i]))); l > 0 {
			score /= math.Sqrt(l)
		}
		scores[i] = pair{i, score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}
	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " "), nil
}

func (s *FrequencySummarizer) opening(text string) string {
	if s.window <= 0 || utf8.RuneCountInString(text) <= s.window {
		return text
	}
	n := 0
	for i := range text {
		if n == s.window {
			return text[:i]
		}
		n++
	}
	return text
}
