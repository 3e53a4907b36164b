package embedding

import (
	"fmt"
	"unicode/utf8"

	"bookmap/internal/domain"
)

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder = domain.Embedder

// Guard rejects texts longer than MaxChars characters before they reach the
// wrapped model. A MaxChars of zero disables the check.
type Guard struct {
	Embedder
	MaxChars int
}

// NewGuard wraps e with a length limit.
func NewGuard(e Embedder, maxChars int) *Guard {
	return &Guard{Embedder: e, MaxChars: maxChars}
}

// Check reports domain.ErrLengthExceeded when text is over the limit.
func (g *Guard) Check(text string) error {
	if g.MaxChars <= 0 {
		return nil
	}
	if n := utf8.RuneCountInString(text); n > g.MaxChars {
		return fmt.Errorf("%d characters, limit %d: %w", n, g.MaxChars, domain.ErrLengthExceeded)
	}
	return nil
}

// Prepare forwards only the texts within the limit. When none are, the wrapped
// embedder is left unprepared since nothing will be embedded.
func (g *Guard) Prepare(corpus []string) error {
	accepted := make([]string, 0, len(corpus))
	for _, text := range corpus {
		if g.Check(text) == nil {
			accepted = append(accepted, text)
		}
	}
	if len(accepted) == 0 {
		return nil
	}
	return g.Embedder.Prepare(accepted)
}

// Embed checks the limit, then embeds.
func (g *Guard) Embed(text string) ([]float64, error) {
	if err := g.Check(text); err != nil {
		return nil, err
	}
	return g.Embedder.Embed(text)
}
