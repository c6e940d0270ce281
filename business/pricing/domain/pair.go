// Package domain contains the core domain types for the pricing context.
package domain

import (
	"fmt"
	"strings"

	"github.com/fd1az/cycle-arb/internal/apperror"
)

// Pair is a base/quote asset pair, e.g. BTC/USD.
type Pair struct {
	Base  string
	Quote string
}

// NewPair upper-cases and validates the asset ids.
func NewPair(base, quote string) (Pair, error) {
	p := Pair{
		Base:  strings.ToUpper(strings.TrimSpace(base)),
		Quote: strings.ToUpper(strings.TrimSpace(quote)),
	}
	if p.Base == "" || p.Quote == "" {
		return Pair{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithMessage(fmt.Sprintf("invalid pair %q/%q", base, quote)))
	}
	if p.Base == p.Quote {
		return Pair{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithMessage(fmt.Sprintf("pair base and quote are both %s", p.Base)))
	}
	return p, nil
}

// String returns the pair symbol (e.g., "BTC-USD").
func (p Pair) String() string {
	return p.Base + "-" + p.Quote
}
