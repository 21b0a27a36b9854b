// Package ticketid issues human-facing complaint ticket numbers.
package ticketid

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Prefix is prepended to every ticket number.
const Prefix = "TCKT-"

const suffixBytes = 4

// DefaultMaxAttempts bounds collision retries when none is configured.
const DefaultMaxAttempts = 32

var pattern = regexp.MustCompile(`^TCKT-[0-9A-F]{8}$`)

// ErrExhausted is returned when every attempt collided with an existing ticket.
var ErrExhausted = errors.New("ticketid: unable to find an unused ticket number")

// ExistsFunc reports whether a ticket number is already taken.
type ExistsFunc func(ctx context.Context, ticket string) (bool, error)

// Generator produces unique ticket numbers.
type Generator struct {
	exists      ExistsFunc
	random      io.Reader
	maxAttempts int
}

// Option customizes a Generator.
type Option func(*Generator)

// WithRandom swaps the entropy source.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) { g.random = r }
}

// WithMaxAttempts caps collision retries.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// NewGenerator builds a generator that checks uniqueness with exists.
func NewGenerator(exists ExistsFunc, opts ...Option) *Generator {
	g := &Generator{
		exists:      exists,
		random:      rand.Reader,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns a ticket number not reported as taken. Uniqueness is final
// only once the storage layer accepts it.
func (g *Generator) Next(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate, err := g.candidate()
		if err != nil {
			return "", err
		}
		if g.exists == nil {
			return candidate, nil
		}
		taken, err := g.exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check ticket number: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

func (g *Generator) candidate() (string, error) {
	buf := make([]byte, suffixBytes)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	return Prefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}

// Valid reports whether s has the ticket number shape.
func Valid(s string) bool {
	return pattern.MatchString(s)
}
