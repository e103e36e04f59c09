// Package invoice generates human readable sale references of the form
// INV-YYYYMMDD-XXXXXXXX.
package invoice

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"time"
)

const (
	alphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	suffixLength = 8
	// largest multiple of len(alphabet) that fits in a byte
	maxUnbiased = 256 - 256%len(alphabet)
)

var pattern = regexp.MustCompile(`^INV-\d{8}-[A-Z0-9]{8}$`)

// Generator is not collision free. Callers rely on the unique constraint on
// sales.invoice_number and retry.
type Generator struct {
	now    func() time.Time
	loc    *time.Location
	random io.Reader
}

type Option func(*Generator)

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func WithRandom(r io.Reader) Option {
	return func(g *Generator) { g.random = r }
}

func NewGenerator(loc *time.Location, opts ...Option) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	g := &Generator{now: time.Now, loc: loc, random: rand.Reader}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Next() (string, error) {
	suffix := make([]byte, 0, suffixLength)
	buf := make([]byte, suffixLength*2)

	for len(suffix) < suffixLength {
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			suffix = append(suffix, alphabet[int(b)%len(alphabet)])
			if len(suffix) == suffixLength {
				break
			}
		}
	}

	date := g.now().In(g.loc).Format("20060102")
	return "INV-" + date + "-" + string(suffix), nil
}

// Valid reports whether s is a well formed invoice number.
func Valid(s string) bool {
	return pattern.MatchString(s)
}
