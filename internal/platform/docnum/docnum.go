// Package docnum generates human-readable document numbers and retries
// writes that lose a uniqueness race on the generated number.
package docnum

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// DefaultMaxAttempts bounds how often a colliding number is regenerated.
	DefaultMaxAttempts = 5

	randomBytes = 5
)

// ErrRetriesExhausted reports that every generated number collided. This is
// astronomically unlikely with healthy entropy and usually points at a
// misbehaving random source.
var ErrRetriesExhausted = errors.New("docnum: unique number retries exhausted")

// Generator produces numbers of the form <PREFIX>-<unix-millis>-<10 hex>.
type Generator struct {
	clock   func() time.Time
	entropy io.Reader
}

// Option customises the generator, primarily for tests.
type Option func(*Generator)

// WithClock injects a deterministic clock.
func WithClock(clock func() time.Time) Option {
	return func(g *Generator) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithEntropy injects a deterministic random source.
func WithEntropy(entropy io.Reader) Option {
	return func(g *Generator) {
		if entropy != nil {
			g.entropy = entropy
		}
	}
}

// NewGenerator constructs a Generator backed by the system clock and
// crypto/rand.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		clock:   time.Now,
		entropy: rand.Reader,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Generate returns a fresh document number for the given prefix, e.g.
// ORD-1748422800123-9F2C41A07B.
func (g *Generator) Generate(prefix string) (string, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", errors.New("docnum: prefix is required")
	}

	buf := make([]byte, randomBytes)
	if _, err := io.ReadFull(g.entropy, buf); err != nil {
		return "", fmt.Errorf("docnum: read entropy: %w", err)
	}

	millis := g.clock().UTC().UnixMilli()
	suffix := strings.ToUpper(hex.EncodeToString(buf))
	return fmt.Sprintf("%s-%d-%s", prefix, millis, suffix), nil
}

type uniqueViolator interface {
	IsUniqueViolation() bool
}

type alreadyExister interface {
	IsAlreadyExists() bool
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var dup uniqueViolator
	if errors.As(err, &dup) && dup.IsUniqueViolation() {
		return true
	}
	var exists alreadyExister
	return errors.As(err, &exists) && exists.IsAlreadyExists()
}

// CreateWithUniqueRetry runs fn up to maxAttempts times, retrying only when
// fn failed because a generated number was already claimed. Every other
// error propagates immediately. fn regenerates its number on each attempt.
func CreateWithUniqueRetry(ctx context.Context, maxAttempts int, fn func(ctx context.Context, attempt int) error) error {
	if fn == nil {
		return errors.New("docnum: fn is required")
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, maxAttempts, lastErr)
}
