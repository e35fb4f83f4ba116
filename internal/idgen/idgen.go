// Package idgen hands out identifiers for requests and messages.
package idgen

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

type Generator interface {
	NewID() string
}

// Sequence is a monotonic counter. Ids are never reused for the lifetime of the value.
type Sequence struct {
	last atomic.Uint64
}

// NewSequence returns a counter whose first id is after+1.
func NewSequence(after uint64) *Sequence {
	s := &Sequence{}
	s.last.Store(after)
	return s
}

func (s *Sequence) NewID() string {
	return strconv.FormatUint(s.last.Add(1), 10)
}

type UUID struct{}

func (UUID) NewID() string {
	return uuid.NewString()
}

// New picks a generator by strategy name: "sequence" (default) or "uuid".
func New(strategy string, after uint64) (Generator, error) {
	switch strategy {
	case "", "sequence":
		return NewSequence(after), nil
	case "uuid":
		return UUID{}, nil
	}
	return nil, fmt.Errorf("idgen: unknown strategy %q", strategy)
}
