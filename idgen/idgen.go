package idgen

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out monotonic ULIDs for bond attempt correlation. The
// underlying monotonic reader is not safe for concurrent use, so reads are
// serialized with a mutex: evaluations for many roots request ids at once.
type Generator struct {
	mtx     sync.Mutex
	entropy ulid.MonotonicReader
}

func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// NewAttemptId returns a ULID string for tagging one bond evaluation
func (g *Generator) NewAttemptId() (string, error) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
