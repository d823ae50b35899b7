// Package typing computes the synthetic human-typing delays used to
// space consecutive messages within a scheduled batch.
package typing

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	charsPerSecond = 3.0
	rateJitter     = 0.5
	thinkMinMs     = 1000.0
	thinkSpanMs    = 2000.0
)

// Model turns a message length into a plausible typing duration. The
// random source is injected so tests can seed it. rand.Rand is not
// safe for concurrent use, so draws are serialized under mu; one Model
// is shared by every request handler.
type Model struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Model backed by rnd. A nil rnd gets a time-seeded source.
func New(rnd *rand.Rand) *Model {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Model{rnd: rnd}
}

// Delay simulates typing length characters at 3±0.5 chars/sec, plus a
// thinking pause drawn uniformly from [1s, 3s). The result is a whole
// number of milliseconds and always positive.
func (m *Model) Delay(length int) time.Duration {
	if length < 0 {
		length = 0
	}

	m.mu.Lock()
	rateDraw := m.rnd.Float64()
	thinkDraw := m.rnd.Float64()
	m.mu.Unlock()

	rate := charsPerSecond - rateJitter + rateDraw*2*rateJitter
	baseMs := float64(length) / rate * 1000
	thinkMs := thinkMinMs + thinkDraw*thinkSpanMs

	return time.Duration(math.Floor(baseMs+thinkMs)) * time.Millisecond
}
