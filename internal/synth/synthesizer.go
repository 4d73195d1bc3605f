// Package synth produces local replies when no remote channel answers.
// It is a deliberately simple rule engine: deterministic given the intent
// classification and the excluded template index, with randomness only in
// breaking ties among remaining candidates.
package synth

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/haven-oss/haven/internal/memory"
)

// Reply is a locally synthesized response.
type Reply struct {
	Text   string
	Intent Intent
}

// Synthesizer selects a templated reply for a classified intent, avoiding
// immediate repetition per intent via working-tier state.
type Synthesizer struct {
	store *memory.Store
	depth int
	rng   *rand.Rand
}

// New creates a synthesizer reading context from the given store.
func New(store *memory.Store, contextDepth int) *Synthesizer {
	return &Synthesizer{
		store: store,
		depth: contextDepth,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand replaces the tie-breaking source. Used by tests.
func (s *Synthesizer) WithRand(r *rand.Rand) *Synthesizer {
	s.rng = r
	return s
}

// Respond classifies the message, gathers session context, and selects a
// template for the intent. The previously selected template index for that
// intent is excluded unless only one template exists.
func (s *Synthesizer) Respond(message string) Reply {
	intent := Classify(message)
	ctx := s.store.GetContext(s.depth)
	candidates := Templates(intent)

	lastKey := "last_template:" + string(intent)
	last := -1
	if v, ok := ctx.Working[lastKey]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			last = n
		}
	}

	idx := s.pick(len(candidates), last)
	s.store.Update(lastKey, strconv.Itoa(idx))

	text := candidates[idx]
	if mood, ok := ctx.Working["mood"]; ok {
		if suffix, ok := moodAdjustments[mood]; ok {
			text += suffix
		}
	}

	return Reply{Text: text, Intent: intent}
}

// pick chooses a template index, excluding the previous one when more than
// one candidate exists.
func (s *Synthesizer) pick(n, exclude int) int {
	if n <= 1 {
		return 0
	}
	if exclude < 0 || exclude >= n {
		return s.rng.Intn(n)
	}
	idx := s.rng.Intn(n - 1)
	if idx >= exclude {
		idx++
	}
	return idx
}
