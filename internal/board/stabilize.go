package board

import (
	"fmt"
	"strings"
)

// Policy selects how a new grid is merged with the accepted baseline.
type Policy int

const (
	// PolicySticky never lets a known cell regress to unopened and never
	// accepts a change between two known values. A cell whose real value
	// changes (a flag removed, say) stays stuck until the board is re-laid out.
	PolicySticky Policy = iota
	// PolicyPassThrough accepts every new grid as is.
	PolicyPassThrough
)

func (p Policy) String() string {
	switch p {
	case PolicySticky:
		return "sticky"
	case PolicyPassThrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// ParsePolicy maps a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sticky":
		return PolicySticky, nil
	case "passthrough", "pass-through", "none":
		return PolicyPassThrough, nil
	default:
		return PolicySticky, fmt.Errorf("unknown stabiliser policy %q", s)
	}
}

// Stabilize merges next with prev according to policy and returns a new
// state. When the shapes differ, next passes through unchanged. A nil next
// returns a copy of prev. Neither input is modified.
func Stabilize(next, prev *GameState, policy Policy) *GameState {
	if next == nil {
		return prev.Clone()
	}
	out := next.Clone()
	if policy == PolicyPassThrough || !next.SameShape(prev) {
		out.Recompute()
		return out
	}

	for i, nv := range next.Cells {
		pv := prev.Cells[i]
		switch {
		case nv == Unopened && pv != Unopened:
			out.Cells[i] = pv
		case nv != Unopened && pv != Unopened && nv != pv:
			out.Cells[i] = pv
		}
	}
	out.Recompute()
	return out
}

// Stabilizer keeps the baseline between passes.
type Stabilizer struct {
	Policy   Policy
	baseline *GameState
}

// NewStabilizer creates a stabiliser with an empty baseline.
func NewStabilizer(policy Policy) *Stabilizer {
	return &Stabilizer{Policy: policy}
}

// Apply stabilises next against the current baseline and makes the result
// the new baseline. The returned state is owned by the caller.
func (s *Stabilizer) Apply(next *GameState) *GameState {
	if next == nil {
		return s.Baseline()
	}
	var merged *GameState
	if s.baseline == nil {
		merged = next.Clone()
	} else {
		merged = Stabilize(next, s.baseline, s.Policy)
	}
	s.baseline = merged
	return merged.Clone()
}

// Baseline returns a copy of the last accepted state, or nil.
func (s *Stabilizer) Baseline() *GameState {
	return s.baseline.Clone()
}

// Reset drops the baseline.
func (s *Stabilizer) Reset() {
	s.baseline = nil
}
