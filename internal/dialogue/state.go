// Package dialogue holds the conversation state and the pure slot-filling
// state machine that advances it one utterance at a time.
package dialogue

import (
	"fmt"
	"slices"

	"github.com/hpungsan/healthyfy/internal/entity"
	"github.com/hpungsan/healthyfy/internal/intent"
)

// Mode is the conversation mode.
type Mode string

const (
	ModeIdle       Mode = "idle"
	ModeCollecting Mode = "collecting"
	ModeConfirming Mode = "confirming"
)

// Pending is an intent awaiting slots or confirmation.
// Missing is always the required slots absent from Slots, in declared order.
type Pending struct {
	Intent  intent.Intent `json:"intent"`
	Slots   entity.Bag    `json:"slots"`
	Missing []entity.Slot `json:"missing"`
}

// NewPending copies slots and computes Missing from the intent's required slots.
func NewPending(in intent.Intent, slots entity.Bag) *Pending {
	p := &Pending{Intent: in, Slots: entity.Bag{}}
	for k, v := range slots {
		p.Slots.Set(k, v, true)
	}
	p.Missing = missingFor(in, p.Slots)
	return p
}

// Fill returns a copy of p with slot set to v and Missing recomputed.
func (p *Pending) Fill(slot entity.Slot, v entity.Value) *Pending {
	slots := p.Slots.Clone()
	slots.Set(slot, v, true)
	return &Pending{Intent: p.Intent, Slots: slots, Missing: missingFor(p.Intent, slots)}
}

// Complete reports whether every required slot is present.
func (p *Pending) Complete() bool {
	return len(p.Missing) == 0
}

func missingFor(in intent.Intent, slots entity.Bag) []entity.Slot {
	missing := []entity.Slot{}
	for _, s := range in.Required() {
		if !slots.Has(s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// State is the conversation state threaded through every turn.
type State struct {
	Mode    Mode     `json:"mode"`
	Pending *Pending `json:"pending,omitempty"`
}

// Idle is the zero conversation state.
func Idle() State {
	return State{Mode: ModeIdle}
}

// Validate checks the mode/pending invariant.
func (s State) Validate() error {
	switch s.Mode {
	case ModeIdle:
		if s.Pending != nil {
			return fmt.Errorf("idle state must not carry a pending action")
		}
		return nil
	case ModeCollecting, ModeConfirming:
		if s.Pending == nil {
			return fmt.Errorf("%s state requires a pending action", s.Mode)
		}
	default:
		return fmt.Errorf("unknown mode %q", s.Mode)
	}

	if !s.Pending.Intent.Actionable() {
		return fmt.Errorf("pending intent %q is not actionable", s.Pending.Intent)
	}
	if want := missingFor(s.Pending.Intent, s.Pending.Slots); !slices.Equal(want, s.Pending.Missing) {
		return fmt.Errorf("pending missing %v does not match slots (want %v)", s.Pending.Missing, want)
	}
	if s.Mode == ModeCollecting && s.Pending.Complete() {
		return fmt.Errorf("collecting state has no missing slots")
	}
	if s.Mode == ModeConfirming && !s.Pending.Complete() {
		return fmt.Errorf("confirming state still misses %v", s.Pending.Missing)
	}
	return nil
}
