package dialogue

import (
	"time"

	"github.com/hpungsan/healthyfy/internal/entity"
	"github.com/hpungsan/healthyfy/internal/intent"
)

// ResultType says whether a step asks the caller to run an action.
type ResultType string

const (
	ResultMessage ResultType = "message"
	ResultExecute ResultType = "execute"
)

// Result is the outcome of one Step.
type Result struct {
	Type ResultType `json:"type"`
	// Pending is set only for ResultExecute.
	Pending *Pending `json:"pending,omitempty"`
	// Message is set only for ResultMessage.
	Message string `json:"message,omitempty"`
	Next    State  `json:"next"`
	// Fallback marks an idle reply the remote chat may improve on.
	Fallback bool `json:"fallback,omitempty"`
}

var escapePhrases = []string{"cancel", "stop", "never mind", "nevermind"}

// Step advances the conversation by one utterance using the local clock.
func Step(prev State, text string) Result {
	return StepAt(prev, text, time.Now())
}

// StepAt is Step with an explicit clock. It never mutates prev.
// An inconsistent prev is treated as idle.
func StepAt(prev State, text string, now time.Time) Result {
	if prev.Validate() != nil {
		prev = Idle()
	}

	switch prev.Mode {
	case ModeConfirming:
		return confirming(prev, text, now)
	case ModeCollecting:
		return collecting(prev, text, now)
	}
	return idle(prev, text, now)
}

func message(msg string, next State) Result {
	return Result{Type: ResultMessage, Message: msg, Next: next}
}

// sideReply answers help and disclaimer without touching the state.
func sideReply(in intent.Intent, prev State) (Result, bool) {
	switch in {
	case intent.Help:
		return message(HelpMessage, prev), true
	case intent.Disclaimer:
		return message(DisclaimerMessage, prev), true
	}
	return Result{}, false
}

func idle(prev State, text string, now time.Time) Result {
	c := intent.ClassifyAt(text, now)
	if r, ok := sideReply(c.Intent, prev); ok {
		return r
	}

	if !c.Intent.Actionable() {
		r := message(IdleHintMessage, prev)
		r.Fallback = true
		return r
	}

	p := NewPending(c.Intent, c.Entities)
	if p.Complete() {
		return message(ConfirmText(p), State{Mode: ModeConfirming, Pending: p})
	}
	return message(Prompt(p.Missing[0]), State{Mode: ModeCollecting, Pending: p})
}

func collecting(prev State, text string, now time.Time) Result {
	norm := entity.Normalize(text)
	for _, phrase := range escapePhrases {
		if norm == phrase {
			return message(CancelledMessage, Idle())
		}
	}

	// Side intents win over free-text slots, which would accept anything.
	if r, side := sideReply(intent.ClassifyAt(text, now).Intent, prev); side {
		return r
	}

	slot := prev.Pending.Missing[0]
	v, ok := entity.ParseSlotAt(slot, text, now)
	if !ok {
		return message(Prompt(slot), prev)
	}

	p := prev.Pending.Fill(slot, v)
	if !p.Complete() {
		return message(Prompt(p.Missing[0]), State{Mode: ModeCollecting, Pending: p})
	}
	return message(ConfirmText(p), State{Mode: ModeConfirming, Pending: p})
}

func confirming(prev State, text string, now time.Time) Result {
	c := intent.ClassifyAt(text, now)
	switch c.Intent {
	case intent.ConfirmYes:
		return Result{Type: ResultExecute, Pending: prev.Pending, Next: Idle()}
	case intent.ConfirmNo:
		return message(CancelledMessage, Idle())
	}
	if r, ok := sideReply(c.Intent, prev); ok {
		return r
	}
	return message(ReconfirmMessage, prev)
}
