package otp

import (
	"context"
	"errors"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
)

// Event is a user interaction on the verification screen.
type Event interface{ isEvent() }

type DigitEntered struct {
	Index int
	Input string
}

type Backspace struct{ Index int }

type SubmitPressed struct{}

type ResendPressed struct{}

func (DigitEntered) isEvent()  {}
func (Backspace) isEvent()     {}
func (SubmitPressed) isEvent() {}
func (ResendPressed) isEvent() {}

// Handle dispatches one event.
func (f *Flow) Handle(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case DigitEntered:
		return f.Enter(ctx, e.Index, e.Input)
	case Backspace:
		f.Backspace(e.Index)
		return nil
	case SubmitPressed:
		return f.Submit(ctx)
	case ResendPressed:
		return f.Resend(ctx)
	}
	return nil
}

// Run consumes events until ctx is done or events is closed. Failures have
// already been surfaced through the notifier; Run only stops early once the
// code is verified.
func (f *Flow) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			err := f.Handle(ctx, ev)
			switch {
			case err == nil:
				if f.Verified() {
					return nil
				}
			case errors.Is(err, domain.ErrSessionLost), errors.Is(err, context.Canceled):
				return err
			default:
				f.log.WithError(err).Debug("event failed")
			}
		}
	}
}

// Verified reports whether the code was accepted.
func (f *Flow) Verified() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}
