package cartmutation

import (
	"errors"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Phase is the lifecycle of one mutation key.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSettled    Phase = "settled"
)

// Status is a snapshot of one mutation key. A settled status carries either
// the cart the mutation produced or the error it failed with.
type Status struct {
	Key          string        `json:"key"`
	Phase        Phase         `json:"phase"`
	Intent       domain.Intent `json:"intent,omitempty"`
	IntentKind   string        `json:"intent_kind,omitempty"`
	Cart         *domain.Cart  `json:"cart,omitempty"`
	Err          error         `json:"-"`
	ErrorKind    string        `json:"error_kind,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	SubmittedAt  *time.Time    `json:"submitted_at,omitempty"`
	SettledAt    *time.Time    `json:"settled_at,omitempty"`
}

// Succeeded reports whether the status settled without error.
func (s Status) Succeeded() bool {
	return s.Phase == PhaseSettled && s.Err == nil
}

// Failed reports whether the status settled with an error.
func (s Status) Failed() bool {
	return s.Phase == PhaseSettled && s.Err != nil
}

func idleStatus(key string) Status {
	return Status{Key: key, Phase: PhaseIdle}
}

func (s Status) clone() Status {
	out := s
	out.Cart = s.Cart.Clone()
	if s.Err != nil {
		out.ErrorKind = apperrors.Kind(s.Err)
		out.ErrorMessage = errorMessage(s.Err)
	}
	return out
}

// errorMessage is the message shown next to the triggering control.
func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "cart update failed"
}
