package wizard

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/muurk/bhkiosk/internal/form"
	"github.com/muurk/bhkiosk/internal/logging"
	"github.com/muurk/bhkiosk/internal/registration"
)

// ErrSubmitInProgress is returned when Submit is called while an earlier
// submission has not yet resolved.
var ErrSubmitInProgress = errors.New("a submission is already in progress")

// Backend is the part of registration.Client the navigator needs.
type Backend interface {
	Post(ctx context.Context, path string, body, out any) error
}

// NextStepInput is what a successful submission hands to the next route.
type NextStepInput struct {
	Route   string          // Route to open next
	Key     string          // Identifier key ("ownerId", "tenantId"), empty for the last step
	ID      registration.ID // Identifier returned by the backend
	Payload any             // The body that was posted
}

// Params returns the route parameters, e.g. {"tenantId": 42}.
func (n NextStepInput) Params() map[string]registration.ID {
	if n.Key == "" {
		return nil
	}
	return map[string]registration.ID{n.Key: n.ID}
}

// Navigator submits wizard steps to the backend, one at a time.
type Navigator struct {
	backend  Backend
	inFlight atomic.Bool
}

// NewNavigator creates a navigator that posts through backend.
func NewNavigator(backend Backend) *Navigator {
	return &Navigator{backend: backend}
}

// Busy reports whether a submission is outstanding.
func (n *Navigator) Busy() bool {
	return n.inFlight.Load()
}

// Submit posts the step's form once, provided every field is valid. A
// flagged, missing or out of range field fails with a validation error
// naming the fields and nothing is sent. The store is only read, so a
// failed step can be corrected and submitted again.
func (n *Navigator) Submit(ctx context.Context, step Step, store *form.Store) (NextStepInput, error) {
	if !n.inFlight.CompareAndSwap(false, true) {
		return NextStepInput{}, ErrSubmitInProgress
	}
	defer n.inFlight.Store(false)

	fieldCount := len(step.Fields)

	if invalid := store.Invalid(); len(invalid) > 0 {
		err := registration.NewValidationError(invalid)
		logging.LogSubmission(string(step.ID), fieldCount, err)
		return NextStepInput{}, err
	}

	body, problems := step.Encode(store.Record())
	if len(problems) > 0 {
		err := registration.RecordValidationError(problems)
		logging.LogSubmission(string(step.ID), fieldCount, err)
		return NextStepInput{}, err
	}

	next := NextStepInput{Route: step.Route, Key: step.Key, Payload: body}

	var err error
	if step.Key == "" {
		err = n.backend.Post(ctx, step.Endpoint, body, nil)
	} else {
		var created registration.Created
		err = n.backend.Post(ctx, step.Endpoint, body, &created)
		if err == nil && created.ID == 0 {
			err = registration.NewParseError("response did not include a record id", step.Endpoint, nil)
		}
		next.ID = created.ID
	}

	logging.LogSubmission(string(step.ID), fieldCount, err)
	if err != nil {
		return NextStepInput{}, err
	}
	return next, nil
}
