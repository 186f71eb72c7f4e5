// Package wizard defines the registration steps and submits them.
//
// Three steps exist: owner, boarder and rooms. Each Step carries its
// field specs, the endpoint it posts to, and the route it hands off to.
// A Navigator validates a step's form store, posts it once through the
// registration client, and returns the NextStepInput, which carries the
// backend's record id under the step's key ("ownerId", "tenantId").
//
//	step := wizard.BoarderStep(cfg.Kiosk.BoardingHouseID)
//	store := step.NewStore()
//	// ... keystrokes routed into store ...
//	next, err := nav.Submit(ctx, step, store)
//	if err != nil {
//	    // registration.ShortMessage(err) for the screen
//	}
//
// Only one submission may be outstanding per navigator; a second call
// returns ErrSubmitInProgress without sending anything.
package wizard
