// Package form holds the field values and error flags of a single wizard step.
//
// A Store is created when a step is entered and discarded when the kiosk
// moves on. Values only change through SetField, which runs them through the
// validation package, so a stored value is always sanitized. Invalid is the
// submit-time check: it reports flagged fields, missing required fields and
// numeric fields below their minimum (a room with zero capacity, for example)
// without touching the store. Revalidate flags the same fields for display.
package form
