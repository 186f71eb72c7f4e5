// Package mockapi is an in-memory registration backend for demos and tests.
//
// It serves the same endpoints as the real backend (POST /api/owner/,
// /api/tenant/ and /api/rooms/), hands out sequential ids, and answers
// missing fields with Django REST Framework style 400 bodies:
//
//	{"ownercontact": ["This field is required."]}
//
// Run it with `bhkiosk mock-backend`.
package mockapi
