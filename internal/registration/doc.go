// Package registration is the HTTP client for the boarding-house registry backend.
//
// The backend exposes three create endpoints, all taking JSON bodies:
//   - POST /api/owner/: an OwnerRecord, answers {"id": ...}
//   - POST /api/tenant/: a TenantRecord, answers {"id": ...}
//   - POST /api/rooms/: an array of RoomRecord
//
// # Error Handling
//
// Every failure is an *Error with a Type:
//   - ErrTypeValidation: the form was not sent (local problem)
//   - ErrTypeRejected: the backend answered with a non-2xx status; Details
//     holds its reasons, flattened from Django-style field errors
//   - ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS, ErrTypeTransport,
//     ErrTypeParse: the request failed in transit
//
// ShortMessage and TroubleshootingHint turn any of these into text for the
// kiosk screen.
//
// Requests are never retried.
//
// # Usage Example
//
//	client := registration.NewClient("http://127.0.0.1:8000")
//	id, err := client.CreateOwner(ctx, registration.OwnerRecord{
//	    FirstName: "Juan",
//	    LastName:  "Dela Cruz JR.",
//	    Address:   "12 Rizal St.",
//	    Contact:   "09123456789",
//	})
//	if err != nil {
//	    fmt.Println(registration.ShortMessage(err))
//	}
package registration
