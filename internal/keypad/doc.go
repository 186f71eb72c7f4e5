// Package keypad lets a phone or tablet on the LAN act as the kiosk's
// keyboard.
//
// The server exposes two endpoints:
//
//	GET /healthz   JSON status
//	GET /keypad    WebSocket
//
// On connect the server sends {"type":"hello","session":"<uuid>"}. Each
// client frame is one JSON message:
//
//	{"type":"focus","field":"boarderfirstname"}
//	{"type":"key","key":"A"}          // also "Backspace", "Enter", "Space", "Close"
//	{"type":"close"}
//
// and receives exactly one reply, {"type":"ack"} or
// {"type":"error","error":"..."}. Decoded events go to a Sink; the kiosk's
// TUI forwards them into its Bubble Tea program.
package keypad
