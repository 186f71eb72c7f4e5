// Package tui implements the full-screen kiosk interface for boarding house
// registration.
//
// The kiosk is a Bubble Tea program driven by three kinds of input that all
// end up in the same place: the physical keyboard, taps on the on-screen
// keyboard (mouse events resolved through bubblezone), and a remote keypad
// connected over WebSocket. Every key press goes through keyboard.Router, so
// a field receives the same characters whichever device typed them.
//
// # Architecture
//
// AppModel coordinates the screens:
//   - Menu: pick owner, boarder or rooms registration, or change server
//   - Discovery: find the registration server over mDNS or type its address
//   - Form: one wizard step with its fields, keyboard and Submit button
//   - Success/Failure: the result of a submission
//   - Done: shown after the rooms step
//
// All screens render inside RenderApplicationContainer, which draws the
// header, the content area and a footer with context help.
//
// # Usage Example
//
//	app := tui.NewAppModel(tui.Options{
//	    KioskName:       "Front desk",
//	    BoardingHouseID: 3,
//	    Rooms:           4,
//	    BackendURL:      "http://192.168.1.20:8000",
//	})
//	program := tui.NewProgram(app)
//	srv := keypad.New(keypad.Config{Listen: ":8765"}, tui.KeypadSink(program.Send))
//	go srv.Start(ctx)
//
//	if _, err := program.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Screen Flow
//
//  1. Owner registration posts the owner and continues with room setup.
//  2. Boarder registration posts the tenant and hands off to guardian
//     registration at the front desk.
//  3. Room setup posts every room and ends on the Done screen.
//
// A failed submission keeps every entry. The Failure screen offers retry,
// edit and menu. Validation failures never reach the server; the form
// stays open with the offending fields flagged.
//
// # Key Bindings
//
//   - Menu: ↑/↓ navigate, Enter start, q quit
//   - Form (browsing): ↑/↓ move, Enter type, s submit, Esc menu
//   - Form (typing): Enter next field, Backspace erase, Esc close keyboard
//   - Success: Enter continue, m menu
//   - Failure: r retry, e edit, m menu
//
// ctrl+c quits from anywhere. While a submission is in flight the form
// ignores all input.
//
// # Thread Safety
//
// Remote keypad events arrive on server goroutines and are passed to the
// program with Program.Send, so all model updates happen on the Bubble Tea
// goroutine.
package tui
