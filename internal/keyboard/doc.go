// Package keyboard routes on-screen keyboard presses to form fields.
//
// The kiosk has no physical keyboard. A Router tracks which field owns the
// keyboard (Idle or Editing) and feeds each synthetic key through the form
// store, so every keystroke is re-validated:
//
//	r := keyboard.New(store)
//	_ = r.Focus("ownerfirstname")
//	r.Press(keyboard.Char('j'))
//	switch r.Press(keyboard.ParseKey("Enter")) {
//	case keyboard.ActionAdvance:
//	    // focus moved to the next field
//	case keyboard.ActionSubmit:
//	    // last field confirmed, submit the step
//	}
package keyboard
