package keyboard

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/muurk/bhkiosk/internal/form"
)

// ErrUnknownField is returned when focusing a field the router does not manage.
var ErrUnknownField = errors.New("field not in keyboard order")

// State is the router's session state.
type State int

const (
	// Idle means the keyboard is hidden and keys are ignored.
	Idle State = iota
	// Editing means keys are routed to the focused field.
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "idle"
}

// KeyType identifies what an on-screen key does.
type KeyType int

const (
	KeyUnknown KeyType = iota
	KeyChar
	KeyDelete
	KeyEnter
	KeyClose
)

// Key is a synthetic keystroke from the on-screen keyboard or a remote keypad.
type Key struct {
	Type KeyType
	Char rune
}

// Char builds a literal character key.
func Char(r rune) Key {
	return Key{Type: KeyChar, Char: r}
}

// Action tells the caller what a key press did.
type Action int

const (
	// ActionNone means the key changed nothing.
	ActionNone Action = iota
	// ActionEdited means the focused field's value was updated.
	ActionEdited
	// ActionAdvance means focus moved to the next field.
	ActionAdvance
	// ActionSubmit means Enter was pressed on the last field; the form should be submitted.
	ActionSubmit
	// ActionClosed means the keyboard was dismissed.
	ActionClosed
)

func (a Action) String() string {
	switch a {
	case ActionEdited:
		return "edited"
	case ActionAdvance:
		return "advance"
	case ActionSubmit:
		return "submit"
	case ActionClosed:
		return "closed"
	default:
		return "none"
	}
}

// Router owns the keyboard session for one form. At most one field is
// edited at a time.
type Router struct {
	store   *form.Store
	order   []string
	state   State
	current int
}

// New creates a router over store. Enter moves through order; when order is
// empty the store's field order is used.
func New(store *form.Store, order ...string) *Router {
	if len(order) == 0 {
		order = store.Names()
	}
	return &Router{
		store: store,
		order: order,
		state: Idle,
	}
}

// State returns the current session state.
func (r *Router) State() State {
	return r.state
}

// Current returns the focused field name, or "" when idle.
func (r *Router) Current() string {
	if r.state != Editing {
		return ""
	}
	return r.order[r.current]
}

// Order returns the fields in Enter order.
func (r *Router) Order() []string {
	return append([]string(nil), r.order...)
}

// Focus starts or moves the keyboard session to field.
func (r *Router) Focus(field string) error {
	for i, name := range r.order {
		if name == field {
			r.current = i
			r.state = Editing
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownField, field)
}

// Close ends the keyboard session. Values already typed are kept.
func (r *Router) Close() {
	r.state = Idle
	r.current = 0
}

// Press routes a single key to the focused field.
func (r *Router) Press(k Key) Action {
	if r.state != Editing {
		return ActionNone
	}
	field := r.order[r.current]

	switch k.Type {
	case KeyChar:
		value := r.store.Field(field)
		if spec, ok := r.store.Spec(field); ok && spec.MaxLength > 0 &&
			utf8.RuneCountInString(value) >= spec.MaxLength {
			return ActionNone
		}
		_ = r.store.SetField(field, value+string(k.Char))
		return ActionEdited

	case KeyDelete:
		value := r.store.Field(field)
		if value == "" {
			return ActionNone
		}
		runes := []rune(value)
		_ = r.store.SetField(field, string(runes[:len(runes)-1]))
		return ActionEdited

	case KeyEnter:
		if r.current+1 < len(r.order) {
			r.current++
			return ActionAdvance
		}
		r.Close()
		return ActionSubmit

	case KeyClose:
		r.Close()
		return ActionClosed
	}

	return ActionNone
}

// ParseKey maps an on-screen key label to a Key. Named keys are matched
// case-insensitively; any other single character is a literal.
func ParseKey(label string) Key {
	switch strings.ToLower(label) {
	case "backspace", "bksp", "delete", "del", "{bksp}":
		return Key{Type: KeyDelete}
	case "enter", "return", "{enter}":
		return Key{Type: KeyEnter}
	case "space", "{space}":
		return Char(' ')
	case "close", "esc", "escape", "{close}":
		return Key{Type: KeyClose}
	}

	if utf8.RuneCountInString(label) == 1 {
		r, _ := utf8.DecodeRuneInString(label)
		return Char(r)
	}
	return Key{Type: KeyUnknown}
}
