package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/muurk/bhkiosk/internal/form"
	"github.com/muurk/bhkiosk/internal/validation"
)

// ErrAborted is returned when the user interrupts a prompt (Ctrl+C).
var ErrAborted = errors.New("registration aborted")

// InputConfig configures a single text prompt
type InputConfig struct {
	Message   string
	Default   string
	Help      string
	Validator func(string) error
}

// ConfirmConfig configures a yes/no prompt
type ConfirmConfig struct {
	Message string
	Default bool
}

// Prompter asks line-mode questions. The survey implementation needs a
// terminal; tests supply a scripted one.
type Prompter interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
}

type surveyPrompter struct{}

// NewSurveyPrompter returns a Prompter backed by survey.
func NewSurveyPrompter() Prompter {
	return surveyPrompter{}
}

func (surveyPrompter) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	prompt := &survey.Input{
		Message: cfg.Message,
		Default: cfg.Default,
		Help:    cfg.Help,
	}
	var opts []survey.AskOpt
	if cfg.Validator != nil {
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			s, _ := ans.(string)
			return cfg.Validator(s)
		}))
	}

	var out string
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		return "", mapSurveyError(err)
	}
	return out, nil
}

func (surveyPrompter) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	if err := survey.AskOne(&survey.Confirm{Message: cfg.Message, Default: cfg.Default}, &out); err != nil {
		return false, mapSurveyError(err)
	}
	return out, nil
}

func mapSurveyError(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

// FieldHint describes what a field of the given kind accepts
func FieldHint(kind validation.Kind) string {
	switch kind {
	case validation.PlainName:
		return "Letters and spaces only"
	case validation.SuffixedName:
		return "Letters and spaces; may end in a suffix such as Jr. or III"
	case validation.Phone:
		return fmt.Sprintf("%d digits starting with %s", validation.PhoneLength, validation.PhonePrefix)
	case validation.MiddleInitial:
		return "One letter, optionally followed by a period"
	case validation.Numeric:
		return "A whole number"
	case validation.Digits:
		return "Digits only"
	default:
		return ""
	}
}

// FieldValidator returns the prompt validator for one store field. It
// applies the same rule the store does, without storing the answer.
func FieldValidator(store *form.Store, spec form.Spec) func(string) error {
	return func(answer string) error {
		clean, valid, err := store.Check(spec.Name, answer)
		if err != nil {
			return err
		}
		if valid {
			return nil
		}
		if clean == "" && spec.Required {
			return fmt.Errorf("%s is required", spec.Label)
		}
		if spec.Kind == validation.Numeric && spec.Min != 0 {
			return fmt.Errorf("%s must be at least %d", spec.Label, spec.Min)
		}
		if hint := FieldHint(spec.Kind); hint != "" {
			return fmt.Errorf("%s is not valid: %s", spec.Label, hint)
		}
		return fmt.Errorf("%s is not valid", spec.Label)
	}
}

// FillForm prompts for every field of store in form order and stores each
// accepted answer. The current value is offered as the default.
func FillForm(ctx context.Context, p Prompter, store *form.Store) error {
	for _, spec := range store.Specs() {
		message := spec.Label
		if !spec.Required {
			message += " (optional)"
		}
		answer, err := p.Input(ctx, InputConfig{
			Message:   message + ":",
			Default:   store.Field(spec.Name),
			Help:      FieldHint(spec.Kind),
			Validator: FieldValidator(store, spec),
		})
		if err != nil {
			return err
		}
		if err := store.SetField(spec.Name, answer); err != nil {
			return err
		}
	}
	return nil
}

// ConfirmSubmit shows the sanitized values and asks whether to send them
func ConfirmSubmit(ctx context.Context, p Prompter, printer *Printer, title string, store *form.Store) (bool, error) {
	details := make(map[string]string)
	for _, spec := range store.Specs() {
		if v := store.Field(spec.Name); v != "" {
			details[spec.Label] = v
		}
	}
	printer.Newline()
	printer.PrintWarning("Review "+title, details)
	return p.Confirm(ctx, ConfirmConfig{Message: "Submit these details?", Default: true})
}
