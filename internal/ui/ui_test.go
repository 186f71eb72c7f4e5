package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/bhkiosk/internal/form"
	"github.com/muurk/bhkiosk/internal/registration"
	"github.com/muurk/bhkiosk/internal/validation"
)

// scriptedPrompter answers Input prompts from a queue. An answer the
// validator rejects is recorded and the next one is tried, like a user
// retyping.
type scriptedPrompter struct {
	answers  []string
	confirm  bool
	asked    []InputConfig
	rejected []string
	err      error
}

func (p *scriptedPrompter) Input(ctx context.Context, cfg InputConfig) (string, error) {
	p.asked = append(p.asked, cfg)
	for len(p.answers) > 0 {
		answer := p.answers[0]
		p.answers = p.answers[1:]
		if cfg.Validator != nil {
			if err := cfg.Validator(answer); err != nil {
				p.rejected = append(p.rejected, err.Error())
				continue
			}
		}
		return answer, nil
	}
	if p.err != nil {
		return "", p.err
	}
	return "", fmt.Errorf("no answer left for %q", cfg.Message)
}

func (p *scriptedPrompter) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	return p.confirm, p.err
}

func ownerStore() *form.Store {
	return form.New(
		form.Spec{Name: "ownerfirstname", Label: "First name", Kind: validation.PlainName, MaxLength: 50, Required: true},
		form.Spec{Name: "ownerlastname", Label: "Last name", Kind: validation.SuffixedName, MaxLength: 50, Required: true},
		form.Spec{Name: "owneraddress", Label: "Address", Kind: validation.FreeText, MaxLength: 120},
		form.Spec{Name: "ownercontact", Label: "Contact number", Kind: validation.Phone, MaxLength: 11, Required: true},
	)
}

func TestFillForm(t *testing.T) {
	store := ownerStore()
	p := &scriptedPrompter{answers: []string{
		"", "juan",
		"dela cruz jr.",
		"",
		"0912", "09123456789",
	}}

	require.NoError(t, FillForm(context.Background(), p, store))

	assert.Equal(t, "Juan", store.Field("ownerfirstname"))
	assert.Equal(t, "Dela Cruz JR.", store.Field("ownerlastname"))
	assert.Equal(t, "", store.Field("owneraddress"))
	assert.Equal(t, "09123456789", store.Field("ownercontact"))
	assert.True(t, store.AllValid())

	require.Len(t, p.asked, 4)
	assert.Equal(t, "Address (optional):", p.asked[2].Message)
	assert.Equal(t, FieldHint(validation.Phone), p.asked[3].Help)
	assert.Equal(t, []string{
		"First name is required",
		"Contact number is not valid: 11 digits starting with 09",
	}, p.rejected)
}

func TestFillForm_DefaultsToCurrentValue(t *testing.T) {
	store := form.New(
		form.Spec{Name: "room_1_number", Label: "Room 1", Kind: validation.FreeText, Required: true},
		form.Spec{Name: "room_1_capacity", Label: "Capacity", Kind: validation.Numeric, Min: 1},
	)
	require.NoError(t, store.SetField("room_1_number", "Room 1"))

	p := &scriptedPrompter{answers: []string{"Room 1", "0", "2"}}
	require.NoError(t, FillForm(context.Background(), p, store))

	assert.Equal(t, "Room 1", p.asked[0].Default)
	assert.Equal(t, "0", p.asked[1].Default)
	assert.Equal(t, []string{"Capacity must be at least 1"}, p.rejected)
	assert.Equal(t, "2", store.Field("room_1_capacity"))
}

func TestFillForm_Aborted(t *testing.T) {
	store := ownerStore()
	p := &scriptedPrompter{answers: []string{"Juan"}, err: ErrAborted}

	err := FillForm(context.Background(), p, store)
	assert.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, "Juan", store.Field("ownerfirstname"), "answers before the abort are kept")
}

func TestFieldValidator_UnknownField(t *testing.T) {
	validate := FieldValidator(ownerStore(), form.Spec{Name: "missing", Label: "Missing"})
	assert.ErrorIs(t, validate("x"), form.ErrUnknownField)
}

func TestConfirmSubmit(t *testing.T) {
	store := ownerStore()
	require.NoError(t, store.SetField("ownerfirstname", "juan"))

	var out bytes.Buffer
	printer := NewPrinter(&out).SetWidth(80)
	ok, err := ConfirmSubmit(context.Background(), &scriptedPrompter{confirm: true}, printer, "Owner Registration", store)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Review Owner Registration")
	assert.Contains(t, out.String(), "Juan")
	assert.NotContains(t, out.String(), "Contact number", "empty fields are not listed")
}

func TestHeader_ParamsInKeyOrder(t *testing.T) {
	h := NewHeader("Owner Registration", "bhkiosk register owner --plain", map[string]string{
		"Kiosk":   "Front desk",
		"Backend": "http://127.0.0.1:8000",
	}).SetWidth(80)

	out := h.Render()
	assert.Contains(t, out, "OWNER REGISTRATION")
	assert.Less(t, strings.Index(out, "Backend:"), strings.Index(out, "Kiosk:"))
	assert.Equal(t, 80, lipgloss.Width(out))
}

func TestHeader_ClampsNarrowWidth(t *testing.T) {
	out := NewHeader("Rooms", "", nil).SetWidth(20).Render()
	assert.Equal(t, MinTerminalWidth, lipgloss.Width(out))
}

func TestNewSubmitFailure(t *testing.T) {
	err := registration.NewRejectedError(http.StatusBadRequest, registration.OwnerPath,
		[]byte(`{"ownercontact": ["Ensure this field has no more than 11 characters."]}`))

	r := NewSubmitFailure(err)
	assert.Equal(t, ResultFailure, r.Type)
	assert.Equal(t, "Registration was not accepted (HTTP 400)", r.Title)
	assert.Contains(t, r.Troubleshooting, "ownercontact: Ensure this field has no more than 11 characters.")
	for _, tip := range r.Troubleshooting {
		assert.NotContains(t, tip, "•")
	}

	out := r.SetWidth(80).Render()
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "Troubleshooting:")
}

func TestNewSubmitFailure_PlainError(t *testing.T) {
	r := NewSubmitFailure(errors.New("boom"))
	assert.Equal(t, "boom", r.Title)
	assert.Equal(t, []string{"An unexpected error occurred. Please try again."}, r.Troubleshooting)
}

func TestResult_DetailsSorted(t *testing.T) {
	out := NewSuccessResult("Owner saved", map[string]string{"Owner ID": "7", "Duration": "12ms"}).
		SetWidth(80).Render()
	assert.Contains(t, out, "SAVED")
	assert.Less(t, strings.Index(out, "Duration:"), strings.Index(out, "Owner ID:"))
}

func TestProgress_UpdateStep(t *testing.T) {
	p := NewProgress("Submitting", "Check entries", "Send", "Next step").SetWidth(80)

	p.UpdateStep(1, StepRunning, "")
	assert.Equal(t, 1, p.Current)
	assert.Zero(t, p.Percent)

	p.UpdateStep(1, StepComplete, "4 fields")
	p.UpdateStep(2, StepSkipped, "")
	assert.InDelta(t, 2.0/3.0, p.Percent, 0.001)

	p.UpdateStep(9, StepComplete, "")
	p.UpdateStep(0, StepComplete, "")
	assert.InDelta(t, 2.0/3.0, p.Percent, 0.001, "out-of-range steps are ignored")

	out := p.Render()
	assert.Contains(t, out, "Submitting")
	assert.Contains(t, out, "[1/3] Check entries")
	assert.Contains(t, out, "(4 fields)")
	assert.Contains(t, out, StepMarkerSkipped)
}

func TestRunner_Success(t *testing.T) {
	var out bytes.Buffer
	runner := NewRunner(RunnerConfig{
		Title:     "Owner Registration",
		Command:   "bhkiosk register owner --plain",
		StepNames: []string{"Check entries", "Send to registration server"},
		Output:    &out,
	}).SetWidth(80)

	details, err := runner.Run(context.Background(), func(onStep StepCallback) (map[string]string, error) {
		onStep(1, StepRunning, "")
		onStep(1, StepComplete, "3 fields")
		onStep(2, StepComplete, "")
		onStep(7, StepComplete, "")
		return map[string]string{"Owner ID": "1"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "1", details["Owner ID"])
	assert.Contains(t, details, "Duration")

	text := out.String()
	assert.Contains(t, text, "OWNER REGISTRATION")
	assert.Contains(t, text, "(3 fields)")
	assert.Contains(t, text, "Owner Registration saved")
}

func TestRunner_Failure(t *testing.T) {
	var out bytes.Buffer
	runner := NewRunner(RunnerConfig{Title: "Rooms", StepNames: []string{"Send"}, Output: &out}).SetWidth(80)

	want := registration.NewValidationError([]string{"room_2_capacity"})
	_, err := runner.Run(context.Background(), func(onStep StepCallback) (map[string]string, error) {
		onStep(1, StepFailed, "")
		return nil, want
	})

	assert.Same(t, want, err)
	assert.Contains(t, out.String(), "Please correct the highlighted fields")
	assert.Contains(t, out.String(), "room_2_capacity")
}

func TestRunner_CancelledContext(t *testing.T) {
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := NewRunner(RunnerConfig{Title: "Rooms", Output: &out}).Run(ctx, func(StepCallback) (map[string]string, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Contains(t, out.String(), "ROOMS", "header is printed before the context check")
}

func TestRunner_PrintHeaderOnce(t *testing.T) {
	var out bytes.Buffer
	runner := NewRunner(RunnerConfig{Title: "Boarder Registration", Output: &out}).SetWidth(80)
	runner.PrintHeader()
	_, err := runner.Run(context.Background(), func(StepCallback) (map[string]string, error) { return nil, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out.String(), "BOARDER REGISTRATION"))
}
