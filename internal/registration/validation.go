package registration

import (
	"fmt"
	"strings"
)

// Age limits accepted for a boarder
const (
	MinAge = 1
	MaxAge = 120
)

// ValidateBoardingHouse checks that a boarding-house id has been assigned.
func ValidateBoardingHouse(id int) error {
	if id <= 0 {
		return fmt.Errorf("boarding house id must be positive, got %d", id)
	}
	return nil
}

// ValidateTenant runs record-level checks that single fields cannot express.
// Returns a slice of problems (empty if valid).
func ValidateTenant(t TenantRecord) []error {
	var errs []error

	if t.Age < MinAge || t.Age > MaxAge {
		errs = append(errs, fmt.Errorf("boarderage: must be %d-%d, got %d", MinAge, MaxAge, t.Age))
	}
	if err := ValidateBoardingHouse(t.BoardingHouse); err != nil {
		errs = append(errs, fmt.Errorf("boarding_house: %w", err))
	}

	return errs
}

// ValidateRooms checks a room batch before it is posted. Every room needs a
// positive capacity, a unique number, and the same boarding house.
func ValidateRooms(rooms []RoomRecord) []error {
	var errs []error

	if len(rooms) == 0 {
		return append(errs, fmt.Errorf("rooms: at least one room is required"))
	}

	seen := make(map[string]bool, len(rooms))
	house := rooms[0].BoardingHouse
	if err := ValidateBoardingHouse(house); err != nil {
		errs = append(errs, fmt.Errorf("boarding_house: %w", err))
	}

	for _, r := range rooms {
		if r.Capacity <= 0 {
			errs = append(errs, fmt.Errorf("%s: capacity must be at least 1, got %d", r.RoomNumber, r.Capacity))
		}
		if seen[r.RoomNumber] {
			errs = append(errs, fmt.Errorf("%s: duplicate room number", r.RoomNumber))
		}
		seen[r.RoomNumber] = true
		if r.BoardingHouse != house {
			errs = append(errs, fmt.Errorf("%s: belongs to boarding house %d, expected %d", r.RoomNumber, r.BoardingHouse, house))
		}
	}

	return errs
}

// FormatValidationErrors formats a slice of validation errors into a readable string
func FormatValidationErrors(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Validation errors:\n")
	for _, err := range errs {
		b.WriteString("  - ")
		b.WriteString(err.Error())
		b.WriteString("\n")
	}
	return b.String()
}

// RecordValidationError converts record-level problems into a validation Error.
func RecordValidationError(errs []error) *Error {
	if len(errs) == 0 {
		return nil
	}
	fields := make([]string, len(errs))
	for i, err := range errs {
		fields[i] = err.Error()
	}
	return NewValidationError(fields)
}
