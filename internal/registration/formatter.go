package registration

import (
	"fmt"
	"strings"
)

// FullName joins first and last name
func (o OwnerRecord) FullName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

// Summary returns a one-line summary of the owner
func (o OwnerRecord) Summary() string {
	return fmt.Sprintf("Owner %s (%s)", o.FullName(), o.Contact)
}

// Details returns labelled values for result screens
func (o OwnerRecord) Details() map[string]string {
	return map[string]string{
		"Name":    o.FullName(),
		"Address": o.Address,
		"Contact": o.Contact,
	}
}

// FullName joins first, middle initial and last name
func (t TenantRecord) FullName() string {
	parts := []string{t.FirstName}
	if t.MiddleName != "" {
		parts = append(parts, t.MiddleName)
	}
	parts = append(parts, t.LastName)
	return strings.Join(parts, " ")
}

// Summary returns a one-line summary of the boarder
func (t TenantRecord) Summary() string {
	return fmt.Sprintf("Boarder %s, %d (%s)", t.FullName(), t.Age, t.Institution)
}

// Details returns labelled values for result screens
func (t TenantRecord) Details() map[string]string {
	return map[string]string{
		"Name":        t.FullName(),
		"Gender":      t.Gender,
		"Age":         fmt.Sprintf("%d", t.Age),
		"Contact":     t.ContactNumber,
		"Course":      t.CourseProfession,
		"Institution": t.Institution,
	}
}

// FormatRooms returns a small table of room capacities
func FormatRooms(rooms []RoomRecord) string {
	var b strings.Builder

	total := 0
	for _, r := range rooms {
		b.WriteString(fmt.Sprintf("%-12s capacity %d\n", r.RoomNumber, r.Capacity))
		total += r.Capacity
	}
	b.WriteString(fmt.Sprintf("%d room(s), %d bed(s) total\n", len(rooms), total))

	return b.String()
}
