package wizard

import (
	"fmt"
	"strconv"

	"github.com/muurk/bhkiosk/internal/form"
	"github.com/muurk/bhkiosk/internal/registration"
	"github.com/muurk/bhkiosk/internal/validation"
)

// StepID identifies a wizard step
type StepID string

const (
	StepOwner   StepID = "owner"
	StepBoarder StepID = "boarder"
	StepRooms   StepID = "rooms"
)

// Routes the kiosk hands off to after a successful submission
const (
	RouteBoardingHouse = "bhregistration"
	RouteGuardian      = "guardianregistration"
	RouteDone          = "done"
)

// Identifier keys threaded into the next route
const (
	KeyOwnerID  = "ownerId"
	KeyTenantID = "tenantId"
)

// Field length limits
const (
	NameMaxLength       = 50
	MiddleMaxLength     = 2
	AgeMaxLength        = 3
	AddressMaxLength    = 120
	RoomNumberMaxLength = 20
	CapacityMaxLength   = 3
)

// MaxRooms bounds the rooms step grid
const MaxRooms = 50

// Step describes one page of the registration sequence.
type Step struct {
	ID       StepID
	Title    string
	Endpoint string
	Fields   []form.Spec
	Route    string // Route handed off to on success
	Key      string // Identifier key carried to Route ("" when none)

	BoardingHouse int // Owning boarding house (boarder and rooms steps)
	Rooms         int // Number of rooms (rooms step)
}

// OwnerStep builds the owner registration step.
func OwnerStep() Step {
	return Step{
		ID:       StepOwner,
		Title:    "Owner Registration",
		Endpoint: registration.OwnerPath,
		Route:    RouteBoardingHouse,
		Key:      KeyOwnerID,
		Fields: []form.Spec{
			{Name: "ownerfirstname", Label: "First Name", Kind: validation.PlainName, MaxLength: NameMaxLength, Required: true},
			{Name: "ownerlastname", Label: "Last Name", Kind: validation.SuffixedName, MaxLength: NameMaxLength, Required: true, Placeholder: "e.g. Dela Cruz Jr."},
			{Name: "owneraddress", Label: "Address", Kind: validation.FreeText, MaxLength: AddressMaxLength},
			{Name: "ownercontact", Label: "Contact Number", Kind: validation.Phone, MaxLength: validation.PhoneLength, Required: true, Placeholder: "09XXXXXXXXX"},
		},
	}
}

// BoarderStep builds the boarder (tenant) registration step for a
// boarding house.
func BoarderStep(boardingHouseID int) Step {
	return Step{
		ID:            StepBoarder,
		Title:         "Boarder Registration",
		Endpoint:      registration.TenantPath,
		Route:         RouteGuardian,
		Key:           KeyTenantID,
		BoardingHouse: boardingHouseID,
		Fields: []form.Spec{
			{Name: "boarderfirstname", Label: "First Name", Kind: validation.PlainName, MaxLength: NameMaxLength, Required: true},
			{Name: "boardermiddlename", Label: "Middle Initial", Kind: validation.MiddleInitial, MaxLength: MiddleMaxLength, Placeholder: "A."},
			{Name: "boarderlastname", Label: "Last Name", Kind: validation.SuffixedName, MaxLength: NameMaxLength, Required: true},
			{Name: "boardergender", Label: "Gender", Kind: validation.PlainName, MaxLength: NameMaxLength, Required: true},
			{Name: "boarderage", Label: "Age", Kind: validation.Digits, MaxLength: AgeMaxLength, Required: true},
			{Name: "boarderaddress", Label: "Address", Kind: validation.FreeText, MaxLength: AddressMaxLength, Required: true},
			{Name: "boardercontactnumber", Label: "Contact Number", Kind: validation.Phone, MaxLength: validation.PhoneLength, Required: true, Placeholder: "09XXXXXXXXX"},
			{Name: "boardercourse_profession", Label: "Course / Profession", Kind: validation.PlainName, MaxLength: NameMaxLength, Required: true},
			{Name: "boarderinstitution", Label: "Institution", Kind: validation.PlainName, MaxLength: NameMaxLength, Required: true},
		},
	}
}

// RoomsStep builds the room capacity grid. Each room contributes a number
// field (prefilled "Room N") and a capacity field that must be at least 1.
func RoomsStep(boardingHouseID, rooms int) Step {
	if rooms < 0 {
		rooms = 0
	}
	if rooms > MaxRooms {
		rooms = MaxRooms
	}

	fields := make([]form.Spec, 0, rooms*2)
	for i := 1; i <= rooms; i++ {
		fields = append(fields,
			form.Spec{Name: RoomNumberField(i), Label: fmt.Sprintf("Room %d Number", i), Kind: validation.FreeText, MaxLength: RoomNumberMaxLength, Required: true},
			form.Spec{Name: CapacityField(i), Label: fmt.Sprintf("Room %d Capacity", i), Kind: validation.Numeric, MaxLength: CapacityMaxLength, Required: true, Min: 1},
		)
	}

	return Step{
		ID:            StepRooms,
		Title:         "Room Information",
		Endpoint:      registration.RoomsPath,
		Route:         RouteDone,
		BoardingHouse: boardingHouseID,
		Rooms:         rooms,
		Fields:        fields,
	}
}

// RoomNumberField returns the field name of room i's number (1-based).
func RoomNumberField(i int) string { return "room_" + strconv.Itoa(i) + "_number" }

// CapacityField returns the field name of room i's capacity (1-based).
func CapacityField(i int) string { return "room_" + strconv.Itoa(i) + "_capacity" }

// NewStore creates the form store for the step with its initial values.
func (s Step) NewStore() *form.Store {
	store := form.New(s.Fields...)
	if s.ID == StepRooms {
		for i := 1; i <= s.Rooms; i++ {
			_ = store.SetField(RoomNumberField(i), fmt.Sprintf("Room %d", i))
		}
	}
	return store
}

// Encode converts a sanitized record into the request body for the step's
// endpoint. Record-level problems are returned alongside the body.
func (s Step) Encode(rec form.Record) (any, []error) {
	switch s.ID {
	case StepOwner:
		return registration.OwnerRecord{
			FirstName: rec["ownerfirstname"],
			LastName:  rec["ownerlastname"],
			Address:   rec["owneraddress"],
			Contact:   rec["ownercontact"],
		}, nil

	case StepBoarder:
		age, _ := strconv.Atoi(rec["boarderage"])
		t := registration.TenantRecord{
			FirstName:        rec["boarderfirstname"],
			MiddleName:       rec["boardermiddlename"],
			LastName:         rec["boarderlastname"],
			Gender:           rec["boardergender"],
			Age:              age,
			Address:          rec["boarderaddress"],
			ContactNumber:    rec["boardercontactnumber"],
			CourseProfession: rec["boardercourse_profession"],
			Institution:      rec["boarderinstitution"],
			BoardingHouse:    s.BoardingHouse,
		}
		return t, registration.ValidateTenant(t)

	case StepRooms:
		rooms := make([]registration.RoomRecord, 0, s.Rooms)
		for i := 1; i <= s.Rooms; i++ {
			capacity, _ := strconv.Atoi(rec[CapacityField(i)])
			rooms = append(rooms, registration.RoomRecord{
				RoomNumber:    rec[RoomNumberField(i)],
				Capacity:      capacity,
				BoardingHouse: s.BoardingHouse,
			})
		}
		return rooms, registration.ValidateRooms(rooms)

	default:
		return nil, []error{fmt.Errorf("unknown step %q", s.ID)}
	}
}
