package registration

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// OwnerRecord is the body of POST /api/owner/.
type OwnerRecord struct {
	FirstName string `json:"ownerfirstname"`
	LastName  string `json:"ownerlastname"`
	Address   string `json:"owneraddress"`
	Contact   string `json:"ownercontact"`
}

// TenantRecord is the body of POST /api/tenant/.
type TenantRecord struct {
	FirstName        string `json:"boarderfirstname"`
	MiddleName       string `json:"boardermiddlename"`
	LastName         string `json:"boarderlastname"`
	Gender           string `json:"boardergender"`
	Age              int    `json:"boarderage"`
	Address          string `json:"boarderaddress"`
	ContactNumber    string `json:"boardercontactnumber"`
	CourseProfession string `json:"boardercourse_profession"`
	Institution      string `json:"boarderinstitution"`
	BoardingHouse    int    `json:"boarding_house"`
}

// RoomRecord is one element of the POST /api/rooms/ array.
type RoomRecord struct {
	RoomNumber    string `json:"room_number"`
	Capacity      int    `json:"capacity"`
	BoardingHouse int    `json:"boarding_house"`
}

// Created is the part of a create response the kiosk needs.
// The backend returns the full record; only the id is threaded forward.
type Created struct {
	ID ID `json:"id"`
}

// ID is a backend record identifier. It accepts both JSON numbers and
// numeric strings.
type ID int64

// UnmarshalJSON implements json.Unmarshaler
func (id *ID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		n = json.Number(s)
	}
	v, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return fmt.Errorf("id %q is not an integer", n)
	}
	*id = ID(v)
	return nil
}

// String returns the decimal form of the id
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}
