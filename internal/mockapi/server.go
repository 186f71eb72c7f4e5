package mockapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/muurk/bhkiosk/internal/logging"
	"github.com/muurk/bhkiosk/internal/registration"
)

// fieldErrors is a Django REST Framework style error body
type fieldErrors map[string][]string

const requiredMsg = "This field is required."

// Backend is an in-memory stand-in for the registration REST API.
type Backend struct {
	mu      sync.Mutex
	nextID  int64
	owners  map[int64]registration.OwnerRecord
	tenants map[int64]registration.TenantRecord
	rooms   []registration.RoomRecord

	// Houses lists the boarding house ids tenants and rooms may reference.
	// Empty means any positive id is accepted.
	Houses []int

	failStatus int
}

// New creates an empty backend
func New() *Backend {
	return &Backend{
		nextID:  1,
		owners:  make(map[int64]registration.OwnerRecord),
		tenants: make(map[int64]registration.TenantRecord),
	}
}

// Router returns the HTTP routes served by the backend
func (b *Backend) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(registration.PingPath, b.handleRoot).Methods("GET")
	r.HandleFunc(registration.OwnerPath, b.handleOwner).Methods("POST")
	r.HandleFunc(registration.TenantPath, b.handleTenant).Methods("POST")
	r.HandleFunc(registration.RoomsPath, b.handleRooms).Methods("POST")
	r.HandleFunc(registration.OwnerPath, b.listOwners).Methods("GET")
	r.HandleFunc(registration.TenantPath, b.listTenants).Methods("GET")
	r.HandleFunc(registration.RoomsPath, b.listRooms).Methods("GET")
	r.Use(logRequests, b.injectFailure)
	return r
}

// SetFailure makes every POST answer with status until cleared with 0
func (b *Backend) SetFailure(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failStatus = status
}

func (b *Backend) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		status := b.failStatus
		b.mu.Unlock()

		if status != 0 && r.Method == http.MethodPost {
			writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Counts returns how many owners, tenants and rooms have been stored
func (b *Backend) Counts() (owners, tenants, rooms int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.owners), len(b.tenants), len(b.rooms)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.Debug("Mock backend request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", r.Header.Get(registration.RequestIDHeader)),
		)
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"owner":  registration.OwnerPath,
		"tenant": registration.TenantPath,
		"rooms":  registration.RoomsPath,
	})
}

func (b *Backend) handleOwner(w http.ResponseWriter, r *http.Request) {
	var owner registration.OwnerRecord
	if !decode(w, r, &owner) {
		return
	}

	errs := fieldErrors{}
	requireField(errs, "ownerfirstname", owner.FirstName)
	requireField(errs, "ownerlastname", owner.LastName)
	requireField(errs, "ownercontact", owner.Contact)
	maxLength(errs, "ownercontact", owner.Contact, 11)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.owners[id] = owner
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, struct {
		ID int64 `json:"id"`
		registration.OwnerRecord
	}{id, owner})
}

func (b *Backend) handleTenant(w http.ResponseWriter, r *http.Request) {
	var tenant registration.TenantRecord
	if !decode(w, r, &tenant) {
		return
	}

	errs := fieldErrors{}
	requireField(errs, "boarderfirstname", tenant.FirstName)
	requireField(errs, "boarderlastname", tenant.LastName)
	requireField(errs, "boardergender", tenant.Gender)
	requireField(errs, "boarderaddress", tenant.Address)
	requireField(errs, "boardercontactnumber", tenant.ContactNumber)
	requireField(errs, "boardercourse_profession", tenant.CourseProfession)
	requireField(errs, "boarderinstitution", tenant.Institution)
	maxLength(errs, "boardercontactnumber", tenant.ContactNumber, 11)
	maxLength(errs, "boardermiddlename", tenant.MiddleName, 2)
	b.checkHouse(errs, "boarding_house", tenant.BoardingHouse)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.tenants[id] = tenant
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, struct {
		ID int64 `json:"id"`
		registration.TenantRecord
	}{id, tenant})
}

func (b *Backend) handleRooms(w http.ResponseWriter, r *http.Request) {
	var rooms []registration.RoomRecord
	if !decode(w, r, &rooms) {
		return
	}

	type created struct {
		ID int64 `json:"id"`
		registration.RoomRecord
	}

	errs := fieldErrors{}
	if len(rooms) == 0 {
		errs["non_field_errors"] = []string{"Expected a list of items but got an empty list."}
	}
	for i, room := range rooms {
		prefix := fmt.Sprintf("%d.", i)
		requireField(errs, prefix+"room_number", room.RoomNumber)
		if room.Capacity <= 0 {
			errs[prefix+"capacity"] = append(errs[prefix+"capacity"], "Ensure this value is greater than or equal to 1.")
		}
		b.checkHouse(errs, prefix+"boarding_house", room.BoardingHouse)
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	b.mu.Lock()
	out := make([]created, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, created{ID: b.nextID, RoomRecord: room})
		b.nextID++
		b.rooms = append(b.rooms, room)
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func (b *Backend) listOwners(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, sortedIDs(b.owners))
}

func (b *Backend) listTenants(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, sortedIDs(b.tenants))
}

func (b *Backend) listRooms(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.rooms)
}

func (b *Backend) checkHouse(errs fieldErrors, key string, id int) {
	if id <= 0 {
		errs[key] = append(errs[key], requiredMsg)
		return
	}
	if len(b.Houses) == 0 {
		return
	}
	for _, h := range b.Houses {
		if h == id {
			return
		}
	}
	errs[key] = append(errs[key], fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
}

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func requireField(errs fieldErrors, key, value string) {
	if value == "" {
		errs[key] = append(errs[key], requiredMsg)
	}
}

func maxLength(errs fieldErrors, key, value string, n int) {
	if len([]rune(value)) > n {
		errs[key] = append(errs[key], fmt.Sprintf("Ensure this field has no more than %d characters.", n))
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err == nil {
		err = json.Unmarshal(body, v)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error - " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
