package models

import "encoding/json"

// User roles understood by the authority.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// User represents an authenticated account. For doctors, Specialization and
// Services (the offered-services set) are populated; both are empty otherwise.
type User struct {
	ID             string       `json:"_id"`
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	Role           string       `json:"role"`
	Specialization string       `json:"specialization,omitempty"`
	Services       []ServiceRef `json:"services,omitempty"`
}

// OffersService reports whether the doctor's offered-services set contains the
// given service id.
func (u User) OffersService(serviceID string) bool {
	for _, ref := range u.Services {
		if ref.ID == serviceID {
			return true
		}
	}
	return false
}

// UserRef is a reference to a User, either a bare object id or a populated
// document.
type UserRef struct {
	ID   string
	User *User
}

func (r *UserRef) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &r.ID)
	}
	var u User
	if err := json.Unmarshal(b, &u); err != nil {
		return err
	}
	r.ID = u.ID
	r.User = &u
	return nil
}

func (r UserRef) MarshalJSON() ([]byte, error) {
	if r.User != nil {
		return json.Marshal(r.User)
	}
	return json.Marshal(r.ID)
}

// Name returns the user name when the reference is populated, else "".
func (r *UserRef) Name() string {
	if r == nil || r.User == nil {
		return ""
	}
	return r.User.Name
}
