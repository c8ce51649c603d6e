package models

// Slot is a single bookable window in a doctor's schedule. Start and End are
// ISO-8601 strings exactly as the authority returns them; they are parsed only
// at the point of use so one malformed slot cannot poison a whole schedule.
//
// Slots carry no server-issued id: the authority identifies them structurally
// by start+end and positionally by index within the schedule. Deletion is by
// index against a freshly fetched schedule, which is a known stopgap until the
// authority assigns stable slot ids.
type Slot struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Booked bool   `json:"booked"`
}

// SlotRange is the payload shape for appending new slots to a schedule.
type SlotRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Schedule is a doctor's full slot list. Slots keep the server's insertion
// order, which is not necessarily chronological. A schedule is replaced
// wholesale on every fetch; the client never patches it in place.
type Schedule struct {
	ID       string `json:"_id"`
	DoctorID string `json:"doctor"`
	Slots    []Slot `json:"slots"`
}
