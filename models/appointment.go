package models

// Appointment statuses. An appointment is never deleted by a doctor or admin,
// only status-transitioned; patient-initiated cancellation deletes it.
const (
	StatusBooked    = "booked"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is one of the known appointment statuses.
func ValidStatus(s string) bool {
	return s == StatusBooked || s == StatusCompleted || s == StatusCancelled
}

// Appointment is a patient's booking with a doctor for a service. Start is an
// ISO-8601 string; the end is implied by the service duration.
type Appointment struct {
	ID          string      `json:"_id"`
	Patient     *UserRef    `json:"patient,omitempty"`
	Doctor      *UserRef    `json:"doctor,omitempty"`
	Service     *ServiceRef `json:"service,omitempty"`
	Start       string      `json:"start"`
	Status      string      `json:"status"`
	Diagnosis   string      `json:"diagnosis,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	NextVisitAt string      `json:"nextVisitAt,omitempty"`
}

// BookingRequest is the payload for creating an appointment.
type BookingRequest struct {
	ServiceID string `json:"serviceId"`
	DoctorID  string `json:"doctorId"`
	SlotStart string `json:"slotStart"`
}

// AppointmentUpdate carries the doctor-editable fields of an appointment.
type AppointmentUpdate struct {
	Diagnosis   string `json:"diagnosis"`
	Notes       string `json:"notes"`
	Status      string `json:"status"`
	NextVisitAt string `json:"nextVisitAt,omitempty"`
}
