package models

import "encoding/json"

// Service represents a clinic-offered service (admin managed).
type Service struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	DurationMin int     `json:"durationMin"`
	Fee         float64 `json:"fee"`
}

// ServiceRef is a reference to a Service. The authority returns either a bare
// object id or a populated service document depending on the endpoint, so both
// shapes decode into the same type.
type ServiceRef struct {
	ID      string
	Service *Service
}

func (r *ServiceRef) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &r.ID)
	}
	var s Service
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	r.ID = s.ID
	r.Service = &s
	return nil
}

func (r ServiceRef) MarshalJSON() ([]byte, error) {
	if r.Service != nil {
		return json.Marshal(r.Service)
	}
	return json.Marshal(r.ID)
}

// Name returns the service name when the reference is populated, else "".
func (r *ServiceRef) Name() string {
	if r == nil || r.Service == nil {
		return ""
	}
	return r.Service.Name
}
