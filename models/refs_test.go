package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceRefDecodesBareID(t *testing.T) {
	var ref ServiceRef
	require.NoError(t, json.Unmarshal([]byte(`"svc-1"`), &ref))
	assert.Equal(t, "svc-1", ref.ID)
	assert.Nil(t, ref.Service)
	assert.Empty(t, ref.Name())
}

func TestServiceRefDecodesPopulatedDocument(t *testing.T) {
	var ref ServiceRef
	raw := `{"_id":"svc-1","name":"Checkup","durationMin":30,"fee":25}`
	require.NoError(t, json.Unmarshal([]byte(raw), &ref))
	assert.Equal(t, "svc-1", ref.ID)
	require.NotNil(t, ref.Service)
	assert.Equal(t, "Checkup", ref.Name())
}

func TestUserRefRoundTrip(t *testing.T) {
	var doctor UserRef
	raw := `{"_id":"doc-1","name":"Dr. Bat","role":"doctor","services":["svc-1",{"_id":"svc-2","name":"X-ray","durationMin":15}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &doctor))
	require.NotNil(t, doctor.User)
	assert.Equal(t, "Dr. Bat", doctor.Name())
	require.Len(t, doctor.User.Services, 2)
	assert.Equal(t, "svc-1", doctor.User.Services[0].ID)
	assert.Equal(t, "X-ray", doctor.User.Services[1].Name())

	// A bare ref marshals back to a bare id.
	bare := UserRef{ID: "doc-1"}
	out, err := json.Marshal(bare)
	require.NoError(t, err)
	assert.Equal(t, `"doc-1"`, string(out))
}

func TestOffersService(t *testing.T) {
	doc := User{
		Role:     RoleDoctor,
		Services: []ServiceRef{{ID: "svc-1"}, {ID: "svc-2"}},
	}
	assert.True(t, doc.OffersService("svc-2"))
	assert.False(t, doc.OffersService("svc-3"))
}

func TestAppointmentDecodesPopulatedRefs(t *testing.T) {
	raw := `{
		"_id": "appt-1",
		"patient": {"_id":"pat-1","name":"Ana","role":"patient"},
		"doctor": "doc-1",
		"service": {"_id":"svc-1","name":"Checkup","durationMin":30},
		"start": "2026-05-01T09:00:00Z",
		"status": "booked"
	}`
	var appt Appointment
	require.NoError(t, json.Unmarshal([]byte(raw), &appt))
	assert.Equal(t, "Ana", appt.Patient.Name())
	assert.Equal(t, "doc-1", appt.Doctor.ID)
	assert.Empty(t, appt.Doctor.Name())
	assert.Equal(t, "Checkup", appt.Service.Name())
	assert.True(t, ValidStatus(appt.Status))
}
