package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinicbook/api"
	"clinicbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL, staticToken(token), zap.NewNop())
}

func TestBearerAndRequestIDHeadersAttached(t *testing.T) {
	var gotAuth, gotRequestID string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}, "tok-123")

	_, err := client.Services(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestAnonymousClientSendsNoAuthHeader(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("[]"))
	}, "")

	_, err := client.Services(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func errorHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		check   func(error) bool
		message string
	}{
		{"bad request", 400, `{"message":"serviceId is required"}`, api.IsValidation, "serviceId is required"},
		{"unauthorized", 401, `{"message":"missing bearer token"}`, api.IsAuth, ""},
		{"forbidden", 403, `{"message":"requires admin role"}`, api.IsAuth, ""},
		{"not found", 404, `{"message":"slot not found"}`, api.IsNotFound, "slot not found"},
		{"conflict", 409, `{"message":"slot already booked"}`, api.IsConflict, "slot already booked"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, errorHandler(tc.status, tc.body), "tok")
			_, err := client.Book(context.Background(), models.BookingRequest{
				ServiceID: "s", DoctorID: "d", SlotStart: "2026-01-01T09:00:00Z",
			})
			require.Error(t, err)
			assert.True(t, tc.check(err))
			if tc.message != "" {
				assert.Equal(t, tc.message, err.Error())
			}
		})
	}
}

func TestErrorEnvelopeFallbacks(t *testing.T) {
	// Some endpoints use "error" instead of "message".
	client := newTestClient(t, errorHandler(500, `{"error":"boom"}`), "tok")
	_, err := client.Services(context.Background())
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "boom", apiErr.Message)

	// No body at all still produces a usable message.
	client = newTestClient(t, errorHandler(503, ""), "tok")
	_, err = client.Services(context.Background())
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "503")
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := api.NewClient(url, nil, zap.NewNop())
	_, err := client.Services(context.Background())

	var netErr *api.NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestSuccessfulDecode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/schedules/doctor/doc-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"_id":"sched-1","doctor":"doc-1","slots":[{"start":"2026-01-01T09:00:00Z","end":"2026-01-01T09:30:00Z","booked":true}]}`))
	}, "tok")

	sched, err := client.DoctorSchedule(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "sched-1", sched.ID)
	require.Len(t, sched.Slots, 1)
	assert.True(t, sched.Slots[0].Booked)
}
