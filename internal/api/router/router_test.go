package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assortclinic/clinic-mate/internal/agent"
	"github.com/assortclinic/clinic-mate/internal/api/handlers"
	"github.com/assortclinic/clinic-mate/internal/booking"
	"github.com/assortclinic/clinic-mate/internal/notify"
	"github.com/assortclinic/clinic-mate/internal/store"
	"github.com/assortclinic/clinic-mate/internal/summary"
	"github.com/assortclinic/clinic-mate/pkg/logging"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := store.NewMemoryStore()
	require.NoError(t, store.Seed(context.Background(), st, time.Now()))

	logger := logging.New("error")
	engine := booking.NewEngine(st, logger, time.UTC, 30)
	registry := agent.NewRegistry(agent.Config{
		Store:    st,
		Engine:   engine,
		Renderer: summary.New("Assort Medical Clinic", "Assort Medical Clinic Main Campus"),
		Notifier: notify.NewService(notify.NewStubEmailSender(logger), "Assort Medical Clinic", "", logger),
		History:  agent.NewMemoryHistoryStore(),
		Logger:   logger,
		Location: "Assort Medical Clinic Main Campus",
	})

	srv := httptest.NewServer(New(&Config{
		Calls:   handlers.NewCallsHandler(registry, logger),
		Catalog: handlers.NewCatalogHandler(st, engine, logger),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCallLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/calls", handlers.StartCallRequest{CallID: "call-1"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	started := decode[handlers.StartCallResponse](t, resp)
	assert.Equal(t, "call-1", started.CallID)

	opURL := srv.URL + "/calls/call-1/operations/"
	resp = postJSON(t, opURL+"register_patient", handlers.OperationRequest{Name: "John Smith", DOB: "01/15/1980"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decode[handlers.OperationResponse](t, resp).Reply, "John Smith")

	resp = postJSON(t, opURL+"confirm_information", handlers.OperationRequest{Confirmed: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decode[handlers.OperationResponse](t, resp).Reply, "confirmed")

	resp = postJSON(t, srv.URL+"/calls/call-1/turns", handlers.TurnRequest{Role: "user", Text: "thanks!"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/calls/call-1/end", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ended := decode[handlers.EndCallResponse](t, resp)
	assert.Contains(t, ended.Summary, "John Smith")

	// The call is retired after end.
	resp = postJSON(t, opURL+"get_patient_info", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestOperationUnknownCallAndName(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/calls/nope/operations/get_patient_info", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	postJSON(t, srv.URL+"/calls", handlers.StartCallRequest{CallID: "call-1"}).Body.Close()
	resp = postJSON(t, srv.URL+"/calls/call-1/operations/launch_missiles", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCatalogEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/specialties")
	require.NoError(t, err)
	specialties := decode[map[string][]store.Specialty](t, resp)
	assert.Len(t, specialties["specialties"], 8)

	resp, err = http.Get(srv.URL + "/doctors")
	require.NoError(t, err)
	doctors := decode[map[string][]store.Doctor](t, resp)
	require.Len(t, doctors["doctors"], 16)

	var cardiologyID int64
	for _, s := range specialties["specialties"] {
		if s.Name == "Cardiology" {
			cardiologyID = s.ID
		}
	}
	resp, err = http.Get(fmt.Sprintf("%s/doctors?specialty_id=%d", srv.URL, cardiologyID))
	require.NoError(t, err)
	filtered := decode[map[string][]store.Doctor](t, resp)
	assert.Len(t, filtered["doctors"], 2)

	doctorID := doctors["doctors"][0].ID
	resp, err = http.Get(fmt.Sprintf("%s/doctors/%d/slots?limit=5", srv.URL, doctorID))
	require.NoError(t, err)
	slots := decode[map[string][]booking.Slot](t, resp)
	assert.NotEmpty(t, slots["slots"])

	resp, err = http.Get(srv.URL + "/doctors/99999/slots")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
