package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/operating-room-scheduling/internal/config"
	"github.com/hackgods/operating-room-scheduling/internal/surgery"
)

type recorderStub struct {
	mu     sync.Mutex
	events []surgery.Event
}

func (r *recorderStub) Record(_ context.Context, ev surgery.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorderStub) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func testConfig() config.Config {
	return config.Config{
		Env:          "test",
		HTTPPort:     "0",
		HorizonDays:  7,
		WorkingHours: surgery.DefaultWorkingHours,
		Rooms: []config.RoomConfig{
			{ID: 1, Machines: []surgery.Machine{surgery.MachineECG}},
			{ID: 2, Machines: []surgery.Machine{surgery.MachineMRI, surgery.MachineCT}},
		},
	}
}

func serve(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec.Code, out
}

func TestBuildServer_DeliversEventsToSinks(t *testing.T) {
	store, publisher := &recorderStub{}, &recorderStub{}
	s := &sinks{}
	s.add("postgres", store, func(context.Context) error { return nil })
	s.add("redis", publisher, func(context.Context) error { return nil })

	srv, scheduler := buildServer(testConfig(), zerolog.Nop(), s)
	assert.Equal(t, ":0", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)

	code, body := serve(t, srv.Handler, http.MethodPost, "/schedule", `{"doctor_type":"HEART"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "SCHEDULED", body["status"])
	assert.EqualValues(t, 1, body["room_id"])

	assert.Equal(t, []string{surgery.EventSurgeryScheduled}, store.types())
	assert.Equal(t, []string{surgery.EventSurgeryScheduled}, publisher.types())

	rooms := scheduler.Rooms()
	require.Len(t, rooms, 2)
	assert.Len(t, rooms[0].Bookings, 1)
	assert.Empty(t, rooms[1].Bookings)
}

func TestBuildServer_ReadinessListsSinks(t *testing.T) {
	s := &sinks{}
	s.add("postgres", &recorderStub{}, func(context.Context) error { return nil })
	s.add("redis", &recorderStub{}, func(context.Context) error { return errors.New("connection refused") })

	srv, _ := buildServer(testConfig(), zerolog.Nop(), s)

	code, body := serve(t, srv.Handler, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"postgres": "ok", "redis": "down"}, body["dependencies"])
}

func TestBuildServer_WithoutSinks(t *testing.T) {
	s, err := connectSinks(context.Background(), testConfig(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	assert.Empty(t, s.recorders)

	srv, _ := buildServer(testConfig(), zerolog.Nop(), s)

	code, body := serve(t, srv.Handler, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Empty(t, body["dependencies"])

	code, body = serve(t, srv.Handler, http.MethodPost, "/schedule", `{"doctor_type":"BRAIN"}`)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["room_id"])
}

func TestConnectSinks_PostgresFailure(t *testing.T) {
	cfg := testConfig()
	cfg.PostgresDSN = "postgres://%zz"

	_, err := connectSinks(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres connection")
}

func TestSinks_CloseRunsInReverseOrder(t *testing.T) {
	var order []string
	s := &sinks{closers: []func(){
		func() { order = append(order, "postgres") },
		func() { order = append(order, "redis") },
	}}

	s.Close()
	s.Close()
	assert.Equal(t, []string{"redis", "postgres"}, order)
}
