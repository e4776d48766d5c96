package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"themtwo/backend/internal/graph"
	"themtwo/backend/internal/live"
	"themtwo/backend/internal/relation"
	"themtwo/backend/internal/state"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *graph.MemoryStore) {
	t.Helper()
	store := graph.NewMemoryStore()
	return NewRouter(NewHandler(store, nil, nil)), store
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createPerson(t *testing.T, router http.Handler, name string) string {
	t.Helper()
	w := do(t, router, "POST", "/api/people", `{"name":"`+name+`","position_x":10,"position_y":20}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[IDResponse](t, w).ID
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(t, router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(t, router, "OPTIONS", "/api/people", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCreatePerson(t *testing.T) {
	router, store := newTestRouter(t)

	id := createPerson(t, router, "  ada lovelace ")

	p, err := store.GetPerson(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.Name)
	assert.Equal(t, 10.0, p.Position.X)
	assert.Equal(t, 20.0, p.Position.Y)

	w := do(t, router, "GET", "/api/people/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ada Lovelace", decode[state.Person](t, w).Name)
}

func TestCreatePerson_Invalid(t *testing.T) {
	router, store := newTestRouter(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{"position_x":1,"position_y":2}`, "name"},
		{"missing position", `{"name":"ann"}`, "position_x"},
		{"blank name", `{"name":"   ","position_x":1,"position_y":2}`, "name"},
		{"malformed json", `{"name":`, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, "POST", "/api/people", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode[ErrorResponse](t, w)
			assert.Equal(t, "validation", resp.Type)
			assert.Equal(t, tt.field, resp.Field)
		})
	}

	people, err := store.ListPeople(context.Background())
	require.NoError(t, err)
	assert.Empty(t, people)
}

func TestPersonUpdates(t *testing.T) {
	router, store := newTestRouter(t)
	id := createPerson(t, router, "ann")

	w := do(t, router, "PUT", "/api/people/"+id+"/position", `{"position_x":125,"position_y":-40}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, "PUT", "/api/people/"+id+"/name", `{"name":"ANN MARIE"}`)
	require.Equal(t, http.StatusOK, w.Code)

	p, err := store.GetPerson(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ann Marie", p.Name)
	assert.Equal(t, 125.0, p.Position.X)
	assert.Equal(t, -40.0, p.Position.Y)

	w = do(t, router, "PUT", "/api/people/"+id+"/name", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownIDs(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{"GET", "/api/people/ghost", ""},
		{"PUT", "/api/people/ghost/position", `{"position_x":1,"position_y":1}`},
		{"PUT", "/api/people/ghost/name", `{"name":"x"}`},
		{"DELETE", "/api/people/ghost", ""},
		{"PUT", "/api/connections/ghost/type", `{"connection_type":"dated"}`},
		{"DELETE", "/api/connections/ghost", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, "stale", decode[ErrorResponse](t, w).Type)
		})
	}
}

func TestConnections(t *testing.T) {
	router, _ := newTestRouter(t)
	a := createPerson(t, router, "ann")
	b := createPerson(t, router, "bo")
	c := createPerson(t, router, "cy")

	w := do(t, router, "POST", "/api/connections", `{"person_a_id":"`+a+`","person_b_id":"`+b+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ab := decode[IDResponse](t, w).ID

	// reversed pair is the same pair
	w = do(t, router, "POST", "/api/connections", `{"person_a_id":"`+b+`","person_b_id":"`+a+`","connection_type":"dated"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, ab, decode[ErrorResponse](t, w).ExistingID)

	w = do(t, router, "POST", "/api/connections", `{"person_a_id":"`+a+`","person_b_id":"`+a+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, "POST", "/api/connections", `{"person_a_id":"`+a+`","person_b_id":"`+c+`","connection_type":"married"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, "POST", "/api/connections", `{"person_a_id":"`+c+`","person_b_id":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, "PUT", "/api/connections/"+ab+"/type", `{"connection_type":"talked"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, "GET", "/api/connections", "")
	require.Equal(t, http.StatusOK, w.Code)
	conns := decode[[]state.Connection](t, w)
	require.Len(t, conns, 1)
	assert.Equal(t, relation.Talked, conns[0].Type)

	w = do(t, router, "GET", "/api/people/"+b+"/connections", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]state.Connection](t, w), 1)

	w = do(t, router, "DELETE", "/api/connections/"+ab, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, "GET", "/api/snapshot", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[state.Snapshot](t, w)
	assert.Len(t, snap.People, 3)
	assert.Empty(t, snap.Connections)
}

func TestDeletePersonCascades(t *testing.T) {
	router, store := newTestRouter(t)
	a := createPerson(t, router, "ann")
	b := createPerson(t, router, "bo")
	c := createPerson(t, router, "cy")
	for _, pair := range [][2]string{{a, b}, {c, a}, {b, c}} {
		w := do(t, router, "POST", "/api/connections", `{"person_a_id":"`+pair[0]+`","person_b_id":"`+pair[1]+`"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := do(t, router, "DELETE", "/api/people/"+a, "")
	require.Equal(t, http.StatusOK, w.Code)

	conns, err := store.ListConnections(context.Background())
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.True(t, conns[0].Links(b, c))
}

type brokenStore struct {
	*graph.MemoryStore
}

func (brokenStore) ListPeople(context.Context) ([]state.Person, error) {
	return nil, errors.New("bolt: connection refused")
}

func TestStoreFailureHidesDetails(t *testing.T) {
	router := NewRouter(NewHandler(brokenStore{graph.NewMemoryStore()}, nil, nil))

	w := do(t, router, "GET", "/api/people", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to list people", decode[ErrorResponse](t, w).Error)
}

func TestLiveDisabledWithoutHub(t *testing.T) {
	router, _ := newTestRouter(t)
	w := do(t, router, "GET", "/api/live", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLiveStreamsWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := live.NewHub(8, nil)
	go hub.Run(ctx)
	publisher := live.NewPublisher(graph.NewMemoryStore(), hub, nil)
	require.NoError(t, publisher.Refresh(ctx))

	srv := httptest.NewServer(NewRouter(NewHandler(publisher, hub, nil)))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/live", nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg live.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, live.MessageTypeSnapshot, msg.Type)
	assert.Empty(t, msg.Data.People)

	resp, err := http.Post(srv.URL+"/api/people", "application/json",
		strings.NewReader(`{"name":"zoe","position_x":0,"position_y":0}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.ReadJSON(&msg))
	require.Len(t, msg.Data.People, 1)
	assert.Equal(t, "Zoe", msg.Data.People[0].Name)
	assert.Equal(t, uint64(2), msg.Data.Version)
}
