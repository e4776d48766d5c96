package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"themtwo/backend/internal/api"
	"themtwo/backend/internal/board"
	"themtwo/backend/internal/geometry"
	"themtwo/backend/internal/graph"
	"themtwo/backend/internal/live"
	"themtwo/backend/internal/relation"
	"themtwo/backend/internal/selection"
	"themtwo/backend/internal/state"
	"themtwo/backend/internal/viewport"
	apperrors "themtwo/backend/pkg/errors"
)

type testServer struct {
	*httptest.Server
	store *graph.MemoryStore
	hub   *live.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	store := graph.NewMemoryStore()
	hub := live.NewHub(8, nil)
	go hub.Run(ctx)

	publisher := live.NewPublisher(store, hub, nil)
	require.NoError(t, publisher.Refresh(ctx))

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(publisher, hub, nil)))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &testServer{Server: srv, store: store, hub: hub}
}

func newTestClient(t *testing.T, srv *testServer) *Client {
	t.Helper()
	c, err := New(srv.URL, nil)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com", nil)
	assert.Error(t, err)
	_, err = New("://nope", nil)
	assert.Error(t, err)
}

func TestClient_RoundTrip(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	a, err := c.CreatePerson(ctx, "ann", 10, 20)
	require.NoError(t, err)
	b, err := c.CreatePerson(ctx, "bo", 30, 40)
	require.NoError(t, err)

	require.NoError(t, c.UpdatePersonPosition(ctx, a, 125, 125))
	require.NoError(t, c.RenamePerson(ctx, b, "bo diddley"))

	person, err := c.GetPerson(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, geometry.Pt(125, 125), person.Position)

	cid, err := c.CreateConnection(ctx, a, b, relation.Kissed)
	require.NoError(t, err)
	require.NoError(t, c.UpdateConnectionType(ctx, cid, relation.Dated))

	people, err := c.ListPeople(ctx)
	require.NoError(t, err)
	assert.Len(t, people, 2)

	conns, err := c.ConnectionsForPerson(ctx, b)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, relation.Dated, conns[0].Type)

	snap, err := c.Snapshot(ctx)
	require.NoError(t, err)
	got, ok := snap.Person(b)
	require.True(t, ok)
	assert.Equal(t, "Bo Diddley", got.Name)

	require.NoError(t, c.DeleteConnection(ctx, cid))
	require.NoError(t, c.DeletePerson(ctx, a))

	conns, err = c.ListConnections(ctx)
	require.NoError(t, err)
	assert.Empty(t, conns)
}

func TestClient_ErrorCategories(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.CreatePerson(ctx, "   ", 0, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))

	err = c.RenamePerson(ctx, "ghost", "x")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	a, err := c.CreatePerson(ctx, "ann", 0, 0)
	require.NoError(t, err)
	b, err := c.CreatePerson(ctx, "bo", 0, 0)
	require.NoError(t, err)
	first, err := c.CreateConnection(ctx, a, b, relation.Kissed)
	require.NoError(t, err)

	_, err = c.CreateConnection(ctx, b, a, relation.Talked)
	var dup *apperrors.ErrDuplicateConnection
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, first, dup.ExistingID)
}

func TestClient_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.ListPeople(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))

	var reqErr *apperrors.ErrRequestFailed
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusBadGateway, reqErr.Status)
}

func receive(t *testing.T, ch <-chan *state.Snapshot) *state.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "live channel closed")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestClient_Subscribe(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)
	ctx, cancel := context.WithCancel(context.Background())

	snapshots, err := c.Subscribe(ctx)
	require.NoError(t, err)

	first := receive(t, snapshots)
	assert.Empty(t, first.People)

	_, err = c.CreatePerson(context.Background(), "zoe", 0, 0)
	require.NoError(t, err)
	next := receive(t, snapshots)
	require.Len(t, next.People, 1)
	assert.Greater(t, next.Version, first.Version)

	cancel()
	for range snapshots {
	}
}

func TestClient_DrivesBoard(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := board.New(c, board.Config{}, nil)
	defer b.Close()
	go b.Run(ctx, c.Follow(ctx))

	require.True(t, b.AddPerson("ann"))
	require.True(t, eventually(func() bool { return len(b.Display().Nodes) == 1 }))
	ann := b.Display().Nodes[0]

	require.True(t, b.AddPerson("bo"))
	require.True(t, eventually(func() bool { return len(b.Display().Nodes) == 2 }))

	var bo string
	for _, n := range b.Display().Nodes {
		if n.ID != ann.ID {
			bo = n.ID
		}
	}

	// select, connect
	for _, id := range []string{ann.ID, bo} {
		b.PointerDown(viewport.SurfaceNode, id, viewport.ButtonPrimary, geometry.Pt(0, 0))
		require.NoError(t, b.PointerUp(ctx, geometry.Pt(0, 0)))
		b.ClickPerson(id)
	}
	require.True(t, eventually(func() bool { return len(b.Display().Edges) == 1 }))
	assert.Equal(t, relation.Kissed, b.Display().Edges[0].Type)

	// drag ann by (50, 50) at scale 1
	b.PointerDown(viewport.SurfaceNode, ann.ID, viewport.ButtonPrimary, geometry.Pt(0, 0))
	b.PointerMove(geometry.Pt(50, 50))
	require.NoError(t, b.PointerUp(ctx, geometry.Pt(50, 50)))

	// no snap back while the snapshot is still on its way
	moved := ann.Position.Add(geometry.Pt(50, 50))
	node, ok := b.Display().Node(ann.ID)
	require.True(t, ok)
	assert.Equal(t, moved, node.Position)

	person, err := srv.store.GetPerson(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, moved, person.Position)
}

// swappable routes requests to whichever backend is currently booted.
type swappable struct {
	mu      sync.Mutex
	handler http.Handler
}

func (s *swappable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	h.ServeHTTP(w, r)
}

func (s *swappable) set(h http.Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// boot starts a fresh store and hub holding names and returns its router and
// a func that stops the hub.
func boot(t *testing.T, names ...string) (http.Handler, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := live.NewHub(8, nil)
	go hub.Run(ctx)
	publisher := live.NewPublisher(graph.NewMemoryStore(), hub, nil)
	require.NoError(t, publisher.Refresh(ctx))
	for i, name := range names {
		_, err := publisher.CreatePerson(ctx, name, float64(i)*200, 0)
		require.NoError(t, err)
	}
	return api.NewRouter(api.NewHandler(publisher, hub, nil)), cancel
}

func TestClient_FollowAcrossServerRestart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	routes := &swappable{}
	first, stopFirst := boot(t, "ann", "bo", "cy", "di", "ed")
	routes.set(first)
	srv := httptest.NewServer(routes)
	defer srv.Close()

	c, err := New(srv.URL, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := board.New(c, board.Config{}, nil)
	defer b.Close()
	go b.Run(ctx, c.Follow(ctx))

	require.True(t, eventually(func() bool { return len(b.Display().Nodes) == 5 }))
	require.Equal(t, uint64(6), b.Remote().Version)
	ann := b.Display().Nodes[0].ID
	b.PointerDown(viewport.SurfaceNode, ann, viewport.ButtonPrimary, geometry.Pt(0, 0))
	require.NoError(t, b.PointerUp(ctx, geometry.Pt(0, 0)))
	b.ClickPerson(ann)
	st, _ := b.Selection()
	require.Equal(t, selection.OneSelected, st)

	// the restarted server has a fresh counter and only knows zed
	second, _ := boot(t, "zed")
	routes.set(second)
	stopFirst()

	require.True(t, eventually(func() bool {
		d := b.Display()
		return len(d.Nodes) == 1 && d.Nodes[0].Name == "Zed"
	}))
	assert.Equal(t, uint64(2), b.Remote().Version)
	st, _ = b.Selection()
	assert.Equal(t, selection.Idle, st)
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
