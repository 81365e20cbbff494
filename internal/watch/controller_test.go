package watch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/config"
	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/menu"
	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/simulator"
	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/store"
)

const testTenant = "watch-test"

type fixture struct {
	srv  *httptest.Server
	st   *simulator.Store
	ctrl *Controller
	done chan error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	lg := zap.NewNop()
	st := simulator.NewStore()
	hub := simulator.NewHub(lg, nil)
	handlers := simulator.NewHandlers(st, hub, nil, lg)

	mux := http.NewServeMux()
	handlers.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	// Changes go straight to the store here; broadcasting is what the
	// admin handlers do, so tests that need push go through HTTP instead.
	client, err := store.NewClient(srv.URL, "test-key", lg)
	require.NoError(t, err)

	cfg := config.Resolved{
		Connection: config.Connection{Endpoint: srv.URL, APIKey: "test-key"},
		AppID:      testTenant,
	}
	return &fixture{srv: srv, st: st, ctrl: New(client, cfg, lg)}
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	f.done = make(chan error, 1)
	go func() { f.done <- f.ctrl.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-f.done:
		case <-time.After(5 * time.Second):
			t.Error("controller did not stop")
		}
	})
}

// awaitUpdate reads updates until pred matches, checking along the way
// that the connection state never regresses.
func awaitUpdate(t *testing.T, updates <-chan Update, pred func(Update) bool) Update {
	t.Helper()
	deadline := time.After(5 * time.Second)
	seen := ConnInitializing
	for {
		select {
		case u, ok := <-updates:
			require.True(t, ok, "updates closed before expected state")
			require.GreaterOrEqual(t, int(u.Conn), int(seen), "connection state regressed")
			seen = u.Conn
			if pred(u) {
				return u
			}
		case <-deadline:
			t.Fatal("timed out waiting for update")
		}
	}
}

func ready(u Update) bool  { return u.Conn == ConnReady }
func failed(u Update) bool { return u.Conn == ConnFailed }

func seedFixture(f *fixture) {
	path := menu.CollectionPath(testTenant)
	f.st.Insert(path, []byte(`{"name":"Soup","category":"Starters","price":4.5,"available":true}`))
	f.st.Insert(path, []byte(`{"name":"Steak","category":"Mains","price":18,"available":true}`))
	f.st.Insert(path, []byte(`{"name":"Tea","category":"Drinks","price":2,"available":true}`))
}

func TestController_DeliversInitialSnapshot(t *testing.T) {
	f := newFixture(t)
	seedFixture(f)
	f.start(t)

	u := awaitUpdate(t, f.ctrl.Updates(), ready)
	assert.NoError(t, u.Err)
	assert.Equal(t, DisplayPopulated, u.Display())
	assert.Len(t, u.View.Available, 3)
	assert.Equal(t, []string{menu.CategoryAll, "Drinks", "Mains", "Starters"}, u.View.Categories)
	assert.Equal(t, menu.CategoryAll, u.View.ActiveCategory)
}

func TestController_EmptyCollection(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	u := awaitUpdate(t, f.ctrl.Updates(), ready)
	assert.Equal(t, DisplayEmpty, u.Display())
	assert.Empty(t, u.View.Available)
}

func TestController_FollowsAdminWrites(t *testing.T) {
	f := newFixture(t)
	seedFixture(f)
	f.start(t)

	awaitUpdate(t, f.ctrl.Updates(), ready)

	resp, err := http.Post(
		f.srv.URL+"/admin/products?appId="+testTenant,
		"application/json",
		bytes.NewBufferString(`{"name":"Cake","category":"Desserts","price":6,"available":true}`),
	)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	u := awaitUpdate(t, f.ctrl.Updates(), func(u Update) bool {
		return len(u.View.Available) == 4
	})
	assert.Contains(t, u.View.Categories, "Desserts")
}

func TestController_SetCategoryReducesWithoutNetwork(t *testing.T) {
	f := newFixture(t)
	seedFixture(f)
	f.start(t)

	awaitUpdate(t, f.ctrl.Updates(), ready)

	f.ctrl.SetCategory("Drinks")
	u := awaitUpdate(t, f.ctrl.Updates(), func(u Update) bool {
		return u.View.ActiveCategory == "Drinks"
	})
	require.Equal(t, []string{"Drinks"}, u.View.GroupOrder)
	require.Len(t, u.View.Grouped["Drinks"], 1)
	assert.Equal(t, "Tea", u.View.Grouped["Drinks"][0].Name)
	// The filter narrows the view, not the underlying list.
	assert.Len(t, u.View.Available, 3)
}

func TestController_FallbackFlagTravelsWithEveryUpdate(t *testing.T) {
	f := newFixture(t)
	f.ctrl.cfg.Fallback = true
	f.start(t)

	u := awaitUpdate(t, f.ctrl.Updates(), ready)
	assert.True(t, u.Fallback)
}

// TestController_StickyErrorAfterDelivery reproduces a mid-stream failure:
// the service delivers one good snapshot, then garbage. The pipeline must
// move to Failed and stay there.
func TestController_StickyErrorAfterDelivery(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/listen", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		good := `{"path":"p","docs":[{"id":"d1","fields":{"name":"Soup","category":"Starters","price":4.5,"available":true}}]}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(good)); err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"docs": 42}`)); err != nil {
			return
		}

		// Hold the connection open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	lg := zap.NewNop()
	client, err := store.NewClient(srv.URL, "test-key", lg)
	require.NoError(t, err)

	ctrl := New(client, config.Resolved{AppID: testTenant}, lg)
	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { done <- ctrl.Run(ctx) }()

	u := awaitUpdate(t, ctrl.Updates(), ready)
	require.Len(t, u.View.Available, 1)

	u = awaitUpdate(t, ctrl.Updates(), failed)
	assert.Error(t, u.Err)
	assert.Equal(t, DisplayError, u.Display())
	// Products from the earlier delivery do not resurrect the view.
	assert.NotEqual(t, DisplayPopulated, u.Display())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("controller did not stop")
	}
}

func TestController_SubscriptionOpenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	lg := zap.NewNop()
	client, err := store.NewClient(srv.URL, "test-key", lg)
	require.NoError(t, err)

	ctrl := New(client, config.Resolved{AppID: testTenant}, lg)
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(context.Background()) }()

	u := awaitUpdate(t, ctrl.Updates(), failed)
	require.Error(t, u.Err)
	assert.Contains(t, u.Err.Error(), "open subscription")
	assert.Equal(t, DisplayError, u.Display())

	// Run exits on its own after a setup failure.
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}

	_, ok := <-ctrl.Updates()
	assert.False(t, ok, "updates should be closed after Run returns")
}

func TestController_ResubscribeReleasesPriorHandle(t *testing.T) {
	f := newFixture(t)
	path := menu.CollectionPath(testTenant)
	ctx := context.Background()

	require.NoError(t, f.ctrl.resubscribe(ctx, path, ""))
	first := f.ctrl.sub
	require.NotNil(t, first)

	require.NoError(t, f.ctrl.resubscribe(ctx, path, ""))
	second := f.ctrl.sub
	require.NotNil(t, second)
	require.NotSame(t, first, second)
	defer func() { _ = second.Close() }()

	// The first handle is closed, so its channel drains and ends cleanly.
	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-first.Snapshots():
			if !ok {
				assert.NoError(t, first.Err())
				return
			}
		case <-timeout:
			t.Fatal("prior subscription not released")
		}
	}
}

func TestController_CancelClosesUpdates(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.ctrl.Run(ctx) }()

	awaitUpdate(t, f.ctrl.Updates(), ready)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
