package store

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/menu"
	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/simulator"
)

const testTenant = "test-tenant"

// newTestService spins up an in-process simulator and a client pointed at it.
func newTestService(t *testing.T) (*httptest.Server, *simulator.Store, *Client) {
	t.Helper()

	lg := zap.NewNop()
	st := simulator.NewStore()
	hub := simulator.NewHub(lg, nil)
	handlers := simulator.NewHandlers(st, hub, nil, lg)

	mux := http.NewServeMux()
	handlers.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, "test-key", lg)
	require.NoError(t, err)
	return srv, st, client
}

func adminCreate(t *testing.T, srv *httptest.Server, body string) {
	t.Helper()
	resp, err := http.Post(
		srv.URL+"/admin/products?appId="+testTenant,
		"application/json",
		bytes.NewBufferString(body),
	)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func recvSnapshot(t *testing.T, sub *Subscription) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Snapshots():
		require.True(t, ok, "snapshot channel closed: %v", sub.Err())
		return snap
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestNewClient_RejectsBadEndpoint(t *testing.T) {
	_, err := NewClient("ftp://example.com", "k", zap.NewNop())
	require.Error(t, err)

	_, err = NewClient("://bad", "k", zap.NewNop())
	require.Error(t, err)
}

func TestSignInAnonymously(t *testing.T) {
	_, _, client := newTestService(t)

	id, err := client.SignInAnonymously(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, id.UID)
	assert.NotEmpty(t, id.Token)
	assert.True(t, id.Anonymous)
}

func TestBootstrap_ToleratesAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, "k", zap.NewNop())
	require.NoError(t, err)

	session := client.Bootstrap(context.Background())
	require.NotNil(t, session)
	assert.Error(t, session.Err())
	assert.Nil(t, session.Identity())
	assert.Empty(t, session.Token())
}

func TestSubscribe_InitialSnapshot(t *testing.T) {
	_, st, client := newTestService(t)
	path := menu.CollectionPath(testTenant)
	st.Insert(path, []byte(`{"name":"Soup","category":"Starters","price":4.5,"available":true}`))

	sub, err := client.Subscribe(context.Background(), path, "")
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	snap := recvSnapshot(t, sub)
	assert.Equal(t, path, snap.Path)
	require.Len(t, snap.Docs, 1)

	p, err := menu.DecodeProduct(snap.Docs[0].ID, snap.Docs[0].Fields)
	require.NoError(t, err)
	assert.Equal(t, "Soup", p.Name)
	assert.Equal(t, "Starters", p.Category)
}

func TestSubscribe_DeliversAdminWrites(t *testing.T) {
	srv, _, client := newTestService(t)
	path := menu.CollectionPath(testTenant)

	sub, err := client.Subscribe(context.Background(), path, "")
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	initial := recvSnapshot(t, sub)
	assert.Empty(t, initial.Docs)

	adminCreate(t, srv, `{"name":"Tea","category":"Drinks","price":2,"available":true}`)
	first := recvSnapshot(t, sub)
	require.Len(t, first.Docs, 1)

	adminCreate(t, srv, `{"name":"Cake","category":"Desserts","price":6,"available":true}`)
	second := recvSnapshot(t, sub)
	require.Len(t, second.Docs, 2)

	// Snapshots are complete replacements in creation order.
	assert.Equal(t, first.Docs[0].ID, second.Docs[0].ID)
}

func TestSubscribe_AuthenticatedToken(t *testing.T) {
	_, _, client := newTestService(t)
	path := menu.CollectionPath(testTenant)

	session := client.Bootstrap(context.Background())
	require.NoError(t, session.Err())

	sub, err := client.Subscribe(context.Background(), path, session.Token())
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	recvSnapshot(t, sub)
}

func TestSubscription_CloseStopsDelivery(t *testing.T) {
	_, _, client := newTestService(t)
	path := menu.CollectionPath(testTenant)

	sub, err := client.Subscribe(context.Background(), path, "")
	require.NoError(t, err)

	recvSnapshot(t, sub)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close()) // idempotent

	for range sub.Snapshots() {
	}
	// A local close is a clean shutdown, not a failure.
	assert.NoError(t, sub.Err())
}

func TestSubscribe_ServerGone(t *testing.T) {
	srv, _, client := newTestService(t)
	path := menu.CollectionPath(testTenant)

	sub, err := client.Subscribe(context.Background(), path, "")
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	recvSnapshot(t, sub)
	srv.CloseClientConnections()

	select {
	case _, ok := <-sub.Snapshots():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after server went away")
	}
	assert.Error(t, sub.Err())
}

func TestAdminValidation(t *testing.T) {
	srv, _, _ := newTestService(t)

	resp, err := http.Post(
		srv.URL+"/admin/products?appId="+testTenant,
		"application/json",
		bytes.NewBufferString(`{"name": 42}`),
	)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
