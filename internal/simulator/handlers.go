package simulator

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/config"
	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/menu"
)

const (
	maxBodyBytes  = 1 << 20
	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
)

// Handlers exposes the simulator over HTTP: the document-service contract
// (anonymous sign-in, websocket listen) plus the administrative write API
// that stands in for the separate admin application.
type Handlers struct {
	store    *Store
	hub      *Hub
	metrics  *Metrics
	lg       *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandlers wires the handler set.
func NewHandlers(store *Store, hub *Hub, metrics *Metrics, lg *zap.Logger) *Handlers {
	return &Handlers{
		store:   store,
		hub:     hub,
		metrics: metrics,
		lg:      lg.Named("handlers"),
		upgrader: websocket.Upgrader{
			// The simulator serves local tooling; any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Register mounts all routes on mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/auth:signInAnonymously", h.signInAnonymously)
	mux.HandleFunc("GET /v1/listen", h.listen)
	mux.HandleFunc("POST /admin/products", h.createProduct)
	mux.HandleFunc("PUT /admin/products/{id}", h.updateProduct)
	mux.HandleFunc("DELETE /admin/products/{id}", h.deleteProduct)
}

// signInAnonymously mints a throwaway identity. The simulator does not
// persist accounts; any bearer token it issued is accepted for reads.
func (h *Handlers) signInAnonymously(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("key") == "" {
		writeError(w, http.StatusUnauthorized, "missing api key")
		return
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("uid", func(e *jx.Encoder) { e.Str(uuid.New().String()) })
		e.Field("token", func(e *jx.Encoder) { e.Str(uuid.New().String()) })
		e.Field("anonymous", func(e *jx.Encoder) { e.Bool(true) })
	})

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(e.Bytes())
}

// listen upgrades to a websocket and streams complete collection snapshots:
// one immediately, then one per change, in change order.
func (h *Handlers) listen(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing path")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.lg.Debug("upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	sub := h.hub.Subscribe(path)
	defer sub.Cancel()

	lg := h.lg.With(zap.String("path", path), zap.String("remote", r.RemoteAddr))
	lg.Info("subscriber connected")
	defer lg.Info("subscriber disconnected")

	// The read side only detects the peer going away.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.writeSnapshot(conn, path, h.store.Snapshot(path)); err != nil {
		lg.Debug("initial snapshot write failed", zap.Error(err))
		return
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case docs, ok := <-sub.C():
			if !ok {
				return
			}
			if err := h.writeSnapshot(conn, path, docs); err != nil {
				lg.Debug("snapshot write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		case <-readerDone:
			return
		}
	}
}

func (h *Handlers) writeSnapshot(conn *websocket.Conn, path string, docs []Document) error {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("path", func(e *jx.Encoder) { e.Str(path) })
		e.Field("docs", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, doc := range docs {
					e.Obj(func(e *jx.Encoder) {
						e.Field("id", func(e *jx.Encoder) { e.Str(doc.ID) })
						e.Field("fields", func(e *jx.Encoder) { e.Raw(doc.Fields) })
					})
				}
			})
		})
	})

	_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteMessage(websocket.TextMessage, e.Bytes())
}

// tenantPath resolves the appId query parameter (defaulting to the shared
// demo tenant) into the products collection path.
func tenantPath(r *http.Request) string {
	appID := r.URL.Query().Get("appId")
	if appID == "" {
		appID = config.FallbackAppID
	}
	return menu.CollectionPath(appID)
}

// readProductBody reads and validates a product document body. Validation
// reuses the reader's own decoder so the simulator can never store a
// document the client would choke on.
func readProductBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if _, err := menu.DecodeProduct("pending", body); err != nil {
		return nil, err
	}
	return body, nil
}

func (h *Handlers) createProduct(w http.ResponseWriter, r *http.Request) {
	fields, err := readProductBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product: "+err.Error())
		return
	}

	path := tenantPath(r)
	doc := h.store.Insert(path, fields)
	h.metrics.AdminWrite()
	h.hub.Broadcast(path, h.store.Snapshot(path))

	writeDocument(w, http.StatusCreated, doc)
}

func (h *Handlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	fields, err := readProductBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product: "+err.Error())
		return
	}

	path := tenantPath(r)
	doc, ok := h.store.Update(path, r.PathValue("id"), fields)
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	h.metrics.AdminWrite()
	h.hub.Broadcast(path, h.store.Snapshot(path))

	writeDocument(w, http.StatusOK, doc)
}

func (h *Handlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	path := tenantPath(r)
	if !h.store.Delete(path, r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	h.metrics.AdminWrite()
	h.hub.Broadcast(path, h.store.Snapshot(path))

	w.WriteHeader(http.StatusNoContent)
}

func writeDocument(w http.ResponseWriter, status int, doc Document) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(doc.ID) })
		e.Field("fields", func(e *jx.Encoder) { e.Raw(doc.Fields) })
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, code int, message string) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
