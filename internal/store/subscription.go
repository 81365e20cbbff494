package store

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Document is one entry of a collection snapshot: the store-assigned
// identifier plus the raw field data.
type Document struct {
	ID     string
	Fields []byte
}

// Snapshot is a complete, ordered replacement of a collection's contents.
// The service sends one on subscribe and another after every change.
type Snapshot struct {
	Path string
	Docs []Document
}

// Subscription is a live collection subscription. Snapshots arrive on the
// channel returned by Snapshots in receipt order; the channel is closed
// when the subscription ends, after which Err reports why.
type Subscription struct {
	conn      *websocket.Conn
	snapshots chan Snapshot
	done      chan struct{}
	closeOnce sync.Once
	lg        *zap.Logger

	mu  sync.Mutex
	err error
}

// Subscribe opens a subscription to the collection at path. A non-empty
// token is sent as a bearer credential; the service also accepts
// unauthenticated subscribers. The caller owns the returned handle and
// must Close it when the reason it was opened no longer holds.
func (c *Client) Subscribe(ctx context.Context, path, token string) (*Subscription, error) {
	u := c.endpoint.JoinPath("/v1/listen")
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	q := u.Query()
	q.Set("path", path)
	u.RawQuery = q.Encode()

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(err, "subscribe %s: status %d", path, resp.StatusCode)
		}
		return nil, errors.Wrapf(err, "subscribe %s", path)
	}

	s := &Subscription{
		conn:      conn,
		snapshots: make(chan Snapshot),
		done:      make(chan struct{}),
		lg:        c.lg.With(zap.String("path", path)),
	}
	go s.readLoop()

	c.lg.Info("subscription opened", zap.String("path", path))
	return s, nil
}

// Snapshots returns the delivery channel. It is closed when the
// subscription terminates, whether by Close or by failure.
func (s *Subscription) Snapshots() <-chan Snapshot {
	return s.snapshots
}

// Err returns the terminal error of the subscription. It is nil until the
// snapshot channel is closed, and stays nil when the subscription was shut
// down by Close rather than by a delivery failure.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close releases the subscription. It is idempotent and safe to call from
// any goroutine, including concurrently with snapshot consumption.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
	return nil
}

// readLoop pumps snapshots from the wire to the channel until the
// connection fails or the subscription is closed.
func (s *Subscription) readLoop() {
	defer close(s.snapshots)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				// Closed locally; not a failure.
			default:
				s.fail(errors.Wrap(err, "read snapshot"))
			}
			return
		}

		snap, err := decodeSnapshot(data)
		if err != nil {
			s.fail(errors.Wrap(err, "decode snapshot"))
			_ = s.conn.Close()
			return
		}

		select {
		case s.snapshots <- snap:
		case <-s.done:
			return
		}
	}
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.lg.Warn("subscription failed", zap.Error(err))
}

// decodeSnapshot parses a wire snapshot message: the collection path and
// the full ordered document list, each document's fields kept raw for the
// domain layer to interpret.
func decodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "path":
			var err error
			snap.Path, err = d.Str()
			return err
		case "docs":
			return d.Arr(func(d *jx.Decoder) error {
				var doc Document
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					switch key {
					case "id":
						var err error
						doc.ID, err = d.Str()
						return err
					case "fields":
						raw, err := d.Raw()
						if err != nil {
							return err
						}
						doc.Fields = []byte(raw)
						return nil
					default:
						return d.Skip()
					}
				}); err != nil {
					return err
				}
				if doc.ID == "" {
					return errors.New("document missing id")
				}
				snap.Docs = append(snap.Docs, doc)
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
