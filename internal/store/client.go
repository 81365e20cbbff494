// Package store implements the client side of the hosted document service:
// anonymous session bootstrap and long-lived collection subscriptions that
// deliver complete snapshots on every change.
package store

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// Client talks to a single document service deployment. It is safe for
// concurrent use; all blocking calls honor their context.
type Client struct {
	endpoint *url.URL
	apiKey   string
	httpc    *http.Client
	lg       *zap.Logger
}

// NewClient validates the endpoint and constructs a Client. The API key is
// sent with sign-in requests only; subscriptions carry the session token.
func NewClient(endpoint, apiKey string, lg *zap.Logger) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "parse endpoint")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	return &Client{
		endpoint: u,
		apiKey:   apiKey,
		httpc:    &http.Client{Timeout: 30 * time.Second},
		lg:       lg.Named("store"),
	}, nil
}

// Identity is an authenticated (possibly anonymous) principal returned by
// the service.
type Identity struct {
	UID       string
	Token     string
	Anonymous bool
}

// SignInAnonymously requests a fresh anonymous identity.
func (c *Client) SignInAnonymously(ctx context.Context) (*Identity, error) {
	u := c.endpoint.JoinPath("/v1/auth:signInAnonymously")
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build sign-in request")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "sign in")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("sign in: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read sign-in response")
	}

	id, err := decodeIdentity(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode sign-in response")
	}
	return id, nil
}

func decodeIdentity(data []byte) (*Identity, error) {
	var id Identity
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "uid":
			id.UID, err = d.Str()
		case "token":
			id.Token, err = d.Str()
		case "anonymous":
			id.Anonymous, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return nil, err
	}
	if id.UID == "" {
		return nil, errors.New("missing uid")
	}
	return &id, nil
}
