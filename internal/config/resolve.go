package config

import (
	"github.com/go-faster/jx"
)

// Fallback values used when no valid external configuration is supplied.
// The AppID must match the one the administrative application falls back
// to, so a locally run reader sees the locally written demo data.
const (
	FallbackAppID    = "demo-freshear-app"
	fallbackEndpoint = "http://localhost:8089"
	fallbackAPIKey   = "demo-api-key"
)

// Connection holds the parameters needed to reach the backing document
// service.
type Connection struct {
	// Endpoint is the service base URL (http or https).
	Endpoint string
	// APIKey authorizes anonymous sign-in requests.
	APIKey string
}

// Resolved is the immutable startup configuration: connection parameters,
// the tenant identifier, and whether the built-in fallback is in effect.
type Resolved struct {
	Connection Connection
	AppID      string
	// Fallback reports that the mock connection settings are in use. The
	// tenant identifier is then FallbackAppID regardless of what was
	// supplied, so reader and writer agree on the shared demo dataset.
	Fallback bool
}

// Resolve produces the startup configuration from the two externally
// injected values. A blob that is absent, not valid JSON, or missing a
// required field yields the fallback configuration with the flag set.
// Resolve has no side effects.
func Resolve(blob, appID string) Resolved {
	conn, ok := parseConnection(blob)
	if !ok || appID == "" {
		return Resolved{
			Connection: Connection{Endpoint: fallbackEndpoint, APIKey: fallbackAPIKey},
			AppID:      FallbackAppID,
			Fallback:   true,
		}
	}
	return Resolved{Connection: conn, AppID: appID}
}

// parseConnection decodes the JSON connection blob. Unknown keys are
// ignored; both endpoint and apiKey must be present and non-empty.
func parseConnection(blob string) (Connection, bool) {
	if blob == "" {
		return Connection{}, false
	}

	var conn Connection
	d := jx.DecodeStr(blob)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "endpoint":
			conn.Endpoint, err = d.Str()
		case "apiKey":
			conn.APIKey, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return Connection{}, false
	}

	if conn.Endpoint == "" || conn.APIKey == "" {
		return Connection{}, false
	}
	return conn, true
}
