// Package config resolves the storefront client's configuration: the
// app-level settings loaded through aconfig and the connection settings
// injected by the hosting environment as a JSON blob.
package config

import (
	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// App holds the client application's own configuration, loadable from
// environment variables (FRESHEAR_ prefix), flags, or YAML config files.
// Connection and AppID are the two externally injected values; both are
// optional and resolve to the built-in fallback when absent or invalid.
type App struct {
	// Connection is a JSON-encoded connection blob for the backing
	// document service (FRESHEAR_CONNECTION).
	Connection string `usage:"JSON connection blob for the document service"`
	// AppID scopes which logical dataset this reader shares with the
	// administrative writer (FRESHEAR_APP_ID).
	AppID string `usage:"tenant/application identifier" flag:"app-id"`
	// LogFile receives structured logs; a terminal UI cannot log to stdout.
	LogFile string `default:"freshear.log" usage:"structured log destination" flag:"log-file"`
}

// LoadApp loads the app configuration from environment variables, flags,
// and optional YAML config files.
func LoadApp() (*App, error) {
	var cfg App
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "FRESHEAR",
		Files:     []string{"config.yaml", "/etc/freshear/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	return &cfg, nil
}
