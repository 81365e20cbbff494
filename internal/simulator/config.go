package simulator

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the devserver configuration, loadable from environment
// variables (SIM_ prefix), flags, or YAML config files.
type Config struct {
	Addr     string `default:"0.0.0.0:8089" usage:"devserver listen address"`
	SeedFile string `default:"" usage:"products seed file (.json or .json.gz); empty uses the embedded menu" flag:"seed-file"`
	CORS     CORSConfig
	Graceful GracefulConfig
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"1s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"10s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads the devserver configuration from environment variables,
// YAML config files, and flags.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SIM",
		Files:     []string{"devserver.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	// PaaS platforms inject the port under a standard name.
	if port := os.Getenv("PORT"); port != "" && cfg.Addr == "0.0.0.0:8089" {
		cfg.Addr = "0.0.0.0:" + port
	}

	return &cfg, nil
}
