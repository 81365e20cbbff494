// Command devserver runs a local stand-in for the hosted document service:
// anonymous sign-in, live collection snapshots over websocket, and an
// administrative write API for the demo menu.
package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/simulator"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := simulator.LoadConfig()
		if err != nil {
			return err
		}
		return simulator.Run(ctx, lg, m, cfg)
	})
}
