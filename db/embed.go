// Package db provides the embedded demo menu used to seed the devserver.
package db

import _ "embed"

// SeedMenu contains the demo tenant's product documents as a JSON array.
//
//go:embed seed/menu.json
var SeedMenu []byte
