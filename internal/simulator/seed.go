package simulator

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/menu"
)

// seedProduct mirrors the document schema the administrative application
// writes.
type seedProduct struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	Available   bool            `json:"available"`
}

// Seed inserts the products from data (a JSON array) into the tenant's
// collection. It returns the number of documents inserted.
func Seed(store *Store, appID string, data []byte) (int, error) {
	var products []seedProduct
	if err := json.Unmarshal(data, &products); err != nil {
		return 0, errors.Wrap(err, "parse seed JSON")
	}

	path := menu.CollectionPath(appID)
	for i, p := range products {
		fields, err := json.Marshal(p)
		if err != nil {
			return i, errors.Wrapf(err, "encode seed product %d", i)
		}
		// Round-trip through the reader's decoder so a bad seed file fails
		// at startup instead of breaking subscribers later.
		if _, err := menu.DecodeProduct("seed", fields); err != nil {
			return i, errors.Wrapf(err, "validate seed product %d", i)
		}
		store.Insert(path, fields)
	}
	return len(products), nil
}

// ReadSeedFile loads a seed file from disk. Files ending in .gz are
// transparently decompressed.
func ReadSeedFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open seed file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read seed file")
	}
	return data, nil
}
