package menu

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Category names with special meaning in the view model.
const (
	// CategoryAll is the synthetic filter entry matching every category.
	CategoryAll = "All"
	// CategoryUncategorized is the grouping bucket for products whose
	// category field is empty or absent.
	CategoryUncategorized = "Uncategorized"
)

// Product is a single menu item as stored in the backing collection.
// The ID is assigned by the store; all other fields are written by the
// administrative application and only read here.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Available   bool
}

// DisplayCategory returns the category used for grouping, substituting
// CategoryUncategorized when no category is set. The product itself is
// never mutated.
func (p Product) DisplayCategory() string {
	if p.Category == "" {
		return CategoryUncategorized
	}
	return p.Category
}

// CollectionPath builds the tenant-scoped products collection path. The
// exact format is shared with the administrative writer: both sides must
// produce the identical string for readers to see the writer's data.
func CollectionPath(tenantID string) string {
	return "/artifacts/" + tenantID + "/public/data/products"
}

// DecodeProduct decodes a document's field data into a Product, attaching
// the store-assigned document ID. Missing price defaults to zero and a
// missing category stays empty (defaulted at group time). Unknown fields
// are skipped so the reader tolerates schema additions by the writer.
func DecodeProduct(id string, fields []byte) (Product, error) {
	p := Product{ID: id}

	d := jx.DecodeBytes(fields)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			p.Name, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "price":
			err = decodePrice(d, &p.Price)
		case "category":
			p.Category, err = d.Str()
		case "available":
			p.Available, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return Product{}, errors.Wrapf(err, "decode product %q", id)
	}

	return p, nil
}

// decodePrice accepts a JSON number, a numeric string, or null. The admin
// surface writes numbers; older documents carry strings.
func decodePrice(d *jx.Decoder, out *decimal.Decimal) error {
	switch d.Next() {
	case jx.Null:
		return d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return err
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			return errors.Wrap(err, "parse price string")
		}
		*out = v
		return nil
	default:
		n, err := d.Num()
		if err != nil {
			return err
		}
		v, err := decimal.NewFromString(n.String())
		if err != nil {
			return errors.Wrap(err, "parse price number")
		}
		*out = v
		return nil
	}
}
