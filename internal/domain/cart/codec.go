package cart

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// ErrMalformed is returned by Decode when the document is not a JSON array of
// objects. Callers fall back to an empty cart.
var ErrMalformed = errors.New("malformed cart document")

// EntryError describes a single stored entry that could not be restored.
type EntryError struct {
	Index  int
	Reason string
}

// PartialError is returned by Decode alongside the entries that were restored
// when one or more entries had to be dropped.
type PartialError struct {
	Dropped []EntryError
}

func (e *PartialError) Error() string {
	parts := make([]string, len(e.Dropped))
	for i, d := range e.Dropped {
		parts[i] = fmt.Sprintf("#%d: %s", d.Index, d.Reason)
	}
	return "dropped cart entries: " + strings.Join(parts, "; ")
}

// Encode serializes items to the persisted layout:
//
//	[{"id","title","image","price","quantity","selectedSize","selectedColor"}, ...]
func Encode(items []LineItem) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, item := range items {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(item.ProductID)
		e.FieldStart("title")
		e.Str(item.Title)
		e.FieldStart("image")
		e.Str(item.ImageURL)
		e.FieldStart("price")
		e.Num(jx.Num(item.UnitPrice.String()))
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		e.FieldStart("selectedSize")
		e.Str(item.SelectedSize)
		e.FieldStart("selectedColor")
		e.Str(item.SelectedColor)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

// Decode parses a persisted cart document. Unknown fields are ignored and
// missing optional fields take their defaults. An entry lacking an id, a
// numeric price or an integral quantity is dropped and reported through a
// *PartialError; the remaining entries are still returned in order.
func Decode(data []byte) ([]LineItem, error) {
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Array {
		return nil, ErrMalformed
	}

	var (
		items   []LineItem
		dropped []EntryError
		idx     int
	)
	if err := d.Arr(func(d *jx.Decoder) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		item, reason := decodeEntry(raw)
		if reason != "" {
			dropped = append(dropped, EntryError{Index: idx, Reason: reason})
		} else {
			items = append(items, item)
		}
		idx++
		return nil
	}); err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}

	if len(dropped) > 0 {
		return items, &PartialError{Dropped: dropped}
	}
	return items, nil
}

// decodeEntry restores a single entry. A non-empty reason means the entry
// must be dropped.
func decodeEntry(raw jx.Raw) (LineItem, string) {
	d := jx.DecodeBytes(raw)
	if d.Next() != jx.Object {
		return LineItem{}, "entry is not an object"
	}

	var (
		item        LineItem
		hasPrice    bool
		hasQuantity bool
		reason      string
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := decodeID(d)
			if err != nil {
				reason = "invalid id"
				return d.Skip()
			}
			item.ProductID = v
		case "title":
			item.Title = optionalString(d)
		case "image":
			item.ImageURL = optionalString(d)
		case "selectedSize":
			item.SelectedSize = optionalString(d)
		case "selectedColor":
			item.SelectedColor = optionalString(d)
		case "price":
			v, ok := decodeNumber(d)
			if !ok {
				reason = "price is not a number"
				return nil
			}
			item.UnitPrice = v
			hasPrice = true
		case "quantity":
			v, ok := decodeNumber(d)
			if !ok || !v.IsInteger() {
				reason = "quantity is not an integer"
				return nil
			}
			item.Quantity = int(v.IntPart())
			hasQuantity = true
		default:
			return d.Skip()
		}
		return nil
	})
	switch {
	case err != nil:
		return LineItem{}, "invalid entry: " + err.Error()
	case reason != "":
		return LineItem{}, reason
	case item.ProductID == "":
		return LineItem{}, "missing id"
	case !hasPrice:
		return LineItem{}, "missing price"
	case !hasQuantity:
		return LineItem{}, "missing quantity"
	}

	item = withDefaults(item)
	item.Quantity = ClampQuantity(item.Quantity)
	return item, ""
}

// decodeID accepts both string and numeric identifiers; older documents
// stored catalog IDs as numbers.
func decodeID(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", errors.New("unexpected id type")
	}
}

// decodeNumber reads a JSON number, or a string holding one. The value is
// always consumed.
func decodeNumber(d *jx.Decoder) (decimal.Decimal, bool) {
	var s string
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, false
		}
		s = n.String()
	case jx.String:
		v, err := d.Str()
		if err != nil {
			return decimal.Zero, false
		}
		s = v
	default:
		_ = d.Skip()
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// optionalString returns the string value, or "" for null or any other type.
func optionalString(d *jx.Decoder) string {
	if d.Next() != jx.String {
		_ = d.Skip()
		return ""
	}
	v, err := d.Str()
	if err != nil {
		return ""
	}
	return v
}
