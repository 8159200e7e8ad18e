// Package pagex implements keyset (cursor) pagination.
//
// A cursor names the last row of the previous page by its ordering key and
// id. The next page is every row strictly after it in (key DESC, id DESC)
// order, so inserts and deletes between requests never shift rows across
// page boundaries the way OFFSET does.
package pagex

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidCursor is returned for any cursor we did not produce.
var ErrInvalidCursor = errors.New("pagex: invalid cursor")

// Cursor points at the last row of a page.
type Cursor struct {
	OrderingKey time.Time
	ID          string
}

type wireCursor struct {
	OrderingKey string `json:"orderingKey"`
	ID          string `json:"id"`
}

// Encode renders c as unpadded base64url JSON. The key is normalised to UTC
// with nanosecond precision so equal instants always encode identically.
func Encode(c Cursor) string {
	b, _ := json.Marshal(wireCursor{
		OrderingKey: c.OrderingKey.UTC().Format(time.RFC3339Nano),
		ID:          c.ID,
	})
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode parses a cursor produced by Encode.
func Decode(s string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var w wireCursor
	if err := dec.Decode(&w); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if dec.More() {
		return Cursor{}, fmt.Errorf("%w: trailing data", ErrInvalidCursor)
	}
	if w.ID == "" || w.OrderingKey == "" {
		return Cursor{}, fmt.Errorf("%w: missing field", ErrInvalidCursor)
	}

	key, err := time.Parse(time.RFC3339Nano, w.OrderingKey)
	if err != nil || key.IsZero() {
		return Cursor{}, fmt.Errorf("%w: bad ordering key", ErrInvalidCursor)
	}

	return Cursor{OrderingKey: key.UTC(), ID: w.ID}, nil
}

// String is Encode(c).
func (c Cursor) String() string { return Encode(c) }

// Condition returns the keyset predicate selecting rows after c in
// (keyCol DESC, idCol DESC) order, plus its bind arguments.
func (c Cursor) Condition(keyCol, idCol string) (string, []any) {
	clause := fmt.Sprintf("(%s < ? OR (%s = ? AND %s < ?))", keyCol, keyCol, idCol)
	return clause, []any{c.OrderingKey, c.OrderingKey, c.ID}
}
