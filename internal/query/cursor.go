package query

import (
	"encoding/base64"

	"github.com/pkg/errors"

	"github.com/roomly/booking-service/internal/errs"
)

// EncodeCursor wraps a raw sort-key value into an opaque transport-safe token.
func EncodeCursor(value string) string {
	return base64.URLEncoding.EncodeToString([]byte(value))
}

// DecodeCursor is the exact inverse of EncodeCursor. A token that does not
// decode is rejected, not silently treated as "no cursor".
func DecodeCursor(token string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", errors.Wrap(errs.ErrInvalidCursor, err.Error())
	}
	return string(raw), nil
}
