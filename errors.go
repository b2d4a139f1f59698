package kitoken

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel initialization errors. All are fatal: construction either
// succeeds completely or not at all.
var (
	ErrInvalidConfig        = errors.New("kitoken: invalid configuration")
	ErrInvalidScores        = errors.New("kitoken: vocab and scores length mismatch")
	ErrInvalidEncoder       = errors.New("kitoken: duplicate token id or bytes in vocab")
	ErrInvalidSpecialEncoder = errors.New("kitoken: duplicate special token id or bytes")
	ErrInvalidRegex         = errors.New("kitoken: regex failed to compile")
	ErrInvalidUTF8          = errors.New("kitoken: invalid utf-8")
)

// EncodeError reports a piece that could not be resolved to a token and for
// which the configured fallback chain was exhausted.
type EncodeError struct {
	Piece []byte
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("kitoken: invalid piece %q", e.Piece)
}

// DecodeError reports a token id present in neither the vocab nor the
// specials.
type DecodeError struct {
	Token TokenID
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("kitoken: invalid token %d", e.Token)
}
