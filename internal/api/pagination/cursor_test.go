package pagination

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 15, 12, 30, 0, 123456789, time.UTC)
	encoded := Encode(ts, "01arz3ndektsv4rrffq69g5fav")

	cursor, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !cursor.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", cursor.Timestamp, ts)
	}
	if cursor.ULID != "01ARZ3NDEKTSV4RRFFQ69G5FAV" {
		t.Errorf("ULID = %q, want upper-cased", cursor.ULID)
	}
}

func TestDecodeInvalid(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"not base64":    "!!!not-base64!!!",
		"no separator":  base64.RawURLEncoding.EncodeToString([]byte("1234567890")),
		"bad timestamp": base64.RawURLEncoding.EncodeToString([]byte("abc:01ARZ3NDEKTSV4RRFFQ69G5FAV")),
		"empty ulid":    base64.RawURLEncoding.EncodeToString([]byte("1234567890:")),
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(input); !errors.Is(err, ErrInvalidCursor) {
				t.Errorf("Decode(%q) error = %v, want ErrInvalidCursor", input, err)
			}
		})
	}
}
