package lmdbstore

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	textunicode "golang.org/x/text/encoding/unicode"
)

// normKey converts a key into its canonical byte representation.
// []byte keys are copied as-is; string keys require a configured key
// encoding and are normalized and encoded according to the store's
// policy. Anything else is rejected.
func (s *Store) normKey(key any) ([]byte, error) {
	switch k := key.(type) {
	case nil:
		return nil, fmt.Errorf("%w: key cannot be nil", ErrInvalidKey)
	case []byte:
		if len(k) == 0 {
			return nil, fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
		}
		return slices.Clone(k), nil
	case string:
		if s.keyEncoding == nil {
			return nil, fmt.Errorf(
				"%w: string keys require a key encoding (set WithKeyEncoding to enable)",
				ErrUnsupportedKey)
		}
		if s.normalize {
			k = s.normForm.String(k)
		}
		enc := s.keyEncoding.NewEncoder()
		if s.keyErrors == KeyErrorsReplace {
			enc = encoding.ReplaceUnsupported(enc)
		}
		b, err := enc.Bytes([]byte(k))
		if err != nil {
			return nil, fmt.Errorf("%w: cannot encode key %s: %v",
				ErrInvalidKey, formatKey(key), err)
		}
		if len(b) == 0 {
			return nil, fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: key must be []byte or string, got %T",
			ErrUnsupportedKey, key)
	}
}

// decodeKey converts a normalized key back to text using the configured
// key encoding.
func (s *Store) decodeKey(b []byte) (string, error) {
	out, err := s.keyEncoding.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: cannot decode key %s: %v",
			ErrInvalidKey, formatKey(b), err)
	}
	return string(out), nil
}

// resolveKeyEncoding looks an encoding up by its IANA name. UTF-8 is
// special-cased since ianaindex does not map every alias.
func resolveKeyEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "utf-8", "utf8":
		return textunicode.UTF8, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("lmdbstore: unknown key encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("lmdbstore: key encoding %q is not supported", name)
	}
	return enc, nil
}

const (
	maxDisplayRunes = 50
	maxDisplayHex   = 16
)

// formatKey renders a key for error messages: short printable text is
// quoted, binary data is shown as hex, long values are truncated.
func formatKey(key any) string {
	switch k := key.(type) {
	case []byte:
		if utf8.Valid(k) {
			s := string(k)
			if isPrintable(s) && utf8.RuneCountInString(s) <= maxDisplayRunes {
				return "'" + s + "'"
			}
		}
		if len(k) <= maxDisplayHex {
			return "0x" + hex.EncodeToString(k)
		}
		return fmt.Sprintf("0x%s...(%d bytes)", hex.EncodeToString(k[:8]), len(k))
	case string:
		if utf8.RuneCountInString(k) <= maxDisplayRunes {
			return "'" + k + "'"
		}
		r := []rune(k)
		return "'" + string(r[:maxDisplayRunes-3]) + "...'"
	default:
		r := fmt.Sprintf("%v", key)
		if len(r) <= maxDisplayRunes {
			return r
		}
		return r[:maxDisplayRunes-3] + "..."
	}
}

func isPrintable(s string) bool {
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
