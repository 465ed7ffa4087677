package statement

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// NormalizeEncoding converts uploaded statement bytes to UTF-8 text.
// Macedonian bank exports arrive as UTF-8, UTF-16, or Windows-1251;
// any BOM is dropped.
func NormalizeEncoding(raw []byte) string {
	if bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}) {
		raw = raw[3:]
	} else if bytes.HasPrefix(raw, []byte{0xFF, 0xFE}) || bytes.HasPrefix(raw, []byte{0xFE, 0xFF}) {
		if decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(raw); err == nil {
			return string(decoded)
		}
		raw = raw[2:]
	}

	if utf8.Valid(raw) {
		return string(raw)
	}

	if decoded, err := charmap.Windows1251.NewDecoder().Bytes(raw); err == nil && utf8.Valid(decoded) {
		return string(decoded)
	}
	if decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw); err == nil {
		return string(decoded)
	}
	return string(raw)
}
