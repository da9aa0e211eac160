package core

// body.go cleans a fetched dataset body before it reaches the CSV reader.
//
// Spreadsheet exports are small enough to hold in memory, so the body is read
// once (bounded by MaxBodyBytes) and then:
//   - the UTF-8 BOM (0xEF 0xBB 0xBF) is removed if present
//   - invalid UTF-8 sequences are replaced with U+FFFD

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxBodyBytes bounds how much of a single dataset body is read.
const MaxBodyBytes = 32 << 20

// ErrBodyTooLarge is returned when a body exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("dataset body too large")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadBody reads r fully and returns sanitized UTF-8 text.
func ReadBody(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if len(data) > MaxBodyBytes {
		return "", ErrBodyTooLarge
	}
	return SanitizeText(data), nil
}

// SanitizeText strips a leading BOM and repairs invalid UTF-8.
func SanitizeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	return strings.ToValidUTF8(string(data), "\uFFFD")
}
