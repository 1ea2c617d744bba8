// Package legacyid decodes the packed integer id arrays the exporter writes
// as hex strings of little-endian uint32 values.
//
// Some exporter builds corrupt digits into punctuation, so the input goes
// through a fixed substitution table before chunking.
package legacyid

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCharacter indicates a character that is neither a hex digit nor
// in the substitution table.
var ErrInvalidCharacter = errors.New("invalid character in packed id string")

const chunkLen = 8

var substitutions = map[rune]byte{
	'(': '8',
	')': '9',
	'*': 'a',
	'+': 'b',
	',': 'c',
	'-': 'd',
	'.': 'e',
	'/': 'f',
}

// Decode turns a packed id string into its integers.
//
// Chunks are 8 hex digits. Every chunk is left-padded with zeros and then
// cut to its rightmost 8 digits, so a short trailing chunk gains leading
// zeros. The shipped data depends on this quirk.
func Decode(s string) ([]uint32, error) {
	digits, err := substitute(s)
	if err != nil {
		return nil, err
	}

	ids := make([]uint32, 0, (len(digits)+chunkLen-1)/chunkLen)
	for _, chunk := range split(digits) {
		raw, err := hex.DecodeString(normalize(chunk))
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %q: %v", ErrInvalidCharacter, chunk, err)
		}
		ids = append(ids, binary.LittleEndian.Uint32(raw))
	}
	return ids, nil
}

// DecodeInts is Decode with the result widened to int, the shape records use.
func DecodeInts(s string) ([]int, error) {
	ids, err := Decode(s)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out, nil
}

func substitute(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f':
			b.WriteRune(r)
		default:
			sub, ok := substitutions[r]
			if !ok {
				return "", fmt.Errorf("%w: %q at offset %d", ErrInvalidCharacter, r, i)
			}
			b.WriteByte(sub)
		}
	}
	return b.String(), nil
}

func split(digits string) []string {
	var chunks []string
	for len(digits) > 0 {
		n := chunkLen
		if len(digits) < n {
			n = len(digits)
		}
		chunks = append(chunks, digits[:n])
		digits = digits[n:]
	}
	return chunks
}

// normalize pads chunk to 8 digits and keeps the rightmost 8. split never
// yields more than 8, so only the padding changes a chunk from Decode.
func normalize(chunk string) string {
	padded := strings.Repeat("0", chunkLen) + chunk
	return padded[len(padded)-chunkLen:]
}
