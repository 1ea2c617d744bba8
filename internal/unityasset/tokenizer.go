// Package unityasset reads the serialized-asset text format written by the
// game's exporter: a multi-document YAML file where every document starts
// with a "--- !u!<typeId> &<fileId>" marker.
//
// Tokenize splits a file into raw blocks, ParseBody turns a block body into a
// yaml.Node tree after neutralizing the dialect's quirks, and ParseFile does
// both for a whole file.
package unityasset

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMalformedBlockHeader indicates a block whose header does not match
	// "<typeId> &<fileId>\n<TypeName>:". The whole file is rejected.
	ErrMalformedBlockHeader = errors.New("malformed block header")

	// ErrDialectParse indicates a block body the YAML parser rejected.
	ErrDialectParse = errors.New("dialect parse error")
)

var (
	blockMarker = regexp.MustCompile(`(?m)^--- !u!`)
	blockHeader = regexp.MustCompile(`^(\d+) &(-?\d+)(?: stripped)?[ \t]*\r?\n(\w+):`)
)

// RawBlock is one document of an asset file before its body is parsed.
type RawBlock struct {
	TypeID   int
	FileID   int64
	TypeName string
	Body     string
}

// Block is one parsed document of an asset file.
type Block struct {
	TypeID   int        `json:"typeId"`
	FileID   int64      `json:"fileId"`
	TypeName string     `json:"typeName"`
	Fields   *yaml.Node `json:"-"`
}

// Tokenize splits the text of an asset file into its blocks, in file order.
// Anything before the first marker (the %YAML/%TAG preamble) is discarded.
// A chunk with an unrecognized header fails the whole file.
func Tokenize(text string) ([]RawBlock, error) {
	chunks := blockMarker.Split(text, -1)
	if len(chunks) <= 1 {
		return []RawBlock{}, nil
	}

	blocks := make([]RawBlock, 0, len(chunks)-1)
	for i, chunk := range chunks[1:] {
		m := blockHeader.FindStringSubmatchIndex(chunk)
		if m == nil {
			return nil, fmt.Errorf("%w: block %d: %q", ErrMalformedBlockHeader, i, firstLine(chunk))
		}

		typeID, err := strconv.Atoi(chunk[m[2]:m[3]])
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: type id: %v", ErrMalformedBlockHeader, i, err)
		}
		fileID, err := strconv.ParseInt(chunk[m[4]:m[5]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: file id: %v", ErrMalformedBlockHeader, i, err)
		}

		blocks = append(blocks, RawBlock{
			TypeID:   typeID,
			FileID:   fileID,
			TypeName: chunk[m[6]:m[7]],
			Body:     dedent(chunk[m[1]:]),
		})
	}

	return blocks, nil
}

// dedent removes the two-space indentation the exporter puts in front of
// every body line, then trims the result.
func dedent(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, "  ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// ParseFile tokenizes text and parses every block body.
// Any tokenizer or parser error aborts the whole file.
func ParseFile(text string, opts ParseOptions) ([]Block, error) {
	raw, err := Tokenize(text)
	if err != nil {
		return nil, err
	}

	blocks := make([]Block, 0, len(raw))
	for _, rb := range raw {
		fields, err := ParseBody(rb.Body, opts)
		if err != nil {
			return nil, fmt.Errorf("block &%d (%s): %w", rb.FileID, rb.TypeName, err)
		}
		blocks = append(blocks, Block{
			TypeID:   rb.TypeID,
			FileID:   rb.FileID,
			TypeName: rb.TypeName,
			Fields:   fields,
		})
	}
	return blocks, nil
}

// BlockByFileID returns the block with the given local file id.
func BlockByFileID(blocks []Block, fileID int64) (Block, bool) {
	for _, b := range blocks {
		if b.FileID == fileID {
			return b, true
		}
	}
	return Block{}, false
}
