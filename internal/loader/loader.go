// Package loader turns raw CMAD bytes into a traversable XML tree. It tries
// a fixed sequence of candidate encodings, and when the structural parse
// fails it applies one bounded repair pass before giving up. The attempt
// order is a best-effort heuristic, not content sniffing, and downstream
// output depends on which encoding wins, so the order must not change.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"
)

// ErrUnparsable is the terminal failure for a document that cannot be
// parsed even after repair. Callers processing a batch must treat it as
// scoped to the one document.
var ErrUnparsable = errors.New("document cannot be parsed")

// Canonical encoding names, as written back into the XML declaration.
const (
	EncodingISO88591    = "ISO-8859-1"
	EncodingUTF8        = "UTF-8"
	EncodingWindows1252 = "windows-1252"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// declarationEncoding picks the encoding name out of the XML prolog, which
// is ASCII-compatible in every encoding we attempt.
var declarationEncoding = regexp.MustCompile(`(?i)encoding=["']([A-Za-z0-9._-]+)["']`)

// Load decodes and parses a document. It returns the tree, the name of the
// encoding that won, and loader diagnostics (currently only a note when the
// repair pass was needed).
func Load(raw []byte) (*etree.Document, string, []string, error) {
	text, encoding := decode(raw)

	doc, parseErr := parse(text)
	if parseErr == nil {
		return doc, encoding, nil, nil
	}

	// One narrow repair pass, one retry. Anything beyond that risks
	// masking genuinely corrupt input.
	repaired, applied := Repair(text)
	if len(applied) > 0 {
		if doc, retryErr := parse(repaired); retryErr == nil {
			diags := []string{fmt.Sprintf("malformed markup repaired: %s", strings.Join(applied, "; "))}
			return doc, encoding, diags, nil
		}
	}
	return nil, "", nil, fmt.Errorf("%w: %v", ErrUnparsable, parseErr)
}

// decode tries, in order: the declared encoding (or the CMAD target
// ISO-8859-1 when no declaration is recognized), then UTF-8, then
// Windows-1252. The single-byte decoders accept any byte sequence, so the
// final fallback cannot fail and decode always yields text.
func decode(raw []byte) (string, string) {
	first := EncodingISO88591
	if bytes.HasPrefix(raw, utf8BOM) {
		first = EncodingUTF8
	} else if name := declaredEncoding(raw); name != "" {
		first = name
	}

	for _, name := range []string{first, EncodingUTF8, EncodingWindows1252} {
		if text, ok := decodeAs(raw, name); ok {
			return text, name
		}
	}
	// Unreachable: Windows-1252 accepts every byte.
	return string(raw), EncodingWindows1252
}

func decodeAs(raw []byte, name string) (string, bool) {
	if name == EncodingUTF8 {
		raw = bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	}
	cm := CharmapFor(name)
	if cm == nil {
		return "", false
	}
	decoded, err := cm.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

// declaredEncoding returns the canonical name for the prolog's declared
// encoding, or "" when absent or unrecognized.
func declaredEncoding(raw []byte) string {
	head := raw
	if len(head) > 256 {
		head = head[:256]
	}
	m := declarationEncoding.FindSubmatch(head)
	if m == nil {
		return ""
	}
	switch strings.ToLower(string(m[1])) {
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return EncodingISO88591
	case "windows-1252", "cp1252":
		return EncodingWindows1252
	case "utf-8", "utf8":
		return EncodingUTF8
	}
	return ""
}

// CharmapFor maps a canonical encoding name to its character map. UTF-8 and
// unknown names return nil.
func CharmapFor(name string) *charmap.Charmap {
	switch name {
	case EncodingISO88591:
		return charmap.ISO8859_1
	case EncodingWindows1252:
		return charmap.Windows1252
	}
	return nil
}

// parse runs the structural parse on already-decoded text. The declaration
// may still name a single-byte charset, so the charset reader is a
// pass-through.
func parse(text string) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := doc.ReadFromString(text); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.New("no root element")
	}
	return doc, nil
}
