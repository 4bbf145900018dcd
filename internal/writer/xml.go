// Package writer renders a corrected tree back to text in the encoding the
// loader resolved. Formatting failure is non-fatal; losing corrected
// content is not acceptable, so every fallback still carries the full tree.
package writer

import (
	"fmt"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding"

	"github.com/younessemlali/xml-PeoPulse-Kfacture/internal/loader"
)

// indentSpaces is the uniform per-level indentation of the output.
const indentSpaces = 2

// Render serializes the tree with a leading declaration naming the resolved
// encoding, 2-space indentation, and whitespace-only lines collapsed. If the
// indented rendering fails, it falls back to an unindented one.
func Render(doc *etree.Document, encodingName string) ([]byte, error) {
	out := etree.NewDocument()
	out.CreateProcInst("xml", fmt.Sprintf(`version="1.0" encoding=%q`, encodingName))
	if root := doc.Root(); root != nil {
		out.AddChild(root.Copy())
	}

	out.Indent(indentSpaces)
	text, err := out.WriteToString()
	if err != nil {
		// Keep the content, drop the formatting.
		out.Indent(etree.NoIndent)
		if text, err = out.WriteToString(); err != nil {
			return nil, fmt.Errorf("serialization failed: %w", err)
		}
	}

	return encode(text, encodingName), nil
}

// encode converts the UTF-8 rendering to the target charset. Runes the
// charset cannot represent are replaced rather than turned into an error.
func encode(text string, encodingName string) []byte {
	cm := loader.CharmapFor(encodingName)
	if cm == nil {
		return []byte(text)
	}
	enc := encoding.ReplaceUnsupported(cm.NewEncoder())
	data, err := enc.Bytes([]byte(text))
	if err != nil {
		// ReplaceUnsupported makes this unreachable; keep the UTF-8 bytes
		// rather than lose the document.
		return []byte(text)
	}
	return data
}
