package writer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/beevik/etree"

	"github.com/younessemlali/xml-PeoPulse-Kfacture/internal/loader"
)

func sampleDoc(t *testing.T) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	err := doc.ReadFromString("<CMAD><CONTRAT><CONO>C1</CONO><LIBELLE>intérim</LIBELLE></CONTRAT></CMAD>")
	if err != nil {
		t.Fatalf("failed to build sample document: %v", err)
	}
	return doc
}

func TestRenderDeclarationAndIndent(t *testing.T) {
	data, err := Render(sampleDoc(t), loader.EncodingISO88591)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.HasPrefix(data, []byte(`<?xml version="1.0" encoding="ISO-8859-1"?>`)) {
		t.Errorf("missing or wrong declaration: %q", data[:60])
	}

	// Uniform 2-space indentation per nesting level.
	text := string(data)
	if !strings.Contains(text, "\n  <CONTRAT>") {
		t.Errorf("CONTRAT not indented one level:\n%s", text)
	}
	if !strings.Contains(text, "\n    <CONO>C1</CONO>") {
		t.Errorf("CONO not indented two levels:\n%s", text)
	}
}

func TestRenderEncodesToLatin1(t *testing.T) {
	data, err := Render(sampleDoc(t), loader.EncodingISO88591)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Contains(data, []byte("int\xE9rim")) {
		t.Error("accented character was not encoded to Latin-1")
	}
	if bytes.Contains(data, []byte("int\xC3\xA9rim")) {
		t.Error("output still contains UTF-8 bytes")
	}
}

func TestRenderUTF8PassThrough(t *testing.T) {
	data, err := Render(sampleDoc(t), loader.EncodingUTF8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.HasPrefix(data, []byte(`<?xml version="1.0" encoding="UTF-8"?>`)) {
		t.Errorf("missing or wrong declaration: %q", data[:60])
	}
	if !bytes.Contains(data, []byte("intérim")) {
		t.Error("UTF-8 text was altered")
	}
}

func TestRenderReplacesUnsupportedRunes(t *testing.T) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString("<CMAD><LIBELLE>prime €</LIBELLE></CMAD>"); err != nil {
		t.Fatalf("failed to build document: %v", err)
	}

	// The euro sign has no ISO-8859-1 mapping; content must survive with a
	// replacement rather than fail the rendering.
	data, err := Render(doc, loader.EncodingISO88591)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(data, []byte("prime ")) {
		t.Error("surrounding content was lost")
	}
}

func TestRenderCollapsesBlankLines(t *testing.T) {
	doc := etree.NewDocument()
	err := doc.ReadFromString("<CMAD>\n\n\n  <CONTRAT>\n\n    <CONO>C1</CONO>\n\n  </CONTRAT>\n\n</CMAD>")
	if err != nil {
		t.Fatalf("failed to build document: %v", err)
	}

	data, err := Render(doc, loader.EncodingUTF8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.Contains(data, []byte("\n\n")) {
		t.Errorf("blank lines were not collapsed:\n%s", data)
	}
}
