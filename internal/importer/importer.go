// Package importer builds documents from the writing tool's XHTML export.
// Headings h1-h6 become heading blocks with their level; p elements become
// paragraph blocks. Everything else in the body is ignored.
package importer

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/quillcraft/inkwell/core/doc"
	"github.com/quillcraft/inkwell/core/errors"
)

// blockExpr selects the block-level elements of the export body, in document
// order.
var blockExpr = xpath.MustCompile("//body//*[self::p or self::h1 or self::h2 or self::h3 or self::h4 or self::h5 or self::h6]")

// titleExpr selects the export title.
var titleExpr = xpath.MustCompile("//head/title")

// ImportXHTML parses an XHTML export and returns a new document with the
// given id. Every block gets a fresh id and a computed content hash; the
// document's BaseVersion is computed from the full sequence.
func ImportXHTML(docID string, data []byte) (*doc.Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "parse export")
	}

	d := doc.New(docID, "")
	if title := xmlquery.QuerySelector(root, titleExpr); title != nil {
		d.Title = strings.TrimSpace(title.InnerText())
	}

	for _, n := range xmlquery.QuerySelectorAll(root, blockExpr) {
		text := collapseSpace(n.InnerText())
		if text == "" {
			continue
		}
		if n.Data == "p" {
			d.Append(doc.NewBlock(text))
			continue
		}
		level, err := strconv.Atoi(strings.TrimPrefix(n.Data, "h"))
		if err != nil || level < 1 || level > 6 {
			continue
		}
		d.Append(doc.NewHeading(text, level))
	}

	if len(d.Blocks) == 0 {
		return nil, errors.NewValidation("export", "no block content found in export")
	}
	return d, nil
}

// collapseSpace normalizes intra-block whitespace: runs of spaces, tabs, and
// newlines inside an element collapse to one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
