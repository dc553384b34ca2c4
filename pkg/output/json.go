package output

import (
	"context"
	"encoding/json"
	"io"
)

// JSONFormatter prints the report document as indented JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return SummaryJSON
}

// Format renders the document as JSON.
func (f *JSONFormatter) Format(ctx context.Context, doc *Document, info RunInfo, w io.Writer) error {
	return EncodeJSON(doc, w)
}

// EncodeJSON writes doc in the report.json layout.
func EncodeJSON(doc *Document, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(doc)
}
