package output

import (
	"context"
	"fmt"
	"io"
)

// Summary modes for the terminal summary.
const (
	SummaryText  = "text"
	SummaryJSON  = "json"
	SummaryQuiet = "quiet"
	SummaryNone  = "none"
)

// Formatter renders a terminal summary of a report.
type Formatter interface {
	// Format renders the summary to the given writer.
	Format(ctx context.Context, doc *Document, info RunInfo, w io.Writer) error

	// Name returns the summary mode (text, json, quiet, none).
	Name() string
}

// SummaryModes returns the accepted summary mode names.
func SummaryModes() []string {
	return []string{SummaryText, SummaryJSON, SummaryQuiet, SummaryNone}
}

// NewFormatter returns the formatter for a summary mode.
func NewFormatter(mode string) (Formatter, error) {
	switch mode {
	case SummaryText:
		return NewTextFormatter(), nil
	case SummaryJSON:
		return NewJSONFormatter(), nil
	case SummaryQuiet:
		return NewQuietFormatter(), nil
	case SummaryNone:
		return noneFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown summary mode %q (use text, json, quiet or none)", mode)
	}
}

type noneFormatter struct{}

func (noneFormatter) Name() string { return SummaryNone }

func (noneFormatter) Format(context.Context, *Document, RunInfo, io.Writer) error { return nil }
