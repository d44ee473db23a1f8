package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Format selects how command results are written.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ErrUnknownFormat is returned for unsupported --output values.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat parses an --output value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

type printer struct {
	w      io.Writer
	format Format
}

// emit writes v as JSON or YAML, or renders it with table in table format.
func (p *printer) emit(v any, table func(w io.Writer)) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil
	case FormatYAML:
		return writeYAML(p.w, v)
	case FormatTable:
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	table(tw)

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return nil
}

// message writes a status line. It is suppressed for machine-readable formats.
func (p *printer) message(format string, args ...any) {
	if p.format != FormatTable {
		return
	}

	fmt.Fprintf(p.w, format+"\n", args...)
}

// writeYAML renders v through its JSON encoding so YAML keys match the JSON
// field names.
func writeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}

	blockStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return nil
}

func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle | yaml.DoubleQuotedStyle | yaml.SingleQuotedStyle

	for _, child := range n.Content {
		blockStyle(child)
	}
}

func row(w io.Writer, cols ...any) {
	for i, col := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}

		fmt.Fprint(w, col)
	}

	fmt.Fprintln(w)
}

func money(d decimal.Decimal) string {
	f, _ := d.Float64()

	return humanize.FormatFloat("#,###.##", f)
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return humanize.Time(t)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
