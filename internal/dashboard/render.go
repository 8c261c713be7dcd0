package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

const missingValue = "-"

// Renderer prints a State. It never touches the chain.
type Renderer struct {
	out    io.Writer
	format string
}

func NewRenderer(out io.Writer, format string) (*Renderer, error) {
	switch format {
	case "", FormatTable:
		format = FormatTable
	case FormatJSON:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	return &Renderer{out: out, format: format}, nil
}

// Render writes every metric in dashboard order.
func (r *Renderer) Render(state *State) error {
	fields := state.Fields()
	if r.format == FormatJSON {
		return r.renderJSON(fields)
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, m := range Metrics {
		value := missingValue
		if f, ok := fields[m.Field]; ok {
			value = f.Value
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", m.Label, value); err != nil {
			return err
		}
	}
	return w.Flush()
}

type renderedField struct {
	Field     string `json:"field"`
	Label     string `json:"label"`
	Value     string `json:"value"`
	Raw       string `json:"raw,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func (r *Renderer) renderJSON(fields map[string]Field) error {
	rows := make([]renderedField, 0, len(Metrics))
	for _, m := range Metrics {
		row := renderedField{Field: m.Field, Label: m.Label, Value: missingValue}
		if f, ok := fields[m.Field]; ok {
			row.Value = f.Value
			row.Raw = f.Raw
			row.UpdatedAt = f.UpdatedAt.Format(time.RFC3339Nano)
		}
		rows = append(rows, row)
	}
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
