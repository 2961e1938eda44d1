package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune            // default ','
	HasHeader  bool            // if true, first row is skipped but sent to HeaderCh
	HeaderCh   chan<- []string // optional: receives the header row
	Comment    rune            // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
}

// StreamCSV reads a CSV file and sends rows to a channel.
// Caller must consume the returned row channel. Errors are sent on the error channel.
// Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1 // allow variable fields

		first := true
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			if first && opts.HasHeader {
				first = false
				if len(record) > 0 {
					record[0] = strings.TrimPrefix(record[0], "\ufeff")
				}
				if opts.HeaderCh != nil {
					select {
					case opts.HeaderCh <- record:
					case <-ctx.Done():
						errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled sending header")
						return
					}
				}
				continue
			}
			first = false

			if isBlankRow(record) {
				continue
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

func isBlankRow(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Table is a header-keyed CSV document.
type Table struct {
	Header []string
	Rows   []map[string]string
}

// ReadTable parses a CSV document with a header row. Each data row becomes a map
// keyed by header name; cells beyond the header are dropped and missing trailing
// cells are absent from the map. Blank lines are skipped.
func ReadTable(ctx context.Context, r io.Reader) (*Table, error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(ctx, r, CSVOptions{
		HasHeader:  true,
		HeaderCh:   headerCh,
		LazyQuotes: true,
	})

	t := &Table{}
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}

	select {
	case t.Header = <-headerCh:
	default:
		return t, nil
	}
	for i, h := range t.Header {
		t.Header[i] = strings.TrimSpace(h)
	}

	for _, row := range rows {
		m := make(map[string]string, len(t.Header))
		for i, h := range t.Header {
			if i >= len(row) || h == "" {
				continue
			}
			m[h] = row[i]
		}
		t.Rows = append(t.Rows, m)
	}
	return t, nil
}

// WriteTable writes t as CSV with its header row. Missing cells are written empty.
func WriteTable(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	rec := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i, h := range t.Header {
			rec[i] = row[h]
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "csv: flush")
}
