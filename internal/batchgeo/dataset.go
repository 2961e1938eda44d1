package batchgeo

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/sells-group/ipo-sim/internal/fetcher"
	"github.com/sells-group/ipo-sim/internal/geo"
	"github.com/sells-group/ipo-sim/internal/normalize"
)

// Dataset is a firm file the runner can read tasks from and write positions to.
type Dataset interface {
	// Records returns the address and the needs-update flag of every record.
	Records(force bool) []Record
	// SetPosition stores pos on record i.
	SetPosition(i int, pos geo.LatLng) error
	// Bytes serializes the dataset.
	Bytes() ([]byte, error)
}

// Record is one dataset row as seen by the runner.
type Record struct {
	Address     Address
	NeedsUpdate bool
}

var aliases = normalize.DefaultAliasTable()

// CSVDataset is a header-row CSV file. Every column is preserved; lat and lng
// columns are appended when missing.
type CSVDataset struct {
	table *fetcher.Table
}

// ReadCSV parses a CSV dataset.
func ReadCSV(ctx context.Context, data []byte) (*CSVDataset, error) {
	t, err := fetcher.ReadTable(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "batchgeo: parse csv")
	}
	return &CSVDataset{table: t}, nil
}

func (d *CSVDataset) field(row map[string]string, field string) string {
	for _, alias := range aliases.Aliases(field) {
		if v := strings.TrimSpace(row[alias]); v != "" {
			return v
		}
	}
	return ""
}

func (d *CSVDataset) Records(force bool) []Record {
	out := make([]Record, len(d.table.Rows))
	for i, row := range d.table.Rows {
		_, latOK := parseCoord(d.field(row, normalize.FieldLat))
		_, lngOK := parseCoord(d.field(row, normalize.FieldLng))
		out[i] = Record{
			Address: Address{
				Name:   d.field(row, normalize.FieldName),
				Street: d.field(row, normalize.FieldAddress),
				City:   d.field(row, normalize.FieldCity),
				State:  d.field(row, normalize.FieldState),
			},
			NeedsUpdate: force || !latOK || !lngOK,
		}
	}
	return out
}

func (d *CSVDataset) SetPosition(i int, pos geo.LatLng) error {
	if i < 0 || i >= len(d.table.Rows) {
		return eris.Errorf("batchgeo: csv row %d out of range", i)
	}
	d.ensureColumn("lat")
	d.ensureColumn("lng")
	d.table.Rows[i]["lat"] = formatCoord(pos.Lat())
	d.table.Rows[i]["lng"] = formatCoord(pos.Lng())
	return nil
}

func (d *CSVDataset) ensureColumn(name string) {
	for _, h := range d.table.Header {
		if h == name {
			return
		}
	}
	d.table.Header = append(d.table.Header, name)
}

func (d *CSVDataset) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := fetcher.WriteTable(&buf, d.table); err != nil {
		return nil, eris.Wrap(err, "batchgeo: write csv")
	}
	return buf.Bytes(), nil
}

// JSONDataset is a JSON array of firm objects. Only the position key of
// updated entries changes; every other byte is kept.
type JSONDataset struct {
	data []byte
}

// ReadJSON validates and wraps a JSON dataset.
func ReadJSON(data []byte) (*JSONDataset, error) {
	if !gjson.ValidBytes(data) {
		return nil, eris.New("batchgeo: invalid json")
	}
	if !gjson.ParseBytes(data).IsArray() {
		return nil, eris.New("batchgeo: json dataset is not an array")
	}
	return &JSONDataset{data: data}, nil
}

func jsonField(entry gjson.Result, field string) string {
	for _, alias := range aliases.Aliases(field) {
		v := entry.Get(gjsonEscape(alias))
		if v.Exists() {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func (d *JSONDataset) Records(force bool) []Record {
	entries := gjson.ParseBytes(d.data).Array()
	out := make([]Record, len(entries))
	for i, e := range entries {
		out[i] = Record{
			Address: Address{
				Name:   jsonField(e, normalize.FieldName),
				Street: jsonField(e, normalize.FieldAddress),
				City:   jsonField(e, normalize.FieldCity),
				State:  jsonField(e, normalize.FieldState),
			},
			NeedsUpdate: force || !hasJSONPosition(e),
		}
	}
	return out
}

func hasJSONPosition(e gjson.Result) bool {
	pos := e.Get("position")
	if !pos.IsArray() {
		return false
	}
	pair := pos.Array()
	if len(pair) != 2 {
		return false
	}
	_, latOK := parseCoord(pair[0].String())
	_, lngOK := parseCoord(pair[1].String())
	return latOK && lngOK
}

func (d *JSONDataset) SetPosition(i int, pos geo.LatLng) error {
	out, err := sjson.SetBytes(d.data, fmt.Sprintf("%d.position", i), []float64{pos.Lat(), pos.Lng()})
	if err != nil {
		return eris.Wrapf(err, "batchgeo: set position of entry %d", i)
	}
	d.data = out
	return nil
}

func (d *JSONDataset) Bytes() ([]byte, error) {
	out := bytes.TrimRight(d.data, "\n")
	return append(append([]byte(nil), out...), '\n'), nil
}

// gjsonEscape escapes path metacharacters so header-like keys such as
// "Difficulty (1-5)" resolve literally.
func gjsonEscape(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func parseCoord(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batchgeo: read %s", path)
	}
	return data, nil
}
