package fetcher

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRows(t *testing.T, rowCh <-chan []string, errCh <-chan error) ([][]string, error) {
	t.Helper()
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

func TestStreamCSV_Basic(t *testing.T) {
	input := "a,b,c\n1,2,3\n4,5,6\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b", "c"}, rows[0])
	assert.Equal(t, []string{"4", "5", "6"}, rows[2])
}

func TestStreamCSV_WithHeader(t *testing.T) {
	input := "\ufeffname,age\nalice,30\nbob,25\n"
	headerCh := make(chan []string, 1)

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})

	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"alice", "30"}, rows[0])
	assert.Equal(t, []string{"name", "age"}, <-headerCh)
}

func TestStreamCSV_SkipsBlankRows(t *testing.T) {
	input := "a,b\n1,2\n,\n3,4\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestStreamCSV_LazyQuotes(t *testing.T) {
	input := `a,b,c
1,"hello "world",3
`
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		LazyQuotes: true,
	})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestStreamCSV_MalformedWithoutLazyQuotes(t *testing.T) {
	input := "a,b\n1,\"unterminated\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	assert.Error(t, err)
}

func TestStreamCSV_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a,b\n1,2\n"), CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestReadTable(t *testing.T) {
	input := "Firm,Category,City,extra\nAcme VC,VC,New York\n\nEmpire,PE,New York,x,overflow\n"
	tbl, err := ReadTable(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Firm", "Category", "City", "extra"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, map[string]string{"Firm": "Acme VC", "Category": "VC", "City": "New York"}, tbl.Rows[0])
	assert.Equal(t, "x", tbl.Rows[1]["extra"])
	assert.Len(t, tbl.Rows[1], 4)
}

func TestReadTable_Empty(t *testing.T) {
	tbl, err := ReadTable(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, tbl.Header)
	assert.Empty(t, tbl.Rows)
}

func TestWriteTable_RoundTrip(t *testing.T) {
	tbl := &Table{
		Header: []string{"firm_name", "hq_address", "lat"},
		Rows: []map[string]string{
			{"firm_name": "Acme, Inc", "hq_address": "1 Main St", "lat": "40.7"},
			{"firm_name": "Empire"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, tbl))
	assert.Equal(t, "firm_name,hq_address,lat\n\"Acme, Inc\",1 Main St,40.7\nEmpire,,\n", buf.String())

	back, err := ReadTable(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, "Acme, Inc", back.Rows[0]["firm_name"])
}
