package fileio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	rx "github.com/turtacn/rostertag/internal/intelligence/roster_extractor"
	"github.com/turtacn/rostertag/pkg/errors"
)

// ReadRecords decodes a record table.  CSV needs a header row; JSON (an
// array of objects) and JSON Lines build the header from keys in first-seen
// order, and rows missing a key get "".
func ReadRecords(r io.Reader, format Format) (*rx.Table, error) {
	switch format {
	case FormatCSV:
		return readRecordsCSV(r)
	case FormatJSONL:
		return readRecordsJSONL(r)
	case FormatJSON:
		return readRecordsJSON(r)
	default:
		return nil, errors.New(errors.ErrCodeRecordsInvalid, "unsupported record format").WithDetail(string(format))
	}
}

// ReadRecordsFile reads path, choosing the format from its extension.
func ReadRecordsFile(path string) (*rx.Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRecords(f, format)
}

func readRecordsCSV(r io.Reader) (*rx.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeRecordsInvalid, "record file has no header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRecordsInvalid, "failed to read record header")
	}
	if len(header) > 0 {
		header[0] = stripBOM(header[0])
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	table := &rx.Table{Columns: header}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeRecordsInvalid, "record line %d", line)
		}
		table.Rows = append(table.Rows, rec)
	}
	return table, nil
}

// tableBuilder accumulates objects with possibly differing key sets.
type tableBuilder struct {
	columns []string
	index   map[string]int
	rows    []map[string]string
}

func newTableBuilder() *tableBuilder {
	return &tableBuilder{index: make(map[string]int)}
}

func (b *tableBuilder) add(keys []string, values map[string]string) {
	for _, k := range keys {
		if _, ok := b.index[k]; !ok {
			b.index[k] = len(b.columns)
			b.columns = append(b.columns, k)
		}
	}
	b.rows = append(b.rows, values)
}

func (b *tableBuilder) table() *rx.Table {
	t := &rx.Table{Columns: b.columns, Rows: make([][]string, len(b.rows))}
	for i, m := range b.rows {
		row := make([]string, len(b.columns))
		for k, v := range m {
			row[b.index[k]] = v
		}
		t.Rows[i] = row
	}
	return t
}

func readRecordsJSONL(r io.Reader) (*rx.Table, error) {
	b := newTableBuilder()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for line := 1; sc.Scan(); line++ {
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		keys, values, err := decodeObject(dec)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeRecordsInvalid, "record line %d", line)
		}
		b.add(keys, values)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRecordsInvalid, "failed to read records")
	}
	return b.table(), nil
}

func readRecordsJSON(r io.Reader) (*rx.Table, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRecordsInvalid, "malformed record document")
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, errors.New(errors.ErrCodeRecordsInvalid, "record document must be a JSON array of objects")
	}
	b := newTableBuilder()
	for n := 1; dec.More(); n++ {
		keys, values, err := decodeObject(dec)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeRecordsInvalid, "record %d", n)
		}
		b.add(keys, values)
	}
	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRecordsInvalid, "malformed record document")
	}
	return b.table(), nil
}

// decodeObject reads one JSON object keeping its key order.  Scalars are
// rendered as text, null as "", nested values as compact JSON.
func decodeObject(dec *json.Decoder) ([]string, map[string]string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.New(errors.ErrCodeRecordsInvalid, "record is not a JSON object")
	}
	var keys []string
	values := make(map[string]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		if _, dup := values[key]; !dup {
			keys = append(keys, key)
		}
		values[key] = renderValue(raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, values, nil
}

func renderValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		return ""
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case raw[0] == '{' || raw[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			return buf.String()
		}
	}
	return string(raw)
}

//Personal.AI order the ending
