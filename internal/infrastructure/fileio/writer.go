package fileio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"

	rx "github.com/turtacn/rostertag/internal/intelligence/roster_extractor"
	"github.com/turtacn/rostertag/pkg/errors"
)

// WriteResult renders res row by row.  Passthrough columns come first, then
// the list columns in res.Columns order.  In CSV a list cell is a JSON array.
func WriteResult(w io.Writer, res *rx.Result, format Format) error {
	if res == nil {
		return errors.New(errors.ErrCodeValidation, "result is nil")
	}
	switch format {
	case FormatCSV:
		return writeCSV(w, res)
	case FormatJSONL:
		return writeJSONL(w, res)
	default:
		return errors.New(errors.ErrCodeValidation, "unsupported output format").WithDetail(string(format))
	}
}

// WriteResultFile creates path and writes res in the format of its extension.
func WriteResultFile(path string, res *rx.Result) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error { return WriteResult(w, res, format) })
}

// EncodeResult renders res into memory.
func EncodeResult(res *rx.Result, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteResult(&buf, res, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create output file").WithDetail(path)
	}
	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write output file").WithDetail(path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to close output file").WithDetail(path)
	}
	return nil
}

func tokenList(tokens []string) []string {
	if tokens == nil {
		return []string{}
	}
	return tokens
}

func writeCSV(w io.Writer, res *rx.Result) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(res.InputColumns)+len(res.Columns))
	header = append(header, res.InputColumns...)
	for _, c := range res.Columns {
		header = append(header, string(c))
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write csv header")
	}

	rec := make([]string, len(header))
	for _, row := range res.Rows {
		for i := range res.InputColumns {
			rec[i] = ""
			if i < len(row.Values) {
				rec[i] = row.Values[i]
			}
		}
		for j, c := range res.Columns {
			data, err := json.Marshal(tokenList(row.Tokens[c]))
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode token list")
			}
			rec[len(res.InputColumns)+j] = string(data)
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to flush csv")
	}
	return nil
}

// writeJSONL emits one object per row with keys in header order.
func writeJSONL(w io.Writer, res *rx.Result) error {
	var buf bytes.Buffer
	for i := range res.Rows {
		buf.Reset()
		if err := encodeRow(&buf, res, &res.Rows[i]); err != nil {
			return err
		}
		buf.WriteByte('\n')
		if _, err := w.Write(buf.Bytes()); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to write row")
		}
	}
	return nil
}

// RowObjects renders every row as a JSON object with keys in header order.
func RowObjects(res *rx.Result) ([]json.RawMessage, error) {
	if res == nil {
		return nil, errors.New(errors.ErrCodeValidation, "result is nil")
	}
	out := make([]json.RawMessage, len(res.Rows))
	for i := range res.Rows {
		var buf bytes.Buffer
		if err := encodeRow(&buf, res, &res.Rows[i]); err != nil {
			return nil, err
		}
		out[i] = buf.Bytes()
	}
	return out, nil
}

func encodeRow(buf *bytes.Buffer, res *rx.Result, row *rx.OutputRow) error {
	buf.WriteByte('{')
	first := true
	put := func(key string, v interface{}) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		data, err := json.Marshal(v)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode row")
		}
		buf.Write(data)
		return nil
	}
	for i, col := range res.InputColumns {
		v := ""
		if i < len(row.Values) {
			v = row.Values[i]
		}
		if err := put(col, v); err != nil {
			return err
		}
	}
	for _, c := range res.Columns {
		if err := put(string(c), tokenList(row.Tokens[c])); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

//Personal.AI order the ending
