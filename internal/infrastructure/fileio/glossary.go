package fileio

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	rx "github.com/turtacn/rostertag/internal/intelligence/roster_extractor"
	"github.com/turtacn/rostertag/pkg/errors"
)

const (
	headerFullTerm      = "full_term"
	headerAbbreviations = "abbreviations"
	headerTermType      = "term_type"
)

// GlossaryDocument is one entry as it appears in a YAML or JSON glossary.
type GlossaryDocument struct {
	FullTerm      string        `json:"full_term" yaml:"full_term"`
	Abbreviations Abbreviations `json:"abbreviations" yaml:"abbreviations"`
	TermType      string        `json:"term_type" yaml:"term_type"`
}

// Abbreviations decodes either a list of strings or a single delimited
// string ("A; B").
type Abbreviations []string

func (a *Abbreviations) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = list
		return nil
	}
	var cell string
	if err := json.Unmarshal(data, &cell); err != nil {
		return errors.New(errors.ErrCodeGlossaryFormat, "abbreviations must be a string or a list of strings")
	}
	*a = rx.SplitAbbreviations(cell)
	return nil
}

func (a *Abbreviations) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*a = list
	case yaml.ScalarNode:
		*a = rx.SplitAbbreviations(value.Value)
	default:
		return errors.Newf(errors.ErrCodeGlossaryFormat, "abbreviations must be a string or a list at line %d", value.Line)
	}
	return nil
}

// ReadGlossary decodes a glossary document.  Errors carry the 1-based entry
// number (data row for CSV).
func ReadGlossary(r io.Reader, format Format) ([]rx.GlossaryEntry, error) {
	switch format {
	case FormatCSV:
		return readGlossaryCSV(r)
	case FormatJSON, FormatYAML:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeGlossaryFormat, "failed to read glossary")
		}
		var docs []GlossaryDocument
		if format == FormatJSON {
			err = json.Unmarshal(data, &docs)
		} else {
			err = yaml.Unmarshal(data, &docs)
		}
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeGlossaryFormat, "malformed %s glossary", format)
		}
		return entriesFromDocuments(docs)
	default:
		return nil, errors.New(errors.ErrCodeGlossaryFormat, "unsupported glossary format").WithDetail(string(format))
	}
}

// ReadGlossaryFile reads path, choosing the format from its extension.
func ReadGlossaryFile(path string) ([]rx.GlossaryEntry, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadGlossary(f, format)
}

func readGlossaryCSV(r io.Reader) ([]rx.GlossaryEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeGlossaryFormat, "glossary is empty")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGlossaryFormat, "failed to read glossary header")
	}
	idx := map[string]int{headerFullTerm: -1, headerAbbreviations: -1, headerTermType: -1}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(stripBOM(h)))
		if _, ok := idx[h]; ok {
			idx[h] = i
		}
	}
	for name, i := range idx {
		if i < 0 {
			return nil, errors.New(errors.ErrCodeGlossaryFormat, "glossary header is missing a column").WithDetail(name)
		}
	}

	var entries []rx.GlossaryEntry
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeGlossaryFormat, "glossary row %d", row)
		}
		if blank(rec) {
			continue
		}
		e, err := rx.NewGlossaryEntry(
			field(rec, idx[headerFullTerm]),
			rx.SplitAbbreviations(field(rec, idx[headerAbbreviations])),
			field(rec, idx[headerTermType]),
		)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeGlossaryInvalid, "glossary row %d", row)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func entriesFromDocuments(docs []GlossaryDocument) ([]rx.GlossaryEntry, error) {
	entries := make([]rx.GlossaryEntry, 0, len(docs))
	for i, d := range docs {
		e, err := rx.NewGlossaryEntry(d.FullTerm, d.Abbreviations, d.TermType)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeGlossaryInvalid, "glossary entry %d", i+1)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}

//Personal.AI order the ending
