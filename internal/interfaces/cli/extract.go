package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/rostertag/internal/application/extraction"
	"github.com/turtacn/rostertag/internal/bootstrap"
	"github.com/turtacn/rostertag/internal/domain/run"
	"github.com/turtacn/rostertag/internal/infrastructure/fileio"
	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rostertag/pkg/errors"
)

type extractOptions struct {
	glossary string
	records  string
	output   string
	format   string

	stemThreshold     int
	maxSuffixLen      int
	numMin            int
	numMax            int
	alphaLetters      []string
	alphaTokens       []string
	specialNumLengths []int
	caseSensitive     bool
	textColumn        string
	notesColumn       string
}

func newExtractCmd() *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Tag every record of a roster file",
		Long: "Reads a glossary and a record table, extracts the category tokens of every\n" +
			"record and writes the table with one list column per category.  Results go to\n" +
			"stdout unless --output is set.",
		Example: "  rostertag extract --glossary glossary.csv --records roster.csv --output tagged.jsonl\n" +
			"  rostertag extract --glossary glossary.yaml --records roster.jsonl --format csv --num-max 4",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.glossary, "glossary", "", "glossary file (.csv, .yaml, .json)")
	f.StringVar(&opts.records, "records", "", "record file (.csv, .jsonl, .json)")
	f.StringVar(&opts.output, "output", "", "output file (.csv, .jsonl); stdout when empty")
	f.StringVar(&opts.format, "format", "", "output format: csv|jsonl (default: from --output extension, else jsonl)")
	registerConfigFlags(cmd, opts)
	_ = cmd.MarkFlagRequired("glossary")
	_ = cmd.MarkFlagRequired("records")
	return cmd
}

// registerConfigFlags binds the engine overrides shared by extract and
// patterns.  Only flags the user sets change the configured value.
func registerConfigFlags(cmd *cobra.Command, opts *extractOptions) {
	f := cmd.Flags()
	f.IntVar(&opts.stemThreshold, "stem-threshold", 0, "minimum length for a surface form to also match as a prefix stem")
	f.IntVar(&opts.maxSuffixLen, "max-suffix-len", 0, "maximum letters allowed after a stem")
	f.IntVar(&opts.numMin, "num-min", 0, "minimum digits in a designator number")
	f.IntVar(&opts.numMax, "num-max", 0, "maximum digits in a designator number")
	f.StringSliceVar(&opts.alphaLetters, "alpha-letters", nil, "single-letter designators, e.g. A,B,C")
	f.StringSliceVar(&opts.alphaTokens, "alpha-tokens", nil, "multi-letter designators, e.g. I,II,HQ")
	f.IntSliceVar(&opts.specialNumLengths, "special-num-lengths", nil, "digit lengths reported as special numbers, e.g. 4")
	f.BoolVar(&opts.caseSensitive, "case-sensitive", false, "match glossary forms case-sensitively")
	f.StringVar(&opts.textColumn, "text-column", "", "record column holding the text to tag")
	f.StringVar(&opts.notesColumn, "notes-column", "", "optional record column appended to the text")
}

// overrides collects the engine flags the user changed.
func (o *extractOptions) overrides(cmd *cobra.Command) *extraction.Overrides {
	f := cmd.Flags()
	ov := &extraction.Overrides{}
	if f.Changed("stem-threshold") {
		ov.StemThreshold = &o.stemThreshold
	}
	if f.Changed("max-suffix-len") {
		ov.MaxSuffixLen = &o.maxSuffixLen
	}
	if f.Changed("num-min") {
		ov.NumMinLen = &o.numMin
	}
	if f.Changed("num-max") {
		ov.NumMaxLen = &o.numMax
	}
	if f.Changed("alpha-letters") {
		ov.AlphaLetters = nonNil(o.alphaLetters)
	}
	if f.Changed("alpha-tokens") {
		ov.AlphaTokens = nonNil(o.alphaTokens)
	}
	if f.Changed("special-num-lengths") {
		ov.SpecialNumLengths = o.specialNumLengths
		if ov.SpecialNumLengths == nil {
			ov.SpecialNumLengths = []int{}
		}
	}
	if f.Changed("case-sensitive") {
		insensitive := !o.caseSensitive
		ov.CaseInsensitive = &insensitive
	}
	if f.Changed("text-column") {
		ov.TextColumn = &o.textColumn
	}
	if f.Changed("notes-column") {
		ov.NotesColumn = &o.notesColumn
	}
	if ov.Empty() {
		return nil
	}
	return ov
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (o *extractOptions) outputFormat() (fileio.Format, error) {
	switch {
	case o.format != "":
		return fileio.ParseFormat(o.format)
	case o.output != "":
		return fileio.FormatFromPath(o.output)
	default:
		return fileio.FormatJSONL, nil
	}
}

func runExtract(cmd *cobra.Command, opts *extractOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	format, err := opts.outputFormat()
	if err != nil {
		return err
	}
	if format != fileio.FormatCSV && format != fileio.FormatJSONL {
		return errors.New(errors.ErrCodeValidation, "output format must be csv or jsonl").WithDetail(string(format))
	}

	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	// Inputs and output are local paths; the cache and run store stay
	// available when configured.
	cfg := *cliCtx.Config
	cfg.MinIO.Enabled = false
	cfg.Metrics.Enabled = false
	infra, err := bootstrap.Open(ctx, &cfg, cliCtx.Logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	svc, err := infra.NewService(&cfg)
	if err != nil {
		return err
	}

	cliCtx.Logger.Debug("starting extraction",
		logging.String("glossary", opts.glossary),
		logging.String("records", opts.records),
		logging.String("format", string(format)))

	out, err := svc.Run(ctx, &extraction.RunRequest{
		Origin:      run.SourceCLI,
		Overrides:   opts.overrides(cmd),
		GlossaryRef: opts.glossary,
		RecordsRef:  opts.records,
	})
	if err != nil {
		return err
	}

	if opts.output == "" {
		if err := fileio.WriteResult(cmd.OutOrStdout(), out.Result, format); err != nil {
			return err
		}
	} else if err := writeOutputFile(opts.output, out, format); err != nil {
		return err
	}

	return writeSummary(cmd.ErrOrStderr(), cliCtx.OutputFormat, newExtractSummary(out, opts.output))
}

func writeOutputFile(path string, out *extraction.RunResult, format fileio.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create output file").WithDetail(path)
	}
	if err := fileio.WriteResult(f, out.Result, format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to close output file").WithDetail(path)
	}
	return nil
}

// extractSummary describes a finished run.
type extractSummary struct {
	RunID         string            `json:"run_id"`
	Fingerprint   string            `json:"fingerprint"`
	Records       int               `json:"records"`
	DistinctTexts int               `json:"distinct_texts"`
	CacheHits     int               `json:"cache_hits"`
	CacheMisses   int               `json:"cache_misses"`
	ElapsedMs     int64             `json:"elapsed_ms"`
	Output        string            `json:"output,omitempty"`
	FailedColumns []string          `json:"failed_columns,omitempty"`
	Errors        map[string]string `json:"errors,omitempty"`
}

func newExtractSummary(out *extraction.RunResult, output string) *extractSummary {
	s := &extractSummary{
		RunID:         out.RunID.String(),
		Fingerprint:   out.Fingerprint,
		Records:       len(out.Result.Rows),
		DistinctTexts: out.Result.DistinctTexts,
		CacheHits:     out.CacheHits,
		CacheMisses:   out.CacheMisses,
		ElapsedMs:     out.Elapsed.Milliseconds(),
		Output:        output,
		FailedColumns: out.Result.Diagnostics.FailedColumns(),
	}
	if len(out.Result.Diagnostics.Errors) > 0 {
		s.Errors = make(map[string]string, len(out.Result.Diagnostics.Errors))
		for col, msg := range out.Result.Diagnostics.Errors {
			s.Errors[string(col)] = msg
		}
	}
	return s
}

func (s *extractSummary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s: %d records, %d distinct texts, %d cached, %d extracted in %dms",
		s.RunID, s.Records, s.DistinctTexts, s.CacheHits, s.CacheMisses, s.ElapsedMs)
	if s.Output != "" {
		fmt.Fprintf(&sb, "\nwrote %s", s.Output)
	}
	for _, col := range s.FailedColumns {
		fmt.Fprintf(&sb, "\nfailed column %s: %s", col, s.Errors[col])
	}
	return sb.String()
}

func (s *extractSummary) TableHeaders() []string { return []string{"FIELD", "VALUE"} }

func (s *extractSummary) TableRows() [][]string {
	rows := [][]string{
		{"run_id", s.RunID},
		{"fingerprint", s.Fingerprint},
		{"records", strconv.Itoa(s.Records)},
		{"distinct_texts", strconv.Itoa(s.DistinctTexts)},
		{"cache_hits", strconv.Itoa(s.CacheHits)},
		{"cache_misses", strconv.Itoa(s.CacheMisses)},
		{"elapsed_ms", strconv.FormatInt(s.ElapsedMs, 10)},
	}
	if s.Output != "" {
		rows = append(rows, []string{"output", s.Output})
	}
	cols := append([]string(nil), s.FailedColumns...)
	sort.Strings(cols)
	for _, col := range cols {
		rows = append(rows, []string{"failed:" + col, s.Errors[col]})
	}
	return rows
}

// writeSummary renders the run summary on w in the requested format.
func writeSummary(w io.Writer, format string, s *extractSummary) error {
	return printFormatted(w, format, s)
}

//Personal.AI order the ending
