package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/rostertag/internal/application/extraction"
	"github.com/turtacn/rostertag/internal/infrastructure/fileio"
)

func newPatternsCmd() *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Print the compiled expression of every output column",
		Example: "  rostertag patterns --glossary glossary.csv\n" +
			"  rostertag patterns --glossary glossary.csv --num-max 4 -o json",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatterns(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.glossary, "glossary", "", "glossary file (.csv, .yaml, .json)")
	registerConfigFlags(cmd, opts)
	_ = cmd.MarkFlagRequired("glossary")
	return cmd
}

func runPatterns(cmd *cobra.Command, opts *extractOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	glossary, err := fileio.ReadGlossaryFile(opts.glossary)
	if err != nil {
		return err
	}
	svc, err := extraction.NewService(cliCtx.Config.Extraction, cliCtx.Logger)
	if err != nil {
		return err
	}
	report, err := svc.Patterns(ctx, glossary, opts.overrides(cmd))
	if err != nil {
		return err
	}
	return PrintResult(cmd, &patternsView{report})
}

// patternsView renders a PatternReport for the terminal.
type patternsView struct {
	*extraction.PatternReport
}

func (v *patternsView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fingerprint %s\n", v.Fingerprint)
	for _, c := range v.Columns {
		fmt.Fprintf(&sb, "\n%s:\n  %s\n", c.Column, sourceOrNone(c.Source))
		if c.Error != "" {
			fmt.Fprintf(&sb, "  error: %s\n", c.Error)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (v *patternsView) TableHeaders() []string { return []string{"COLUMN", "SOURCE"} }

func (v *patternsView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Columns))
	for _, c := range v.Columns {
		rows = append(rows, []string{string(c.Column), sourceOrNone(c.Source)})
	}
	return rows
}

func sourceOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

//Personal.AI order the ending
