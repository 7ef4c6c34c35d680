package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	rx "github.com/turtacn/rostertag/internal/intelligence/roster_extractor"
	"github.com/turtacn/rostertag/pkg/errors"
)

const (
	glossaryCSV = "full_term,abbreviations,term_type\n" +
		"Sergeant,Sgt,Role Term\n" +
		"Company,Co,Unit Term\n"
	recordsCSV = "ID,Name,Notes\n" +
		"1,Sgt John Smith,\n" +
		"2,Pvt Adam Jones,Co E\n"
)

type CLITestSuite struct {
	suite.Suite
	dir      string
	config   string
	glossary string
	records  string
}

func TestCLITestSuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}

func (s *CLITestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.config = s.write("config.yaml", "log:\n  level: error\nmetrics:\n  enabled: false\n")
	s.glossary = s.write("glossary.csv", glossaryCSV)
	s.records = s.write("records.csv", recordsCSV)
}

func (s *CLITestSuite) write(name, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with --config prepended.
func (s *CLITestSuite) execute(args ...string) (string, string, error) {
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", s.config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (s *CLITestSuite) TestExtract_Stdout() {
	stdout, stderr, err := s.execute("extract", "--glossary", s.glossary, "--records", s.records)
	s.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	s.Require().Len(lines, 2)
	s.True(strings.HasPrefix(lines[0], `{"ID":"1","Name":"Sgt John Smith","Notes":"",`), lines[0])
	s.Contains(lines[0], `"Role_Terms":["SGT"]`)
	s.Contains(lines[1], `"Role_Terms":["PVT"]`)
	s.Contains(lines[1], `"Unit_Term_Alpha_Term:Pair":["CO:E"]`)
	s.Contains(stderr, "2 records, 2 distinct texts")
}

func (s *CLITestSuite) TestExtract_CSVFile() {
	out := filepath.Join(s.dir, "tagged.csv")
	_, stderr, err := s.execute("extract", "--glossary", s.glossary, "--records", s.records, "--output", out)
	s.Require().NoError(err)
	s.Contains(stderr, "wrote "+out)

	f, err := os.Open(out)
	s.Require().NoError(err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	s.Require().NoError(err)
	s.Require().Len(rows, 3)

	role := -1
	for i, h := range rows[0] {
		if h == string(rx.ColumnRoleTerms) {
			role = i
		}
	}
	s.Require().GreaterOrEqual(role, 0)
	s.Equal([]string{"ID", "Name", "Notes"}, rows[0][:3])
	s.Equal(`["SGT"]`, rows[1][role])
}

func (s *CLITestSuite) TestExtract_FormatOverridesExtension() {
	out := filepath.Join(s.dir, "tagged.out")
	_, _, err := s.execute("extract", "--glossary", s.glossary, "--records", s.records, "--output", out, "--format", "jsonl")
	s.Require().NoError(err)
	data, err := os.ReadFile(out)
	s.Require().NoError(err)
	s.Contains(string(data), `"Role_Terms":["SGT"]`)
}

func (s *CLITestSuite) TestExtract_JSONSummary() {
	_, stderr, err := s.execute("-o", "json", "extract", "--glossary", s.glossary, "--records", s.records)
	s.Require().NoError(err)

	var summary extractSummary
	s.Require().NoError(json.Unmarshal([]byte(stderr), &summary))
	s.Equal(2, summary.Records)
	s.Equal(2, summary.CacheMisses)
	s.NotEmpty(summary.Fingerprint)
}

func (s *CLITestSuite) TestExtract_Errors() {
	_, _, err := s.execute("extract", "--records", s.records)
	s.Require().Error(err)
	s.Contains(err.Error(), "glossary")

	_, _, err = s.execute("extract", "--glossary", s.glossary, "--records", s.records, "--format", "yaml")
	s.True(errors.IsCode(err, errors.ErrCodeValidation), "%v", err)

	_, _, err = s.execute("extract", "--glossary", s.glossary, "--records", s.records, "--num-min", "3", "--num-max", "2")
	s.True(errors.IsCode(err, errors.ErrCodeNumericBounds), "%v", err)

	_, _, err = s.execute("extract", "--glossary", s.glossary, "--records", s.records, "--text-column", "Rank")
	s.True(errors.IsCode(err, errors.ErrCodeMissingTextColumn), "%v", err)

	_, _, err = s.execute("extract", "--glossary", filepath.Join(s.dir, "missing.csv"), "--records", s.records)
	s.True(errors.IsNotFound(err), "%v", err)
}

func (s *CLITestSuite) TestExtract_CaseSensitive() {
	lower := s.write("lower.csv", "ID,Name\n1,sgt smith\n")
	stdout, _, err := s.execute("extract", "--glossary", s.glossary, "--records", lower, "--case-sensitive")
	s.Require().NoError(err)
	s.Contains(stdout, `"Role_Terms":[]`)

	stdout, _, err = s.execute("extract", "--glossary", s.glossary, "--records", lower)
	s.Require().NoError(err)
	s.Contains(stdout, `"Role_Terms":["SGT"]`)
}

func (s *CLITestSuite) TestPatterns() {
	stdout, _, err := s.execute("patterns", "--glossary", s.glossary)
	s.Require().NoError(err)
	s.Contains(stdout, "fingerprint ")
	s.Contains(stdout, string(rx.ColumnRoleTerms)+":")

	stdout, _, err = s.execute("-o", "table", "patterns", "--glossary", s.glossary)
	s.Require().NoError(err)
	s.True(strings.HasPrefix(stdout, "COLUMN"), stdout)

	stdout, _, err = s.execute("-o", "json", "patterns", "--glossary", s.glossary)
	s.Require().NoError(err)
	var report struct {
		Fingerprint string            `json:"fingerprint"`
		Columns     []rx.ColumnSource `json:"columns"`
	}
	s.Require().NoError(json.Unmarshal([]byte(stdout), &report))
	s.NotEmpty(report.Fingerprint)
	s.Require().NotEmpty(report.Columns)
	s.Equal(rx.ColumnOrgTerms, report.Columns[0].Column)

	stdout2, _, err := s.execute("-o", "json", "patterns", "--glossary", s.glossary, "--num-max", "4")
	s.Require().NoError(err)
	s.NotEqual(stdout, stdout2)
}

func (s *CLITestSuite) TestBadConfigFile() {
	s.config = s.write("broken.yaml", "server:\n  port: 99999\n")
	_, _, err := s.execute("patterns", "--glossary", s.glossary)
	s.Require().Error(err)
	s.Contains(err.Error(), "config initialization failed")
}

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "rostertag", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"extract", "patterns", "serve", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	for _, flag := range []string{"config", "log-level", "output-format", "verbose", "timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestExtractFlags(t *testing.T) {
	cmd := newExtractCmd()
	for _, flag := range []string{"glossary", "records", "output", "format", "stem-threshold", "max-suffix-len",
		"num-min", "num-max", "alpha-letters", "alpha-tokens", "special-num-lengths", "case-sensitive",
		"text-column", "notes-column"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), flag)
	}
}

func TestOverrides(t *testing.T) {
	parse := func(args ...string) (*extractOptions, *cobra.Command) {
		opts := &extractOptions{}
		cmd := &cobra.Command{Use: "test"}
		registerConfigFlags(cmd, opts)
		require.NoError(t, cmd.ParseFlags(args))
		return opts, cmd
	}

	opts, cmd := parse()
	assert.Nil(t, opts.overrides(cmd))

	opts, cmd = parse("--num-max", "4", "--alpha-letters", "A,B", "--special-num-lengths", "4,5", "--case-sensitive", "--text-column", "Rank")
	ov := opts.overrides(cmd)
	require.NotNil(t, ov)
	assert.Equal(t, 4, *ov.NumMaxLen)
	assert.Nil(t, ov.NumMinLen)
	assert.Equal(t, []string{"A", "B"}, ov.AlphaLetters)
	assert.Equal(t, []int{4, 5}, ov.SpecialNumLengths)
	assert.False(t, *ov.CaseInsensitive)
	assert.Equal(t, "Rank", *ov.TextColumn)
	assert.Nil(t, ov.AlphaTokens)

	opts, cmd = parse("--alpha-letters=")
	ov = opts.overrides(cmd)
	require.NotNil(t, ov)
	assert.Equal(t, []string{}, ov.AlphaLetters)
}

func TestVersionCommand(t *testing.T) {
	orig := Version
	Version = "1.2.3"
	defer func() { Version = orig }()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", "/nonexistent/config.yaml", "version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "rostertag 1.2.3")

	out.Reset()
	cmd = NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--json"})
	require.NoError(t, cmd.Execute())
	var info VersionInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, "1.2.3", info.Version)
}

func TestUnknownSubcommand(t *testing.T) {
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"unknownsubcommand"})
	assert.Error(t, cmd.Execute())
}

func TestFormatTable(t *testing.T) {
	out := FormatTable([]string{"COLUMN", "SOURCE"}, [][]string{
		{"Role_Terms", "(?:SGT)"},
		{"Org_Terms"},
	})
	assert.Equal(t, "COLUMN      SOURCE\n"+
		"----------  -------\n"+
		"Role_Terms  (?:SGT)\n"+
		"Org_Terms   \n", out)
	assert.Empty(t, FormatTable(nil, nil))
}

func TestPrintError(t *testing.T) {
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetErr(&buf)

	PrintError(cmd, errors.New(errors.ErrCodeNumericBounds, "num_min_len exceeds num_max_len"))
	assert.Equal(t, "Error [CONFIG_003]: num_min_len exceeds num_max_len\n", buf.String())

	buf.Reset()
	PrintError(cmd, assert.AnError)
	assert.Equal(t, "Error: "+assert.AnError.Error()+"\n", buf.String())

	buf.Reset()
	PrintError(cmd, nil)
	assert.Empty(t, buf.String())
}

//Personal.AI order the ending
