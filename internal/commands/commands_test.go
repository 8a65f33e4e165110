package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/spendview/internal/config"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "spendview-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "spendview")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/spendview")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

// runSpendview runs the binary with an empty XDG config home so the
// developer's own config never leaks into tests.
func runSpendview(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+t.TempDir())
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err = cmd.Run()
	return out.String(), errOut.String(), err
}

const (
	wellsFargo = "../../testdata/wellsfargo.csv"
	bilt       = "../../testdata/bilt.csv"
)

func TestSummary_Text(t *testing.T) {
	out, _, err := runSpendview(t, "summary", "--from", "2025-01-01", "--to", "2025-01-31", wellsFargo, bilt)
	require.NoError(t, err)

	assert.Contains(t, out, "Analyzing expenses from 01/01/2025 to 01/31/2025")
	assert.Contains(t, out, "Individual Credit Transactions")
	assert.Contains(t, out, "Total Spend")
	assert.Contains(t, out, "$227.50")
	assert.Contains(t, out, "$194.49")
	assert.Contains(t, out, "$76.00")
	assert.NotContains(t, out, "SPOTIFY")
}

func TestSummary_Directory(t *testing.T) {
	out, _, err := runSpendview(t, "summary", "--from", "2025-01-01", "--to", "2025-02-28", "../../testdata")
	require.NoError(t, err)

	assert.Contains(t, out, "SPOTIFY")
	assert.Contains(t, out, "$270.49")
}

func TestSummary_NoFiles(t *testing.T) {
	out, _, err := runSpendview(t, "summary")
	require.NoError(t, err)
	assert.Equal(t, "Upload a CSV to start\n", out)

	out, _, err = runSpendview(t, "summary", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "Upload a CSV to start\n", out)
}

func TestSummary_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	_, _, err := runSpendview(t, "summary", "--from", "2025-01-01", "--to", "2025-01-31", "--format", "json", "--out", path, wellsFargo)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got struct {
		Start      string   `json:"start"`
		End        string   `json:"end"`
		Labels     []string `json:"labels"`
		GrandTotal string   `json:"grand_total"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "2025-01-01", got.Start)
	assert.Equal(t, "2025-01-31", got.End)
	assert.Len(t, got.Labels, 3)
	assert.Equal(t, "151.50", got.GrandTotal)
}

func TestSummary_CSVStdout(t *testing.T) {
	out, _, err := runSpendview(t, "summary", "--from", "2025-01-01", "--to", "2025-01-31", "--format", "csv", bilt)
	require.NoError(t, err)
	assert.Contains(t, out, "section,key,value\n")
	assert.Contains(t, out, "total,Total Spend,76.00\n")
	assert.Contains(t, out, "file,bilt.csv,76.00\n")
}

func TestSummary_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	_, _, err := runSpendview(t, "summary", "--from", "2025-01-01", "--to", "2025-01-31", "--format", "xlsx", "--out", path, bilt)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Summary", "A3")
	require.NoError(t, err)
	assert.Equal(t, "bilt.csv", v)
}

func TestSummary_XLSXNeedsOut(t *testing.T) {
	_, stderr, err := runSpendview(t, "summary", "--format", "xlsx", bilt)
	require.Error(t, err)
	assert.Contains(t, stderr, "xlsx output requires --out")
}

func TestSummary_DuplicateFileWarnedOnce(t *testing.T) {
	out, stderr, err := runSpendview(t, "summary", "--from", "2025-01-01", "--to", "2025-01-31", bilt, bilt)
	require.NoError(t, err)

	assert.Contains(t, out, "$76.00")
	assert.Equal(t, 1, strings.Count(stderr, "duplicate"), stderr)
}

func TestSummary_MalformedFile(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("01/15/2025,,*,,Coffee\n"), 0o644))

	out, stderr, err := runSpendview(t, "summary", "--from", "2025-01-01", "--to", "2025-01-31", bilt, bad)
	require.Error(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "bad.csv")
	assert.Contains(t, stderr, "no amount present, investigate !!")
}

func TestSummary_ReversedRange(t *testing.T) {
	_, stderr, err := runSpendview(t, "summary", "--from", "2025-02-01", "--to", "2025-01-01", bilt)
	require.Error(t, err)
	assert.Contains(t, stderr, "invalid date range")
}

func TestSummary_BadFlagDate(t *testing.T) {
	_, stderr, err := runSpendview(t, "summary", "--from", "01/01/2025", bilt)
	require.Error(t, err)
	assert.Contains(t, stderr, "parsing --from")
}

func TestSummary_ConfigDefaultStart(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "spendview.yaml")
	cfg := config.Default()
	cfg.Range.DefaultStart = "2025-01-21"
	require.NoError(t, config.Save(cfgPath, cfg))

	out, _, err := runSpendview(t, "summary", "--config", cfgPath, "--to", "2025-01-31", bilt)
	require.NoError(t, err)
	assert.Contains(t, out, "Analyzing expenses from 01/21/2025 to 01/31/2025")
	// Only the 01/21 credit is in range.
	assert.Contains(t, out, "Total Spend  $15.75")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "spendview.yaml")

	out, _, err := runSpendview(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, stderr, err := runSpendview(t, "config", "init", path)
	require.Error(t, err)
	assert.Contains(t, stderr, "already exists")

	_, _, err = runSpendview(t, "config", "init", "--force", path)
	require.NoError(t, err)
}

func TestVersion(t *testing.T) {
	out, _, err := runSpendview(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "spendview version dev")
}
