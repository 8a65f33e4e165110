package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseString(t *testing.T, data string) error {
	t.Helper()
	p := &WellsFargoParser{}
	_, err := p.Parse("test.csv", strings.NewReader(data))
	return err
}

func TestWellsFargoParser_Parse(t *testing.T) {
	data, err := os.ReadFile("../../testdata/wellsfargo.csv")
	require.NoError(t, err)

	p := &WellsFargoParser{}
	txns, err := p.Parse("wellsfargo.csv", strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Len(t, txns, 6)

	// First: GITHUB subscription
	assert.Equal(t, "GITHUB PRO SUBSCRIPTION", txns[0].Name)
	assert.Equal(t, "-4.00", txns[0].Amount.StringFixed(2))
	assert.Equal(t, "wellsfargo.csv", txns[0].Source)
	assert.Equal(t, 2025, txns[0].Date.Year())
	assert.Equal(t, 1, int(txns[0].Date.Month()))
	assert.Equal(t, 3, txns[0].Date.Day())

	// Third: payment (positive)
	assert.True(t, txns[2].Amount.IsPositive())
	assert.Equal(t, "250.00", txns[2].Amount.StringFixed(2))

	// Quoted comma survives.
	assert.Equal(t, "SPOTIFY, INC", txns[5].Name)
}

func TestWellsFargoParser_IgnoresMiddleColumns(t *testing.T) {
	p := &WellsFargoParser{}
	txns, err := p.Parse("a.csv", strings.NewReader("01/15/2025,-20.00,junk,1234,Coffee\n"))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "Coffee", txns[0].Name)
}

func TestWellsFargoParser_ExtraColumnsAllowed(t *testing.T) {
	p := &WellsFargoParser{}
	txns, err := p.Parse("a.csv", strings.NewReader("01/15/2025,-20.00,*,,Coffee,extra\n"))
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestWellsFargoParser_HeaderSkippedOnFirstRow(t *testing.T) {
	csv := "Date,Amount,Star,Check,Description\n01/15/2025,-20.00,*,,Coffee\n"
	p := &WellsFargoParser{}
	txns, err := p.Parse("a.csv", strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "Coffee", txns[0].Name)
}

func TestWellsFargoParser_HeaderAfterFirstRowFails(t *testing.T) {
	csv := "01/15/2025,-20.00,*,,Coffee\nDate,Amount,Star,Check,Description\n"
	err := parseString(t, csv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestWellsFargoParser_BOM(t *testing.T) {
	p := &WellsFargoParser{}
	txns, err := p.Parse("a.csv", strings.NewReader("\xef\xbb\xbf01/15/2025,-20.00,*,,Coffee\n"))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, 15, txns[0].Date.Day())
}

func TestWellsFargoParser_UnpaddedDate(t *testing.T) {
	p := &WellsFargoParser{}
	txns, err := p.Parse("a.csv", strings.NewReader("1/5/2025,-1.00,*,,Gum\n"))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, 5, txns[0].Date.Day())
}

func TestWellsFargoParser_ShortRow(t *testing.T) {
	err := parseString(t, "01/15/2025,-20.00,*,,Coffee\n01/16/2025,-1.00,*\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShortRow)
	assert.Contains(t, err.Error(), "row 2")
}

func TestWellsFargoParser_BadDate(t *testing.T) {
	err := parseString(t, "NOTADATE,-4.00,*,,desc\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing date")
}

func TestWellsFargoParser_BadAmount(t *testing.T) {
	err := parseString(t, "01/03/2025,NOTANUMBER,*,,desc\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing amount")
}

func TestWellsFargoParser_MissingAmount(t *testing.T) {
	err := parseString(t, "01/03/2025,,*,,desc\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAmount)
	assert.Contains(t, err.Error(), "no amount present, investigate !!")
}

func TestWellsFargoParser_EmptyFile(t *testing.T) {
	p := &WellsFargoParser{}
	txns, err := p.Parse("a.csv", strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, txns)
}

func TestUpload_InvalidUTF8(t *testing.T) {
	u := Upload{Name: "bad.csv", Content: []byte("01/15/2025,-20.00,*,,Caf\xe9\n")}
	_, err := u.Parse(&WellsFargoParser{}, u.Name)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
	assert.Contains(t, err.Error(), "bad.csv")
}

func TestUpload_Hash(t *testing.T) {
	a := Upload{Name: "a.csv", Content: []byte("x")}
	b := Upload{Name: "b.csv", Content: []byte("x")}
	c := Upload{Name: "a.csv", Content: []byte("y")}

	assert.Equal(t, a.Hash(), b.Hash(), "hash ignores name")
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestScan_FindsCSVs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BILT.CSV"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("data"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested.csv"), 0o755))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "BILT.CSV", files[0].Name)
	assert.Equal(t, "bank.csv", files[1].Name)
	assert.Equal(t, int64(4), files[1].Size)
}

func TestScan_MissingDir(t *testing.T) {
	files, err := Scan(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestLoad_FilesAndDirs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "exports")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.csv"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "a.csv"), []byte("a"), 0o644))
	single := filepath.Join(dir, "single.csv")
	require.NoError(t, os.WriteFile(single, []byte("s"), 0o644))

	uploads, err := Load([]string{single, sub})
	require.NoError(t, err)
	require.Len(t, uploads, 3)
	assert.Equal(t, "single.csv", uploads[0].Name)
	assert.Equal(t, "a.csv", uploads[1].Name)
	assert.Equal(t, "b.csv", uploads[2].Name)
	assert.Equal(t, []byte("s"), uploads[0].Content)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load([]string{filepath.Join(t.TempDir(), "missing.csv")})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
