package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/cleared-dev/spendview/internal/model"
)

// WellsFargoParser parses Wells Fargo card CSV exports (Bilt included):
// Date | Amount | * | check number | Description, no header.
type WellsFargoParser struct{}

const (
	// Accepts both zero-padded and bare month/day values.
	wfDateLayout   = "1/2/2006"
	wfMinFields    = 5
	wfColDate      = 0
	wfColAmount    = 1
	wfColName      = 4
	wfHeaderAmount = "amount"
)

var (
	// ErrShortRow is returned for rows with fewer than the required columns.
	ErrShortRow = errors.New("row has too few fields")
	// ErrMissingAmount is returned when the amount cell is empty.
	ErrMissingAmount = errors.New("no amount present, investigate !!")
)

// Parse reads a Wells Fargo CSV and tags every transaction with source.
func (p *WellsFargoParser) Parse(source string, r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1

	var txns []model.Transaction
	for first := true; ; first = false {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading wellsfargo CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if len(rec) < wfMinFields {
			return nil, fmt.Errorf("row %d: %w: expected at least %d, got %d", line, ErrShortRow, wfMinFields, len(rec))
		}
		if first && isHeader(rec) {
			continue
		}

		txn, err := parseWellsFargoRow(rec, source)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func isHeader(rec []string) bool {
	return strings.EqualFold(strings.TrimSpace(rec[wfColAmount]), wfHeaderAmount)
}

func parseWellsFargoRow(rec []string, source string) (model.Transaction, error) {
	rawDate := strings.TrimSpace(rec[wfColDate])
	date, err := time.Parse(wfDateLayout, rawDate)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", rawDate, err)
	}

	rawAmount := strings.TrimSpace(rec[wfColAmount])
	if rawAmount == "" {
		return model.Transaction{}, ErrMissingAmount
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", rawAmount, err)
	}

	return model.Transaction{
		Date:   date,
		Amount: amount,
		Name:   strings.TrimSpace(rec[wfColName]),
		Source: source,
	}, nil
}
