package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/spendview/internal/importer"
	"github.com/cleared-dev/spendview/internal/model"
)

// Book is the classified result of one ingestion pass. It is built fresh on
// every call to Ingest and never shared between runs.
type Book struct {
	Partitions model.Partitions
	Files      []model.FileTotal
	// Duplicates lists uploads skipped because their content was already ingested.
	Duplicates []string
}

// Classify buckets transactions by the sign of their amount.
func Classify(txns []model.Transaction) model.Partitions {
	var p model.Partitions
	for _, txn := range txns {
		p.Add(txn)
	}
	return p
}

// CreditTotal returns the absolute sum of all negative amounts in txns.
func CreditTotal(txns []model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, txn := range txns {
		if txn.Kind() == model.KindCredit {
			total = total.Add(txn.Amount)
		}
	}
	return total.Abs()
}

// Ingest parses every upload in order and classifies the rows. Uploads with
// identical content are ingested once. Uploads that share a name but differ
// in content are kept apart by suffixing the later name. Any parse failure
// aborts the whole batch.
func Ingest(p importer.Parser, uploads []importer.Upload) (*Book, error) {
	book := &Book{}
	seenHash := make(map[string]bool)
	nameUses := make(map[string]int)

	for _, u := range uploads {
		hash := u.Hash()
		if seenHash[hash] {
			book.Duplicates = append(book.Duplicates, u.Name)
			continue
		}
		seenHash[hash] = true

		source := displayName(u.Name, nameUses)
		txns, err := u.Parse(p, source)
		if err != nil {
			return nil, err
		}

		for _, txn := range txns {
			book.Partitions.Add(txn)
		}
		book.Files = append(book.Files, model.FileTotal{
			Source: source,
			Hash:   hash,
			Total:  CreditTotal(txns),
		})
	}
	return book, nil
}

func displayName(name string, uses map[string]int) string {
	if name == "" {
		name = "upload"
	}
	display := name
	for uses[display] > 0 {
		uses[name]++
		display = fmt.Sprintf("%s (%d)", name, uses[name])
	}
	uses[display]++
	return display
}
