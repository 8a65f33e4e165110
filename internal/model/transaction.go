package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the MM/DD/YYYY layout used by card exports and chart labels.
const DateFormat = "01/02/2006"

// Transaction represents a parsed bank CSV row.
type Transaction struct {
	Date   time.Time
	Amount decimal.Decimal // negative = spend (credit), positive = payment/refund (debit)
	Name   string
	Source string // display name of the originating file
}

// Kind classifies a transaction by the sign of its amount.
type Kind string

const (
	KindCredit Kind = "credit"
	KindDebit  Kind = "debit"
	KindZero   Kind = "zero"
)

// KindOf returns the partition an amount belongs to.
func KindOf(amount decimal.Decimal) Kind {
	switch amount.Sign() {
	case -1:
		return KindCredit
	case 1:
		return KindDebit
	default:
		return KindZero
	}
}

// Kind returns the partition this transaction belongs to.
func (t Transaction) Kind() Kind { return KindOf(t.Amount) }

// Spend returns the absolute amount.
func (t Transaction) Spend() decimal.Decimal { return t.Amount.Abs() }

// Label returns the chart label "<Name> <MM/DD/YYYY>".
func (t Transaction) Label() string {
	return t.Name + " " + t.Date.Format(DateFormat)
}

// Partitions holds transactions bucketed by Kind, in ingestion order.
type Partitions struct {
	Credits []Transaction
	Debits  []Transaction
	Zeros   []Transaction
}

// Add appends txn to the bucket matching its Kind.
func (p *Partitions) Add(txn Transaction) {
	switch txn.Kind() {
	case KindCredit:
		p.Credits = append(p.Credits, txn)
	case KindDebit:
		p.Debits = append(p.Debits, txn)
	default:
		p.Zeros = append(p.Zeros, txn)
	}
}

// Len returns the total number of transactions across all buckets.
func (p Partitions) Len() int {
	return len(p.Credits) + len(p.Debits) + len(p.Zeros)
}

// FileTotal is the absolute credit total contributed by one uploaded file.
type FileTotal struct {
	Source string
	Hash   string
	Total  decimal.Decimal
}
