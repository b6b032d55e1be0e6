// Package ledger stores fee demands and payment transactions and computes
// paid/due per demand.
package ledger

import "time"

// TransactionType distinguishes head-tagged debits from pooled credits.
type TransactionType string

const (
	// TypeDebit reduces the due of its fee head; a debit without a fee
	// head joins the global credit pool instead.
	TypeDebit TransactionType = "DEBIT"
	// TypeCredit reduces dues through the global pool only.
	TypeCredit TransactionType = "CREDIT"
)

// Demand is a persisted amount a student is expected to pay for one
// (fee head, academic year, student year, semester). At most one row may
// exist per that composite key.
type Demand struct {
	ID           int64
	StudentID    string
	FeeHeadID    int64
	FeeHeadName  string
	AcademicYear string
	StudentYear  int
	Semester     int
	Amount       float64
}

// Transaction is a persisted payment row. Append-only from the allocation
// engine's perspective; the synchronizer replaces rows per purge key.
type Transaction struct {
	ID          int64
	StudentID   string
	FeeHeadID   int64
	FeeHeadName string
	Type        TransactionType
	Amount      float64
	Mode        string
	PaidAt      time.Time
	Reference   string
	StudentYear int
	Semester    int
	Remarks     string
}

// DemandStatus is a demand with its allocation outcome. The invariant
// Paid + Due == Amount and Due >= 0 holds for every status.
type DemandStatus struct {
	Demand
	PaidAmount float64
	DueAmount  float64
}

// Statement is the ledger view returned for one student.
type Statement struct {
	StudentID   string         `json:"studentId"`
	Demands     []DemandStatus `json:"demands"`
	TotalDemand float64        `json:"totalDemand"`
	TotalPaid   float64        `json:"totalPaid"`
	TotalDue    float64        `json:"totalDue"`
	CreditLeft  float64        `json:"creditLeft"`
}
