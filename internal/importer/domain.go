// Package importer stages spreadsheet uploads of fee demands and payments,
// previews them for operator confirmation, and synchronizes confirmed data
// into the ledger with a purge-and-replace protocol.
package importer

import (
	"time"

	"github.com/campusledger/campusledger/internal/registry"
)

// UploadType selects the sheet layout being imported.
type UploadType string

const (
	// UploadDue is a demand matrix: one column per fee head.
	UploadDue UploadType = "DUE"
	// UploadPayment is a payment list: one payment row per line.
	UploadPayment UploadType = "PAYMENT"
)

// Role is a semantic column role recognized in the header row.
type Role string

const (
	RoleAdmission Role = "ADMISSION"
	RolePin       Role = "PIN"
	RoleAmount    Role = "AMOUNT"
	RoleYear      Role = "YEAR"
	RoleSem       Role = "SEM"
	RoleDate      Role = "DATE"
	RoleMode      Role = "MODE"
	RoleRef       Role = "REF"
	RoleNarration Role = "NARRATION"
	RoleName      Role = "NAME"
)

// ColumnMap maps recognized roles to 0-based column indexes. A role absent
// from the map is unmapped.
type ColumnMap map[Role]int

// Has reports whether the role is mapped.
func (m ColumnMap) Has(role Role) bool {
	_, ok := m[role]
	return ok
}

// Claimed reports whether any role maps to the column index.
func (m ColumnMap) Claimed(col int) bool {
	for _, idx := range m {
		if idx == col {
			return true
		}
	}
	return false
}

// DemandMeta carries persisted-state context merged onto a staged demand so
// the operator sees existing totals next to the newly declared amount.
type DemandMeta struct {
	SystemTotalDemand float64 `json:"systemTotalDemand"`
	SystemPaid        float64 `json:"systemPaid"`
	SystemDue         float64 `json:"systemDue"`
}

// DemandLine is a newly declared demand on a staged student.
type DemandLine struct {
	FeeHeadID   int64      `json:"feeHeadId" validate:"required"`
	FeeHeadName string     `json:"feeHeadName"`
	Year        int        `json:"year"`
	Semester    int        `json:"semester"`
	Amount      float64    `json:"amount" validate:"gte=0"`
	Meta        DemandMeta `json:"meta"`
	// ContextOnly lines exist for preview display (persisted state shown
	// next to sheet data) and are never purged or inserted.
	ContextOnly bool `json:"contextOnly,omitempty"`
}

// PaymentLine is a staged payment row.
type PaymentLine struct {
	FeeHeadID   int64     `json:"feeHeadId" validate:"required"`
	FeeHeadName string    `json:"feeHeadName"`
	Year        int       `json:"year"`
	Semester    int       `json:"semester"`
	Amount      float64   `json:"amount" validate:"gte=0"`
	Mode        string    `json:"mode"`
	Date        time.Time `json:"date"`
	Reference   string    `json:"reference"`
	Remarks     string    `json:"remarks"`
}

// StagedStudent aggregates one student's staged lines. Created during
// staging, discarded after preview or commit.
type StagedStudent struct {
	// Key is the canonical admission number, or the uppercased normalized
	// raw id when the registry could not resolve the student.
	Key          string        `json:"key" validate:"required"`
	RawID        string        `json:"rawId"`
	DisplayID    string        `json:"displayId"`
	PinNumber    string        `json:"pinNumber,omitempty"`
	StudentName  string        `json:"studentName"`
	Resolved     bool          `json:"resolved"`
	College      string        `json:"college,omitempty"`
	Course       string        `json:"course,omitempty"`
	Branch       string        `json:"branch,omitempty"`
	Batch        string        `json:"batch,omitempty"`
	Year         int           `json:"year"`
	Semester     int           `json:"semester"`
	Demands      []DemandLine  `json:"demands" validate:"dive"`
	Payments     []PaymentLine `json:"payments" validate:"dive"`
	TotalDemand  float64       `json:"totalDemand"`
	TotalPayment float64       `json:"totalPayment"`
}

// LinkedIDs returns every identifier known to map to the student, lowercased,
// for purge matching. Normalized forms are included so rows persisted under a
// synthetic id while the student was unresolved still match.
func (s *StagedStudent) LinkedIDs() []string {
	candidates := []string{
		s.Key,
		s.RawID,
		registry.Normalize(s.RawID),
		s.DisplayID,
		s.PinNumber,
		registry.Normalize(s.PinNumber),
	}
	seen := make(map[string]struct{}, len(candidates))
	var out []string
	for _, id := range candidates {
		id = lowerTrim(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Preview is returned from the staging step for operator confirmation.
// It never reflects persisted mutations.
type Preview struct {
	Message     string          `json:"message"`
	TotalRows   int             `json:"totalRows"`
	SkippedRows int             `json:"skippedRows"`
	Data        []StagedStudent `json:"data"`
	FeeHeads    []string        `json:"feeHeads"`
}

// CommitRequest is the confirmed staging payload.
type CommitRequest struct {
	Students      []StagedStudent `json:"students" validate:"required,min=1,dive"`
	IsPendingMode bool            `json:"isPendingMode"`
	UploadType    UploadType      `json:"uploadType"`
}

// CommitResult reports the outcome of a synchronizer run.
type CommitResult struct {
	BatchID           string   `json:"batchId"`
	Message           string   `json:"message"`
	AppliedCount      int      `json:"appliedCount"`
	UnresolvedCount   int      `json:"unresolvedCount"`
	UnresolvedSample  []string `json:"unresolvedSample"`
	DuplicatesSkipped int      `json:"duplicatesSkipped"`
}
