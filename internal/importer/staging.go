package importer

import (
	"sort"
	"time"

	"github.com/campusledger/campusledger/internal/feehead"
	"github.com/campusledger/campusledger/internal/ledger"
	"github.com/campusledger/campusledger/internal/registry"
)

const defaultPaymentMode = "Cash"

// autoPaymentRemark tags payments generated to reconcile a recorded backlog.
const autoPaymentRemark = "Auto-generated payment"

// StageParams carries everything the aggregator needs for one sheet.
type StageParams struct {
	Rows        [][]string
	Columns     ColumnMap
	FeeColumns  []FeeHeadColumn
	Lookup      registry.LookupMap
	Catalog     []feehead.FeeHead
	MiscHead    *feehead.FeeHead
	UploadType  UploadType
	PendingMode bool
	Now         time.Time
}

// StageOutcome is the aggregation result before context enrichment.
type StageOutcome struct {
	Entries     []StagedStudent
	SkippedRows int
}

// Stage folds data rows into one staged entry per student, keyed by the
// canonical id or, for unresolved students, the uppercased normalized raw id.
// First-seen order is preserved.
func Stage(p StageParams) StageOutcome {
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}

	var out StageOutcome
	index := make(map[string]int)

	for _, row := range p.Rows {
		rawID := extractRawID(row, p.Columns)
		if registry.Normalize(rawID) == "" {
			out.SkippedRows++
			continue
		}

		entry := obtainEntry(&out, index, rawID, row, p)

		year := entry.Year
		sem := entry.Semester
		if p.Columns.Has(RoleYear) {
			year = parseYear(cellAt(row, p.Columns[RoleYear]))
		}
		if p.Columns.Has(RoleSem) {
			year2, sem2 := parseYearSem(cellAt(row, p.Columns[RoleSem]))
			sem = sem2
			if !p.Columns.Has(RoleYear) {
				year = year2
			}
		}
		entry.Year = year
		entry.Semester = sem

		switch p.UploadType {
		case UploadDue:
			stageDemands(entry, row, p, year, sem)
		case UploadPayment:
			stagePayment(entry, row, p, year, sem, now)
		}
	}

	return out
}

// extractRawID prefers the admission column, then pin.
func extractRawID(row []string, cm ColumnMap) string {
	if cm.Has(RoleAdmission) {
		if v := cellAt(row, cm[RoleAdmission]); v != "" {
			return v
		}
	}
	if cm.Has(RolePin) {
		if v := cellAt(row, cm[RolePin]); v != "" {
			return v
		}
	}
	return ""
}

func obtainEntry(out *StageOutcome, index map[string]int, rawID string, row []string, p StageParams) *StagedStudent {
	student := p.Lookup.Find(rawID)

	key := registry.SyntheticID(rawID)
	if student != nil {
		key = student.AdmissionNumber
	}

	if i, ok := index[key]; ok {
		return &out.Entries[i]
	}

	entry := StagedStudent{
		Key:       key,
		RawID:     rawID,
		DisplayID: key,
		Resolved:  student != nil,
		Year:      1,
		Semester:  1,
	}
	if student != nil {
		entry.StudentName = student.Name
		entry.PinNumber = student.PinNumber
		entry.College = student.College
		entry.Course = student.Course
		entry.Branch = student.Branch
		entry.Batch = student.Batch
		if student.CurrentYear > 0 {
			entry.Year = student.CurrentYear
		}
		if student.PinNumber != "" {
			entry.DisplayID = student.AdmissionNumber
		}
	}
	if entry.StudentName == "" && p.Columns.Has(RoleName) {
		entry.StudentName = cellAt(row, p.Columns[RoleName])
	}

	index[key] = len(out.Entries)
	out.Entries = append(out.Entries, entry)
	return &out.Entries[len(out.Entries)-1]
}

// stageDemands appends one demand line per positive matrix cell; when the
// matrix yields nothing but a generic amount column is positive, the value is
// booked to the Miscellaneous Due head.
func stageDemands(entry *StagedStudent, row []string, p StageParams, year, sem int) {
	matched := false
	for _, fc := range p.FeeColumns {
		amount := parseAmount(cellAt(row, fc.Col))
		if amount <= 0 {
			continue
		}
		matched = true
		entry.Demands = append(entry.Demands, DemandLine{
			FeeHeadID:   fc.Head.ID,
			FeeHeadName: fc.Head.Name,
			Year:        year,
			Semester:    sem,
			Amount:      amount,
		})
		entry.TotalDemand += amount
	}

	if !matched && p.Columns.Has(RoleAmount) && p.MiscHead != nil {
		amount := parseAmount(cellAt(row, p.Columns[RoleAmount]))
		if amount > 0 {
			entry.Demands = append(entry.Demands, DemandLine{
				FeeHeadID:   p.MiscHead.ID,
				FeeHeadName: p.MiscHead.Name,
				Year:        year,
				Semester:    sem,
				Amount:      amount,
			})
			entry.TotalDemand += amount
		}
	}
}

// stagePayment appends one payment line per positive-amount row. The payment
// layout does not disambiguate fee heads, so rows are tagged to the first
// catalog head; see DESIGN.md before changing this.
func stagePayment(entry *StagedStudent, row []string, p StageParams, year, sem int, now time.Time) {
	if !p.Columns.Has(RoleAmount) || len(p.Catalog) == 0 {
		return
	}
	amount := parseAmount(cellAt(row, p.Columns[RoleAmount]))
	if amount <= 0 {
		return
	}

	head := p.Catalog[0]
	line := PaymentLine{
		FeeHeadID:   head.ID,
		FeeHeadName: head.Name,
		Year:        year,
		Semester:    sem,
		Amount:      amount,
		Mode:        defaultPaymentMode,
		Date:        now,
	}
	if p.Columns.Has(RoleMode) {
		if mode := cellAt(row, p.Columns[RoleMode]); mode != "" {
			line.Mode = mode
		}
	}
	if p.Columns.Has(RoleDate) {
		line.Date = parseDate(cellAt(row, p.Columns[RoleDate]), now)
	}
	if p.Columns.Has(RoleRef) {
		line.Reference = cellAt(row, p.Columns[RoleRef])
	}
	if p.Columns.Has(RoleNarration) {
		line.Remarks = cellAt(row, p.Columns[RoleNarration])
	}

	entry.Payments = append(entry.Payments, line)
	entry.TotalPayment += amount
}

// Enrich merges persisted demand/paid totals into each staged entry. For
// pending-mode dues uploads, a system due exceeding the newly declared
// amount auto-generates a shortfall payment so a recorded backlog reconciles
// in one pass. Payment uploads gain zero-amount context demand lines for any
// persisted demand the sheet did not mention.
func Enrich(entries []StagedStudent, demands map[string][]ledger.Demand, txns map[string][]ledger.Transaction, uploadType UploadType, pendingMode bool, now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}

	for i := range entries {
		entry := &entries[i]
		if !entry.Resolved {
			continue
		}
		key := lowerTrim(entry.Key)
		sysDemands := demands[key]
		sysTxns := txns[key]
		if len(sysDemands) == 0 && len(sysTxns) == 0 {
			continue
		}

		statuses := ledger.Allocate(sysDemands, sysTxns)

		type headYear struct {
			head int64
			year int
		}
		system := make(map[headYear]*DemandMeta, len(statuses))
		names := make(map[headYear]string, len(statuses))
		for _, st := range statuses {
			k := headYear{st.FeeHeadID, st.StudentYear}
			meta, ok := system[k]
			if !ok {
				meta = &DemandMeta{}
				system[k] = meta
				names[k] = st.FeeHeadName
			}
			meta.SystemTotalDemand += st.Amount
			meta.SystemPaid += st.PaidAmount
			meta.SystemDue += st.Amount - st.PaidAmount
		}

		represented := make(map[headYear]bool)
		for j := range entry.Demands {
			line := &entry.Demands[j]
			k := headYear{line.FeeHeadID, line.Year}
			represented[k] = true
			meta, ok := system[k]
			if !ok {
				continue
			}
			line.Meta = *meta

			if uploadType == UploadDue && pendingMode && meta.SystemDue > line.Amount {
				shortfall := meta.SystemDue - line.Amount
				entry.Payments = append(entry.Payments, PaymentLine{
					FeeHeadID:   line.FeeHeadID,
					FeeHeadName: line.FeeHeadName,
					Year:        line.Year,
					Semester:    line.Semester,
					Amount:      shortfall,
					Mode:        defaultPaymentMode,
					Date:        now,
					Remarks:     autoPaymentRemark,
				})
				entry.TotalPayment += shortfall
			}
		}

		if uploadType == UploadPayment {
			unrepresented := make([]headYear, 0, len(system))
			for k := range system {
				if represented[k] {
					continue
				}
				unrepresented = append(unrepresented, k)
			}
			// Map iteration order would shuffle the preview between runs.
			sort.Slice(unrepresented, func(i, j int) bool {
				if unrepresented[i].year != unrepresented[j].year {
					return unrepresented[i].year < unrepresented[j].year
				}
				return unrepresented[i].head < unrepresented[j].head
			})
			for _, k := range unrepresented {
				entry.Demands = append(entry.Demands, DemandLine{
					FeeHeadID:   k.head,
					FeeHeadName: names[k],
					Year:        k.year,
					Semester:    1,
					Amount:      0,
					Meta:        *system[k],
					ContextOnly: true,
				})
			}
		}
	}
}
