package importer

import (
	"strings"

	"github.com/campusledger/campusledger/internal/feehead"
	"github.com/campusledger/campusledger/internal/shared"
)

// ClassifyColumns maps header cells to semantic roles using ordered,
// non-exclusive keyword predicates. A header may satisfy several roles.
//
// The precedence policy is asymmetric on purpose: ADMISSION, PIN, AMOUNT and
// NAME keep the first matching column, while YEAR, SEM, DATE, MODE,
// NARRATION and REF take the last one. Historical sheet layouts depend on
// exactly this behavior, so it must not be unified without product sign-off.
func ClassifyColumns(header []string) ColumnMap {
	cm := ColumnMap{}
	for i, cell := range header {
		token := feehead.NormalizeName(cell)
		if token == "" {
			continue
		}
		orig := strings.ToUpper(strings.TrimSpace(cell))
		isFee := containsAny(token, "FEE", "AMT", "AMOUNT")

		// First-claim slots.
		if !cm.Has(RoleAdmission) {
			switch {
			case containsAny(token, "ADMN", "ADMISSION"):
				cm[RoleAdmission] = i
			case !isFee && containsAny(token, "NO", "NUM", "ID", "ROLL"):
				cm[RoleAdmission] = i
			case token == "ID" || token == "STUDENTID":
				cm[RoleAdmission] = i
			}
		}
		if !cm.Has(RolePin) && !isFee && containsAny(token, "PIN", "HTNO", "HALLTICKET", "ROLL") {
			cm[RolePin] = i
		}
		if !cm.Has(RoleAmount) && isFee && containsAny(token, "AMOUNT", "DUE", "PENDING", "BAL") {
			cm[RoleAmount] = i
		}
		if !cm.Has(RoleName) && strings.Contains(token, "NAME") &&
			(strings.Contains(token, "STUDENT") || len(orig) < 15) {
			cm[RoleName] = i
		}

		// Last-claim-wins slots.
		if strings.Contains(token, "YEAR") {
			cm[RoleYear] = i
		}
		if containsAny(token, "SEM", "SEC", "SEMESTER") {
			cm[RoleSem] = i
		}
		if strings.Contains(token, "DATE") && strings.Contains(token, "TRANS") {
			cm[RoleDate] = i
		}
		if strings.Contains(token, "MODE") && strings.Contains(token, "PAY") {
			cm[RoleMode] = i
		}
		if containsAny(token, "NARRATION", "REMARKS") {
			cm[RoleNarration] = i
		}
		if strings.Contains(token, "REF") ||
			(strings.Contains(token, "TRANS") && strings.Contains(token, "ID")) {
			cm[RoleRef] = i
		}
	}
	return cm
}

// FeeHeadColumn binds a catalog head to its matrix column in a dues sheet.
type FeeHeadColumn struct {
	Head feehead.FeeHead
	Col  int
}

// MapFeeHeadColumns matches unclaimed header columns against the catalog,
// one matcher run per column. Only dues uploads carry a fee-head matrix.
func MapFeeHeadColumns(header []string, cm ColumnMap, catalog []feehead.FeeHead) []FeeHeadColumn {
	var cols []FeeHeadColumn
	used := make(map[int64]struct{})
	for i, cell := range header {
		if cm.Claimed(i) {
			continue
		}
		head := feehead.MatchHead(cell, catalog)
		if head == nil {
			continue
		}
		if _, ok := used[head.ID]; ok {
			continue
		}
		used[head.ID] = struct{}{}
		cols = append(cols, FeeHeadColumn{Head: *head, Col: i})
	}
	return cols
}

// ValidateCritical rejects the sheet before any row processing when no
// identifier column and no amount source could be classified.
func ValidateCritical(cm ColumnMap, feeCols []FeeHeadColumn) error {
	if cm.Has(RoleAdmission) || cm.Has(RolePin) {
		return nil
	}
	if len(feeCols) > 0 || cm.Has(RoleAmount) {
		return nil
	}
	return shared.NewError(shared.KindValidation,
		"missing critical columns: no admission/pin identifier and no amount or fee-head columns recognized")
}

func containsAny(token string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(token, sub) {
			return true
		}
	}
	return false
}
