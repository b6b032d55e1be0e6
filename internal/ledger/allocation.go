package ledger

import "sort"

// Allocate computes paid/due per demand from the student's full demand and
// transaction history using two pools:
//
//  1. specific pools, one per fee head, fed by DEBIT transactions carrying
//     that head;
//  2. a single global credit pool, fed by CREDIT transactions and any DEBIT
//     without a fee head.
//
// Demands are walked in stable (student year, semester) order twice: the
// first pass consumes specific pools, the second spills global credit into
// whatever due remains. The order guarantees head-tagged money lands on its
// head before unearmarked money, and that shared credit clears earlier
// periods first. Excess credit stays unconsumed; due never goes negative.
//
// Callers filtering to one year must still pass the full history here and
// filter the output, otherwise cross-year FIFO allocation breaks.
func Allocate(demands []Demand, txns []Transaction) []DemandStatus {
	specific := make(map[int64]float64)
	var global float64
	for _, t := range txns {
		switch {
		case t.Type == TypeDebit && t.FeeHeadID != 0:
			specific[t.FeeHeadID] += t.Amount
		default:
			global += t.Amount
		}
	}

	statuses := make([]DemandStatus, len(demands))
	for i, d := range demands {
		statuses[i] = DemandStatus{Demand: d, DueAmount: d.Amount}
	}
	sort.SliceStable(statuses, func(i, j int) bool {
		if statuses[i].StudentYear != statuses[j].StudentYear {
			return statuses[i].StudentYear < statuses[j].StudentYear
		}
		return statuses[i].Semester < statuses[j].Semester
	})

	for i := range statuses {
		pool := specific[statuses[i].FeeHeadID]
		if pool <= 0 {
			continue
		}
		take := min(statuses[i].DueAmount, pool)
		statuses[i].PaidAmount += take
		statuses[i].DueAmount -= take
		specific[statuses[i].FeeHeadID] = pool - take
	}

	for i := range statuses {
		if global <= 0 {
			break
		}
		if statuses[i].DueAmount <= 0 {
			continue
		}
		take := min(statuses[i].DueAmount, global)
		statuses[i].PaidAmount += take
		statuses[i].DueAmount -= take
		global -= take
	}

	return statuses
}

// FilterYear restricts an allocation result to one student year. It must run
// after Allocate, never on the demand subset fed into it.
func FilterYear(statuses []DemandStatus, year int) []DemandStatus {
	out := make([]DemandStatus, 0, len(statuses))
	for _, s := range statuses {
		if s.StudentYear == year {
			out = append(out, s)
		}
	}
	return out
}
