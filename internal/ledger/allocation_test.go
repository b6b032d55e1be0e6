package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func demand(head int64, year, sem int, amount float64) Demand {
	return Demand{FeeHeadID: head, StudentYear: year, Semester: sem, Amount: amount}
}

func TestAllocateSpecificPoolBeforeGlobal(t *testing.T) {
	demands := []Demand{
		demand(1, 1, 1, 100),
		demand(2, 1, 1, 100),
	}
	txns := []Transaction{
		{Type: TypeDebit, FeeHeadID: 2, Amount: 80},
		{Type: TypeCredit, Amount: 50},
	}

	statuses := Allocate(demands, txns)
	require.Len(t, statuses, 2)

	// Head 2 gets its earmarked 80 first; the 50 credit then flows FIFO
	// into head 1 before topping head 2 up.
	byHead := indexByHead(statuses)
	require.Equal(t, 50.0, byHead[1].PaidAmount)
	require.Equal(t, 50.0, byHead[1].DueAmount)
	require.Equal(t, 80.0, byHead[2].PaidAmount)
	require.Equal(t, 20.0, byHead[2].DueAmount)
}

func TestAllocateGlobalCreditIsFIFOByYear(t *testing.T) {
	demands := []Demand{
		demand(1, 2, 1, 100),
		demand(1, 1, 1, 100),
	}
	txns := []Transaction{{Type: TypeCredit, Amount: 150}}

	statuses := Allocate(demands, txns)

	// Year 1 must be cleared before year 2 regardless of input order.
	require.Equal(t, 1, statuses[0].StudentYear)
	require.Equal(t, 100.0, statuses[0].PaidAmount)
	require.Equal(t, 0.0, statuses[0].DueAmount)
	require.Equal(t, 2, statuses[1].StudentYear)
	require.Equal(t, 50.0, statuses[1].PaidAmount)
	require.Equal(t, 50.0, statuses[1].DueAmount)
}

func TestAllocateHeadlessDebitJoinsGlobalPool(t *testing.T) {
	demands := []Demand{demand(1, 1, 1, 100)}
	txns := []Transaction{{Type: TypeDebit, FeeHeadID: 0, Amount: 60}}

	statuses := Allocate(demands, txns)
	require.Equal(t, 60.0, statuses[0].PaidAmount)
	require.Equal(t, 40.0, statuses[0].DueAmount)
}

func TestAllocateExcessCreditStaysUnconsumed(t *testing.T) {
	demands := []Demand{demand(1, 1, 1, 100)}
	txns := []Transaction{
		{Type: TypeDebit, FeeHeadID: 1, Amount: 70},
		{Type: TypeCredit, Amount: 500},
	}

	statuses := Allocate(demands, txns)
	require.Equal(t, 100.0, statuses[0].PaidAmount)
	require.Equal(t, 0.0, statuses[0].DueAmount)
}

func TestAllocateInvariants(t *testing.T) {
	demands := []Demand{
		demand(1, 1, 1, 120),
		demand(2, 1, 2, 80),
		demand(1, 2, 1, 200),
		demand(3, 2, 2, 40),
	}
	txns := []Transaction{
		{Type: TypeDebit, FeeHeadID: 1, Amount: 150},
		{Type: TypeDebit, FeeHeadID: 2, Amount: 30},
		{Type: TypeCredit, Amount: 90},
		{Type: TypeDebit, Amount: 10},
	}

	statuses := Allocate(demands, txns)
	var totalPaid float64
	for _, s := range statuses {
		require.GreaterOrEqual(t, s.DueAmount, 0.0)
		require.InDelta(t, s.Amount, s.PaidAmount+s.DueAmount, 1e-9)
		totalPaid += s.PaidAmount
	}
	var inflow float64
	for _, tx := range txns {
		inflow += tx.Amount
	}
	require.LessOrEqual(t, totalPaid, inflow)
}

func TestAllocateSemesterOrderWithinYear(t *testing.T) {
	demands := []Demand{
		demand(1, 1, 2, 100),
		demand(1, 1, 1, 100),
	}
	txns := []Transaction{{Type: TypeCredit, Amount: 100}}

	statuses := Allocate(demands, txns)
	require.Equal(t, 1, statuses[0].Semester)
	require.Equal(t, 100.0, statuses[0].PaidAmount)
	require.Equal(t, 0.0, statuses[1].PaidAmount)
}

func TestAllocateEmptyInputs(t *testing.T) {
	require.Empty(t, Allocate(nil, nil))

	statuses := Allocate([]Demand{demand(1, 1, 1, 100)}, nil)
	require.Len(t, statuses, 1)
	require.Equal(t, 0.0, statuses[0].PaidAmount)
	require.Equal(t, 100.0, statuses[0].DueAmount)
}

func TestFilterYearRunsAfterAllocation(t *testing.T) {
	demands := []Demand{
		demand(1, 1, 1, 100),
		demand(1, 2, 1, 100),
	}
	txns := []Transaction{{Type: TypeCredit, Amount: 150}}

	all := Allocate(demands, txns)
	year2 := FilterYear(all, 2)
	require.Len(t, year2, 1)

	// The year-2 view still reflects credit consumed by year 1.
	require.Equal(t, 50.0, year2[0].PaidAmount)
	require.Equal(t, 50.0, year2[0].DueAmount)
}

func indexByHead(statuses []DemandStatus) map[int64]DemandStatus {
	out := make(map[int64]DemandStatus, len(statuses))
	for _, s := range statuses {
		out[s.FeeHeadID] = s
	}
	return out
}
