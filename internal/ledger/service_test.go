package ledger

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryLedgerRepo struct {
	demands     []Demand
	txns        []Transaction
	demandCalls int
}

func (m *memoryLedgerRepo) DemandsByStudent(ctx context.Context, ids []string) ([]Demand, error) {
	m.demandCalls++
	return m.demands, nil
}

func (m *memoryLedgerRepo) TransactionsByStudent(ctx context.Context, ids []string) ([]Transaction, error) {
	return m.txns, nil
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	return NewCache(client, time.Minute), srv
}

func TestStatementComputesTotals(t *testing.T) {
	repo := &memoryLedgerRepo{
		demands: []Demand{
			{FeeHeadID: 1, StudentYear: 1, Semester: 1, Amount: 1000},
			{FeeHeadID: 2, StudentYear: 1, Semester: 2, Amount: 500},
		},
		txns: []Transaction{
			{Type: TypeDebit, FeeHeadID: 1, Amount: 600},
			{Type: TypeCredit, Amount: 200},
		},
	}
	cache, _ := newTestCache(t)
	svc := NewService(repo, cache)

	stmt, err := svc.Statement(context.Background(), "A100", 0)
	require.NoError(t, err)
	require.Equal(t, 1500.0, stmt.TotalDemand)
	require.Equal(t, 800.0, stmt.TotalPaid)
	require.Equal(t, 700.0, stmt.TotalDue)
	require.Equal(t, 0.0, stmt.CreditLeft)
}

func TestStatementYearFilterKeepsFullHistoryAllocation(t *testing.T) {
	repo := &memoryLedgerRepo{
		demands: []Demand{
			{FeeHeadID: 1, StudentYear: 1, Semester: 1, Amount: 100},
			{FeeHeadID: 1, StudentYear: 2, Semester: 1, Amount: 100},
		},
		txns: []Transaction{{Type: TypeCredit, Amount: 150}},
	}
	cache, _ := newTestCache(t)
	svc := NewService(repo, cache)

	stmt, err := svc.Statement(context.Background(), "A100", 2)
	require.NoError(t, err)
	require.Len(t, stmt.Demands, 1)
	require.Equal(t, 50.0, stmt.Demands[0].PaidAmount)
	require.Equal(t, 50.0, stmt.Demands[0].DueAmount)
}

func TestStatementServedFromCacheUntilInvalidated(t *testing.T) {
	repo := &memoryLedgerRepo{
		demands: []Demand{{FeeHeadID: 1, StudentYear: 1, Semester: 1, Amount: 100}},
	}
	cache, _ := newTestCache(t)
	svc := NewService(repo, cache)
	ctx := context.Background()

	_, err := svc.Statement(ctx, "A100", 0)
	require.NoError(t, err)
	_, err = svc.Statement(ctx, "A100", 0)
	require.NoError(t, err)
	require.Equal(t, 1, repo.demandCalls)

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.Statement(ctx, "A100", 0)
	require.NoError(t, err)
	require.Equal(t, 2, repo.demandCalls)
}

func TestStatementRequiresStudentID(t *testing.T) {
	cache, _ := newTestCache(t)
	svc := NewService(&memoryLedgerRepo{}, cache)
	_, err := svc.Statement(context.Background(), "", 0)
	require.Error(t, err)
}
