package ledger

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/campusledger/campusledger/internal/shared"
)

// RepositoryPort defines the data access the statement service needs.
type RepositoryPort interface {
	DemandsByStudent(ctx context.Context, studentIDs []string) ([]Demand, error)
	TransactionsByStudent(ctx context.Context, studentIDs []string) ([]Transaction, error)
}

// Service computes student statements over the persisted ledger.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	group singleflight.Group
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Statement returns the allocation outcome for one student. yearFilter == 0
// returns the full history; any other value restricts the output after the
// allocation has run over everything.
func (s *Service) Statement(ctx context.Context, studentID string, yearFilter int) (*Statement, error) {
	if studentID == "" {
		return nil, shared.NewError(shared.KindValidation, "student id required")
	}

	key, err := s.cache.StatementKey(ctx, studentID, yearFilter)
	if err != nil {
		return nil, err
	}

	var stmt Statement
	fetch := func(ctx context.Context) (interface{}, error) {
		return s.compute(ctx, studentID, yearFilter)
	}
	loadErr := s.cache.FetchJSON(ctx, key, &stmt, func(ctx context.Context) (interface{}, error) {
		v, err, _ := s.group.Do(key, func() (interface{}, error) {
			return fetch(ctx)
		})
		return v, err
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return &stmt, nil
}

func (s *Service) compute(ctx context.Context, studentID string, yearFilter int) (*Statement, error) {
	ids := []string{studentID}
	demands, err := s.repo.DemandsByStudent(ctx, ids)
	if err != nil {
		return nil, err
	}
	txns, err := s.repo.TransactionsByStudent(ctx, ids)
	if err != nil {
		return nil, err
	}

	statuses := Allocate(demands, txns)

	var totalCredit float64
	for _, t := range txns {
		totalCredit += t.Amount
	}
	var allocated float64
	for _, st := range statuses {
		allocated += st.PaidAmount
	}

	if yearFilter != 0 {
		statuses = FilterYear(statuses, yearFilter)
	}

	stmt := &Statement{StudentID: studentID, Demands: statuses, CreditLeft: totalCredit - allocated}
	for _, st := range statuses {
		stmt.TotalDemand += st.Amount
		stmt.TotalPaid += st.PaidAmount
		stmt.TotalDue += st.DueAmount
	}
	return stmt, nil
}

// Invalidate drops all cached statements. The synchronizer calls this after
// every commit.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
