package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/campusledger/campusledger/internal/feehead"
	"github.com/campusledger/campusledger/internal/ledger"
	"github.com/campusledger/campusledger/internal/registry"
	"github.com/campusledger/campusledger/internal/shared"
)

// CatalogPort exposes the fee-head catalog to the importer.
type CatalogPort interface {
	Catalog(ctx context.Context) ([]feehead.FeeHead, error)
	MiscellaneousDue(ctx context.Context) (*feehead.FeeHead, error)
}

// ResolverPort batch-resolves raw identifiers.
type ResolverPort interface {
	Resolve(ctx context.Context, rawIDs []string) (registry.LookupMap, error)
}

// LedgerReader fetches persisted state for staging context enrichment.
type LedgerReader interface {
	DemandsByStudent(ctx context.Context, studentIDs []string) ([]ledger.Demand, error)
	TransactionsByStudent(ctx context.Context, studentIDs []string) ([]ledger.Transaction, error)
}

// Invalidator drops cached statements after a commit.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Notifier dispatches the commit summary to the notification collaborator.
type Notifier interface {
	NotifyImport(ctx context.Context, uploadType UploadType, result CommitResult) error
}

// Service orchestrates the preview and commit flows.
type Service struct {
	logger      *slog.Logger
	catalog     CatalogPort
	resolver    ResolverPort
	reader      LedgerReader
	sync        *Synchronizer
	invalidator Invalidator
	notifier    Notifier
	validate    *validator.Validate
}

// NewService builds a Service instance. invalidator and notifier may be nil.
func NewService(logger *slog.Logger, catalog CatalogPort, resolver ResolverPort, reader LedgerReader, sync *Synchronizer, invalidator Invalidator, notifier Notifier) *Service {
	return &Service{
		logger:      logger,
		catalog:     catalog,
		resolver:    resolver,
		reader:      reader,
		sync:        sync,
		invalidator: invalidator,
		notifier:    notifier,
		validate:    validator.New(),
	}
}

// Preview stages a spreadsheet without touching persisted state, so
// operators can re-run it safely until the data looks right.
func (s *Service) Preview(ctx context.Context, file io.ReadSeeker, filename string, uploadType UploadType, pendingMode bool) (*Preview, error) {
	if uploadType != UploadDue && uploadType != UploadPayment {
		return nil, shared.NewError(shared.KindValidation, "upload type must be DUE or PAYMENT")
	}

	grid, err := ParseSheet(file, filename)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, shared.NewError(shared.KindValidation, "empty sheet")
	}
	if len(grid) < 2 {
		return nil, shared.NewError(shared.KindValidation, "sheet has a header but no data rows")
	}
	header, rows := grid[0], grid[1:]

	cm := ClassifyColumns(header)

	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	var feeCols []FeeHeadColumn
	if uploadType == UploadDue {
		feeCols = MapFeeHeadColumns(header, cm, catalog)
	}
	if err := ValidateCritical(cm, feeCols); err != nil {
		return nil, err
	}

	rawIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		if id := extractRawID(row, cm); id != "" {
			rawIDs = append(rawIDs, id)
		}
	}
	lookup, err := s.resolver.Resolve(ctx, rawIDs)
	if err != nil {
		return nil, err
	}

	var miscHead *feehead.FeeHead
	if uploadType == UploadDue && cm.Has(RoleAmount) {
		miscHead, err = s.catalog.MiscellaneousDue(ctx)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	outcome := Stage(StageParams{
		Rows:        rows,
		Columns:     cm,
		FeeColumns:  feeCols,
		Lookup:      lookup,
		Catalog:     catalog,
		MiscHead:    miscHead,
		UploadType:  uploadType,
		PendingMode: pendingMode,
		Now:         now,
	})

	if err := s.enrich(ctx, outcome.Entries, uploadType, pendingMode, now); err != nil {
		return nil, err
	}

	preview := &Preview{
		Message:     fmt.Sprintf("Staged %d students from %d rows", len(outcome.Entries), len(rows)),
		TotalRows:   len(rows),
		SkippedRows: outcome.SkippedRows,
		Data:        outcome.Entries,
		FeeHeads:    demandHeadNames(outcome.Entries),
	}
	return preview, nil
}

// enrich fetches persisted demand/payment history for all resolved students
// in two bulk round trips and merges it into the staged entries.
func (s *Service) enrich(ctx context.Context, entries []StagedStudent, uploadType UploadType, pendingMode bool, now time.Time) error {
	var ids []string
	for i := range entries {
		if entries[i].Resolved {
			ids = append(ids, entries[i].Key)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	demands, err := s.reader.DemandsByStudent(ctx, ids)
	if err != nil {
		return err
	}
	txns, err := s.reader.TransactionsByStudent(ctx, ids)
	if err != nil {
		return err
	}

	demandsByID := make(map[string][]ledger.Demand)
	for _, d := range demands {
		key := lowerTrim(d.StudentID)
		demandsByID[key] = append(demandsByID[key], d)
	}
	txnsByID := make(map[string][]ledger.Transaction)
	for _, t := range txns {
		key := lowerTrim(t.StudentID)
		txnsByID[key] = append(txnsByID[key], t)
	}

	Enrich(entries, demandsByID, txnsByID, uploadType, pendingMode, now)
	return nil
}

// Commit applies a confirmed staging payload. Only this step mutates
// persisted state.
func (s *Service) Commit(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.WrapError(shared.KindValidation, "invalid commit payload", err)
	}

	batchID := uuid.NewString()
	logger := s.logger.With(slog.String("batch_id", batchID))

	syncRes, err := s.sync.Sync(ctx, req.Students, req.IsPendingMode)
	if err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			logger.Warn("statement cache invalidation failed", slog.Any("error", err))
		}
	}

	result := &CommitResult{
		BatchID:           batchID,
		Message:           fmt.Sprintf("Applied %d students, %d unresolved", syncRes.Applied, syncRes.Unresolved),
		AppliedCount:      syncRes.Applied,
		UnresolvedCount:   syncRes.Unresolved,
		UnresolvedSample:  syncRes.UnresolvedSample,
		DuplicatesSkipped: syncRes.DuplicatesSkipped,
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyImport(ctx, req.UploadType, *result); err != nil {
			logger.Warn("import notification enqueue failed", slog.Any("error", err))
		}
	}
	return result, nil
}

func demandHeadNames(entries []StagedStudent) []string {
	seen := make(map[string]struct{})
	var names []string
	for i := range entries {
		for _, line := range entries[i].Demands {
			if line.Amount <= 0 {
				continue
			}
			if _, ok := seen[line.FeeHeadName]; ok {
				continue
			}
			seen[line.FeeHeadName] = struct{}{}
			names = append(names, line.FeeHeadName)
		}
	}
	return names
}
