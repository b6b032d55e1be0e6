package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/campusledger/campusledger/internal/ledger"
)

// LedgerWriter is the persistence port the synchronizer drives.
type LedgerWriter interface {
	Replace(ctx context.Context, req ledger.ReplaceRequest) (ledger.ReplaceResult, error)
}

// SyncResult aggregates the outcome over all staged students.
type SyncResult struct {
	Applied           int
	Unresolved        int
	UnresolvedSample  []string
	DuplicatesSkipped int
}

const unresolvedSampleSize = 5

// Synchronizer applies confirmed staging payloads with a purge-and-replace
// protocol, one transaction per student.
type Synchronizer struct {
	store  LedgerWriter
	logger *slog.Logger
}

// NewSynchronizer builds a Synchronizer.
func NewSynchronizer(store LedgerWriter, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{store: store, logger: logger}
}

// Sync purges and reinserts ledger rows for every staged student. Demand
// baselines are untouched in pending mode; payment rows are always replaced
// so re-uploading the same sheet is idempotent. Unresolved students are
// still applied under their degraded synthetic key, but counted and sampled
// for operator review. A store failure aborts the remaining students.
func (s *Synchronizer) Sync(ctx context.Context, entries []StagedStudent, pendingMode bool) (SyncResult, error) {
	var res SyncResult

	for i := range entries {
		entry := &entries[i]
		if !entry.Resolved {
			res.Unresolved++
			if len(res.UnresolvedSample) < unresolvedSampleSize {
				name := entry.StudentName
				if name == "" {
					name = "Unknown"
				}
				res.UnresolvedSample = append(res.UnresolvedSample, fmt.Sprintf("%s (%s)", name, entry.RawID))
			}
		}

		req := buildReplace(entry, pendingMode)
		if len(req.DemandPurges) == 0 && len(req.PaymentPurges) == 0 &&
			len(req.Demands) == 0 && len(req.Transactions) == 0 {
			continue
		}

		dropped := dedupeDemands(&req)
		res.DuplicatesSkipped += dropped

		result, err := s.store.Replace(ctx, req)
		if err != nil {
			return res, err
		}
		res.DuplicatesSkipped += result.DuplicatesSkipped
		res.Applied++

		if s.logger != nil && (dropped > 0 || result.DuplicatesSkipped > 0) {
			s.logger.Warn("duplicate ledger rows dropped during sync",
				slog.String("student_id", entry.Key),
				slog.Int("in_batch", dropped),
				slog.Int("in_store", result.DuplicatesSkipped))
		}
	}

	return res, nil
}

// buildReplace turns one staged entry into purge criteria plus inserts.
// Demand purges are deliberately not scoped by academic year, so a stale
// demand recorded under a different batch label is removed too.
func buildReplace(entry *StagedStudent, pendingMode bool) ledger.ReplaceRequest {
	req := ledger.ReplaceRequest{StudentIDs: entry.LinkedIDs()}

	if !pendingMode {
		for _, line := range entry.Demands {
			if line.ContextOnly {
				continue
			}
			req.DemandPurges = append(req.DemandPurges, ledger.PurgeKey{
				FeeHeadID:   line.FeeHeadID,
				StudentYear: line.Year,
			})
			if line.Amount > 0 {
				req.Demands = append(req.Demands, ledger.Demand{
					StudentID:    entry.Key,
					FeeHeadID:    line.FeeHeadID,
					FeeHeadName:  line.FeeHeadName,
					AcademicYear: entry.Batch,
					StudentYear:  line.Year,
					Semester:     line.Semester,
					Amount:       line.Amount,
				})
			}
		}
	}

	for _, line := range entry.Payments {
		req.PaymentPurges = append(req.PaymentPurges, ledger.PurgeKey{
			FeeHeadID:   line.FeeHeadID,
			StudentYear: line.Year,
		})
		if line.Amount > 0 {
			req.Transactions = append(req.Transactions, ledger.Transaction{
				StudentID:   entry.Key,
				FeeHeadID:   line.FeeHeadID,
				FeeHeadName: line.FeeHeadName,
				Type:        ledger.TypeDebit,
				Amount:      line.Amount,
				Mode:        line.Mode,
				PaidAt:      line.Date,
				Reference:   line.Reference,
				StudentYear: line.Year,
				Semester:    line.Semester,
				Remarks:     line.Remarks,
			})
		}
	}

	return req
}

// dedupeDemands drops later duplicates of the composite uniqueness key,
// returning the number dropped.
func dedupeDemands(req *ledger.ReplaceRequest) int {
	seen := make(map[string]struct{}, len(req.Demands))
	kept := req.Demands[:0]
	dropped := 0
	for _, d := range req.Demands {
		key := d.StudentID + "|" + strconv.FormatInt(d.FeeHeadID, 10) + "|" +
			d.AcademicYear + "|" + strconv.Itoa(d.StudentYear) + "|" + strconv.Itoa(d.Semester)
		if _, ok := seen[key]; ok {
			dropped++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, d)
	}
	req.Demands = kept
	return dropped
}
