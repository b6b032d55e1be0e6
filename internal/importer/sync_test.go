package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusledger/campusledger/internal/ledger"
)

type fakeLedgerWriter struct {
	requests []ledger.ReplaceRequest
	results  []ledger.ReplaceResult
	err      error
}

func (f *fakeLedgerWriter) Replace(_ context.Context, req ledger.ReplaceRequest) (ledger.ReplaceResult, error) {
	if f.err != nil {
		return ledger.ReplaceResult{}, f.err
	}
	f.requests = append(f.requests, req)
	if len(f.results) > 0 {
		res := f.results[0]
		f.results = f.results[1:]
		return res, nil
	}
	return ledger.ReplaceResult{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dueEntry() StagedStudent {
	return StagedStudent{
		Key:       "A101",
		RawID:     "A-101",
		DisplayID: "A101",
		Resolved:  true,
		Batch:     "2023-24",
		Demands: []DemandLine{
			{FeeHeadID: 1, FeeHeadName: "Tuition Fee", Year: 1, Semester: 1, Amount: 1000},
			{FeeHeadID: 2, FeeHeadName: "Library Fee", Year: 1, Semester: 1, Amount: 200},
		},
	}
}

func TestSyncBuildsPurgeAndReplacePerStudent(t *testing.T) {
	store := &fakeLedgerWriter{}
	sync := NewSynchronizer(store, discardLogger())

	res, err := sync.Sync(context.Background(), []StagedStudent{dueEntry()}, false)
	require.NoError(t, err)
	require.Equal(t, 1, res.Applied)
	require.Zero(t, res.Unresolved)

	require.Len(t, store.requests, 1)
	req := store.requests[0]
	require.ElementsMatch(t, []string{"a101", "a-101"}, req.StudentIDs)
	require.ElementsMatch(t, []ledger.PurgeKey{
		{FeeHeadID: 1, StudentYear: 1},
		{FeeHeadID: 2, StudentYear: 1},
	}, req.DemandPurges)
	require.Len(t, req.Demands, 2)
	require.Equal(t, "A101", req.Demands[0].StudentID)
	require.Equal(t, "2023-24", req.Demands[0].AcademicYear)
	require.Empty(t, req.PaymentPurges)
}

func TestSyncPurgeSetIncludesPinIdentifiers(t *testing.T) {
	store := &fakeLedgerWriter{}
	sync := NewSynchronizer(store, discardLogger())

	entry := dueEntry()
	entry.PinNumber = "227-AB"

	_, err := sync.Sync(context.Background(), []StagedStudent{entry}, false)
	require.NoError(t, err)

	require.Len(t, store.requests, 1)
	require.ElementsMatch(t, []string{"a101", "a-101", "227-ab", "227ab"}, store.requests[0].StudentIDs,
		"rows recorded under the pin or its synthetic form are purged too")
}

func TestSyncIsIdempotentAcrossRuns(t *testing.T) {
	store := &fakeLedgerWriter{}
	sync := NewSynchronizer(store, discardLogger())

	_, err := sync.Sync(context.Background(), []StagedStudent{dueEntry()}, false)
	require.NoError(t, err)
	_, err = sync.Sync(context.Background(), []StagedStudent{dueEntry()}, false)
	require.NoError(t, err)

	require.Len(t, store.requests, 2)
	require.Equal(t, store.requests[0], store.requests[1], "re-running the same sheet issues identical replace units")
}

func TestSyncPendingModeKeepsDemandBaseline(t *testing.T) {
	entry := dueEntry()
	entry.Payments = []PaymentLine{{FeeHeadID: 1, FeeHeadName: "Tuition Fee", Year: 1, Semester: 1, Amount: 500, Mode: "Cash"}}

	store := &fakeLedgerWriter{}
	sync := NewSynchronizer(store, discardLogger())

	res, err := sync.Sync(context.Background(), []StagedStudent{entry}, true)
	require.NoError(t, err)
	require.Equal(t, 1, res.Applied)

	req := store.requests[0]
	require.Empty(t, req.DemandPurges, "pending mode never purges demands")
	require.Empty(t, req.Demands)
	require.Len(t, req.PaymentPurges, 1)
	require.Len(t, req.Transactions, 1)
	require.Equal(t, ledger.TypeDebit, req.Transactions[0].Type)
}

func TestSyncSkipsContextOnlyDemands(t *testing.T) {
	entry := StagedStudent{
		Key:      "A101",
		Resolved: true,
		Demands: []DemandLine{
			{FeeHeadID: 2, FeeHeadName: "Library Fee", Year: 1, Semester: 1, ContextOnly: true},
		},
		Payments: []PaymentLine{{FeeHeadID: 1, Year: 1, Semester: 1, Amount: 300}},
	}

	store := &fakeLedgerWriter{}
	sync := NewSynchronizer(store, discardLogger())

	_, err := sync.Sync(context.Background(), []StagedStudent{entry}, false)
	require.NoError(t, err)

	req := store.requests[0]
	require.Empty(t, req.DemandPurges, "context lines must never produce purge criteria")
	require.Empty(t, req.Demands)
	require.Len(t, req.Transactions, 1)
}

func TestSyncCountsUnresolvedAndCapsSample(t *testing.T) {
	entries := make([]StagedStudent, 0, 7)
	for _, id := range []string{"X1", "X2", "X3", "X4", "X5", "X6", "X7"} {
		entries = append(entries, StagedStudent{
			Key:         id,
			RawID:       id,
			StudentName: "Student " + id,
			Demands:     []DemandLine{{FeeHeadID: 1, Year: 1, Semester: 1, Amount: 10}},
		})
	}

	store := &fakeLedgerWriter{}
	sync := NewSynchronizer(store, discardLogger())

	res, err := sync.Sync(context.Background(), entries, false)
	require.NoError(t, err)
	require.Equal(t, 7, res.Unresolved)
	require.Len(t, res.UnresolvedSample, unresolvedSampleSize)
	require.Equal(t, "Student X1 (X1)", res.UnresolvedSample[0])
	require.Equal(t, 7, res.Applied, "unresolved students are still applied under their synthetic key")
}

func TestSyncSkipsNoOpEntries(t *testing.T) {
	store := &fakeLedgerWriter{}
	sync := NewSynchronizer(store, discardLogger())

	res, err := sync.Sync(context.Background(), []StagedStudent{{Key: "A101", Resolved: true}}, false)
	require.NoError(t, err)
	require.Zero(t, res.Applied)
	require.Empty(t, store.requests)
}

func TestSyncDropsInBatchDuplicates(t *testing.T) {
	entry := dueEntry()
	entry.Demands = append(entry.Demands, entry.Demands[0])

	store := &fakeLedgerWriter{results: []ledger.ReplaceResult{{DuplicatesSkipped: 1}}}
	sync := NewSynchronizer(store, discardLogger())

	res, err := sync.Sync(context.Background(), []StagedStudent{entry}, false)
	require.NoError(t, err)
	require.Equal(t, 2, res.DuplicatesSkipped, "in-batch drop plus store-reported skip")
	require.Len(t, store.requests[0].Demands, 2)
}

func TestSyncAbortsOnStoreError(t *testing.T) {
	boom := errors.New("connection lost")
	store := &fakeLedgerWriter{err: boom}
	sync := NewSynchronizer(store, discardLogger())

	res, err := sync.Sync(context.Background(), []StagedStudent{dueEntry(), dueEntry()}, false)
	require.ErrorIs(t, err, boom)
	require.Zero(t, res.Applied)
}
