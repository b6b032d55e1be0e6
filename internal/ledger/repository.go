package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusledger/campusledger/internal/platform/db"
	"github.com/campusledger/campusledger/internal/shared"
)

// PurgeKey selects previously persisted rows to delete before reinserting.
// Student years are matched as text so rows persisted by older tooling with
// "1" or "1.0" in the year column are purged too.
type PurgeKey struct {
	FeeHeadID   int64
	StudentYear int
}

// ReplaceRequest is one student's purge-and-replace unit. StudentIDs carries
// every identifier known to map to the student, lowercased, so stale rows
// recorded under a sibling id are purged as well.
type ReplaceRequest struct {
	StudentIDs    []string
	DemandPurges  []PurgeKey
	PaymentPurges []PurgeKey
	Demands       []Demand
	Transactions  []Transaction
}

// ReplaceResult reports soft failures from one replace run.
type ReplaceResult struct {
	DemandsInserted   int
	PaymentsInserted  int
	DuplicatesSkipped int
}

// Repository provides PostgreSQL backed persistence for the fee ledger.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

// DemandsByStudent returns all persisted demands for any of the given ids,
// ordered for allocation.
func (r *Repository) DemandsByStudent(ctx context.Context, studentIDs []string) ([]Demand, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT d.id, d.student_id, d.fee_head_id, COALESCE(h.name, ''), d.academic_year,
			d.student_year, d.semester, d.amount
		FROM student_fees d
		LEFT JOIN fee_heads h ON h.id = d.fee_head_id
		WHERE LOWER(d.student_id) = ANY($1)
		ORDER BY d.student_year, d.semester, d.id`

	rows, err := r.pool.Query(ctx, query, lowercase(studentIDs))
	if err != nil {
		return nil, shared.WrapError(shared.KindStore, "ledger: list demands", err)
	}
	defer rows.Close()

	var demands []Demand
	for rows.Next() {
		var d Demand
		var year, sem pgtype.Text
		if err := rows.Scan(&d.ID, &d.StudentID, &d.FeeHeadID, &d.FeeHeadName, &d.AcademicYear, &year, &sem, &d.Amount); err != nil {
			return nil, shared.WrapError(shared.KindStore, "ledger: scan demand", err)
		}
		d.StudentYear = parseStoredYear(year.String)
		d.Semester = parseStoredYear(sem.String)
		demands = append(demands, d)
	}
	return demands, rows.Err()
}

// TransactionsByStudent returns all persisted transactions for any of the ids.
func (r *Repository) TransactionsByStudent(ctx context.Context, studentIDs []string) ([]Transaction, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT t.id, t.student_id, COALESCE(t.fee_head_id, 0), COALESCE(h.name, ''), t.type,
			t.amount, t.mode, t.paid_at, COALESCE(t.reference, ''), t.student_year, t.semester,
			COALESCE(t.remarks, '')
		FROM fee_transactions t
		LEFT JOIN fee_heads h ON h.id = t.fee_head_id
		WHERE LOWER(t.student_id) = ANY($1)
		ORDER BY t.paid_at, t.id`

	rows, err := r.pool.Query(ctx, query, lowercase(studentIDs))
	if err != nil {
		return nil, shared.WrapError(shared.KindStore, "ledger: list transactions", err)
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		var t Transaction
		var year, sem pgtype.Text
		if err := rows.Scan(&t.ID, &t.StudentID, &t.FeeHeadID, &t.FeeHeadName, &t.Type, &t.Amount,
			&t.Mode, &t.PaidAt, &t.Reference, &year, &sem, &t.Remarks); err != nil {
			return nil, shared.WrapError(shared.KindStore, "ledger: scan transaction", err)
		}
		t.StudentYear = parseStoredYear(year.String)
		t.Semester = parseStoredYear(sem.String)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// Replace purges and reinserts one student's ledger rows inside a single
// transaction, so a crash between delete and insert cannot leave the key
// empty. Inserts use ON CONFLICT DO NOTHING: a unique-violation subset is
// dropped with a warning instead of aborting the batch.
func (r *Repository) Replace(ctx context.Context, req ReplaceRequest) (ReplaceResult, error) {
	var res ReplaceResult
	if len(req.StudentIDs) == 0 {
		return res, shared.NewError(shared.KindValidation, "ledger: replace requires student ids")
	}

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		ids := lowercase(req.StudentIDs)

		if len(req.DemandPurges) > 0 {
			where, args := purgeClause(ids, req.DemandPurges)
			if _, err := tx.Exec(ctx, "DELETE FROM student_fees WHERE "+where, args...); err != nil {
				return shared.WrapError(shared.KindStore, "ledger: purge demands", err)
			}
		}
		if len(req.PaymentPurges) > 0 {
			where, args := purgeClause(ids, req.PaymentPurges)
			if _, err := tx.Exec(ctx, "DELETE FROM fee_transactions WHERE "+where, args...); err != nil {
				return shared.WrapError(shared.KindStore, "ledger: purge transactions", err)
			}
		}

		for _, d := range req.Demands {
			tag, err := tx.Exec(ctx, `
				INSERT INTO student_fees (student_id, fee_head_id, academic_year, student_year, semester, amount)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (student_id, fee_head_id, academic_year, student_year, semester) DO NOTHING`,
				d.StudentID, d.FeeHeadID, d.AcademicYear, strconv.Itoa(d.StudentYear), strconv.Itoa(d.Semester), d.Amount,
			)
			if err != nil {
				return shared.WrapError(shared.KindStore, "ledger: insert demand", err)
			}
			if tag.RowsAffected() == 0 {
				res.DuplicatesSkipped++
				r.warn(ctx, "demand insert skipped on conflict", d.StudentID, d.FeeHeadID)
				continue
			}
			res.DemandsInserted++
		}

		for _, t := range req.Transactions {
			var headID any
			if t.FeeHeadID != 0 {
				headID = t.FeeHeadID
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO fee_transactions (student_id, fee_head_id, type, amount, mode, paid_at, reference, student_year, semester, remarks)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				t.StudentID, headID, t.Type, t.Amount, t.Mode, t.PaidAt, t.Reference,
				strconv.Itoa(t.StudentYear), strconv.Itoa(t.Semester), t.Remarks,
			)
			if err != nil {
				return shared.WrapError(shared.KindStore, "ledger: insert transaction", err)
			}
			res.PaymentsInserted++
		}
		return nil
	})
	if err != nil {
		return ReplaceResult{}, err
	}
	return res, nil
}

func (r *Repository) warn(ctx context.Context, msg, studentID string, headID int64) {
	if r.logger == nil {
		return
	}
	r.logger.WarnContext(ctx, msg, slog.String("student_id", studentID), slog.Int64("fee_head_id", headID))
}

// purgeClause builds one multi-criteria WHERE for a batched delete. Year
// matching covers plain and float-formatted text forms.
func purgeClause(studentIDs []string, keys []PurgeKey) (string, []any) {
	args := []any{studentIDs}
	groups := make([]string, 0, len(keys))
	for _, k := range keys {
		years := []string{strconv.Itoa(k.StudentYear), strconv.Itoa(k.StudentYear) + ".0"}
		args = append(args, k.FeeHeadID, years)
		groups = append(groups, fmt.Sprintf("(fee_head_id = $%d AND student_year::text = ANY($%d))", len(args)-1, len(args)))
	}
	return "LOWER(student_id) = ANY($1) AND (" + strings.Join(groups, " OR ") + ")", args
}

func parseStoredYear(raw string) int {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		raw = raw[:i]
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func lowercase(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
