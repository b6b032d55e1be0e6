// Package jobs defines the background task surface: queue names, task
// payloads and the Asynq worker that processes them.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeImportNotify reports a committed import to operators.
	TaskTypeImportNotify = "import:notify"
	// TaskTypeDuesScan sweeps the ledger for students with large dues.
	TaskTypeDuesScan = "ledger:dues_scan"
)

// ImportNotifyPayload summarizes one committed import.
type ImportNotifyPayload struct {
	UploadType        string   `json:"uploadType"`
	Applied           int      `json:"applied"`
	Unresolved        int      `json:"unresolved"`
	UnresolvedSample  []string `json:"unresolvedSample,omitempty"`
	DuplicatesSkipped int      `json:"duplicatesSkipped"`
}

// NewImportNotifyTask constructs an Asynq task.
func NewImportNotifyTask(payload ImportNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeImportNotify, data), nil
}

// HandleImportNotifyTask processes TaskTypeImportNotify tasks. Delivery is a
// structured log line; operators tail it or ship it to their alerting stack.
func HandleImportNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload ImportNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	logger := slog.Default().With(slog.String("job", TaskTypeImportNotify))
	logger.Info("import committed",
		slog.String("upload_type", payload.UploadType),
		slog.Int("applied", payload.Applied),
		slog.Int("unresolved", payload.Unresolved),
		slog.Int("duplicates_skipped", payload.DuplicatesSkipped),
	)
	for _, sample := range payload.UnresolvedSample {
		logger.Warn("unresolved student in import", slog.String("student", sample))
	}
	return nil
}

// DuesScanPayload tunes one dues sweep.
type DuesScanPayload struct {
	// MinDue is the smallest outstanding amount worth reporting.
	MinDue float64 `json:"minDue"`
	// HighDue marks the HIGH severity boundary.
	HighDue float64 `json:"highDue"`
}

// NewDuesScanTask constructs an Asynq task.
func NewDuesScanTask(payload DuesScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDuesScan, data), nil
}
