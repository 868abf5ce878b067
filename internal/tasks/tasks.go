package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type constants, shared by queue producers and consumers.
const (
	TypeExportArchive = "export:archive"
)

// ExportArchivePayload carries the minimum needed to build an archive.
type ExportArchivePayload struct {
	ProjectID     string `json:"project_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewExportArchiveTask builds a task that snapshots the current project
// into a downloadable archive.
func NewExportArchiveTask(projectID, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ExportArchivePayload{
		ProjectID:     projectID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeExportArchive, payload), nil
}
