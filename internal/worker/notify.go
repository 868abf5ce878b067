package worker

// NotifyChannel is the pub/sub channel carrying builder events for a
// project. This worker publishes on it; the websocket handler
// subscribes and forwards.
func NotifyChannel(projectID string) string {
	return "builder_notify:" + projectID
}

// LatestArchiveKey is the redis key pointing at a project's newest
// archive object.
func LatestArchiveKey(projectID string) string {
	return "export_archive:" + projectID
}

// ArchivePrefix is where a project's archive objects live in the bucket.
func ArchivePrefix(projectID string) string {
	return "exports/" + projectID + "/"
}

// ExportArchiveNotifyMessage is the websocket message protocol for
// archive builds, forwarded to clients over redis pub/sub. Field names
// match what the frontend parses.
type ExportArchiveNotifyMessage struct {
	Status        string `json:"status"`
	ProjectID     string `json:"project_id"`
	ArchiveKey    string `json:"archive_key,omitempty"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}
