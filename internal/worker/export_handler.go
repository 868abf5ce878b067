package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"pagecraft/internal/builder"
	"pagecraft/internal/errcode"
	"pagecraft/internal/persist"
	"pagecraft/internal/storage"
	"pagecraft/internal/tasks"
)

// latestArchiveTTL caps how long the "latest archive" pointer lives in
// redis; orphaned pointers would otherwise outlive bucket cleanups.
const latestArchiveTTL = 7 * 24 * time.Hour

// keepArchiveCount bounds how many archive objects per project stay in
// the bucket after a successful build.
const keepArchiveCount = 3

// errStaleProject marks a task whose project was replaced after enqueue.
var errStaleProject = errors.New("project is no longer active")

// ExportTaskHandler consumes export:archive tasks: it snapshots the
// durable builder state into an envelope and uploads it as a
// downloadable archive.
type ExportTaskHandler struct {
	port        persist.Port
	storage     *storage.Client
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewExportTaskHandler creates the task handler.
func NewExportTaskHandler(port persist.Port, storageClient *storage.Client, redisClient *redis.Client, logger *slog.Logger) *ExportTaskHandler {
	return &ExportTaskHandler{
		port:        port,
		storage:     storageClient,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask implements asynq.Handler.
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.ExportArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("project_id", payload.ProjectID),
	)
	log.Info("starting export archive task")

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) && !errors.Is(retErr, asynq.SkipRetry) {
			return
		}

		code := errcode.SystemError
		if errors.Is(retErr, persist.ErrNotFound) || errors.Is(retErr, errStaleProject) {
			code = errcode.ResourceMissing
		}
		notify := ExportArchiveNotifyMessage{
			Status:        "error",
			ProjectID:     payload.ProjectID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     code,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishNotify(ctx, payload.ProjectID, notify); err != nil {
			log.Error("publish archive error notification failed", slog.Any("error", err))
		}
	}()

	envelope, err := h.buildEnvelope(ctx, payload.ProjectID)
	if err != nil {
		log.Error("build export envelope failed", slog.Any("error", err))
		if errors.Is(err, persist.ErrNotFound) || errors.Is(err, errStaleProject) {
			// retrying cannot bring the project back
			return fmt.Errorf("%w: %w", asynq.SkipRetry, err)
		}
		return err
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal export envelope: %w", err)
	}

	objectName := ArchivePrefix(payload.ProjectID) + uuid.NewString() + ".json"
	if _, err := h.storage.UploadFile(ctx, objectName, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		log.Error("upload archive to minio failed", slog.Any("error", err))
		return err
	}

	if err := h.redisClient.Set(ctx, LatestArchiveKey(payload.ProjectID), objectName, latestArchiveTTL).Err(); err != nil {
		log.Error("record latest archive key failed", slog.Any("error", err))
		return err
	}

	if err := h.pruneOldArchives(ctx, payload.ProjectID, objectName); err != nil {
		// the new archive is already live, stale objects can wait
		log.Warn("prune old archives failed", slog.Any("error", err))
	}

	notify := ExportArchiveNotifyMessage{
		Status:        "completed",
		ProjectID:     payload.ProjectID,
		ArchiveKey:    objectName,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := h.publishNotify(ctx, payload.ProjectID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("export archive task completed", slog.String("archive_key", objectName))
	return nil
}

// buildEnvelope reads the durable collections straight from the persist
// port. The worker has no in-memory store; the port is the source of
// truth for what was last committed.
func (h *ExportTaskHandler) buildEnvelope(ctx context.Context, projectID string) (builder.ExportEnvelope, error) {
	var envelope builder.ExportEnvelope

	raw, err := h.port.Load(ctx, persist.KeyCurrentProject)
	if err != nil {
		return envelope, fmt.Errorf("load %s: %w", persist.KeyCurrentProject, err)
	}
	if err := json.Unmarshal(raw, &envelope.Project); err != nil {
		return envelope, fmt.Errorf("decode %s: %w", persist.KeyCurrentProject, err)
	}
	if envelope.Project.ID != projectID {
		return envelope, fmt.Errorf("project %s: %w", projectID, errStaleProject)
	}

	envelope.DynamicTemplates = []builder.Template{}
	if raw, err := h.port.Load(ctx, persist.KeyDynamicTemplates); err == nil {
		if err := json.Unmarshal(raw, &envelope.DynamicTemplates); err != nil {
			return envelope, fmt.Errorf("decode %s: %w", persist.KeyDynamicTemplates, err)
		}
	} else if !errors.Is(err, persist.ErrNotFound) {
		return envelope, fmt.Errorf("load %s: %w", persist.KeyDynamicTemplates, err)
	}

	envelope.DynamicComponents = []builder.Component{}
	if raw, err := h.port.Load(ctx, persist.KeyDynamicComponents); err == nil {
		if err := json.Unmarshal(raw, &envelope.DynamicComponents); err != nil {
			return envelope, fmt.Errorf("decode %s: %w", persist.KeyDynamicComponents, err)
		}
	} else if !errors.Is(err, persist.ErrNotFound) {
		return envelope, fmt.Errorf("load %s: %w", persist.KeyDynamicComponents, err)
	}

	envelope.ExportedAt = time.Now()
	envelope.Version = builder.ExportVersion
	return envelope, nil
}

// pruneOldArchives drops everything beyond the newest keepArchiveCount
// objects for the project.
func (h *ExportTaskHandler) pruneOldArchives(ctx context.Context, projectID, currentKey string) error {
	objects, err := h.storage.ListObjects(ctx, ArchivePrefix(projectID), 100)
	if err != nil {
		return err
	}
	for _, key := range archivesToPrune(objects, keepArchiveCount, currentKey) {
		if err := h.storage.DeleteObject(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// archivesToPrune picks the keys to delete: everything past the newest
// keep objects. The just-uploaded key survives even when clock skew
// makes it look old.
func archivesToPrune(objects []storage.ObjectMeta, keep int, currentKey string) []string {
	sorted := make([]storage.ObjectMeta, len(objects))
	copy(sorted, objects)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LastModified.After(sorted[j].LastModified)
	})

	var stale []string
	for i, obj := range sorted {
		if i < keep || obj.Key == currentKey {
			continue
		}
		stale = append(stale, obj.Key)
	}
	return stale
}

func (h *ExportTaskHandler) publishNotify(ctx context.Context, projectID string, notify ExportArchiveNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := NotifyChannel(projectID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
