package api

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sort"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"pagecraft/internal/api/middleware"
	"pagecraft/internal/builder"
	"pagecraft/internal/storage"
	"pagecraft/internal/tasks"
	"pagecraft/internal/worker"
)

// maxImportBytes bounds the accepted envelope size; browser exports sit
// well under a megabyte.
const maxImportBytes = 5 << 20

// ExportHandler serves the synchronous envelope download, the archive
// pipeline, and project import.
type ExportHandler struct {
	store       *builder.Store
	asynqClient *asynq.Client
	redisClient *redis.Client
	storage     *storage.Client
	clamdAddr   string
	logger      *slog.Logger
}

// NewExportHandler builds the handler.
func NewExportHandler(
	store *builder.Store,
	asynqClient *asynq.Client,
	redisClient *redis.Client,
	storageClient *storage.Client,
	clamdAddr string,
	logger *slog.Logger,
) *ExportHandler {
	return &ExportHandler{
		store:       store,
		asynqClient: asynqClient,
		redisClient: redisClient,
		storage:     storageClient,
		clamdAddr:   clamdAddr,
		logger:      logger,
	}
}

// Export streams the current envelope with download headers.
func (h *ExportHandler) Export(c *gin.Context) {
	envelope := h.store.ExportProject()
	filename := h.store.ExportFilename()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, envelope)
}

// EnqueueArchive queues an archive build for the current project and
// returns immediately with 202.
func (h *ExportHandler) EnqueueArchive(c *gin.Context) {
	projectID := h.store.Project().ID
	correlationID := middleware.GetCorrelationID(c)

	task, err := tasks.NewExportArchiveTask(projectID, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		Internal(c, "failed to enqueue archive build")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "archive build accepted",
		"task_id": info.ID,
	})
}

// GetArchiveLink returns a presigned download URL for the most recent
// archive of the current project.
func (h *ExportHandler) GetArchiveLink(c *gin.Context) {
	projectID := h.store.Project().ID
	ctx := c.Request.Context()

	archiveKey, err := h.redisClient.Get(ctx, worker.LatestArchiveKey(projectID)).Result()
	if err == redis.Nil {
		Conflict(c, "archive not ready")
		return
	}
	if err != nil {
		h.logger.Error("lookup archive key", slog.Any("error", err))
		Internal(c, "failed to look up archive")
		return
	}

	params := map[string]string{
		"response-content-disposition": fmt.Sprintf("attachment; filename=%q", h.store.ExportFilename()),
	}
	signedURL, err := h.storage.GeneratePresignedURLWithParams(ctx, archiveKey, 5*time.Minute, params)
	if err != nil {
		h.logger.Error("generate archive link", slog.Any("error", err))
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

// ListArchives returns the archives still in the bucket for the current
// project, newest first, each with a short-lived download link.
func (h *ExportHandler) ListArchives(c *gin.Context) {
	projectID := h.store.Project().ID
	ctx := c.Request.Context()

	objects, err := h.storage.ListObjects(ctx, worker.ArchivePrefix(projectID), 20)
	if err != nil {
		h.logger.Error("list archives", slog.Any("error", err))
		Internal(c, "failed to list archives")
		return
	}
	sortArchivesNewestFirst(objects)

	archives := make([]gin.H, 0, len(objects))
	for _, obj := range objects {
		signedURL, err := h.storage.GeneratePresignedURL(ctx, obj.Key, 5*time.Minute)
		if err != nil {
			h.logger.Error("sign archive link", slog.String("key", obj.Key), slog.Any("error", err))
			Internal(c, "failed to generate download link")
			return
		}
		archives = append(archives, gin.H{
			"key":           obj.Key,
			"size":          obj.Size,
			"last_modified": obj.LastModified,
			"url":           signedURL,
		})
	}

	c.JSON(http.StatusOK, gin.H{"archives": archives})
}

func sortArchivesNewestFirst(objects []storage.ObjectMeta) {
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
}

// Import replaces the project from an exported envelope. The body is
// either the raw JSON envelope or a multipart upload under "file";
// uploads are virus-scanned when a clamd address is configured.
func (h *ExportHandler) Import(c *gin.Context) {
	raw, ok := h.readImportBody(c)
	if !ok {
		return
	}

	if !h.store.ImportProject(c.Request.Context(), raw) {
		BadRequest(c, "invalid export file")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project": h.store.Project(),
		"message": "project imported",
	})
}

func (h *ExportHandler) readImportBody(c *gin.Context) ([]byte, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		// no multipart upload, treat the body as the envelope itself
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
		if err != nil || len(raw) == 0 {
			BadRequest(c, "missing export payload")
			return nil, false
		}
		return raw, true
	}

	if file.Size > maxImportBytes {
		BadRequest(c, "export file too large")
		return nil, false
	}

	if h.clamdAddr != "" && !h.scanUpload(c, file) {
		return nil, false
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return nil, false
	}
	defer reader.Close()

	raw, err := io.ReadAll(io.LimitReader(reader, maxImportBytes))
	if err != nil {
		Internal(c, "failed to read file")
		return nil, false
	}
	return raw, true
}

func (h *ExportHandler) scanUpload(c *gin.Context, file *multipart.FileHeader) bool {
	clamdClient := clamd.NewClamd(h.clamdAddr)

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return false
	}

	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(reader, abortChan)
	reader.Close()
	if err != nil {
		h.logger.Error("scan file", slog.Any("error", err))
		Internal(c, "failed to scan file")
		return false
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			BadRequest(c, "malicious file detected")
			return false
		}
	}
	return true
}
