package controllers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/baro-studio/baro-api/config"
	"github.com/baro-studio/baro-api/models"
	"github.com/baro-studio/baro-api/storage"
	"github.com/baro-studio/baro-api/utils"
)

// Uploads above this size are rejected before touching storage.
const maxUploadSize = 50 * 1024 * 1024

// UploadController stages uploads into the object store ahead of a form
// submission and streams attachment downloads back to authenticated users.
type UploadController struct {
	db    *gorm.DB
	store storage.Gateway
}

// NewUploadController creates a new UploadController instance.
func NewUploadController(db *gorm.DB, store storage.Gateway) *UploadController {
	return &UploadController{db: db, store: store}
}

// StageAttachment uploads one attachment into the attachments bucket and
// returns the descriptor the content routes expect in newAttachments.
// The object stays staged until a create/update claims it; unclaimed objects
// are swept once their claim window expires.
func (u *UploadController) StageAttachment(ctx *gin.Context) {
	cfg := config.Get()
	prefix := storage.PrefixBoardAttachments
	if ctx.Query("target") == "job" {
		prefix = storage.PrefixJobAttachments
	}
	u.stage(ctx, cfg.AttachmentBucket, prefix)
}

// StageImage uploads one editor image into the images bucket.
func (u *UploadController) StageImage(ctx *gin.Context) {
	cfg := config.Get()
	prefix := storage.PrefixBoardImages
	if ctx.Query("target") == "job" {
		prefix = storage.PrefixJobImages
	}
	u.stage(ctx, cfg.ImageBucket, prefix)
}

func (u *UploadController) stage(ctx *gin.Context, bucket, prefix string) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		utils.Error(ctx, http.StatusBadRequest, 40032, "file size exceeds 50MB")
		return
	}

	filename := filepath.Base(header.Filename)
	if filename == "." || filename == "" {
		filename = fmt.Sprintf("file_%d", time.Now().UnixNano())
	}
	contentType := header.Header.Get("Content-Type")

	key := storage.GenerateKey(prefix, filename)
	// Guard against a lying Content-Length; the store sees at most the limit.
	lr := io.LimitReader(file, maxUploadSize)
	url, err := u.store.Upload(ctx.Request.Context(), bucket, key, lr, header.Size, contentType)
	if err != nil {
		utils.Sugar.Errorf("stage upload failed bucket=%s key=%s err=%v", bucket, key, err)
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to store file")
		return
	}

	cfg := config.Get()
	expireAt := time.Now().Add(time.Duration(cfg.UploadClaimTTLMinutes) * time.Minute)
	if err := u.db.Create(&models.StagedUpload{
		Bucket:      bucket,
		StoragePath: key,
		URL:         url,
		ExpireAt:    expireAt,
	}).Error; err != nil {
		// The object exists but cannot be tracked for sweeping; fail the
		// request so the client retries rather than submit an untracked key.
		utils.Sugar.Errorf("record staged upload failed key=%s err=%v", key, err)
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to record upload")
		return
	}

	utils.Success(ctx, gin.H{
		"filename":    filename,
		"storagePath": key,
		"url":         url,
		"mimeType":    contentType,
		"sizeBytes":   header.Size,
	})
}

// DownloadFile streams an attachment's bytes through the server instead of
// redirecting to the public URL, so access stays behind authentication.
func (u *UploadController) DownloadFile(ctx *gin.Context) {
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40409, "file not found")
		return
	}
	var file models.File
	if err := u.db.First(&file, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40409, "file not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load file")
		return
	}

	cfg := config.Get()
	bucket := cfg.AttachmentBucket
	if file.Kind == models.FileKindInline {
		bucket = cfg.ImageBucket
	}
	rc, err := u.store.Download(ctx.Request.Context(), bucket, file.StoragePath)
	if err != nil {
		utils.Sugar.Errorf("download failed bucket=%s key=%s err=%v", bucket, file.StoragePath, err)
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to fetch file")
		return
	}
	defer rc.Close()

	contentType := file.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	size := file.SizeBytes
	if size <= 0 {
		size = -1 // unknown; let gin omit Content-Length
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sanitizeFilename(file.Filename)))
	ctx.DataFromReader(http.StatusOK, size, contentType, rc, nil)
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\"", "")
	name = strings.ReplaceAll(name, "\r", "")
	return strings.ReplaceAll(name, "\n", "")
}
