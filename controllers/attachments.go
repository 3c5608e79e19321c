package controllers

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/baro-studio/baro-api/models"
	"github.com/baro-studio/baro-api/storage"
	"github.com/baro-studio/baro-api/utils"
)

// NewAttachment is the descriptor a form submits for an already-staged
// upload. Bytes never travel through the content routes; only metadata and
// the storage key produced by the staging endpoint do.
type NewAttachment struct {
	Filename    string `json:"filename" binding:"required"`
	StoragePath string `json:"storagePath" binding:"required"`
	URL         string `json:"url" binding:"required"`
	MimeType    string `json:"mimeType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

// attachFiles inserts File rows for freshly staged attachments and claims
// their staging records so the cleaner leaves them alone.
func attachFiles(tx *gorm.DB, ownerKind string, ownerID uint, atts []NewAttachment) error {
	if len(atts) == 0 {
		return nil
	}
	now := time.Now()
	keys := make([]string, 0, len(atts))
	for _, a := range atts {
		file := models.File{
			Filename:    a.Filename,
			URL:         a.URL,
			StoragePath: a.StoragePath,
			MimeType:    a.MimeType,
			SizeBytes:   a.SizeBytes,
			Kind:        models.FileKindAttachment,
			OwnerKind:   ownerKind,
			OwnerID:     ownerID,
			UploadedAt:  now,
		}
		if err := tx.Create(&file).Error; err != nil {
			return err
		}
		keys = append(keys, a.StoragePath)
	}
	return tx.Where("storage_path IN ?", keys).Delete(&models.StagedUpload{}).Error
}

// removeOwnedFiles deletes the storage objects and rows for the given file
// ids, restricted to the target owner. Ids pointing at another record's
// files are ignored rather than honored, so a crafted request cannot delete
// across records. The storage removal happens first; on failure the error
// propagates and the surrounding transaction rolls back with no rows touched.
func removeOwnedFiles(ctx context.Context, tx *gorm.DB, gw storage.Gateway, bucket, ownerKind string, ownerID uint, fileIDs []uint) error {
	if len(fileIDs) == 0 {
		return nil
	}
	var files []models.File
	if err := tx.Where("id IN ? AND owner_kind = ? AND owner_id = ? AND kind = ?",
		fileIDs, ownerKind, ownerID, models.FileKindAttachment).Find(&files).Error; err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}
	keys := make([]string, 0, len(files))
	ids := make([]uint, 0, len(files))
	for _, f := range files {
		keys = append(keys, f.StoragePath)
		ids = append(ids, f.ID)
	}
	if err := gw.Remove(ctx, bucket, keys); err != nil {
		return err
	}
	return tx.Delete(&models.File{}, ids).Error
}

// reconcileInlineImages diffs the inline-image File rows of a record against
// the image keys its saved HTML actually references: rows whose image
// disappeared from the content are deleted (object first), newly referenced
// images get rows and their staging records are claimed.
func reconcileInlineImages(ctx context.Context, tx *gorm.DB, gw storage.Gateway, imageBucket, ownerKind string, ownerID uint, content string) error {
	prefix := publicPrefix(gw, imageBucket)
	wanted := map[string]struct{}{}
	var wantedKeys []string
	for _, k := range utils.ExtractImageKeys(content, prefix) {
		wanted[k] = struct{}{}
		wantedKeys = append(wantedKeys, k)
	}

	var existing []models.File
	if err := tx.Where("owner_kind = ? AND owner_id = ? AND kind = ?",
		ownerKind, ownerID, models.FileKindInline).Find(&existing).Error; err != nil {
		return err
	}

	have := map[string]struct{}{}
	var removedKeys []string
	var removedIDs []uint
	for _, f := range existing {
		have[f.StoragePath] = struct{}{}
		if _, ok := wanted[f.StoragePath]; !ok {
			removedKeys = append(removedKeys, f.StoragePath)
			removedIDs = append(removedIDs, f.ID)
		}
	}
	if len(removedKeys) > 0 {
		if err := gw.Remove(ctx, imageBucket, removedKeys); err != nil {
			return err
		}
		if err := tx.Delete(&models.File{}, removedIDs).Error; err != nil {
			return err
		}
	}

	now := time.Now()
	var claimed []string
	for _, k := range wantedKeys {
		if _, ok := have[k]; ok {
			continue
		}
		url, err := gw.PublicURL(imageBucket, k)
		if err != nil {
			return err
		}
		file := models.File{
			Filename:    k[strings.LastIndexByte(k, '/')+1:],
			URL:         url,
			StoragePath: k,
			Kind:        models.FileKindInline,
			OwnerKind:   ownerKind,
			OwnerID:     ownerID,
			UploadedAt:  now,
		}
		if err := tx.Create(&file).Error; err != nil {
			return err
		}
		claimed = append(claimed, k)
	}
	if len(claimed) > 0 {
		return tx.Where("storage_path IN ?", claimed).Delete(&models.StagedUpload{}).Error
	}
	return nil
}

// destroyContentFiles removes every stored object a record owns and all its
// File rows. Attachment objects go first, then inline images; the image set
// is the union of tracked inline rows and a scan of the HTML, covering rows
// written before inline tracking existed. Any storage failure propagates so
// the enclosing transaction aborts before the record row is deleted.
func destroyContentFiles(ctx context.Context, tx *gorm.DB, gw storage.Gateway, attachmentBucket, imageBucket, ownerKind string, ownerID uint, content *string) error {
	var files []models.File
	if err := tx.Where("owner_kind = ? AND owner_id = ?", ownerKind, ownerID).Find(&files).Error; err != nil {
		return err
	}

	var attachmentKeys []string
	imageKeys := map[string]struct{}{}
	for _, f := range files {
		switch f.Kind {
		case models.FileKindInline:
			imageKeys[f.StoragePath] = struct{}{}
		default:
			attachmentKeys = append(attachmentKeys, f.StoragePath)
		}
	}
	if content != nil {
		for _, k := range utils.ExtractImageKeys(*content, publicPrefix(gw, imageBucket)) {
			imageKeys[k] = struct{}{}
		}
	}

	if err := gw.Remove(ctx, attachmentBucket, attachmentKeys); err != nil {
		return err
	}
	if len(imageKeys) > 0 {
		keys := make([]string, 0, len(imageKeys))
		for k := range imageKeys {
			keys = append(keys, k)
		}
		if err := gw.Remove(ctx, imageBucket, keys); err != nil {
			return err
		}
	}
	return tx.Where("owner_kind = ? AND owner_id = ?", ownerKind, ownerID).Delete(&models.File{}).Error
}

// loadOwnedFiles returns a record's files ordered by upload time ascending.
func loadOwnedFiles(db *gorm.DB, ownerKind string, ownerID uint) ([]models.File, error) {
	files := []models.File{}
	err := db.Where("owner_kind = ? AND owner_id = ?", ownerKind, ownerID).
		Order("uploaded_at ASC, id ASC").Find(&files).Error
	return files, err
}

// publicPrefix derives the public URL prefix of a bucket from the gateway.
func publicPrefix(gw storage.Gateway, bucket string) string {
	u, err := gw.PublicURL(bucket, "k")
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(u, "/k")
}
