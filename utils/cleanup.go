package utils

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/baro-studio/baro-api/models"
	"github.com/baro-studio/baro-api/storage"
)

// StartUploadCleaner launches a background goroutine that periodically deletes
// staged uploads whose claim window has expired: the storage object first,
// then the row. It is best-effort and logs failures.
func StartUploadCleaner(db *gorm.DB, gw storage.Gateway, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)
			SweepExpiredUploads(db, gw)
		}
	}()
}

// SweepExpiredUploads removes one batch of expired staged uploads. Exposed
// separately so tests can drive it without the ticker goroutine.
func SweepExpiredUploads(db *gorm.DB, gw storage.Gateway) {
	var items []models.StagedUpload
	if err := db.Where("expire_at <= ?", time.Now()).Limit(100).Find(&items).Error; err != nil {
		if Sugar != nil {
			Sugar.Warnf("upload cleaner query failed: %v", err)
		}
		return
	}
	for _, it := range items {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := gw.Remove(ctx, it.Bucket, []string{it.StoragePath})
		cancel()
		if err != nil {
			if Sugar != nil {
				Sugar.Warnf("upload cleaner remove object failed bucket=%s key=%s err=%v", it.Bucket, it.StoragePath, err)
			}
			// Keep the row so the object gets retried next sweep.
			continue
		}
		if err := db.Delete(&models.StagedUpload{}, it.ID).Error; err != nil {
			if Sugar != nil {
				Sugar.Warnf("upload cleaner delete row failed: %v", err)
			}
		}
	}
}
