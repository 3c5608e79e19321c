package main

import (
	"time"

	"github.com/baro-studio/baro-api/config"
	"github.com/baro-studio/baro-api/models"
	"github.com/baro-studio/baro-api/routes"
	"github.com/baro-studio/baro-api/storage"
	"github.com/baro-studio/baro-api/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.Manager{}, &models.Post{}, &models.Job{}, &models.File{}, &models.StagedUpload{})

	store := newGateway(cfg)

	// Seed the manager credential holder; existing rows are never overwritten.
	if cfg.AdminID != "" && cfg.AdminPassword != "" {
		hash, err := utils.HashPassword(cfg.AdminPassword)
		if err != nil {
			utils.Sugar.Fatalf("hash admin password: %v", err)
		}
		if err := models.EnsureManager(db, cfg.AdminID, hash); err != nil {
			utils.Sugar.Fatalf("seed manager: %v", err)
		}
	}

	r := routes.SetupRouter(db, store)

	// Sweep staged uploads whose claim window expired (best-effort)
	utils.StartUploadCleaner(db, store, 5*time.Minute)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

// newGateway builds the configured storage backend, refusing to start on a
// misconfiguration instead of failing lazily per request.
func newGateway(cfg config.AppConfig) storage.Gateway {
	switch cfg.StorageBackend {
	case "disk":
		base := cfg.StoragePublicBaseURL
		if base == "" {
			base = "/static"
		}
		gw, err := storage.NewDiskGateway(cfg.StorageDiskRoot, base)
		if err != nil {
			utils.Sugar.Fatalf("init disk storage: %v", err)
		}
		return gw
	default:
		gw, err := storage.NewS3Gateway(storage.S3Config{
			Endpoint:      cfg.StorageEndpoint,
			AccessKey:     cfg.StorageAccessKey,
			SecretKey:     cfg.StorageSecretKey,
			UseSSL:        cfg.StorageUseSSL,
			PublicBaseURL: cfg.StoragePublicBaseURL,
		})
		if err != nil {
			utils.Sugar.Fatalf("init object storage: %v", err)
		}
		return gw
	}
}
