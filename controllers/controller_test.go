package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/baro-studio/baro-api/config"
	"github.com/baro-studio/baro-api/models"
	"github.com/baro-studio/baro-api/routes"
	"github.com/baro-studio/baro-api/storage"
	"github.com/baro-studio/baro-api/utils"
)

const (
	testManagerID       = "admin"
	testManagerPassword = "baro-secret"
)

var (
	loggerOnce sync.Once
	dbSeq      atomic.Int64
)

// envelope mirrors the uniform response body.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	store  *storage.DiskGateway
	root   string
	token  string
}

// newTestEnv builds a full router against an in-memory database and a disk
// storage gateway rooted in a temp directory. Redis points at a closed port so
// caching and the token blacklist degrade to their fallbacks.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := filepath.Join(t.TempDir(), "objects")
	config.SetForTesting(config.AppConfig{
		AppPort:               "0",
		JWTSecret:             "test-secret",
		SessionHours:          1,
		RateLimitPerMinute:    600,
		AllowedOrigins:        []string{"*"},
		GinMode:               "test",
		GinPath:               filepath.Join(t.TempDir(), "gin.log"),
		StorageBackend:        "disk",
		StorageDiskRoot:       root,
		StoragePublicBaseURL:  "/static",
		AttachmentBucket:      "baro-studio",
		ImageBucket:           "post-images",
		UploadClaimTTLMinutes: 60,
		QuoteRecipient:        "sales@example.com",
		RedisHost:             "127.0.0.1",
		RedisPort:             16379,
		LogLevel:              "error",
	})
	loggerOnce.Do(func() {
		_ = utils.InitLogger(config.Get())
	})

	dsn := fmt.Sprintf("file:controllers_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Manager{}, &models.Post{}, &models.Job{}, &models.File{}, &models.StagedUpload{},
	))

	hash, err := utils.HashPassword(testManagerPassword)
	require.NoError(t, err)
	require.NoError(t, models.EnsureManager(db, testManagerID, hash))

	store, err := storage.NewDiskGateway(root, "/static")
	require.NoError(t, err)

	// 90 minutes instead of SessionHours so this token never collides with
	// tokens issued through the login route within the same second.
	token, err := utils.GenerateToken(testManagerID, 90*time.Minute)
	require.NoError(t, err)

	return &testEnv{
		router: routes.SetupRouter(db, store),
		db:     db,
		store:  store,
		root:   root,
		token:  token,
	}
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body interface{}, authed bool) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (e *testEnv) doRaw(t *testing.T, req *http.Request, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// stageUpload posts one file through a staging endpoint and returns the
// descriptor the content routes expect in newAttachments.
func (e *testEnv) stageUpload(t *testing.T, path, filename, content string) map[string]interface{} {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := e.doRaw(t, req, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var desc map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &desc))
	return desc
}

func (e *testEnv) attachmentPayload(desc map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"filename":    desc["filename"],
		"storagePath": desc["storagePath"],
		"url":         desc["url"],
		"mimeType":    desc["mimeType"],
		"sizeBytes":   desc["sizeBytes"],
	}
}

func (e *testEnv) objectExists(bucket, key string) bool {
	_, err := os.Stat(filepath.Join(e.root, bucket, filepath.FromSlash(key)))
	return err == nil
}

func (e *testEnv) countFiles(t *testing.T, ownerKind string, ownerID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.File{}).
		Where("owner_kind = ? AND owner_id = ?", ownerKind, ownerID).Count(&n).Error)
	return n
}
