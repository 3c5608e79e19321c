package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/baro-studio/baro-api/config"
	"github.com/baro-studio/baro-api/middleware"
	"github.com/baro-studio/baro-api/models"
	"github.com/baro-studio/baro-api/storage"
	"github.com/baro-studio/baro-api/utils"
)

// BoardController manages CRUD operations for notice-board posts and their
// attachments.
type BoardController struct {
	db    *gorm.DB
	store storage.Gateway
}

// NewBoardController creates a new BoardController instance.
func NewBoardController(db *gorm.DB, store storage.Gateway) *BoardController {
	return &BoardController{db: db, store: store}
}

type boardRequest struct {
	Title          string          `json:"title" binding:"required,min=1"`
	Content        *string         `json:"content"`
	IsNotice       bool            `json:"isNotice"`
	NewAttachments []NewAttachment `json:"newAttachments"`
	DeletedFileIDs []uint          `json:"deletedFileIds"`
}

// ListPosts returns paginated posts, notices first, newest first.
func (b *BoardController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	cacheKey := fmt.Sprintf("cache:board:list:page=%d:size=%d", page, pageSize)
	if bts, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", bts)
		return
	}

	var posts []models.Post
	var total int64

	query := b.db.Model(&models.Post{}).Order("is_notice DESC, created_at DESC")
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count posts")
		return
	}
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}
	for i := range posts {
		files, err := loadOwnedFiles(b.db, models.OwnerKindPost, posts[i].BoardID)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post files")
			return
		}
		posts[i].Files = files
	}

	payload := gin.H{
		"items": posts,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// GetPost returns a single post with its files ordered by upload time.
func (b *BoardController) GetPost(ctx *gin.Context) {
	postID := ctx.Param("id")
	id, ok := parseID(postID)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}

	if bts, ok := utils.CacheGetBytes("cache:board:detail:" + postID); ok {
		ctx.Data(200, "application/json", bts)
		return
	}

	var post models.Post
	if err := b.db.First(&post, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}
	files, err := loadOwnedFiles(b.db, models.OwnerKindPost, post.BoardID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load post files")
		return
	}
	post.Files = files

	payload := gin.H{"post": post}
	utils.CacheSetJSON("cache:board:detail:"+postID, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// CreatePost writes a new post and its staged attachments in one transaction.
func (b *BoardController) CreatePost(ctx *gin.Context) {
	var req boardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	content := sanitizeContent(req.Content)

	managerID, ok := getManagerID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	cfg := config.Get()
	post := models.Post{
		Title:     title,
		Content:   content,
		IsNotice:  req.IsNotice,
		ManagerID: managerID,
	}
	err := b.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		if err := attachFiles(tx, models.OwnerKindPost, post.BoardID, req.NewAttachments); err != nil {
			return err
		}
		if content != nil {
			return reconcileInlineImages(ctx.Request.Context(), tx, b.store, cfg.ImageBucket, models.OwnerKindPost, post.BoardID, *content)
		}
		return nil
	})
	if err != nil {
		utils.Sugar.Errorf("create post failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	files, _ := loadOwnedFiles(b.db, models.OwnerKindPost, post.BoardID)
	post.Files = files

	utils.InvalidateByPrefix("cache:board:")
	utils.Success(ctx, gin.H{"post": post})
}

// UpdatePost mutates a post inside one transaction: deleted files' storage
// objects are removed first, then rows, then the post fields, then new file
// rows. Any storage failure aborts the transaction with nothing committed.
func (b *BoardController) UpdatePost(ctx *gin.Context) {
	var req boardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40025, "title cannot be empty")
		return
	}
	content := sanitizeContent(req.Content)

	postID := ctx.Param("id")
	id, ok := parseID(postID)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
		return
	}
	var post models.Post
	if err := b.db.First(&post, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load post")
		return
	}

	cfg := config.Get()
	err := b.db.Transaction(func(tx *gorm.DB) error {
		if err := removeOwnedFiles(ctx.Request.Context(), tx, b.store, cfg.AttachmentBucket,
			models.OwnerKindPost, post.BoardID, req.DeletedFileIDs); err != nil {
			return err
		}
		post.Title = title
		post.Content = content
		post.IsNotice = req.IsNotice
		if err := tx.Save(&post).Error; err != nil {
			return err
		}
		if err := attachFiles(tx, models.OwnerKindPost, post.BoardID, req.NewAttachments); err != nil {
			return err
		}
		body := ""
		if content != nil {
			body = *content
		}
		return reconcileInlineImages(ctx.Request.Context(), tx, b.store, cfg.ImageBucket, models.OwnerKindPost, post.BoardID, body)
	})
	if err != nil {
		utils.Sugar.Errorf("update post %s failed: %v", postID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to update post")
		return
	}

	files, _ := loadOwnedFiles(b.db, models.OwnerKindPost, post.BoardID)
	post.Files = files

	utils.InvalidateByPrefix("cache:board:")
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes a post, its attachment objects and its inline images.
// Storage deletions run inside the transaction callback, so a failed batch
// aborts before the row is touched and nothing is half-deleted.
func (b *BoardController) DeletePost(ctx *gin.Context) {
	postID := ctx.Param("id")
	id, ok := parseID(postID)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40404, "post not found")
		return
	}
	var post models.Post
	if err := b.db.First(&post, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40404, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to load post")
		return
	}

	cfg := config.Get()
	err := b.db.Transaction(func(tx *gorm.DB) error {
		if err := destroyContentFiles(ctx.Request.Context(), tx, b.store, cfg.AttachmentBucket, cfg.ImageBucket,
			models.OwnerKindPost, post.BoardID, post.Content); err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		utils.Sugar.Errorf("delete post %s failed: %v", postID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix("cache:board:")
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

func sanitizeContent(content *string) *string {
	if content == nil {
		return nil
	}
	clean := utils.Sanitize(*content)
	return &clean
}

// parseID parses a numeric path id. Anything non-numeric is treated as a
// missing record so the raw string never reaches the SQL layer, where gorm
// would interpret it as an expression.
func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func getManagerID(ctx *gin.Context) (string, bool) {
	value, exists := ctx.Get(middleware.ContextManagerIDKey)
	if !exists {
		return "", false
	}
	id, ok := value.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
