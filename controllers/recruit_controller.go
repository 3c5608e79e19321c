package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/baro-studio/baro-api/config"
	"github.com/baro-studio/baro-api/models"
	"github.com/baro-studio/baro-api/storage"
	"github.com/baro-studio/baro-api/utils"
)

// RecruitController manages CRUD operations for job postings and their
// attachments. Structurally the same transaction script as the board; only
// the validation policy and fields differ.
type RecruitController struct {
	db    *gorm.DB
	store storage.Gateway
}

// NewRecruitController creates a new RecruitController instance.
func NewRecruitController(db *gorm.DB, store storage.Gateway) *RecruitController {
	return &RecruitController{db: db, store: store}
}

type recruitRequest struct {
	Title              string          `json:"title" binding:"required,min=1"`
	Experience         string          `json:"experience" binding:"required,min=1"`
	Location           string          `json:"location" binding:"required,min=1"`
	EmploymentType     string          `json:"employmentType" binding:"required,min=1"`
	Deadline           string          `json:"deadline"`
	IsAlwaysRecruiting bool            `json:"isAlwaysRecruiting"`
	Content            *string         `json:"content"`
	NewAttachments     []NewAttachment `json:"newAttachments"`
	DeletedFileIDs     []uint          `json:"deletedFileIds"`
}

// validate trims required fields and resolves the deadline/always-recruiting
// exclusivity: always-recruiting stores NULL no matter what deadline was
// submitted, otherwise a parseable deadline is required.
func (r *recruitRequest) validate() (models.Job, error) {
	job := models.Job{
		Title:              strings.TrimSpace(r.Title),
		Experience:         strings.TrimSpace(r.Experience),
		Location:           strings.TrimSpace(r.Location),
		EmploymentType:     strings.TrimSpace(r.EmploymentType),
		IsAlwaysRecruiting: r.IsAlwaysRecruiting,
	}
	if job.Title == "" || job.Experience == "" || job.Location == "" || job.EmploymentType == "" {
		return job, fmt.Errorf("title, experience, location and employmentType are required")
	}
	if !r.IsAlwaysRecruiting {
		if strings.TrimSpace(r.Deadline) == "" {
			return job, fmt.Errorf("deadline is required unless the posting is always recruiting")
		}
		dl, err := parseDeadline(r.Deadline)
		if err != nil {
			return job, fmt.Errorf("invalid deadline: %v", err)
		}
		job.Deadline = &dl
	}
	if r.Content != nil {
		clean := utils.Sanitize(*r.Content)
		job.Content = &clean
	}
	return job, nil
}

// ListJobs returns paginated job postings, newest first.
func (rc *RecruitController) ListJobs(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	cacheKey := fmt.Sprintf("cache:recruit:list:page=%d:size=%d", page, pageSize)
	if bts, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", bts)
		return
	}

	var jobs []models.Job
	var total int64

	query := rc.db.Model(&models.Job{}).Order("created_at DESC")
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to count job postings")
		return
	}
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&jobs).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to list job postings")
		return
	}
	for i := range jobs {
		files, err := loadOwnedFiles(rc.db, models.OwnerKindJob, jobs[i].ID)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load job files")
			return
		}
		jobs[i].Files = files
	}

	payload := gin.H{
		"items": jobs,
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

// GetJob returns a single job posting with its files ordered by upload time.
func (rc *RecruitController) GetJob(ctx *gin.Context) {
	jobID := ctx.Param("id")
	id, ok := parseID(jobID)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40405, "job posting not found")
		return
	}

	if bts, ok := utils.CacheGetBytes("cache:recruit:detail:" + jobID); ok {
		ctx.Data(200, "application/json", bts)
		return
	}

	var job models.Job
	if err := rc.db.First(&job, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40405, "job posting not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to load job posting")
		return
	}
	files, err := loadOwnedFiles(rc.db, models.OwnerKindJob, job.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to load job files")
		return
	}
	job.Files = files

	payload := gin.H{"job": job}
	utils.CacheSetJSON("cache:recruit:detail:"+jobID, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// CreateJob writes a new job posting and its staged attachments in one transaction.
func (rc *RecruitController) CreateJob(ctx *gin.Context) {
	var req recruitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}
	job, err := req.validate()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, err.Error())
		return
	}

	cfg := config.Get()
	err = rc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&job).Error; err != nil {
			return err
		}
		if err := attachFiles(tx, models.OwnerKindJob, job.ID, req.NewAttachments); err != nil {
			return err
		}
		if job.Content != nil {
			return reconcileInlineImages(ctx.Request.Context(), tx, rc.store, cfg.ImageBucket, models.OwnerKindJob, job.ID, *job.Content)
		}
		return nil
	})
	if err != nil {
		utils.Sugar.Errorf("create job posting failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to create job posting")
		return
	}

	files, _ := loadOwnedFiles(rc.db, models.OwnerKindJob, job.ID)
	job.Files = files

	utils.InvalidateByPrefix("cache:recruit:")
	utils.Success(ctx, job)
}

// UpdateJob mutates a job posting inside one transaction, same ordering as
// the board update: storage removals first, abort everything on failure.
func (rc *RecruitController) UpdateJob(ctx *gin.Context) {
	var req recruitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40042, "invalid request payload")
		return
	}
	fields, err := req.validate()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40043, err.Error())
		return
	}

	jobID := ctx.Param("id")
	id, ok := parseID(jobID)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40406, "job posting not found")
		return
	}
	var job models.Job
	if err := rc.db.First(&job, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40406, "job posting not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to load job posting")
		return
	}

	cfg := config.Get()
	err = rc.db.Transaction(func(tx *gorm.DB) error {
		if err := removeOwnedFiles(ctx.Request.Context(), tx, rc.store, cfg.AttachmentBucket,
			models.OwnerKindJob, job.ID, req.DeletedFileIDs); err != nil {
			return err
		}
		job.Title = fields.Title
		job.Experience = fields.Experience
		job.Location = fields.Location
		job.EmploymentType = fields.EmploymentType
		job.Deadline = fields.Deadline
		job.IsAlwaysRecruiting = fields.IsAlwaysRecruiting
		job.Content = fields.Content
		if err := tx.Save(&job).Error; err != nil {
			return err
		}
		if err := attachFiles(tx, models.OwnerKindJob, job.ID, req.NewAttachments); err != nil {
			return err
		}
		body := ""
		if job.Content != nil {
			body = *job.Content
		}
		return reconcileInlineImages(ctx.Request.Context(), tx, rc.store, cfg.ImageBucket, models.OwnerKindJob, job.ID, body)
	})
	if err != nil {
		utils.Sugar.Errorf("update job posting %s failed: %v", jobID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50047, "failed to update job posting")
		return
	}

	files, _ := loadOwnedFiles(rc.db, models.OwnerKindJob, job.ID)
	job.Files = files

	utils.InvalidateByPrefix("cache:recruit:")
	utils.Success(ctx, job)
}

// DeleteJob removes a job posting together with its attachment objects and
// inline images, all inside one transaction.
func (rc *RecruitController) DeleteJob(ctx *gin.Context) {
	jobID := ctx.Param("id")
	id, ok := parseID(jobID)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40407, "job posting not found")
		return
	}
	var job models.Job
	if err := rc.db.First(&job, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40407, "job posting not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50048, "failed to load job posting")
		return
	}

	cfg := config.Get()
	err := rc.db.Transaction(func(tx *gorm.DB) error {
		if err := destroyContentFiles(ctx.Request.Context(), tx, rc.store, cfg.AttachmentBucket, cfg.ImageBucket,
			models.OwnerKindJob, job.ID, job.Content); err != nil {
			return err
		}
		return tx.Delete(&job).Error
	})
	if err != nil {
		utils.Sugar.Errorf("delete job posting %s failed: %v", jobID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50049, "failed to delete job posting")
		return
	}

	utils.InvalidateByPrefix("cache:recruit:")
	utils.Success(ctx, gin.H{"message": "job posting deleted"})
}

// parseDeadline accepts a bare date or a full RFC3339 timestamp, normalized to UTC.
func parseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
