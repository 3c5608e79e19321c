package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/baro-studio/baro-api/models"
)

func createJob(t *testing.T, env *testEnv, body map[string]interface{}) models.Job {
	t.Helper()
	w, resp := env.doJSON(t, http.MethodPost, "/api/recruite", body, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var job models.Job
	require.NoError(t, json.Unmarshal(resp.Data, &job))
	require.NotZero(t, job.ID)
	return job
}

func TestCreateJobStoresPostingFields(t *testing.T) {
	env := newTestEnv(t)

	job := createJob(t, env, map[string]interface{}{
		"title":              "QA Engineer",
		"experience":         "2+ years",
		"location":           "Seoul",
		"employmentType":     "Full-time",
		"isAlwaysRecruiting": false,
		"deadline":           "2025-01-01",
	})

	require.Equal(t, "QA Engineer", job.Title)
	require.Equal(t, "2+ years", job.Experience)
	require.Equal(t, "Seoul", job.Location)
	require.Equal(t, "Full-time", job.EmploymentType)
	require.False(t, job.IsAlwaysRecruiting)
	require.NotNil(t, job.Deadline)
	require.Equal(t, "2025-01-01", job.Deadline.UTC().Format("2006-01-02"))

	w, resp := env.doJSON(t, http.MethodGet, fmt.Sprintf("/api/recruite/%d", job.ID), nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Job models.Job `json:"job"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Equal(t, job.ID, data.Job.ID)
	require.Empty(t, data.Job.Files)
	require.Contains(t, w.Body.String(), `"files":[]`)
}

func TestCreateJobAlwaysRecruitingNullsDeadline(t *testing.T) {
	env := newTestEnv(t)

	// A submitted deadline loses against the always-recruiting flag.
	job := createJob(t, env, map[string]interface{}{
		"title":              "Welder",
		"experience":         "Any",
		"location":           "Busan",
		"employmentType":     "Contract",
		"isAlwaysRecruiting": true,
		"deadline":           "2025-01-01",
	})
	require.True(t, job.IsAlwaysRecruiting)
	require.Nil(t, job.Deadline)

	var saved models.Job
	require.NoError(t, env.db.First(&saved, job.ID).Error)
	require.Nil(t, saved.Deadline)
}

func TestCreateJobRejectsMissingDeadline(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.doJSON(t, http.MethodPost, "/api/recruite", map[string]interface{}{
		"title":              "Machinist",
		"experience":         "5+ years",
		"location":           "Incheon",
		"employmentType":     "Full-time",
		"isAlwaysRecruiting": false,
	}, true)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 40041, resp.Code)
}

func TestCreateJobRejectsUnparseableDeadline(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.doJSON(t, http.MethodPost, "/api/recruite", map[string]interface{}{
		"title":          "Machinist",
		"experience":     "5+ years",
		"location":       "Incheon",
		"employmentType": "Full-time",
		"deadline":       "next spring",
	}, true)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 40041, resp.Code)
}

func TestUpdateJobReplacesAttachments(t *testing.T) {
	env := newTestEnv(t)

	oldDesc := env.stageUpload(t, "/api/upload/attachment?target=job", "old-brief.pdf", "old")
	job := createJob(t, env, map[string]interface{}{
		"title":              "CNC Operator",
		"experience":         "3+ years",
		"location":           "Daegu",
		"employmentType":     "Full-time",
		"isAlwaysRecruiting": true,
		"newAttachments":     []map[string]interface{}{env.attachmentPayload(oldDesc)},
	})
	require.Len(t, job.Files, 1)
	oldFile := job.Files[0]

	newDesc := env.stageUpload(t, "/api/upload/attachment?target=job", "new-brief.pdf", "new")
	w, resp := env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/recruite/%d", job.ID), map[string]interface{}{
		"title":              "CNC Operator",
		"experience":         "3+ years",
		"location":           "Daegu",
		"employmentType":     "Full-time",
		"isAlwaysRecruiting": true,
		"deletedFileIds":     []uint{oldFile.ID},
		"newAttachments":     []map[string]interface{}{env.attachmentPayload(newDesc)},
	}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Job
	require.NoError(t, json.Unmarshal(resp.Data, &updated))
	require.Len(t, updated.Files, 1)
	require.Equal(t, "new-brief.pdf", updated.Files[0].Filename)

	require.False(t, env.objectExists("baro-studio", oldFile.StoragePath))
	require.True(t, env.objectExists("baro-studio", updated.Files[0].StoragePath))
	require.EqualValues(t, 1, env.countFiles(t, models.OwnerKindJob, job.ID))
}

func TestDeleteJobRemovesObjectsAndRows(t *testing.T) {
	env := newTestEnv(t)

	desc := env.stageUpload(t, "/api/upload/attachment?target=job", "brief.pdf", "brief")
	img := env.stageUpload(t, "/api/upload/image?target=job", "line.png", "png")
	job := createJob(t, env, map[string]interface{}{
		"title":              "Painter",
		"experience":         "1+ years",
		"location":           "Ulsan",
		"employmentType":     "Part-time",
		"isAlwaysRecruiting": true,
		"content":            fmt.Sprintf(`<img src="%s">`, img["url"]),
		"newAttachments":     []map[string]interface{}{env.attachmentPayload(desc)},
	})
	require.EqualValues(t, 2, env.countFiles(t, models.OwnerKindJob, job.ID))

	w, _ := env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/recruite/%d", job.ID), nil, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.EqualValues(t, 0, env.countFiles(t, models.OwnerKindJob, job.ID))
	require.False(t, env.objectExists("baro-studio", desc["storagePath"].(string)))
	require.False(t, env.objectExists("post-images", img["storagePath"].(string)))
}

func TestGetJobRejectsNonNumericID(t *testing.T) {
	env := newTestEnv(t)

	createJob(t, env, map[string]interface{}{
		"title": "Only", "experience": "Any", "location": "Seoul",
		"employmentType": "Full-time", "isAlwaysRecruiting": true,
	})

	for _, raw := range []string{"1%20OR%201=1", "(SELECT%20count(*)%20FROM%20managers)=1", "abc"} {
		w, resp := env.doJSON(t, http.MethodGet, "/api/recruite/"+raw, nil, false)
		require.Equal(t, http.StatusNotFound, w.Code, raw)
		require.Equal(t, 40405, resp.Code, raw)
	}

	w, resp := env.doJSON(t, http.MethodPut, "/api/recruite/1%20OR%201=1", map[string]interface{}{
		"title": "X", "experience": "Any", "location": "Seoul",
		"employmentType": "Full-time", "isAlwaysRecruiting": true,
	}, true)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 40406, resp.Code)

	w, resp = env.doJSON(t, http.MethodDelete, "/api/recruite/abc", nil, true)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 40407, resp.Code)
}

func TestListJobsNewestFirst(t *testing.T) {
	env := newTestEnv(t)

	first := createJob(t, env, map[string]interface{}{
		"title": "First", "experience": "Any", "location": "Seoul",
		"employmentType": "Full-time", "isAlwaysRecruiting": true,
	})
	second := createJob(t, env, map[string]interface{}{
		"title": "Second", "experience": "Any", "location": "Seoul",
		"employmentType": "Full-time", "isAlwaysRecruiting": true,
	})

	w, resp := env.doJSON(t, http.MethodGet, "/api/recruite", nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Items []models.Job `json:"items"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Len(t, data.Items, 2)
	ids := []uint{data.Items[0].ID, data.Items[1].ID}
	require.Contains(t, ids, first.ID)
	require.Contains(t, ids, second.ID)
}
