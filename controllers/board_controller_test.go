package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/baro-studio/baro-api/models"
)

func createPost(t *testing.T, env *testEnv, body map[string]interface{}) models.Post {
	t.Helper()
	w, resp := env.doJSON(t, http.MethodPost, "/api/board", body, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Post models.Post `json:"post"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotZero(t, data.Post.BoardID)
	return data.Post
}

func TestCreatePostRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.doJSON(t, http.MethodPost, "/api/board", map[string]interface{}{
		"title": "unauthenticated",
	}, false)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, 40101, resp.Code)
}

func TestCreatePostPersistsAttachments(t *testing.T) {
	env := newTestEnv(t)

	desc := env.stageUpload(t, "/api/upload/attachment", "drawing.pdf", "pdf-bytes")
	post := createPost(t, env, map[string]interface{}{
		"title":          "Factory closed on May 1",
		"content":        "<p>Notice body</p>",
		"isNotice":       true,
		"newAttachments": []map[string]interface{}{env.attachmentPayload(desc)},
	})

	require.Len(t, post.Files, 1)
	require.Equal(t, "drawing.pdf", post.Files[0].Filename)
	require.Equal(t, models.FileKindAttachment, post.Files[0].Kind)
	require.True(t, env.objectExists("baro-studio", post.Files[0].StoragePath))

	// Claiming the upload must clear its staging record.
	var staged int64
	require.NoError(t, env.db.Model(&models.StagedUpload{}).Count(&staged).Error)
	require.Zero(t, staged)
}

func TestListPostsNoticesFirst(t *testing.T) {
	env := newTestEnv(t)

	createPost(t, env, map[string]interface{}{"title": "regular announcement"})
	createPost(t, env, map[string]interface{}{"title": "pinned notice", "isNotice": true})

	w, resp := env.doJSON(t, http.MethodGet, "/api/board?page=1&page_size=10", nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Items      []models.Post `json:"items"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.EqualValues(t, 2, data.Pagination.Total)
	require.Len(t, data.Items, 2)
	require.True(t, data.Items[0].IsNotice)
	require.Equal(t, "pinned notice", data.Items[0].Title)
}

func TestGetPostRejectsNonNumericID(t *testing.T) {
	env := newTestEnv(t)

	createPost(t, env, map[string]interface{}{"title": "only post"})

	// A path id must be an integer; expressions never reach the SQL layer,
	// so none of these can act as a boolean oracle over other tables.
	for _, raw := range []string{
		"1%20OR%201=1",
		"(SELECT%20count(*)%20FROM%20managers)=1",
		"abc",
		"1;--",
	} {
		w, resp := env.doJSON(t, http.MethodGet, "/api/board/"+raw, nil, false)
		require.Equal(t, http.StatusNotFound, w.Code, raw)
		require.Equal(t, 40401, resp.Code, raw)
	}
}

func TestUpdateAndDeletePostRejectNonNumericID(t *testing.T) {
	env := newTestEnv(t)

	createPost(t, env, map[string]interface{}{"title": "only post"})

	w, resp := env.doJSON(t, http.MethodPut, "/api/board/1%20OR%201=1", map[string]interface{}{
		"title": "overwritten",
	}, true)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 40403, resp.Code)

	w, resp = env.doJSON(t, http.MethodDelete, "/api/board/1%20OR%201=1", nil, true)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 40404, resp.Code)

	// The real row is untouched.
	var count int64
	require.NoError(t, env.db.Model(&models.Post{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestGetPostNotFound(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.doJSON(t, http.MethodGet, "/api/board/9999", nil, false)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 40401, resp.Code)
}

func TestUpdatePostIgnoresForeignFileIDs(t *testing.T) {
	env := newTestEnv(t)

	descA := env.stageUpload(t, "/api/upload/attachment", "a.txt", "aaa")
	postA := createPost(t, env, map[string]interface{}{
		"title":          "post a",
		"newAttachments": []map[string]interface{}{env.attachmentPayload(descA)},
	})

	descB := env.stageUpload(t, "/api/upload/attachment", "b.txt", "bbb")
	postB := createPost(t, env, map[string]interface{}{
		"title":          "post b",
		"newAttachments": []map[string]interface{}{env.attachmentPayload(descB)},
	})
	require.Len(t, postB.Files, 1)
	foreignID := postB.Files[0].ID

	// Deleting another post's file must be skipped while the rest of the
	// update still applies.
	w, resp := env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/board/%d", postA.BoardID), map[string]interface{}{
		"title":          "post a updated",
		"deletedFileIds": []uint{foreignID},
	}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Post models.Post `json:"post"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Equal(t, "post a updated", data.Post.Title)

	require.EqualValues(t, 1, env.countFiles(t, models.OwnerKindPost, postB.BoardID))
	require.True(t, env.objectExists("baro-studio", postB.Files[0].StoragePath))
	require.EqualValues(t, 1, env.countFiles(t, models.OwnerKindPost, postA.BoardID))
}

func TestUpdatePostRemovesDeletedAttachment(t *testing.T) {
	env := newTestEnv(t)

	desc := env.stageUpload(t, "/api/upload/attachment", "old.txt", "old-bytes")
	post := createPost(t, env, map[string]interface{}{
		"title":          "post with file",
		"newAttachments": []map[string]interface{}{env.attachmentPayload(desc)},
	})
	require.Len(t, post.Files, 1)

	w, resp := env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/board/%d", post.BoardID), map[string]interface{}{
		"title":          "post with file",
		"deletedFileIds": []uint{post.Files[0].ID},
	}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Post models.Post `json:"post"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Empty(t, data.Post.Files)
	require.False(t, env.objectExists("baro-studio", post.Files[0].StoragePath))
	require.EqualValues(t, 0, env.countFiles(t, models.OwnerKindPost, post.BoardID))
}

func TestPostFilesOrderedByUploadTime(t *testing.T) {
	env := newTestEnv(t)

	first := env.stageUpload(t, "/api/upload/attachment", "first.txt", "1")
	second := env.stageUpload(t, "/api/upload/attachment", "second.txt", "2")
	post := createPost(t, env, map[string]interface{}{
		"title": "post with ordered files",
		"newAttachments": []map[string]interface{}{
			env.attachmentPayload(first),
			env.attachmentPayload(second),
		},
	})

	// A later request stamps a later upload time, so this lands last.
	third := env.stageUpload(t, "/api/upload/attachment", "third.txt", "3")
	w, _ := env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/board/%d", post.BoardID), map[string]interface{}{
		"title":          "post with ordered files",
		"newAttachments": []map[string]interface{}{env.attachmentPayload(third)},
	}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp := env.doJSON(t, http.MethodGet, fmt.Sprintf("/api/board/%d", post.BoardID), nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Post models.Post `json:"post"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Len(t, data.Post.Files, 3)
	require.Equal(t, "first.txt", data.Post.Files[0].Filename)
	require.Equal(t, "second.txt", data.Post.Files[1].Filename)
	require.Equal(t, "third.txt", data.Post.Files[2].Filename)
	for i := 1; i < len(data.Post.Files); i++ {
		require.False(t, data.Post.Files[i].UploadedAt.Before(data.Post.Files[i-1].UploadedAt))
	}
}

func TestDeletePostRemovesObjectsAndRows(t *testing.T) {
	env := newTestEnv(t)

	att1 := env.stageUpload(t, "/api/upload/attachment", "one.txt", "one")
	att2 := env.stageUpload(t, "/api/upload/attachment", "two.txt", "two")
	img := env.stageUpload(t, "/api/upload/image", "pic.png", "png-bytes")

	post := createPost(t, env, map[string]interface{}{
		"title":   "post with everything",
		"content": fmt.Sprintf(`<p>hello</p><img src="%s">`, img["url"]),
		"newAttachments": []map[string]interface{}{
			env.attachmentPayload(att1),
			env.attachmentPayload(att2),
		},
	})

	// Two attachments plus the tracked inline image.
	require.EqualValues(t, 3, env.countFiles(t, models.OwnerKindPost, post.BoardID))

	w, _ := env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/board/%d", post.BoardID), nil, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.EqualValues(t, 0, env.countFiles(t, models.OwnerKindPost, post.BoardID))
	require.False(t, env.objectExists("baro-studio", att1["storagePath"].(string)))
	require.False(t, env.objectExists("baro-studio", att2["storagePath"].(string)))
	require.False(t, env.objectExists("post-images", img["storagePath"].(string)))

	w, resp := env.doJSON(t, http.MethodGet, fmt.Sprintf("/api/board/%d", post.BoardID), nil, false)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 40401, resp.Code)
}
