package server

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"faceblog/internal/models"
	"faceblog/internal/service"
	"faceblog/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPost(t *testing.T, ts *testServer, token, title string) uint {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/post/new", token, map[string]string{
		"title": title, "content": "body of " + title,
	})
	require.Equal(t, http.StatusCreated, status)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	return uint(data["id"].(float64))
}

func TestPostOwnership(t *testing.T) {
	ts := newTestServer(t)
	_, ownerToken := ts.login(t, "olga")
	_, otherToken := ts.login(t, "pete")

	postID := createPost(t, ts, ownerToken, "Mine")
	path := fmt.Sprintf("/post/%d", postID)

	status, body := ts.do(t, http.MethodPost, path+"/edit", otherToken, map[string]string{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, service.WarnEditPost, body["warning"])
	assert.Equal(t, path, body["redirect"])

	status, body = ts.do(t, http.MethodPost, path+"/delete", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, service.WarnDeletePost, body["warning"])

	status, _ = ts.do(t, http.MethodGet, path+"/edit", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = ts.do(t, http.MethodPost, path+"/edit", ownerToken, map[string]string{"title": "Renamed", "content": "y"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Your post has been updated!", body["message"])

	status, body = ts.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, status)
	post, ok := body["post"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Renamed", post["title"])
}

func TestDeletePostRemovesComments(t *testing.T) {
	ts := newTestServer(t)
	_, ownerToken := ts.login(t, "olga")
	_, otherToken := ts.login(t, "pete")

	postID := createPost(t, ts, ownerToken, "Doomed")
	path := fmt.Sprintf("/post/%d", postID)

	status, body := ts.do(t, http.MethodPost, path, otherToken, map[string]string{"content": "nice"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Your comment has been posted!", body["message"])

	status, _ = ts.do(t, http.MethodPost, path+"/delete", ownerToken, nil)
	require.Equal(t, http.StatusOK, status)

	var remaining int64
	require.NoError(t, ts.db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	status, _ = ts.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCommentHandlers(t *testing.T) {
	ts := newTestServer(t)
	_, ownerToken := ts.login(t, "olga")
	_, otherToken := ts.login(t, "pete")

	postID := createPost(t, ts, ownerToken, "Talk")
	status, body := ts.do(t, http.MethodPost, fmt.Sprintf("/post/%d", postID), ownerToken, map[string]string{"content": "first"})
	require.Equal(t, http.StatusCreated, status)
	commentID := uint(body["data"].(map[string]any)["id"].(float64))
	path := fmt.Sprintf("/comment/%d", commentID)

	status, body = ts.do(t, http.MethodPost, path+"/edit", otherToken, map[string]string{"content": "hijack"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, service.WarnEditComment, body["warning"])

	status, body = ts.do(t, http.MethodPost, path+"/delete", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, service.WarnDeleteComment, body["warning"])

	status, body = ts.do(t, http.MethodPost, path+"/dislike", otherToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(-1), body["likes"])

	status, body = ts.do(t, http.MethodPost, path+"/like", otherToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["likes"])

	status, body = ts.do(t, http.MethodPost, path+"/edit", ownerToken, map[string]string{"content": "second"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Your comment has been updated!", body["message"])

	status, body = ts.do(t, http.MethodPost, path+"/delete", ownerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, fmt.Sprintf("/post/%d", postID), body["redirect"])
}

func TestCreatePostValidation(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.login(t, "olga")

	status, body := ts.do(t, http.MethodPost, "/post/new", token, map[string]string{"title": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "content")

	status, _ = ts.do(t, http.MethodPost, "/post/new", token, map[string]any{"title": "t", "content": "c", "category_id": 77})
	assert.Equal(t, http.StatusBadRequest, status)
}

// postWithImage submits a multipart post form carrying a small PNG.
func postWithImage(t *testing.T, ts *testServer, token, path, title string) int {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	require.NoError(t, w.WriteField("title", title))
	require.NoError(t, w.WriteField("content", "look"))
	part, err := w.CreateFormFile("image", "tiny.png")
	require.NoError(t, err)
	_, err = part.Write(testutil.TinyPNG(t, 40, 20))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode
}

func TestCreatePostWithImage(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.login(t, "olga")

	require.Equal(t, http.StatusCreated, postWithImage(t, ts, token, "/post/new", "Pictures"))

	var post models.Post
	require.NoError(t, ts.db.Where("title = ?", "Pictures").First(&post).Error)
	require.NotEmpty(t, post.ImageFile)
	_, err := os.Stat(filepath.Join(ts.images.UploadDir(), post.ImageFile))
	assert.NoError(t, err)
}

func TestPostImagesAreReleased(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.login(t, "olga")
	imagePath := func(name string) string { return filepath.Join(ts.images.UploadDir(), name) }

	require.Equal(t, http.StatusCreated, postWithImage(t, ts, token, "/post/new", "Pictures"))
	var post models.Post
	require.NoError(t, ts.db.Where("title = ?", "Pictures").First(&post).Error)
	first := post.ImageFile
	require.FileExists(t, imagePath(first))

	require.Equal(t, http.StatusOK, postWithImage(t, ts, token, postPath(post.ID)+"/edit", "Pictures v2"))
	require.NoError(t, ts.db.First(&post, post.ID).Error)
	second := post.ImageFile
	require.NotEqual(t, first, second)
	assert.NoFileExists(t, imagePath(first))
	assert.FileExists(t, imagePath(second))

	status, _ := ts.do(t, http.MethodPost, postPath(post.ID)+"/delete", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NoFileExists(t, imagePath(second))
}

func TestRejectedImageEditKeepsFiles(t *testing.T) {
	ts := newTestServer(t)
	_, ownerToken := ts.login(t, "olga")
	_, otherToken := ts.login(t, "pete")

	require.Equal(t, http.StatusCreated, postWithImage(t, ts, ownerToken, "/post/new", "Pictures"))
	var post models.Post
	require.NoError(t, ts.db.Where("title = ?", "Pictures").First(&post).Error)

	require.Equal(t, http.StatusForbidden, postWithImage(t, ts, otherToken, postPath(post.ID)+"/edit", "Hijack"))
	assert.FileExists(t, filepath.Join(ts.images.UploadDir(), post.ImageFile))

	entries, err := os.ReadDir(ts.images.UploadDir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHomeAndCategories(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.login(t, "olga")

	category := models.Category{Name: "cooking"}
	require.NoError(t, ts.db.Create(&category).Error)

	status, _ := ts.do(t, http.MethodPost, "/post/new", token, map[string]any{
		"title": "Soup", "content": "hot", "category_id": category.ID,
	})
	require.Equal(t, http.StatusCreated, status)
	createPost(t, ts, token, "Later")

	status, posts := ts.doList(t, "/home", "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, posts, 2)
	assert.Equal(t, "Later", posts[0]["title"])

	status, categories := ts.doList(t, "/categories", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, categories, 1)

	status, body := ts.do(t, http.MethodGet, fmt.Sprintf("/category/%d", category.ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["posts"], 1)
}
