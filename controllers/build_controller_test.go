package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"modsquad-api/controllers"
	"modsquad-api/models"
	"modsquad-api/services"
	"modsquad-api/storage"
	"modsquad-api/testutil"
)

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, bytes.Repeat([]byte{0}, 64)...)

type testServer struct {
	router *gin.Engine
	repo   *testutil.BuildRepo
	store  *storage.DiskStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewDiskStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	repo := testutil.NewBuildRepo()
	svc := services.NewBuildService(repo, store, zap.NewNop(), 5, 10<<20)
	bc := controllers.NewBuildController(svc)

	// Test stand-in for the JWT middleware: the caller identity comes from
	// a header.
	fakeAuth := func(c *gin.Context) {
		if user := c.GetHeader("X-Test-User"); user != "" {
			c.Set("user_id", user)
		}
		c.Next()
	}

	router := gin.New()
	builds := router.Group("/api/builds")
	builds.GET("/public", bc.GetPublicBuilds)
	builds.Use(fakeAuth)
	{
		builds.GET("", bc.GetBuilds)
		builds.POST("", bc.CreateBuild)
		builds.GET("/:id", bc.GetBuild)
		builds.PUT("/:id", bc.UpdateBuild)
		builds.DELETE("/:id", bc.DeleteBuild)
		builds.DELETE("/:id/images/:imageId", bc.DeleteImage)
	}

	return &testServer{router: router, repo: repo, store: store}
}

func multipartBody(t *testing.T, fields map[string]string, imageCount int) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	for i := 0; i < imageCount; i++ {
		part, err := w.CreateFormFile("images", fmt.Sprintf("photo%d.png", i))
		require.NoError(t, err)
		_, err = part.Write(pngBytes)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func (ts *testServer) do(t *testing.T, method, path, user string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) createBuild(t *testing.T, user string, fields map[string]string, imageCount int) models.Build {
	t.Helper()
	body, contentType := multipartBody(t, fields, imageCount)
	rec := ts.do(t, http.MethodPost, "/api/builds", user, body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var build models.Build
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &build))
	return build
}

func (ts *testServer) blobExists(ref string) bool {
	rel := strings.TrimPrefix(ref, "/uploads/")
	_, err := os.Stat(filepath.Join(ts.store.Dir(), filepath.FromSlash(rel)))
	return err == nil
}

var civicForm = map[string]string{
	"title":       "Turbo Civic",
	"description": "Track day project",
	"carMake":     "Honda",
	"carModel":    "Civic",
	"carYear":     "1999",
}

func TestCreateBuildEndpoint(t *testing.T) {
	ts := newTestServer(t)

	build := ts.createBuild(t, "user-1", civicForm, 2)

	assert.Equal(t, "Turbo Civic", build.Title)
	assert.Equal(t, "Honda", build.CarMake)
	assert.Equal(t, "Civic", build.CarModel)
	assert.Equal(t, 1999, build.CarYear)
	require.Len(t, build.Images, 2)
	for _, image := range build.Images {
		assert.True(t, ts.blobExists(image.URL), "image URL must resolve to a stored blob")
	}
}

func TestCreateBuildWithoutImages(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartBody(t, civicForm, 0)
	rec := ts.do(t, http.MethodPost, "/api/builds", "user-1", body, contentType)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	list := ts.do(t, http.MethodGet, "/api/builds", "user-1", nil, "")
	require.Equal(t, http.StatusOK, list.Code)
	assert.Equal(t, "null", strings.TrimSpace(list.Body.String()))
}

func TestCreateBuildMalformedYear(t *testing.T) {
	ts := newTestServer(t)

	form := map[string]string{"title": "Bad year", "carYear": "nineteen99"}
	body, contentType := multipartBody(t, form, 1)
	rec := ts.do(t, http.MethodPost, "/api/builds", "user-1", body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBuildTooManyImages(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartBody(t, civicForm, 6)
	rec := ts.do(t, http.MethodPost, "/api/builds", "user-1", body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteImageEndpoint(t *testing.T) {
	ts := newTestServer(t)
	build := ts.createBuild(t, "user-1", civicForm, 2)
	victim := build.Images[0]

	rec := ts.do(t, http.MethodDelete, "/api/builds/"+build.ID+"/images/"+victim.ID, "user-1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Build
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Len(t, updated.Images, 1)
	assert.False(t, ts.blobExists(victim.URL), "deleted image's blob must be gone")

	// The remaining image cannot be deleted.
	last := updated.Images[0]
	rec = ts.do(t, http.MethodDelete, "/api/builds/"+build.ID+"/images/"+last.ID, "user-1", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	get := ts.do(t, http.MethodGet, "/api/builds/"+build.ID, "user-1", nil, "")
	require.Equal(t, http.StatusOK, get.Code)
	var after models.Build
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &after))
	assert.Len(t, after.Images, 1)
}

func TestUpdateBuildPartialMerge(t *testing.T) {
	ts := newTestServer(t)
	build := ts.createBuild(t, "user-1", civicForm, 2)

	body, contentType := multipartBody(t, map[string]string{"description": "New turbo kit installed"}, 0)
	rec := ts.do(t, http.MethodPut, "/api/builds/"+build.ID, "user-1", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Build
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Turbo Civic", updated.Title)
	assert.Equal(t, "New turbo kit installed", updated.Description)
	assert.Equal(t, "Honda", updated.CarMake)
	assert.Equal(t, "Civic", updated.CarModel)
	assert.Equal(t, 1999, updated.CarYear)
	assert.Len(t, updated.Images, 2)
}

func TestUpdateBuildAddsImages(t *testing.T) {
	ts := newTestServer(t)
	build := ts.createBuild(t, "user-1", civicForm, 2)

	body, contentType := multipartBody(t, nil, 2)
	rec := ts.do(t, http.MethodPut, "/api/builds/"+build.ID, "user-1", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Build
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Len(t, updated.Images, 4)
}

func TestDeleteBuildEndpoint(t *testing.T) {
	ts := newTestServer(t)
	build := ts.createBuild(t, "user-1", civicForm, 2)

	rec := ts.do(t, http.MethodDelete, "/api/builds/"+build.ID, "user-1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	get := ts.do(t, http.MethodGet, "/api/builds/"+build.ID, "user-1", nil, "")
	assert.Equal(t, http.StatusNotFound, get.Code)

	for _, image := range build.Images {
		assert.False(t, ts.blobExists(image.URL), "build deletion must remove its blobs")
	}
}

func TestBuildHiddenFromOtherUsers(t *testing.T) {
	ts := newTestServer(t)
	build := ts.createBuild(t, "user-1", civicForm, 1)

	get := ts.do(t, http.MethodGet, "/api/builds/"+build.ID, "user-2", nil, "")
	assert.Equal(t, http.StatusNotFound, get.Code, "other users' builds read as missing, not forbidden")

	del := ts.do(t, http.MethodDelete, "/api/builds/"+build.ID, "user-2", nil, "")
	assert.Equal(t, http.StatusNotFound, del.Code)
}

func TestPublicFeed(t *testing.T) {
	ts := newTestServer(t)
	ts.repo.SetOwner("user-1", models.BuildOwner{Username: "speedy", AvatarURL: "/uploads/avatars/a.png"})
	ts.createBuild(t, "user-1", civicForm, 1)
	ts.createBuild(t, "user-2", map[string]string{"title": "Bagged Miata"}, 1)

	rec := ts.do(t, http.MethodGet, "/api/builds/public", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var feed []models.PublicBuild
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed, 2)
	assert.Equal(t, "Bagged Miata", feed[0].Title)
	assert.Equal(t, "speedy", feed[1].Owner.Username)
}
