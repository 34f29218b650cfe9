package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalbistaa/cleancook/internal/db"
	"github.com/sujalbistaa/cleancook/internal/models"
	"github.com/sujalbistaa/cleancook/internal/ratelimit"
	"github.com/sujalbistaa/cleancook/internal/service"
	"github.com/sujalbistaa/cleancook/internal/upload"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newTestRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, _ := test.NewNullLogger()
	dir := t.TempDir()
	gdb, err := db.Open("sqlite://"+filepath.Join(dir, "test.db"), log)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	uploads, err := upload.NewStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	router := gin.New()
	SetupRoutes(router, &Env{Svc: service.New(gdb, log), Uploads: uploads, Log: log}, opts)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type imagePart struct {
	filename    string
	contentType string
	data        []byte
}

func multipartStory(t *testing.T, fields map[string]string, img *imagePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if img != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+img.filename+`"`)
		h.Set("Content-Type", img.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(img.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/stories", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, Options{})
	w := do(t, router, http.MethodGet, "/api/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "OK", body["status"])
	_, err := time.Parse(time.RFC3339, body["timestamp"])
	assert.NoError(t, err)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	router := newTestRouter(t, Options{})
	w := do(t, router, http.MethodGet, "/api/nope", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Route not found"}`, w.Body.String())
}

func TestThreadCommentScenario(t *testing.T) {
	router := newTestRouter(t, Options{})

	w := do(t, router, http.MethodPost, "/api/threads", map[string]string{
		"title": "Fuel costs", "content": "What do you all pay for charcoal?", "author_name": "Amina",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	thread := decode[models.Thread](t, w)
	assert.NotZero(t, thread.ID)
	assert.Equal(t, "Amina", thread.AuthorName)

	w = do(t, router, http.MethodGet, "/api/threads", nil)
	require.Equal(t, http.StatusOK, w.Code)
	threads := decode[[]models.Thread](t, w)
	require.NotEmpty(t, threads)
	assert.Equal(t, thread.ID, threads[0].ID)

	path := "/api/threads/" + itoa(thread.ID) + "/comments"
	w = do(t, router, http.MethodPost, path, map[string]string{"content": "Around 150 KES a day", "author_name": "Juma"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decode[models.Comment](t, w)
	assert.Equal(t, thread.ID, comment.ThreadID)

	w = do(t, router, http.MethodGet, "/api/threads", nil)
	threads = decode[[]models.Thread](t, w)
	assert.Equal(t, 1, threads[0].RepliesCount)

	w = do(t, router, http.MethodGet, path, nil)
	comments := decode[[]models.Comment](t, w)
	require.Len(t, comments, 1)
	assert.Equal(t, comment.ID, comments[0].ID)
}

func TestForumValidationAndLookups(t *testing.T) {
	router := newTestRouter(t, Options{})

	w := do(t, router, http.MethodPost, "/api/threads", map[string]string{"title": "only a title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Title, content, and author name are required"}`, w.Body.String())

	w = do(t, router, http.MethodPost, "/api/threads/1/comments", map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Content and author name are required"}`, w.Body.String())

	w = do(t, router, http.MethodPost, "/api/threads/77/comments", map[string]string{"content": "hi", "author_name": "a"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Thread not found"}`, w.Body.String())

	w = do(t, router, http.MethodPost, "/api/threads/abc/comments", map[string]string{"content": "hi", "author_name": "a"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, p := range []string{"/api/threads/77/comments", "/api/threads/abc/comments"} {
		w = do(t, router, http.MethodGet, p, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	}
}

func TestCreateStoryWithImage(t *testing.T) {
	router := newTestRouter(t, Options{})

	req := multipartStory(t, map[string]string{
		"title": "New jiko", "content": "Uses half the charcoal", "author_name": "Njeri",
		"fuel_type": models.FuelImprovedBiomass, "location": "Nakuru",
	}, &imagePart{filename: "stove.png", contentType: "image/png", data: pngHeader})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	story := decode[models.Story](t, w)
	assert.Equal(t, "New jiko", story.Title)
	assert.Equal(t, "Njeri", story.AuthorName)
	assert.Equal(t, models.FuelImprovedBiomass, *story.FuelType)
	assert.Equal(t, "Nakuru", *story.Location)
	assert.Equal(t, 0, story.LikesCount)
	require.NotNil(t, story.ImageURL)
	assert.True(t, strings.HasPrefix(*story.ImageURL, "/uploads/image-"))
	assert.True(t, strings.HasSuffix(*story.ImageURL, ".png"))

	w = do(t, router, http.MethodGet, *story.ImageURL, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pngHeader, w.Body.Bytes())
}

func TestCreateStoryWithoutImage(t *testing.T) {
	router := newTestRouter(t, Options{})

	req := multipartStory(t, map[string]string{"title": "t", "content": "c", "author_name": "a"}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	story := decode[models.Story](t, w)
	assert.Nil(t, story.ImageURL)
	assert.Nil(t, story.FuelType)
}

func TestCreateStoryRejections(t *testing.T) {
	router := newTestRouter(t, Options{})

	cases := []struct {
		name   string
		fields map[string]string
		img    *imagePart
		want   string
	}{
		{"missing author", map[string]string{"title": "t", "content": "c"}, nil, "Title, content, and author name are required"},
		{"bad fuel", map[string]string{"title": "t", "content": "c", "author_name": "a", "fuel_type": "kerosene"}, nil, "Invalid fuel type"},
		{"not an image", map[string]string{"title": "t", "content": "c", "author_name": "a"},
			&imagePart{filename: "notes.txt", contentType: "text/plain", data: []byte("hello")}, "Only image files are allowed!"},
		{"too large", map[string]string{"title": "t", "content": "c", "author_name": "a"},
			&imagePart{filename: "big.png", contentType: "image/png", data: append(append([]byte{}, pngHeader...), make([]byte, upload.MaxImageBytes)...)}, "File too large"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, multipartStory(t, tc.fields, tc.img))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"`+tc.want+`"}`, w.Body.String())
		})
	}

	w := do(t, router, http.MethodGet, "/api/stories", nil)
	page := decode[service.StoryPage](t, w)
	assert.Empty(t, page.Stories)
}

func TestLikeStoryOnce(t *testing.T) {
	router := newTestRouter(t, Options{})

	w := do(t, router, http.MethodPost, "/api/stories", map[string]string{"title": "t", "content": "c", "author_name": "a"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	story := decode[models.Story](t, w)
	likePath := "/api/stories/" + itoa(story.ID) + "/like"

	w = do(t, router, http.MethodPost, likePath, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[models.Story](t, w).LikesCount)

	w = do(t, router, http.MethodPost, likePath, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Already liked this story"}`, w.Body.String())

	w = do(t, router, http.MethodGet, "/api/stories", nil)
	page := decode[service.StoryPage](t, w)
	require.Len(t, page.Stories, 1)
	assert.Equal(t, 1, page.Stories[0].LikesCount)

	w = do(t, router, http.MethodPost, "/api/stories/999/like", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, router, http.MethodPost, "/api/stories/x/like", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListStoriesQueryParams(t *testing.T) {
	router := newTestRouter(t, Options{})
	for i := 0; i < 3; i++ {
		fuel := models.FuelCharcoal
		if i == 0 {
			fuel = models.FuelLPG
		}
		w := do(t, router, http.MethodPost, "/api/stories", map[string]string{
			"title": "t" + itoa(uint(i)), "content": "c", "author_name": "a", "fuel_type": fuel,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := do(t, router, http.MethodGet, "/api/stories?page=2&limit=2", nil)
	page := decode[service.StoryPage](t, w)
	assert.Len(t, page.Stories, 1)
	assert.Equal(t, service.Pagination{Page: 2, Limit: 2, Total: 3, Pages: 2}, page.Pagination)

	w = do(t, router, http.MethodGet, "/api/stories?page=abc&limit=&fuel_type=LPG", nil)
	page = decode[service.StoryPage](t, w)
	assert.Equal(t, service.Pagination{Page: 1, Limit: 10, Total: 1, Pages: 1}, page.Pagination)

	w = do(t, router, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[map[string]interface{}](t, w)
	assert.Equal(t, float64(3), stats["totalStories"])
	assert.Equal(t, float64(33), stats["cleanFuelAdoptionPercentage"])
	assert.Contains(t, stats, "fuelTypeDistribution")
	assert.Contains(t, stats, "timestamp")
}

func TestRateLimitRejectsOverBudget(t *testing.T) {
	router := newTestRouter(t, Options{Limiter: ratelimit.NewMemoryLimiter(2, time.Hour)})

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/health", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/threads", nil).Code)

	w := do(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"Too many requests, please try again later."}`, w.Body.String())

	// Scrapes are not budgeted.
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/metrics", nil).Code)
}

func TestRateLimitSharedThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter, err := ratelimit.NewRedisLimiter("redis://"+mr.Addr(), 1, time.Hour)
	require.NoError(t, err)
	defer limiter.Close()
	router := newTestRouter(t, Options{Limiter: limiter})

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/health", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, router, http.MethodGet, "/api/health", nil).Code)

	// Without redis the gateway lets requests through.
	mr.Close()
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/health", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/health", nil).Code)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
