package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"nepeats/internal/pkg/uploader"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUploader struct {
	mu      sync.Mutex
	folders []string
	fail    error
}

func (f *fakeUploader) UploadFile(folder string, file *multipart.FileHeader) (string, error) {
	if _, err := uploader.ObjectKey(folder, file.Filename, time.Now()); err != nil {
		return "", err
	}
	if f.fail != nil {
		return "", f.fail
	}
	f.mu.Lock()
	f.folders = append(f.folders, folder)
	f.mu.Unlock()
	return "https://cdn.example/" + folder + "/" + file.Filename, nil
}

func multipartBody(t *testing.T, folder string, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, name := range names {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, _ = part.Write([]byte("img"))
	}
	if folder != "" {
		require.NoError(t, w.WriteField("folder", folder))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func upload(h *UploadHandler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/upload", h.UploadFile)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadFile(t *testing.T) {
	t.Run("Keeps request order", func(t *testing.T) {
		fake := &fakeUploader{}
		body, ct := multipartBody(t, "restaurants", "a.png", "b.jpg", "c.webp")

		w := upload(NewUploadHandler(fake), body, ct)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data []string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{
			"https://cdn.example/restaurants/a.png",
			"https://cdn.example/restaurants/b.jpg",
			"https://cdn.example/restaurants/c.webp",
		}, resp.Data)
	})

	t.Run("Defaults to products folder", func(t *testing.T) {
		fake := &fakeUploader{}
		body, ct := multipartBody(t, "", "momo.png")

		w := upload(NewUploadHandler(fake), body, ct)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"products"}, fake.folders)
	})

	t.Run("Rejects non images", func(t *testing.T) {
		body, ct := multipartBody(t, "", "menu.pdf")
		w := upload(NewUploadHandler(&fakeUploader{}), body, ct)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unknown folder", func(t *testing.T) {
		body, ct := multipartBody(t, "../etc", "a.png")
		w := upload(NewUploadHandler(&fakeUploader{}), body, ct)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("No files", func(t *testing.T) {
		body, ct := multipartBody(t, "products")
		w := upload(NewUploadHandler(&fakeUploader{}), body, ct)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Storage failure", func(t *testing.T) {
		body, ct := multipartBody(t, "", "a.png")
		w := upload(NewUploadHandler(&fakeUploader{fail: errors.New("oss timeout")}), body, ct)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("Not configured", func(t *testing.T) {
		body, ct := multipartBody(t, "", "a.png")
		w := upload(NewUploadHandler(nil), body, ct)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
