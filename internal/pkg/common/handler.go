package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"sync"

	"nepeats/internal/pkg/uploader"
	"nepeats/pkg/logger"
	"nepeats/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	maxFiles      = 10
	maxFileSize   = 5 << 20
	uploadWorkers = 5
	defaultFolder = "products"
)

var folders = map[string]bool{"products": true, "restaurants": true}

type UploadHandler struct {
	uploader uploader.Uploader
}

// NewUploadHandler u 为 nil 时接口返回 503
func NewUploadHandler(u uploader.Uploader) *UploadHandler {
	return &UploadHandler{uploader: u}
}

// UploadFile 上传图片 (支持批量)
// @Summary 上传图片到 OSS (支持批量)
// @Tags Common
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param files formData file true "Images"
// @Param folder formData string false "products | restaurants"
// @Success 200 {object} response.Response{data=[]string} "URLs"
// @Router /upload [post]
func (h *UploadHandler) UploadFile(c *gin.Context) {
	if h.uploader == nil {
		response.Error(c, http.StatusServiceUnavailable, response.ErrServerInternal, "Uploader not configured")
		return
	}

	// 解析 multipart form
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid form data")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "No files uploaded")
		return
	}
	if len(files) > maxFiles {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Too many files")
		return
	}
	for _, f := range files {
		if f.Size > maxFileSize {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "File exceeds 5MB: "+f.Filename)
			return
		}
	}

	folder := c.DefaultPostForm("folder", defaultFolder)
	if !folders[folder] {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Unknown folder")
		return
	}

	urls, err := h.uploadAll(folder, files)
	if err != nil {
		if errors.Is(err, uploader.ErrUnsupportedType) {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
			return
		}
		logger.Log.Error("Upload failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Upload failed")
		return
	}

	response.Success(c, urls)
}

// uploadAll 并发上传，结果顺序与请求一致
func (h *UploadHandler) uploadAll(folder string, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, len(files))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	// 限制并发数，避免过多协程
	sem := make(chan struct{}, uploadWorkers)

	for i, file := range files {
		wg.Add(1)
		go func(index int, f *multipart.FileHeader) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			// 已有失败，跳过剩余文件
			if failed() {
				return
			}

			url, err := h.uploader.UploadFile(folder, f)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			urls[index] = url
		}(i, file)
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return urls, nil
}
