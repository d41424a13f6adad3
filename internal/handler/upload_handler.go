package handler

import (
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadImage 处理题图上传：校验类型、探测尺寸、落盘并返回访问 URL。
func (a *API) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "image file is required")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, "only image uploads are allowed")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read uploaded image")
		return
	}
	cfg, format, err := image.DecodeConfig(src)
	src.Close()
	if err != nil {
		respondError(c, http.StatusBadRequest, "unsupported or corrupt image")
		return
	}

	uploadDir := a.uploadDir
	if uploadDir == "" {
		uploadDir = "web/static/uploads"
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to prepare upload directory")
		return
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = "." + format
	}
	newFilename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	filePath := filepath.Join(uploadDir, newFilename)

	if err := c.SaveUploadedFile(file, filePath); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to store uploaded image")
		return
	}

	urlPath := a.uploadURL
	if urlPath == "" {
		urlPath = "/static/uploads"
	}
	fileURL := fmt.Sprintf("%s/%s", strings.TrimRight(urlPath, "/"), newFilename)

	c.JSON(http.StatusOK, gin.H{
		"url":    fileURL,
		"width":  cfg.Width,
		"height": cfg.Height,
		"format": format,
	})
}
