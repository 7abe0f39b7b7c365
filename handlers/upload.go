package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mediashelf/mediashelf/internal/storage"
	"github.com/mediashelf/mediashelf/pkg/logger"
	"github.com/mediashelf/mediashelf/pkg/middleware"
	"github.com/mediashelf/mediashelf/pkg/reply"
)

// multipart framing on top of the file itself
const multipartSlack = 1 << 20

type UploadHandler struct {
	uploads *storage.Uploads
}

func NewUploadHandler(u *storage.Uploads) *UploadHandler {
	return &UploadHandler{uploads: u}
}

// Register routes POST /media/upload and GET /files/*key
func (h *UploadHandler) Register(rg gin.IRouter) {
	rg.POST("/media/upload", middleware.RequireIdentity(), h.Upload)
	rg.GET(storage.FilesPrefix+"*key", h.Download)
}

// Upload stores the multipart "file" field and returns its uri.
func (h *UploadHandler) Upload(c *gin.Context) {
	if limit := h.uploads.MaxSize(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartSlack)
	}
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			reply.Fail(c, http.StatusRequestEntityTooLarge, storage.ErrTooLarge.Error(), gin.H{})
			return
		}
		reply.Fail(c, http.StatusBadRequest, "missing 'file' field in multipart form", gin.H{})
		return
	}
	f, err := header.Open()
	if err != nil {
		reply.Fail(c, http.StatusInternalServerError, "failed to open the file", gin.H{})
		return
	}
	defer f.Close()

	caller := middleware.IdentityFrom(c)
	up, err := h.uploads.Save(c.Request.Context(), caller.ID, header.Filename, f, header.Size, header.Header.Get("Content-Type"))
	switch {
	case errors.Is(err, storage.ErrEmptyFile):
		reply.Fail(c, http.StatusBadRequest, err.Error(), gin.H{})
	case errors.Is(err, storage.ErrTooLarge):
		reply.Fail(c, http.StatusRequestEntityTooLarge, err.Error(), gin.H{})
	case err != nil:
		logger.Errorf("upload by %s: %v", caller.ID, err)
		reply.Fail(c, http.StatusInternalServerError, "failed to upload file to storage", gin.H{})
	default:
		logger.Infof("upload by %s stored as %s (%d bytes)", caller.ID, up.Key, up.Size)
		reply.OK(c, http.StatusCreated, "", up)
	}
}

// Download redirects to a freshly presigned URL for the stored object.
func (h *UploadHandler) Download(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	url, err := h.uploads.Presign(c.Request.Context(), key)
	switch {
	case errors.Is(err, storage.ErrBadKey):
		reply.Fail(c, http.StatusNotFound, "file not found", gin.H{})
	case err != nil:
		logger.Errorf("presign %s: %v", key, err)
		reply.Fail(c, http.StatusInternalServerError, "failed to resolve file", gin.H{})
	default:
		c.Header("Cache-Control", "no-store")
		c.Redirect(http.StatusFound, url)
	}
}
