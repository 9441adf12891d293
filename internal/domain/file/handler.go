package file

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"filer/internal/domain"
	"filer/internal/domain/policy"
	"filer/internal/middleware"
	"filer/internal/pkg/response"
)

type Handler struct {
	pipeline *Pipeline
	service  *Service
}

func NewHandler(pipeline *Pipeline, service *Service) *Handler {
	return &Handler{pipeline: pipeline, service: service}
}

// UploadResponse is the file view plus the ids of earlier identical uploads.
type UploadResponse struct {
	domain.FileView
	DuplicateOf []int64 `json:"duplicate_of,omitempty"`
}

// Upload POST /files (multipart: file, optional folder_id)
func (h *Handler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "FILE_REQUIRED", "No file provided")
		return
	}

	ref := NoFolder()
	if raw := c.PostForm("folder_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid folder ID")
			return
		}
		ref = InFolder(id)
	}

	src, err := header.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "FILE_UNREADABLE", "Uploaded file cannot be read")
		return
	}
	defer src.Close()

	ownerID := middleware.UserID(c)
	res, err := h.pipeline.Ingest(c.Request.Context(), policy.UploadDescriptor{
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     header.Size,
	}, src, ref, domain.AudienceFor(ownerID), ownerID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	out := UploadResponse{FileView: domain.NewFileView(res.File)}
	for _, d := range res.Duplicates {
		out.DuplicateOf = append(out.DuplicateOf, d.ID)
	}
	response.Success(c, http.StatusCreated, out)
}

func (h *Handler) GetFile(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}
	f, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.service.RecordView(c.Request.Context(), id)
	response.Success(c, http.StatusOK, domain.NewFileView(f))
}

func (h *Handler) Download(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}
	f, rc, err := h.service.Open(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	defer rc.Close()

	h.service.RecordDownload(c.Request.Context(), id)
	c.DataFromReader(http.StatusOK, f.Size, f.MimeType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", f.OriginalName),
	})
}

func (h *Handler) Invalidate(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}
	if err := h.service.Invalidate(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "is_active": false})
}

func (h *Handler) Validate(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}
	if err := h.service.Validate(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "is_active": true})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func fileID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid file ID")
		return 0, false
	}
	return id, true
}
