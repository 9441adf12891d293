package folder

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"filer/internal/middleware"
	"filer/internal/pkg/response"
	"filer/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetTree GET /folders/tree?root=&include_files=
func (h *Handler) GetTree(c *gin.Context) {
	var rootID *int64
	if raw := c.Query("root"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid root folder ID")
			return
		}
		rootID = &id
	}
	includeFiles, _ := strconv.ParseBool(c.Query("include_files"))

	tree, err := h.service.GetFolderTree(c.Request.Context(), rootID, includeFiles)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, tree)
}

func (h *Handler) GetFolder(c *gin.Context) {
	id, ok := folderID(c)
	if !ok {
		return
	}
	f, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, f)
}

func (h *Handler) IsEmpty(c *gin.Context) {
	id, ok := folderID(c)
	if !ok {
		return
	}
	empty, err := h.service.IsEmpty(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"empty": empty})
}

func (h *Handler) CreateFolder(c *gin.Context) {
	var req CreateFolderRequest
	if !bind(c, &req) {
		return
	}

	f, err := h.service.CreateFolder(c.Request.Context(), CreateInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		OwnerID:     middleware.UserID(c),
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, f)
}

func (h *Handler) UpdateFolder(c *gin.Context) {
	id, ok := folderID(c)
	if !ok {
		return
	}
	var req UpdateFolderRequest
	if !bind(c, &req) {
		return
	}

	f, err := h.service.UpdateFolder(c.Request.Context(), id, UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		IsActive:    req.IsActive,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, f)
}

func (h *Handler) MoveFolder(c *gin.Context) {
	id, ok := folderID(c)
	if !ok {
		return
	}
	var req MoveFolderRequest
	if !bind(c, &req) {
		return
	}

	f, err := h.service.MoveFolder(c.Request.Context(), id, req.ParentID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, f)
}

// DeleteFolder DELETE /folders/:id?permanent=&detach=
func (h *Handler) DeleteFolder(c *gin.Context) {
	id, ok := folderID(c)
	if !ok {
		return
	}
	permanent, _ := strconv.ParseBool(c.Query("permanent"))
	detach, _ := strconv.ParseBool(c.Query("detach"))

	var err error
	if permanent {
		err = h.service.PermanentDeleteFolder(c.Request.Context(), id, detach)
	} else {
		err = h.service.DeleteFolder(c.Request.Context(), id)
	}
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id, "permanent": permanent})
}

func (h *Handler) ResolvePath(c *gin.Context) {
	var req ResolvePathRequest
	if !bind(c, &req) {
		return
	}

	f, err := h.service.FindOrCreatePath(c.Request.Context(), req.Path, middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, f)
}

func folderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid folder ID")
		return 0, false
	}
	return id, true
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", errs)
		return false
	}
	return true
}
