package file

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts uploads and reads on public, moderation on admin.
func (h *Handler) RegisterRoutes(public, admin *gin.RouterGroup) {
	files := public.Group("/files")
	{
		files.POST("", h.Upload)               // POST /api/v1/files (multipart)
		files.GET("/:id", h.GetFile)           // GET /api/v1/files/:id
		files.GET("/:id/download", h.Download) // GET /api/v1/files/:id/download
	}

	moderated := admin.Group("/files")
	{
		moderated.POST("/:id/invalidate", h.Invalidate)
		moderated.POST("/:id/validate", h.Validate)
		moderated.DELETE("/:id", h.Delete)
	}
}
