package folder

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts read routes on public and mutations on admin.
func (h *Handler) RegisterRoutes(public, admin *gin.RouterGroup) {
	folders := public.Group("/folders")
	{
		folders.GET("/tree", h.GetTree)      // GET /api/v1/folders/tree?root=&include_files=
		folders.GET("/:id", h.GetFolder)     // GET /api/v1/folders/:id
		folders.GET("/:id/empty", h.IsEmpty) // GET /api/v1/folders/:id/empty
	}

	managed := admin.Group("/folders")
	{
		managed.POST("", h.CreateFolder)
		managed.POST("/resolve", h.ResolvePath)
		managed.PATCH("/:id", h.UpdateFolder)
		managed.POST("/:id/move", h.MoveFolder)
		managed.DELETE("/:id", h.DeleteFolder) // ?permanent=true&detach=true
	}
}
