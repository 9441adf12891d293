package gallery

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/files", h.List)
	api.GET("/files/stats", h.Stats)
}

func (h *Handler) RegisterStream(r gin.IRoutes) {
	r.GET("/ws/gallery", h.Stream)
}
