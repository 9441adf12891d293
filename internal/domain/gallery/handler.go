package gallery

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"filer/internal/events"
	"filer/internal/pkg/response"
)

type Handler struct {
	engine *Engine
	hub    *events.Hub
}

func NewHandler(engine *Engine, hub *events.Hub) *Handler {
	return &Handler{engine: engine, hub: hub}
}

// List GET /files?folder=&year=&month=&filename=&page=&page_size=
// Malformed numbers fall back to defaults instead of failing the request.
func (h *Handler) List(c *gin.Context) {
	filters := Filters{
		Scope:    ParseScope(c.Query("folder")),
		Filename: c.Query("filename"),
	}
	filters.Year, _ = strconv.Atoi(c.Query("year"))
	filters.Month, _ = strconv.Atoi(c.Query("month"))

	page := ParsePage(c.Query("page"))
	pageSize := ParsePageSize(c.Query("page_size"), h.engine.DefaultPageSize())

	result, err := h.engine.Query(c.Request.Context(), filters, page, pageSize)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.engine.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// Stream GET /ws/gallery?folder=<id> upgrades to a websocket of file events.
func (h *Handler) Stream(c *gin.Context) {
	var folderID *int64
	if scope := ParseScope(c.Query("folder")); scope.Kind == ScopeFolder {
		folderID = &scope.FolderID
	}
	if err := h.hub.Serve(c.Writer, c.Request, folderID); err != nil {
		log.Printf("gallery_stream_upgrade_failed client_ip=%s error=%v", c.ClientIP(), err)
	}
}
