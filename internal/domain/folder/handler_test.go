package folder

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s, _, _ := setupService(t)
	r := gin.New()
	api := r.Group("/api/v1")
	NewHandler(s).RegisterRoutes(api, api)
	return r
}

func doJSON(r *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestFolderHandlersLifecycle(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/folders", gin.H{"name": "Docs"})
	require.Equal(t, http.StatusCreated, w.Code)
	var docs struct {
		ID       int64  `json:"id"`
		FullPath string `json:"full_path"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &docs))
	assert.Equal(t, "docs", docs.FullPath)

	w = doJSON(r, http.MethodPost, "/api/v1/folders/resolve", gin.H{"path": "docs/2024/q1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/folders/tree", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tree []TreeNode
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &tree))
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "docs/2024", tree[0].Children[0].Path)
	assert.Contains(t, w.Body.String(), `"isRoot":true`)

	w = doJSON(r, http.MethodPatch, "/api/v1/folders/1", gin.H{"name": "Documents"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/folders/3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"full_path":"documents/2024/q1"`)
}

func TestFolderHandlersErrorMapping(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/folders", gin.H{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error.Code)

	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/v1/folders", gin.H{"name": "Docs"}).Code)
	w = doJSON(r, http.MethodPost, "/api/v1/folders", gin.H{"name": "docs"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decode(t, w).Error.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/folders/1/move", gin.H{"parent_id": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/folders/77", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "folder not found", decode(t, w).Error.Message)

	w = doJSON(r, http.MethodGet, "/api/v1/folders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decode(t, w).Error.Code)
}

func TestFolderHandlersDelete(t *testing.T) {
	r := setupRouter(t)

	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/v1/folders", gin.H{"name": "Docs"}).Code)
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/v1/folders", gin.H{"name": "Child", "parent_id": 1}).Code)

	w := doJSON(r, http.MethodGet, "/api/v1/folders/1/empty", nil)
	assert.Contains(t, w.Body.String(), `"empty":false`)

	w = doJSON(r, http.MethodDelete, "/api/v1/folders/1?permanent=true", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/v1/folders/1?permanent=true&detach=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/folders/2", nil)
	assert.Contains(t, w.Body.String(), `"full_path":"child"`)
}
