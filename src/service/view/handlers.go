package view

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dirmetrics/src/model"
	"dirmetrics/src/service/aggregate"
)

const defaultFunctionLimit = 50

// ErrorResponse is returned for failed requests
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Views   int    `json:"views"`
}

// FunctionsResponse lists the most complex functions of a view
type FunctionsResponse struct {
	ViewID    string                  `json:"viewId"`
	Total     int                     `json:"total"`
	Functions []model.FunctionMetrics `json:"functions"`
}

// Handlers serves the registry over HTTP
type Handlers struct {
	registry *Registry
	version  string
}

// NewHandlers creates handlers for registry
func NewHandlers(registry *Registry, version string) *Handlers {
	return &Handlers{registry: registry, version: version}
}

// HandleHealth reports liveness
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Views:   len(h.registry.List()),
	})
}

// HandleListViews lists open views
func (h *Handlers) HandleListViews(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"views": h.registry.List()})
}

// HandleGetView returns a full view including its result
func (h *Handlers) HandleGetView(c *gin.Context) {
	v, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, v)
}

// HandleSummary returns a view's summary
func (h *Handlers) HandleSummary(c *gin.Context) {
	v, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"viewId":   v.ID,
		"revision": v.Revision,
		"summary":  v.Result.Summary,
		"metadata": v.Result.Metadata,
	})
}

// HandleFunctions returns a view's functions, most complex first
func (h *Handlers) HandleFunctions(c *gin.Context) {
	v, ok := h.lookup(c)
	if !ok {
		return
	}

	limit := defaultFunctionLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer", Code: "INVALID_LIMIT"})
			return
		}
		limit = n
	}

	c.JSON(http.StatusOK, FunctionsResponse{
		ViewID:    v.ID,
		Total:     len(v.Result.Functions),
		Functions: aggregate.TopFunctions(v.Result.Functions, limit),
	})
}

// HandleDeleteView closes a view
func (h *Handlers) HandleDeleteView(c *gin.Context) {
	id := c.Param("id")
	if !h.registry.Delete(id) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "view not found: " + id, Code: "VIEW_NOT_FOUND"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) lookup(c *gin.Context) (*View, bool) {
	id := c.Param("id")
	v, ok := h.registry.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "view not found: " + id, Code: "VIEW_NOT_FOUND"})
		return nil, false
	}
	return v, true
}
