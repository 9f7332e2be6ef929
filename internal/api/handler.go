package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kitchen-inventory/internal/app"
	"kitchen-inventory/internal/inventory"
	"kitchen-inventory/internal/logger"
)

// Handler serves the inventory routes.
type Handler struct {
	app *app.App
}

// NewHandler creates a Handler.
func NewHandler(a *app.App) *Handler {
	return &Handler{app: a}
}

// GET /health
func (h *Handler) Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "system": h.app.Health()})
	}
}

// GET /items
func (h *Handler) ListItems() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := h.app.ListItems(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// GET /items/:id
func (h *Handler) GetItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		it, err := h.app.GetItem(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, it)
	}
}

// PUT /items/:id creates or replaces an item. The id in the path wins over
// one in the body.
func (h *Handler) PutItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		var it inventory.Item
		if err := c.ShouldBindJSON(&it); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		it.ID = c.Param("id")

		if existing, err := h.app.GetItem(c.Request.Context(), it.ID); err == nil {
			it.CreatedAt = existing.CreatedAt
		}

		saved, err := h.app.SaveItem(c.Request.Context(), it)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, saved)
	}
}

// DELETE /items/:id
func (h *Handler) DeleteItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := h.app.DeleteItem(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"recipes_with_ghosts": n})
	}
}

// GET /items/:id/report
func (h *Handler) GetReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, err := h.app.Evaluate(c.Request.Context(), c.Param("id"), nil)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}

type previewRequest struct {
	Components []inventory.Component `json:"components"`
}

// POST /items/:id/report evaluates unsaved draft components.
func (h *Handler) PreviewReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req previewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		rep, err := h.app.Evaluate(c.Request.Context(), c.Param("id"), &req.Components)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}

// GET /ghosts
func (h *Handler) ListGhosts() gin.HandlerFunc {
	return func(c *gin.Context) {
		ghosts, err := h.app.Ghosts(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		if ghosts == nil {
			ghosts = []inventory.GhostRef{}
		}
		c.JSON(http.StatusOK, ghosts)
	}
}

type replaceGhostRequest struct {
	DeletedItemName string `json:"deleted_item_name" binding:"required"`
	ReplacementID   string `json:"replacement_id" binding:"required"`
	ParentID        string `json:"parent_id"`
}

// POST /ghosts/replace
func (h *Handler) ReplaceGhost() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req replaceGhostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		n, err := h.app.ReplaceGhost(c.Request.Context(), req.DeletedItemName, req.ReplacementID, req.ParentID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"relinked": n})
	}
}

// GET /match?name=
func (h *Handler) Match() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.Query("name"))
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		res, ok, err := h.app.Match(c.Request.Context(), name)
		if err != nil {
			writeError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no similar item"})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// GET /metrics/usage?days=7
func (h *Handler) Usage() gin.HandlerFunc {
	return func(c *gin.Context) {
		days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
		if err != nil || days < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		usage, err := h.app.DailyUsage(c.Request.Context(), days)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, usage)
	}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, inventory.ErrInvalidItem):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
