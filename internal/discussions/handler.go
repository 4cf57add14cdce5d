package discussions

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"movietracker/internal/auth"
	"movietracker/internal/events"
	"movietracker/pkg/models"
)

type Handler struct {
	Repo *Repo
	Hub  *events.Hub
}

func NewHandler(repo *Repo, hub *events.Hub) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/discussions", h.listForTarget)
	rg.GET("/discussions/most-discussed", h.mostDiscussed)
	rg.GET("/discussions/:id", h.get)
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/discussions", h.create)
	rg.POST("/discussions/:id/comments", h.addComment)
	rg.DELETE("/comments/:id", h.deleteComment)
}

type createReq struct {
	TargetType string `json:"target_type" binding:"required"`
	TargetID   int64  `json:"target_id" binding:"required"`
	Title      string `json:"title" binding:"required"`
}

type commentReq struct {
	Content string `json:"content" binding:"required"`
}

func (h *Handler) listForTarget(c *gin.Context) {
	mediaType, ok := models.ParseMediaType(c.Query("target_type"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_type must be 'movie' or 'show'"})
		return
	}
	id, err := strconv.ParseInt(c.Query("target_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target_id"})
		return
	}

	list, err := h.Repo.ListForTarget(c.Request.Context(), models.MediaRef{Type: mediaType, ID: id})
	if err != nil {
		log.Printf("discussions: list: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load discussions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"discussions": list})
}

func (h *Handler) mostDiscussed(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	list, err := h.Repo.MostDiscussed(c.Request.Context(), limit)
	if err != nil {
		log.Printf("discussions: most discussed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load discussions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"discussions": list})
}

func (h *Handler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	disc, err := h.Repo.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "discussion not found"})
			return
		}
		log.Printf("discussions: get %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load discussion"})
		return
	}
	c.JSON(http.StatusOK, disc)
}

func (h *Handler) create(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_type, target_id and title are required"})
		return
	}
	mediaType, ok := models.ParseMediaType(req.TargetType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_type must be 'movie' or 'show'"})
		return
	}
	target := models.MediaRef{Type: mediaType, ID: req.TargetID}

	disc, err := h.Repo.Create(c.Request.Context(), claims.UserID, target, req.Title)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTarget):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "target title not found"})
		default:
			log.Printf("discussions: create: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create discussion"})
		}
		return
	}
	c.JSON(http.StatusCreated, disc)
}

func (h *Handler) addComment(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req commentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	comment, err := h.Repo.AddComment(c.Request.Context(), id, claims.UserID, req.Content)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "discussion not found"})
			return
		}
		log.Printf("discussions: comment on %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add comment"})
		return
	}

	h.Hub.BroadcastJSON(events.NewActivity(events.TypeCommentCreated, claims.UserID, nil))
	c.JSON(http.StatusCreated, comment)
}

func (h *Handler) deleteComment(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.Repo.DeleteComment(c.Request.Context(), id, claims.UserID); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		log.Printf("discussions: delete comment %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete comment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
