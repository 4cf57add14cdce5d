package reviews

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

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
	rg.GET("/movies/:id/reviews", h.listForMovie)
	rg.GET("/shows/:id/reviews", h.listForShow)
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/reviews", h.create)
	rg.PUT("/reviews/:id", h.update)
	rg.DELETE("/reviews/:id", h.delete)
	rg.POST("/reviews/:id/reactions", h.addReaction)
	rg.DELETE("/reviews/:id/reactions/:kind", h.removeReaction)
}

type createReq struct {
	TargetType string  `json:"target_type"`
	TargetID   int64   `json:"target_id"`
	Rating     float64 `json:"rating"`
	Content    string  `json:"content"`
}

func (h *Handler) create(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	mediaType, ok := models.ParseMediaType(req.TargetType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_type must be 'movie' or 'show'"})
		return
	}
	target := models.MediaRef{Type: mediaType, ID: req.TargetID}

	review, err := h.Repo.Create(c.Request.Context(), claims.UserID, target, req.Rating, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTarget), errors.Is(err, ErrInvalidRating):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": targetNotFound(mediaType)})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		}
		return
	}

	h.Hub.BroadcastJSON(events.NewActivity(events.TypeReviewCreated, claims.UserID, &review.Target))
	c.JSON(http.StatusCreated, review)
}

type updateReq struct {
	Rating  float64 `json:"rating"`
	Content string  `json:"content"`
}

func (h *Handler) update(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	review, err := h.Repo.Update(c.Request.Context(), id, claims.UserID, req.Rating, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRating):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "review not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		}
		return
	}

	h.Hub.BroadcastJSON(events.NewActivity(events.TypeReviewUpdated, claims.UserID, &review.Target))
	c.JSON(http.StatusOK, review)
}

func (h *Handler) delete(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	deleted, err := h.Repo.Delete(c.Request.Context(), id, claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "review not found"})
		return
	}

	h.Hub.BroadcastJSON(events.NewActivity(events.TypeReviewDeleted, claims.UserID, nil))
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type reactionReq struct {
	Kind string `json:"kind"`
}

func (h *Handler) addReaction(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req reactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	err := h.Repo.AddReaction(c.Request.Context(), id, claims.UserID, req.Kind)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidReaction):
			c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be one of: " + strings.Join(models.ReactionKinds, ", ")})
		case errors.Is(err, ErrDuplicate):
			c.JSON(http.StatusConflict, gin.H{"error": "reaction already exists"})
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "review not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reaction failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "reacted"})
}

func (h *Handler) removeReaction(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	removed, err := h.Repo.RemoveReaction(c.Request.Context(), id, claims.UserID, c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "reaction not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) listForMovie(c *gin.Context) {
	h.listForTarget(c, models.MediaTypeMovie)
}

func (h *Handler) listForShow(c *gin.Context) {
	h.listForTarget(c, models.MediaTypeShow)
}

func (h *Handler) listForTarget(c *gin.Context, mediaType models.MediaType) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, err := h.Repo.ListForTarget(c.Request.Context(), models.MediaRef{Type: mediaType, ID: id}, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

func targetNotFound(mediaType models.MediaType) string {
	if mediaType == models.MediaTypeShow {
		return "show not found"
	}
	return "movie not found"
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
