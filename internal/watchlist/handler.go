package watchlist

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

// RegisterRoutes mounts both lists on the given (authenticated) group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/watchlist", h.list(Watchlist))
	rg.POST("/watchlist", h.add(Watchlist, events.TypeWatchlistUpdated))
	rg.DELETE("/watchlist/:type/:id", h.remove(Watchlist, events.TypeWatchlistUpdated))

	rg.GET("/favorites", h.list(Favorites))
	rg.POST("/favorites", h.add(Favorites, events.TypeFavoritesUpdated))
	rg.DELETE("/favorites/:type/:id", h.remove(Favorites, events.TypeFavoritesUpdated))
}

type addReq struct {
	TargetType string `json:"target_type" binding:"required"`
	TargetID   int64  `json:"target_id" binding:"required"`
}

func (h *Handler) list(list List) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		limit := parseInt(c.Query("limit"), 20)
		offset := parseInt(c.Query("offset"), 0)

		entries, total, err := h.Repo.ListEntries(c.Request.Context(), list, claims.UserID, limit, offset)
		if err != nil {
			log.Printf("watchlist: list %s: %v", list, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load list"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"items":  entries,
			"total":  total,
			"limit":  limit,
			"offset": offset,
		})
	}
}

func (h *Handler) add(list List, eventType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := auth.MustGetClaims(c)

		var req addReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target_type and target_id are required"})
			return
		}
		mediaType, ok := models.ParseMediaType(req.TargetType)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target_type must be 'movie' or 'show'"})
			return
		}
		target := models.MediaRef{Type: mediaType, ID: req.TargetID}

		if err := h.Repo.Add(c.Request.Context(), list, claims.UserID, target); err != nil {
			switch {
			case errors.Is(err, ErrInvalidTarget):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": targetNotFound(mediaType)})
			default:
				log.Printf("watchlist: add to %s: %v", list, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add entry"})
			}
			return
		}

		h.Hub.BroadcastJSON(events.NewActivity(eventType, claims.UserID, &target))
		c.JSON(http.StatusCreated, gin.H{"added": true})
	}
}

func (h *Handler) remove(list List, eventType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := auth.MustGetClaims(c)

		mediaType, ok := models.ParseMediaType(c.Param("type"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target_type must be 'movie' or 'show'"})
			return
		}
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		target := models.MediaRef{Type: mediaType, ID: id}

		removed, err := h.Repo.Remove(c.Request.Context(), list, claims.UserID, target)
		if err != nil {
			log.Printf("watchlist: remove from %s: %v", list, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove entry"})
			return
		}
		if !removed {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}

		h.Hub.BroadcastJSON(events.NewActivity(eventType, claims.UserID, &target))
		c.JSON(http.StatusOK, gin.H{"removed": true})
	}
}

func targetNotFound(mediaType models.MediaType) string {
	if mediaType == models.MediaTypeShow {
		return "show not found"
	}
	return "movie not found"
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
