package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/reviewhub/internal/cache"
	"github.com/geocoder89/reviewhub/internal/config"
	"github.com/geocoder89/reviewhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type StatsSource interface {
	AppInfo(ctx context.Context) (user.Stats, error)
}

type AdminHandler struct {
	stats StatsSource
	cache *cache.Cache[user.Stats]
}

// NewAdminHandler serves dashboard counts, cached for cacheTTL.
func NewAdminHandler(stats StatsSource, cacheTTL time.Duration) *AdminHandler {
	return &AdminHandler{stats: stats, cache: cache.New[user.Stats](cacheTTL)}
}

func (h *AdminHandler) AppInfo(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	stats, err := h.cache.GetOrLoad("app-info", func() (user.Stats, error) {
		return h.stats.AppInfo(cctx)
	})
	if err != nil {
		_ = ctx.Error(err)
		RespondInternal(ctx, "Could not load app info")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"appInfo": stats})
}
