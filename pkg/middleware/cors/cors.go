package cors

import (
	"strings"
	"time"

	ginCors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// New returns CORS middleware for the given origins; an empty list allows any origin.
func New(allowedOrigins []string) gin.HandlerFunc {
	cfg := ginCors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	}

	origins := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if trimmed := strings.TrimRight(strings.TrimSpace(origin), "/"); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	if len(origins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}

	return ginCors.New(cfg)
}
