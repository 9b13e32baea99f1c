package status

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Progress is the snapshot a long-running methsearch/fextent run exposes
// at GET /status.
type Progress struct {
	RunID     string    `json:"runId"`
	Found     int       `json:"found"`
	Tried     int64     `json:"tried"`
	Phase     string    `json:"phase"`
	StartedAt time.Time `json:"startedAt"`
}

// Server is the optional embedded status/progress HTTP endpoint of
// spec.md §5: GET /status for a point-in-time snapshot, GET /ws for the
// live status-line stream.
type Server struct {
	hub      *Hub
	mu       sync.Mutex
	progress Progress
}

// NewServer creates a Server backed by hub.
func NewServer(hub *Hub) *Server {
	return &Server{hub: hub}
}

// SetProgress updates the snapshot returned by GET /status.
func (s *Server) SetProgress(p Progress) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()
}

// Router builds the gin.Engine serving /status and /ws, with a
// permissive-by-default CORS policy (configurable via ALLOWED_ORIGINS)
// for local dashboards.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		switch {
		case allowedOrigins == "" || allowedOrigins == "*":
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		default:
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/status", func(c *gin.Context) {
		s.mu.Lock()
		p := s.progress
		s.mu.Unlock()
		c.JSON(200, p)
	})
	r.GET("/ws", s.hub.Subscribe)

	return r
}
