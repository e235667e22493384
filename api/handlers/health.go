package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClientCounter reports how many chat clients are connected.
type ClientCounter interface {
	ClientCount() int
}

// HealthHandler reports liveness and the state of the message store.
type HealthHandler struct {
	driver   string
	degraded bool
	clients  ClientCounter
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Driver   string `json:"driver"`
	Degraded bool   `json:"degraded"`
	Clients  int    `json:"clients"`
}

// NewHealthHandler creates a new HealthHandler. degraded is true when the
// configured store could not be opened and messages live in memory only.
func NewHealthHandler(driver string, degraded bool, clients ClientCounter) *HealthHandler {
	return &HealthHandler{
		driver:   driver,
		degraded: degraded,
		clients:  clients,
	}
}

// Get handles GET /health.
func (h *HealthHandler) Get(c *gin.Context) {
	status := "ok"
	if h.degraded {
		status = "degraded"
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:   status,
		Driver:   h.driver,
		Degraded: h.degraded,
		Clients:  h.clients.ClientCount(),
	})
}

// RegisterRoutes registers the health route on a Gin router.
func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.Get)
}
