package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Rentabilidad-api/internal/application/scheduler"
)

// StatsSource contadores del pool de recálculo.
type StatsSource interface {
	Stats() scheduler.Stats
}

// HealthHandler estado del proceso y de la cola de recálculo.
type HealthHandler struct {
	stats   StatsSource
	started time.Time
}

// NewHealthHandler construye el handler; stats puede ser nil.
func NewHealthHandler(stats StatsSource) *HealthHandler {
	return &HealthHandler{stats: stats, started: time.Now()}
}

// Health godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	body := fiber.Map{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	}
	if h.stats != nil {
		st := h.stats.Stats()
		body["scheduler"] = fiber.Map{
			"pending":  st.Pending,
			"running":  st.Running,
			"computed": st.Computed,
			"failed":   st.Failed,
			"retried":  st.Retried,
		}
	}
	return c.JSON(body)
}
