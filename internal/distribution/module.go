package distribution

import (
	apphttp "crm_dashboard_backend/internal/http"
	"crm_dashboard_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module exposes the distribution scheduler over HTTP.
type Module struct {
	svc *Service
}

func NewModule(svc *Service) *Module {
	return &Module{svc: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "distribution" }

// RegisterRoutes registers the distribution routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.POST("/distribution/run", m.run)
	ctx.Protected.GET("/distribution/stats", m.stats)
}

// run triggers a sweep immediately, bypassing the settle delay.
// POST /api/v1/admin/distribution/run
func (m *Module) run(c *gin.Context) {
	httpkit.OK(c, m.svc.DistributeUnassignedLeads(c.Request.Context()))
}

// stats reports the current capacity picture.
// GET /api/v1/distribution/stats
func (m *Module) stats(c *gin.Context) {
	httpkit.OK(c, m.svc.leads.GetDistributionStats(c.Request.Context()))
}
