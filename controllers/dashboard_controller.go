package controllers

import (
	"net/http"

	"github.com/amaurycolochos7/shopp-kingice/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DashboardController serves the admin dashboard figures
type DashboardController struct {
	dashboard *services.DashboardService
	errorResponder
}

// NewDashboardController creates a DashboardController
func NewDashboardController(dashboard *services.DashboardService, logger *zap.Logger, exposeDetails bool) *DashboardController {
	return &DashboardController{
		dashboard:      dashboard,
		errorResponder: newErrorResponder(logger, exposeDetails),
	}
}

// Stats handles GET /api/dashboard/stats
func (dc *DashboardController) Stats(c *gin.Context) {
	stats, err := dc.dashboard.Stats(c.Request.Context())
	if err != nil {
		dc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, stats)
}

// Recent handles GET /api/dashboard/recent?limit=
func (dc *DashboardController) Recent(c *gin.Context) {
	orders, err := dc.dashboard.Recent(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		dc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, orders)
}
