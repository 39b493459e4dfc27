package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"admin-gateway-service/internal/middleware"
	"admin-gateway-service/internal/models"
	"admin-gateway-service/internal/platform"
	"admin-gateway-service/internal/services"
)

// DashboardHandler serves the sales dashboard.
type DashboardHandler struct {
	dashboard *services.DashboardService
}

func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// SalesSummary aggregates recent orders into the dashboard payload
// GET /api/v1/admin/dashboard/sales
func (h *DashboardHandler) SalesSummary(c *gin.Context) {
	creds := platform.Credentials{
		TenantID: middleware.GetTenantID(c),
		Session:  middleware.GetSession(c),
	}

	summary, err := h.dashboard.SalesSummary(c.Request.Context(), creds)
	if err != nil {
		c.JSON(fetchStatus(err), models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    summary,
	})
}
