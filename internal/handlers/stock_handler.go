package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"admin-gateway-service/internal/middleware"
	"admin-gateway-service/internal/models"
	"admin-gateway-service/internal/platform"
	"admin-gateway-service/internal/services"
	"admin-gateway-service/internal/table"
)

// StockHandler serves the stock screen: flattened inventory rows with
// inline quantity edits.
type StockHandler struct {
	stock *services.StockService
}

func NewStockHandler(stock *services.StockService) *StockHandler {
	return &StockHandler{stock: stock}
}

type adjustQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

// List fetches one page of flattened stock rows
// GET /api/v1/admin/stock?page=&limit=&search=&sort=&order=&filter=
func (h *StockHandler) List(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	ctx := services.WithCredentials(c.Request.Context(), platform.Credentials{
		TenantID: tenantID,
		Session:  middleware.GetSession(c),
	})

	patch := table.ParamPatch{}
	if v := c.Query("page"); v != "" {
		page := parseInt(v, 1)
		if page < 1 {
			page = 1
		}
		patch.Page = &page
	}
	if v := c.Query("limit"); v != "" {
		limit := parseInt(v, 20)
		if limit < 1 {
			limit = 20
		}
		if limit > 100 {
			limit = 100
		}
		patch.PageSize = &limit
	}
	if v, set := c.GetQuery("search"); set {
		patch.Search = &v
	}
	if col := c.Query("sort"); col != "" {
		patch.Sort = &table.SortSpec{
			Column:     col,
			Descending: c.Query("order") == "desc",
		}
	}
	if filter, set := c.GetQuery("filter"); set {
		h.stock.Filter(tenantID, filter)
	}

	view, err := h.stock.List(ctx, tenantID, patch)
	if err != nil {
		c.JSON(fetchStatus(err), models.SuccessResponse{
			Success: false,
			Data:    view,
			Message: stringPtr(view.Error),
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    view,
	})
}

// Refresh retries the last stock fetch
// POST /api/v1/admin/stock/refresh
func (h *StockHandler) Refresh(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	ctx := services.WithCredentials(c.Request.Context(), platform.Credentials{
		TenantID: tenantID,
		Session:  middleware.GetSession(c),
	})

	view, err := h.stock.Refresh(ctx, tenantID)
	if err != nil {
		c.JSON(fetchStatus(err), models.SuccessResponse{
			Success: false,
			Data:    view,
			Message: stringPtr(view.Error),
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    view,
	})
}

// AdjustQuantity applies an inline quantity edit to one inventory row
// PATCH /api/v1/admin/stock/:inventoryId
func (h *StockHandler) AdjustQuantity(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	ctx := services.WithCredentials(c.Request.Context(), platform.Credentials{
		TenantID: tenantID,
		Session:  middleware.GetSession(c),
	})

	var req adjustQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	err := h.stock.AdjustQuantity(ctx, tenantID, c.Param("inventoryId"), *req.Quantity)
	if err != nil {
		if errors.Is(err, table.ErrEditInFlight) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "EDIT_IN_FLIGHT",
					Message: "Another quantity edit of this row is still saving",
				},
			})
			return
		}
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPDATE_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    h.stock.View(tenantID),
		Message: stringPtr("Quantity updated successfully"),
	})
}

// ToggleSelect flips selection of one stock row
// POST /api/v1/admin/stock/:inventoryId/select
func (h *StockHandler) ToggleSelect(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	selected := h.stock.ToggleSelect(tenantID, c.Param("inventoryId"))
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"selected": selected},
	})
}

// ToggleSelectAll selects or clears the loaded page
// POST /api/v1/admin/stock/select-all
func (h *StockHandler) ToggleSelectAll(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	selected := h.stock.ToggleSelectAll(tenantID)
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"selected": selected},
	})
}
