package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"admin-gateway-service/internal/middleware"
	"admin-gateway-service/internal/models"
	"admin-gateway-service/internal/platform"
	"admin-gateway-service/internal/services"
	"admin-gateway-service/internal/table"
)

// TableHandler serves the generic admin screens: list, inline edit, bulk
// delete and selection for every registered resource.
type TableHandler struct {
	tables *services.TableService
}

func NewTableHandler(tables *services.TableService) *TableHandler {
	return &TableHandler{tables: tables}
}

// resolveResource maps the :resource path segment onto a registered screen.
func resolveResource(c *gin.Context) (models.ResourceDescriptor, bool) {
	desc, ok := models.FindResource(c.Param("resource"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UNKNOWN_RESOURCE",
				Message: "Unknown admin resource: " + c.Param("resource"),
			},
		})
		return models.ResourceDescriptor{}, false
	}
	return desc, true
}

// List fetches one page of a resource table
// GET /api/v1/admin/:resource?page=&limit=&search=&sort=&order=&filter=
func (h *TableHandler) List(c *gin.Context) {
	desc, ok := resolveResource(c)
	if !ok {
		return
	}
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
		limit := h.tables.ClampPageSize(parseInt(v, 0))
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
		h.tables.Filter(tenantID, desc, filter)
	}

	view, err := h.tables.List(ctx, tenantID, desc, patch)
	if err != nil {
		// Stale-but-valid: the view still carries the previous records
		// together with the error state for the retry affordance.
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

// Refresh retries the last fetch for a resource table
// POST /api/v1/admin/:resource/refresh
func (h *TableHandler) Refresh(c *gin.Context) {
	desc, ok := resolveResource(c)
	if !ok {
		return
	}
	tenantID := middleware.GetTenantID(c)
	ctx := services.WithCredentials(c.Request.Context(), platform.Credentials{
		TenantID: tenantID,
		Session:  middleware.GetSession(c),
	})

	view, err := h.tables.Refresh(ctx, tenantID, desc)
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

// EditField applies an inline edit to one cell
// PATCH /api/v1/admin/:resource/:id
func (h *TableHandler) EditField(c *gin.Context) {
	desc, ok := resolveResource(c)
	if !ok {
		return
	}
	tenantID := middleware.GetTenantID(c)
	ctx := services.WithCredentials(c.Request.Context(), platform.Credentials{
		TenantID: tenantID,
		Session:  middleware.GetSession(c),
	})

	var req models.FieldEditRequest
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

	if !desc.EditableField(req.Field) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FIELD_NOT_EDITABLE",
				Message: "Field is not inline-editable: " + req.Field,
			},
		})
		return
	}

	err := h.tables.EditField(ctx, tenantID, desc, c.Param("id"), req.Field, req.Value)
	if err != nil {
		if errors.Is(err, table.ErrEditInFlight) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "EDIT_IN_FLIGHT",
					Message: "Another edit of this cell is still saving",
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
		Data:    h.tables.View(tenantID, desc),
		Message: stringPtr("Field updated successfully"),
	})
}

// BulkDelete removes the selected records
// DELETE /api/v1/admin/:resource
func (h *TableHandler) BulkDelete(c *gin.Context) {
	desc, ok := resolveResource(c)
	if !ok {
		return
	}
	tenantID := middleware.GetTenantID(c)
	ctx := services.WithCredentials(c.Request.Context(), platform.Credentials{
		TenantID: tenantID,
		Session:  middleware.GetSession(c),
	})

	var req models.BulkDeleteRequest
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

	if err := h.tables.BulkDelete(ctx, tenantID, desc, req.IDs); err != nil {
		if errors.Is(err, table.ErrEditInFlight) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "EDIT_IN_FLIGHT",
					Message: "An edit of a selected record is still saving",
				},
			})
			return
		}
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETE_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: models.BulkDeleteResponse{
			DeletedCount: len(req.IDs),
			DeletedIDs:   req.IDs,
		},
		Message: stringPtr("Records deleted successfully"),
	})
}

// ToggleSelect flips selection of one record
// POST /api/v1/admin/:resource/:id/select
func (h *TableHandler) ToggleSelect(c *gin.Context) {
	desc, ok := resolveResource(c)
	if !ok {
		return
	}
	tenantID := middleware.GetTenantID(c)

	selected := h.tables.ToggleSelect(tenantID, desc, c.Param("id"))
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"selected": selected},
	})
}

// ToggleSelectAll selects or clears the loaded page
// POST /api/v1/admin/:resource/select-all
func (h *TableHandler) ToggleSelectAll(c *gin.Context) {
	desc, ok := resolveResource(c)
	if !ok {
		return
	}
	tenantID := middleware.GetTenantID(c)

	selected := h.tables.ToggleSelectAll(tenantID, desc)
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"selected": selected},
	})
}

// ClearSelection empties the selection
// DELETE /api/v1/admin/:resource/selection
func (h *TableHandler) ClearSelection(c *gin.Context) {
	desc, ok := resolveResource(c)
	if !ok {
		return
	}
	tenantID := middleware.GetTenantID(c)

	h.tables.ClearSelection(tenantID, desc)
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"selected": []string{}},
	})
}

// fetchStatus maps a fetch failure onto the gateway's response status.
func fetchStatus(err error) int {
	var reqErr *platform.RequestError
	if errors.As(err, &reqErr) && reqErr.Kind == platform.KindHTTP && reqErr.Status == http.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func stringPtr(s string) *string {
	return &s
}
