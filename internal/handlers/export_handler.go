package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"admin-gateway-service/internal/middleware"
	"admin-gateway-service/internal/models"
	"admin-gateway-service/internal/services"
)

// ExportHandler writes the currently loaded page of a resource table to an
// XLSX download. Export reflects the view: page-local sort and filter apply.
type ExportHandler struct {
	tables *services.TableService
	stock  *services.StockService
}

func NewExportHandler(tables *services.TableService, stock *services.StockService) *ExportHandler {
	return &ExportHandler{tables: tables, stock: stock}
}

// ExportResource exports the loaded page of a generic resource table
// GET /api/v1/admin/:resource/export
func (h *ExportHandler) ExportResource(c *gin.Context) {
	desc, ok := resolveResource(c)
	if !ok {
		return
	}
	tenantID := middleware.GetTenantID(c)
	view := h.tables.View(tenantID, desc)

	columns := collectColumns(view.Rows, desc.IDField)
	rows := make([][]interface{}, 0, len(view.Rows))
	for _, r := range view.Rows {
		row := make([]interface{}, len(columns))
		for i, col := range columns {
			row[i] = r.Field(col)
		}
		rows = append(rows, row)
	}

	writeWorkbook(c, desc.ExportTitle, columns, rows)
}

// ExportStock exports the loaded page of the stock table
// GET /api/v1/admin/stock/export
func (h *ExportHandler) ExportStock(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	view := h.stock.View(tenantID)

	columns := []string{"inventory_id", "product", "sku", "options", "location", "quantity", "status"}
	rows := make([][]interface{}, 0, len(view.Rows))
	for _, r := range view.Rows {
		rows = append(rows, []interface{}{
			r.InventoryID, r.ProductName, r.SKU, r.Options, r.Location, r.Quantity, r.Status,
		})
	}

	writeWorkbook(c, "Stock", columns, rows)
}

// collectColumns derives a stable column order from the loaded rows, with the
// identifier first.
func collectColumns(rows []models.Row, idField string) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for name := range r.Fields {
			seen[name] = struct{}{}
		}
	}
	delete(seen, idField)

	columns := make([]string, 0, len(seen)+1)
	for name := range seen {
		columns = append(columns, name)
	}
	sort.Strings(columns)
	return append([]string{idField}, columns...)
}

func writeWorkbook(c *gin.Context, title string, columns []string, rows [][]interface{}) {
	sheetName := strings.ReplaceAll(title, " ", "")

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 18)
	}

	for rowIdx, row := range rows {
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_export.xlsx", strings.ToLower(sheetName)))

	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EXPORT_FAILED",
				Message: "Failed to generate export file",
			},
		})
	}
}
