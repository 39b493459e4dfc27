package models

import (
	"fmt"

	"admin-gateway-service/internal/table"
)

// Stock status classification
const (
	StockStatusIn  = "IN_STOCK"
	StockStatusLow = "LOW_STOCK"
	StockStatusOut = "OUT_OF_STOCK"
)

// DefaultLowStockThreshold applies when no threshold is configured.
const DefaultLowStockThreshold = 20

// Product is the nested shape returned by the platform catalog API.
type Product struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Variants  []Variant `json:"variants"`
}

func (p Product) Key() string { return p.ProductID }

// Variant is one sellable variation of a product.
type Variant struct {
	VariantID string       `json:"variant_id"`
	SKU       string       `json:"sku"`
	Options   string       `json:"options"`
	Entries   []StockEntry `json:"inventories"`
}

// StockEntry is the per-location inventory of one variant.
type StockEntry struct {
	InventoryID string `json:"inventory_id"`
	Location    string `json:"location"`
	Quantity    int    `json:"quantity"`
}

// StockRow is one flat display row of the stock table, carrying the full
// parent chain so edits and detail navigation resolve without refetching.
type StockRow struct {
	InventoryID string `json:"inventoryId"`
	VariantID   string `json:"variantId"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	SKU         string `json:"sku"`
	Options     string `json:"options"`
	Location    string `json:"location"`
	Quantity    int    `json:"quantity"`
	Status      string `json:"status"`
}

// Key implements the table record identity.
func (r StockRow) Key() string { return r.InventoryID }

// ClassifyStock maps a quantity to its display status.
func ClassifyStock(quantity, threshold int) string {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	switch {
	case quantity <= 0:
		return StockStatusOut
	case quantity < threshold:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

// ProjectStockRows flattens products depth-first into one row per inventory
// entry. A product without variants, or a variant without inventory entries,
// contributes no rows.
func ProjectStockRows(products []Product, threshold int) []StockRow {
	return table.Project(products, func(p Product) []StockRow {
		rows := make([]StockRow, 0, len(p.Variants))
		for _, v := range p.Variants {
			for _, e := range v.Entries {
				rows = append(rows, StockRow{
					InventoryID: e.InventoryID,
					VariantID:   v.VariantID,
					ProductID:   p.ProductID,
					ProductName: p.Name,
					SKU:         v.SKU,
					Options:     v.Options,
					Location:    e.Location,
					Quantity:    e.Quantity,
					Status:      ClassifyStock(e.Quantity, threshold),
				})
			}
		}
		return rows
	})
}

// StockFilterText is the derived string the page-local filter matches.
func StockFilterText(r StockRow) string {
	return fmt.Sprintf("%s %s %s", r.ProductName, r.SKU, r.Location)
}
