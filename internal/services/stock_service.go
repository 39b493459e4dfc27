package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"admin-gateway-service/internal/cache"
	"admin-gateway-service/internal/events"
	"admin-gateway-service/internal/models"
	"admin-gateway-service/internal/platform"
	"admin-gateway-service/internal/table"
)

const (
	stockResourceName = "stock"
	productsPath      = "/api/v1/products"
	inventoriesPath   = "/api/v1/inventories"
)

// StockService serves the stock screen: it pages through the product catalog,
// flattens product/variant/inventory nesting into display rows, and applies
// optimistic quantity edits against the inventory endpoint.
type StockService struct {
	client    *platform.Client
	cache     *cache.PageCache
	audit     *events.AuditPublisher
	logger    *logrus.Logger
	threshold int
	timeout   time.Duration

	defaultPageSize int
	windowDelta     int

	mu     sync.Mutex
	tables map[string]*stockTable
}

type stockTable struct {
	ctrl    *table.Controller[models.StockRow]
	applier *table.Applier[models.StockRow]
}

func NewStockService(client *platform.Client, pageCache *cache.PageCache, audit *events.AuditPublisher, logger *logrus.Logger, threshold int, timeout time.Duration, defaultPageSize, windowDelta int) *StockService {
	if threshold <= 0 {
		threshold = models.DefaultLowStockThreshold
	}
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	return &StockService{
		client:          client,
		cache:           pageCache,
		audit:           audit,
		logger:          logger,
		threshold:       threshold,
		timeout:         timeout,
		defaultPageSize: defaultPageSize,
		windowDelta:     windowDelta,
		tables:          make(map[string]*stockTable),
	}
}

func (s *StockService) tableFor(tenantID string) *stockTable {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tables[tenantID]; ok {
		return t
	}

	ctrl := table.NewController[models.StockRow](
		s.fetcher(tenantID),
		table.Params{Page: 1, PageSize: s.defaultPageSize},
		table.WithTimeout[models.StockRow](s.timeout),
		table.WithWindowDelta[models.StockRow](s.windowDelta),
		table.WithComparer[models.StockRow](compareStockRows),
		table.WithFilterText[models.StockRow](models.StockFilterText),
	)

	fields := map[string]table.FieldAccess[models.StockRow]{
		"quantity": {
			Get: func(r models.StockRow) interface{} { return r.Quantity },
			Set: func(r *models.StockRow, v interface{}) {
				qty := asInt(v)
				r.Quantity = qty
				r.Status = models.ClassifyStock(qty, s.threshold)
			},
		},
	}

	t := &stockTable{ctrl: ctrl, applier: table.NewApplier(ctrl, fields)}
	s.tables[tenantID] = t
	return t
}

// fetcher pages through products and projects each page into stock rows. Rows
// are rebuilt from the canonical records on every fetch; a product page with
// no stocked variants yields an empty table page.
func (s *StockService) fetcher(tenantID string) table.Fetcher[models.StockRow] {
	return func(ctx context.Context, p table.Params) (*table.PageResult[models.StockRow], error) {
		envelope := s.cache.GetPage(ctx, tenantID, stockResourceName, p.Page, p.PageSize, p.Search)
		if envelope == nil {
			creds := credentialsFrom(ctx)
			creds.TenantID = tenantID

			fetched, err := s.client.List(ctx, productsPath, platform.ListQuery{
				Page:   p.Page,
				Limit:  p.PageSize,
				Search: p.Search,
			}, creds)
			if err != nil {
				return nil, err
			}
			envelope = fetched
			s.cache.SetPage(ctx, tenantID, stockResourceName, p.Page, p.PageSize, p.Search, envelope)
		}

		products := make([]models.Product, 0, len(envelope.Data))
		for _, raw := range envelope.Data {
			var product models.Product
			if err := json.Unmarshal(raw, &product); err != nil {
				return nil, err
			}
			products = append(products, product)
		}

		return &table.PageResult[models.StockRow]{
			Records: models.ProjectStockRows(products, s.threshold),
			Total:   envelope.Total,
			Page:    envelope.Page,
			Limit:   envelope.Limit,
		}, nil
	}
}

// List merges paging parameters and returns the refreshed stock view.
func (s *StockService) List(ctx context.Context, tenantID string, patch table.ParamPatch) (table.View[models.StockRow], error) {
	t := s.tableFor(tenantID)
	if err := t.ctrl.SetParams(ctx, patch); err != nil && err != table.ErrStaleResponse {
		return t.ctrl.View(), err
	}
	return t.ctrl.View(), nil
}

// Refresh retries the last fetch.
func (s *StockService) Refresh(ctx context.Context, tenantID string) (table.View[models.StockRow], error) {
	t := s.tableFor(tenantID)
	if err := t.ctrl.Refresh(ctx); err != nil && err != table.ErrStaleResponse {
		return t.ctrl.View(), err
	}
	return t.ctrl.View(), nil
}

// View returns the current stock view without fetching.
func (s *StockService) View(tenantID string) table.View[models.StockRow] {
	return s.tableFor(tenantID).ctrl.View()
}

// AdjustQuantity applies an optimistic quantity edit to one inventory row,
// confirmed by a PUT against the inventory endpoint. Rollback restores both
// quantity and the derived status.
func (s *StockService) AdjustQuantity(ctx context.Context, tenantID, inventoryID string, quantity int) error {
	t := s.tableFor(tenantID)

	err := t.applier.ApplyFieldEdit(ctx, inventoryID, "quantity", quantity, func(ctx context.Context, key, field string, value interface{}) error {
		creds := credentialsFrom(ctx)
		creds.TenantID = tenantID
		return s.client.Update(ctx, inventoriesPath, key, map[string]interface{}{field: value}, creds)
	})

	if err != table.ErrEditInFlight {
		outcome := "success"
		if err != nil {
			outcome = "failed"
			s.logger.WithFields(logrus.Fields{
				"tenantId":    tenantID,
				"inventoryId": inventoryID,
				"quantity":    quantity,
			}).WithError(err).Warn("Quantity edit rolled back")
		}
		s.audit.PublishFieldEdit(ctx, tenantID, stockResourceName, inventoryID, "quantity", quantity, outcome)
	}
	if err == nil {
		s.cache.Invalidate(ctx, tenantID, stockResourceName)
	}
	return err
}

// ToggleSelect flips selection of one row.
func (s *StockService) ToggleSelect(tenantID, inventoryID string) []string {
	t := s.tableFor(tenantID)
	t.ctrl.ToggleSelect(inventoryID)
	return t.ctrl.Selected()
}

// ToggleSelectAll selects or clears the loaded page.
func (s *StockService) ToggleSelectAll(tenantID string) []string {
	t := s.tableFor(tenantID)
	t.ctrl.ToggleSelectAll()
	return t.ctrl.Selected()
}

// SortBy sets the page-local display order.
func (s *StockService) SortBy(tenantID, column string, descending bool) {
	s.tableFor(tenantID).ctrl.SortBy(column, descending)
}

// Filter sets the page-local search term.
func (s *StockService) Filter(tenantID, term string) {
	s.tableFor(tenantID).ctrl.GlobalFilter(term)
}

func compareStockRows(a, b models.StockRow, column string) int {
	switch column {
	case "quantity":
		return a.Quantity - b.Quantity
	case "sku":
		return strings.Compare(a.SKU, b.SKU)
	case "location":
		return strings.Compare(a.Location, b.Location)
	case "status":
		return strings.Compare(a.Status, b.Status)
	default:
		return strings.Compare(strings.ToLower(a.ProductName), strings.ToLower(b.ProductName))
	}
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
