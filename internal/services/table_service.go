// Package services wires the table engine to the platform API, the page
// cache, and the audit trail.
package services

import (
	"context"
	"fmt"
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

type credsKey struct{}

// WithCredentials attaches the caller's upstream identity to the context so
// fetches issued by a shared controller carry the right session.
func WithCredentials(ctx context.Context, creds platform.Credentials) context.Context {
	return context.WithValue(ctx, credsKey{}, creds)
}

func credentialsFrom(ctx context.Context) platform.Credentials {
	if creds, ok := ctx.Value(credsKey{}).(platform.Credentials); ok {
		return creds
	}
	return platform.Credentials{}
}

// TableService owns one table controller per (tenant, resource) pair. Each
// controller holds the canonical record set for its screen; the service
// routes list, edit, delete and selection calls to the right instance.
type TableService struct {
	client  *platform.Client
	cache   *cache.PageCache
	audit   *events.AuditPublisher
	logger  *logrus.Logger
	timeout time.Duration

	defaultPageSize int
	maxPageSize     int
	windowDelta     int

	mu     sync.Mutex
	tables map[string]*resourceTable
}

type resourceTable struct {
	desc    models.ResourceDescriptor
	ctrl    *table.Controller[models.Row]
	applier *table.Applier[models.Row]
}

func NewTableService(client *platform.Client, pageCache *cache.PageCache, audit *events.AuditPublisher, logger *logrus.Logger, timeout time.Duration, defaultPageSize, maxPageSize, windowDelta int) *TableService {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &TableService{
		client:          client,
		cache:           pageCache,
		audit:           audit,
		logger:          logger,
		timeout:         timeout,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		windowDelta:     windowDelta,
		tables:          make(map[string]*resourceTable),
	}
}

// ClampPageSize bounds a requested page size to the configured maximum.
func (s *TableService) ClampPageSize(size int) int {
	if size <= 0 {
		return s.defaultPageSize
	}
	if size > s.maxPageSize {
		return s.maxPageSize
	}
	return size
}

func (s *TableService) tableFor(tenantID string, desc models.ResourceDescriptor) *resourceTable {
	key := tenantID + "/" + desc.Name
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tables[key]; ok {
		return t
	}

	ctrl := table.NewController[models.Row](
		s.fetcher(tenantID, desc),
		table.Params{Page: 1, PageSize: s.defaultPageSize},
		table.WithTimeout[models.Row](s.timeout),
		table.WithWindowDelta[models.Row](s.windowDelta),
		table.WithComparer[models.Row](compareRowField),
		table.WithFilterText[models.Row](rowFilterText(desc.SearchFields)),
	)

	fields := make(map[string]table.FieldAccess[models.Row], len(desc.Editable))
	for _, f := range desc.Editable {
		field := f
		fields[field] = table.FieldAccess[models.Row]{
			Get: func(r models.Row) interface{} { return r.Field(field) },
			Set: func(r *models.Row, v interface{}) { r.SetField(field, v) },
		}
	}

	t := &resourceTable{
		desc:    desc,
		ctrl:    ctrl,
		applier: table.NewApplier(ctrl, fields),
	}
	s.tables[key] = t
	return t
}

// fetcher builds the list fetch for one (tenant, resource) table, consulting
// the page cache before going upstream.
func (s *TableService) fetcher(tenantID string, desc models.ResourceDescriptor) table.Fetcher[models.Row] {
	return func(ctx context.Context, p table.Params) (*table.PageResult[models.Row], error) {
		envelope := s.cache.GetPage(ctx, tenantID, desc.Name, p.Page, p.PageSize, p.Search)
		if envelope == nil {
			creds := credentialsFrom(ctx)
			creds.TenantID = tenantID

			fetched, err := s.client.List(ctx, desc.Path, platform.ListQuery{
				Page:   p.Page,
				Limit:  p.PageSize,
				Search: p.Search,
			}, creds)
			if err != nil {
				return nil, err
			}
			envelope = fetched
			s.cache.SetPage(ctx, tenantID, desc.Name, p.Page, p.PageSize, p.Search, envelope)
		}

		rows, err := models.DecodeRows(envelope.Data, desc.IDField)
		if err != nil {
			return nil, err
		}
		return &table.PageResult[models.Row]{
			Records: rows,
			Total:   envelope.Total,
			Page:    envelope.Page,
			Limit:   envelope.Limit,
		}, nil
	}
}

// List merges the request's paging parameters into the resource's controller
// and returns the refreshed view. A stale superseded fetch is not an error;
// the newer request's view stands.
func (s *TableService) List(ctx context.Context, tenantID string, desc models.ResourceDescriptor, patch table.ParamPatch) (table.View[models.Row], error) {
	t := s.tableFor(tenantID, desc)
	if err := t.ctrl.SetParams(ctx, patch); err != nil && err != table.ErrStaleResponse {
		return t.ctrl.View(), err
	}
	return t.ctrl.View(), nil
}

// Refresh retries the last fetch for one table.
func (s *TableService) Refresh(ctx context.Context, tenantID string, desc models.ResourceDescriptor) (table.View[models.Row], error) {
	t := s.tableFor(tenantID, desc)
	if err := t.ctrl.Refresh(ctx); err != nil && err != table.ErrStaleResponse {
		return t.ctrl.View(), err
	}
	return t.ctrl.View(), nil
}

// View returns the current view without fetching.
func (s *TableService) View(tenantID string, desc models.ResourceDescriptor) table.View[models.Row] {
	return s.tableFor(tenantID, desc).ctrl.View()
}

// EditField applies an optimistic inline edit backed by a real upstream PUT.
// On upstream failure the cell is rolled back and the error returned.
func (s *TableService) EditField(ctx context.Context, tenantID string, desc models.ResourceDescriptor, recordID, field string, value interface{}) error {
	if !desc.EditableField(field) {
		return fmt.Errorf("field %q of %s is not editable", field, desc.Name)
	}
	t := s.tableFor(tenantID, desc)

	err := t.applier.ApplyFieldEdit(ctx, recordID, field, value, func(ctx context.Context, key, field string, value interface{}) error {
		creds := credentialsFrom(ctx)
		creds.TenantID = tenantID
		return s.client.Update(ctx, desc.Path, key, map[string]interface{}{field: value}, creds)
	})

	if err != table.ErrEditInFlight {
		outcome := "success"
		if err != nil {
			outcome = "failed"
			s.logger.WithFields(logrus.Fields{
				"tenantId": tenantID,
				"resource": desc.Name,
				"recordId": recordID,
				"field":    field,
			}).WithError(err).Warn("Inline edit rolled back")
		}
		s.audit.PublishFieldEdit(ctx, tenantID, desc.Name, recordID, field, value, outcome)
	}
	if err == nil {
		s.cache.Invalidate(ctx, tenantID, desc.Name)
	}
	return err
}

// BulkDelete removes the given records upstream, then locally.
func (s *TableService) BulkDelete(ctx context.Context, tenantID string, desc models.ResourceDescriptor, ids []string) error {
	t := s.tableFor(tenantID, desc)

	err := t.applier.ApplyBulkDelete(ctx, ids, func(ctx context.Context, keys []string) error {
		creds := credentialsFrom(ctx)
		creds.TenantID = tenantID
		return s.client.BulkDelete(ctx, desc.Path, keys, creds)
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"tenantId": tenantID,
		"resource": desc.Name,
		"count":    len(ids),
	}).Info("Bulk delete completed")
	s.audit.PublishBulkDelete(ctx, tenantID, desc.Name, ids, "success")
	s.cache.Invalidate(ctx, tenantID, desc.Name)
	return nil
}

// ToggleSelect flips selection of one record.
func (s *TableService) ToggleSelect(tenantID string, desc models.ResourceDescriptor, recordID string) []string {
	t := s.tableFor(tenantID, desc)
	t.ctrl.ToggleSelect(recordID)
	return t.ctrl.Selected()
}

// ToggleSelectAll selects or clears the loaded page.
func (s *TableService) ToggleSelectAll(tenantID string, desc models.ResourceDescriptor) []string {
	t := s.tableFor(tenantID, desc)
	t.ctrl.ToggleSelectAll()
	return t.ctrl.Selected()
}

// ClearSelection empties the selection.
func (s *TableService) ClearSelection(tenantID string, desc models.ResourceDescriptor) {
	s.tableFor(tenantID, desc).ctrl.ClearSelection()
}

// SortBy sets the page-local display order.
func (s *TableService) SortBy(tenantID string, desc models.ResourceDescriptor, column string, descending bool) {
	s.tableFor(tenantID, desc).ctrl.SortBy(column, descending)
}

// Filter sets the page-local search term.
func (s *TableService) Filter(tenantID string, desc models.ResourceDescriptor, term string) {
	s.tableFor(tenantID, desc).ctrl.GlobalFilter(term)
}

// compareRowField orders generic rows by one field, numbers before strings.
func compareRowField(a, b models.Row, column string) int {
	av, bv := a.Field(column), b.Field(column)

	an, aNum := av.(float64)
	bn, bNum := bv.(float64)
	if aNum && bNum {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(
		strings.ToLower(fmt.Sprintf("%v", av)),
		strings.ToLower(fmt.Sprintf("%v", bv)),
	)
}

// rowFilterText concatenates the descriptor's search fields into the string
// the page-local filter matches against.
func rowFilterText(fields []string) func(models.Row) string {
	return func(r models.Row) string {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			if v := r.Field(f); v != nil {
				parts = append(parts, fmt.Sprintf("%v", v))
			}
		}
		return strings.Join(parts, " ")
	}
}
