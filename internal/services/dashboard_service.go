package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"admin-gateway-service/internal/models"
	"admin-gateway-service/internal/platform"
)

const dashboardSamplePages = 5

// SalesSummary is the dashboard aggregate over recent orders.
type SalesSummary struct {
	TotalOrders    int64              `json:"totalOrders"`
	SampledOrders  int                `json:"sampledOrders"`
	TotalRevenue   float64            `json:"totalRevenue"`
	OrdersByStatus map[string]int     `json:"ordersByStatus"`
	RevenueByDay   map[string]float64 `json:"revenueByDay"`
}

// DashboardService aggregates recent order pages into the sales dashboard.
type DashboardService struct {
	client   *platform.Client
	logger   *logrus.Logger
	pageSize int
}

func NewDashboardService(client *platform.Client, logger *logrus.Logger, pageSize int) *DashboardService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &DashboardService{client: client, logger: logger, pageSize: pageSize}
}

// SalesSummary walks the most recent order pages and aggregates revenue and
// status counts. The sample is bounded; TotalOrders still reflects the
// upstream total across all pages.
func (s *DashboardService) SalesSummary(ctx context.Context, creds platform.Credentials) (*SalesSummary, error) {
	summary := &SalesSummary{
		OrdersByStatus: make(map[string]int),
		RevenueByDay:   make(map[string]float64),
	}

	for page := 1; page <= dashboardSamplePages; page++ {
		envelope, err := s.client.List(ctx, "/api/v1/orders", platform.ListQuery{
			Page:  page,
			Limit: s.pageSize,
		}, creds)
		if err != nil {
			return nil, err
		}
		summary.TotalOrders = envelope.Total

		rows, err := models.DecodeRows(envelope.Data, "order_id")
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			summary.SampledOrders++

			if status, ok := row.Field("status").(string); ok {
				summary.OrdersByStatus[status]++
			}
			if amount, ok := row.Field("total_amount").(float64); ok {
				summary.TotalRevenue += amount
				if created, ok := row.Field("created_at").(string); ok && len(created) >= 10 {
					summary.RevenueByDay[created[:10]] += amount
				}
			}
		}

		if int64(page*s.pageSize) >= envelope.Total {
			break
		}
	}

	s.logger.WithFields(logrus.Fields{
		"tenantId":      creds.TenantID,
		"sampledOrders": summary.SampledOrders,
		"totalOrders":   summary.TotalOrders,
	}).Debug("Aggregated sales summary")

	return summary, nil
}
