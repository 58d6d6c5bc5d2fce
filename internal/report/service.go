package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/chopchop-pos/order-engine/internal/menu"
	"github.com/chopchop-pos/order-engine/internal/money"
	"github.com/chopchop-pos/order-engine/internal/order"
)

const recentOrderLimit = 10

// DashboardStats backs the cashier dashboard. Revenue counts paid orders
// only, at their final (taxed) amount.
type DashboardStats struct {
	TodayRevenue   money.Money   `json:"today_revenue"`
	TodayOrders    int           `json:"today_orders"`
	PendingOrders  int           `json:"pending_orders"`
	AvailableMenus int           `json:"available_menus"`
	RecentOrders   []order.Order `json:"recent_orders"`
}

// ItemSales aggregates one menu item's sales over a report range.
type ItemSales struct {
	MenuID   uuid.UUID   `json:"menu_id"`
	Name     string      `json:"name"`
	Quantity int         `json:"quantity"`
	Revenue  money.Money `json:"revenue"`
}

// SalesReport summarizes a date range.
type SalesReport struct {
	From              time.Time   `json:"from"`
	To                time.Time   `json:"to"`
	TotalRevenue      money.Money `json:"total_revenue"`
	TotalOrders       int         `json:"total_orders"`
	PaidOrders        int         `json:"paid_orders"`
	AverageOrderValue money.Money `json:"average_order_value"`
	TopItems          []ItemSales `json:"top_items"`
}

// Service computes read-only sales statistics from the order store.
type Service struct {
	orders  order.Repository
	menus   menu.Repository
	taxRate decimal.Decimal
}

func NewService(orders order.Repository, menus menu.Repository, taxRate decimal.Decimal) *Service {
	return &Service{orders: orders, menus: menus, taxRate: taxRate}
}

func (s *Service) Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	orders, err := s.orders.ListByDateRange(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("report: failed to list today's orders: %w", err)
	}

	stats := &DashboardStats{TodayOrders: len(orders)}
	for i := range orders {
		o := &orders[i]
		if o.Status == order.StatusPending {
			stats.PendingOrders++
		}
		if o.PaymentStatus == order.PaymentPaid {
			stats.TodayRevenue = stats.TodayRevenue.Add(o.Totals(s.taxRate).Total)
		}
	}

	recent := orders
	if len(recent) > recentOrderLimit {
		recent = recent[:recentOrderLimit]
	}
	stats.RecentOrders = recent

	available, err := s.menus.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("report: failed to list available menus: %w", err)
	}
	stats.AvailableMenus = len(available)

	return stats, nil
}

func (s *Service) Sales(ctx context.Context, from, to time.Time) (*SalesReport, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("report: invalid range: %s is not before %s", from, to)
	}

	orders, err := s.orders.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("report: failed to list orders: %w", err)
	}

	rep := &SalesReport{From: from, To: to, TotalOrders: len(orders)}
	sales := make(map[uuid.UUID]*ItemSales)

	for i := range orders {
		o := &orders[i]
		if o.PaymentStatus != order.PaymentPaid {
			continue
		}
		rep.PaidOrders++
		rep.TotalRevenue = rep.TotalRevenue.Add(o.Totals(s.taxRate).Total)

		for _, line := range o.Lines {
			agg, ok := sales[line.MenuID]
			if !ok {
				agg = &ItemSales{MenuID: line.MenuID, Name: line.Name}
				sales[line.MenuID] = agg
			}
			agg.Quantity += line.Quantity
			agg.Revenue = agg.Revenue.Add(line.Subtotal())
		}
	}

	if rep.PaidOrders > 0 {
		avg := rep.TotalRevenue.Decimal().Div(decimal.NewFromInt(int64(rep.PaidOrders)))
		rep.AverageOrderValue = money.FromDecimal(avg)
	}

	rep.TopItems = make([]ItemSales, 0, len(sales))
	for _, agg := range sales {
		rep.TopItems = append(rep.TopItems, *agg)
	}
	sort.Slice(rep.TopItems, func(i, j int) bool {
		if rep.TopItems[i].Quantity != rep.TopItems[j].Quantity {
			return rep.TopItems[i].Quantity > rep.TopItems[j].Quantity
		}
		return rep.TopItems[i].Name < rep.TopItems[j].Name
	})

	return rep, nil
}
