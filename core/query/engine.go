// Package query implements the analytic queries that drive the storage
// layer: full-table scans feeding revenue, customer, product and regional
// aggregations. The same engine runs naively against disk or through the
// buffer pool, which is what makes the pool's effect measurable.
package query

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Stravanni/bdm/core/disk"
	"github.com/Stravanni/bdm/core/page"
	"github.com/Stravanni/bdm/core/record"
)

// PageSource produces pages by id. *buffer.BufferPool satisfies it directly;
// DiskSource adapts the disk manager for the unbuffered baseline.
type PageSource interface {
	GetPage(id page.PageID) (*page.Page, error)
}

// DiskSource reads every page straight from disk, with no caching. It exists
// to demonstrate the workload the buffer pool eliminates.
type DiskSource struct {
	dm *disk.DiskManager
}

func NewDiskSource(dm *disk.DiskManager) *DiskSource {
	return &DiskSource{dm: dm}
}

func (s *DiskSource) GetPage(id page.PageID) (*page.Page, error) {
	return s.dm.ReadPage(id)
}

// CustomerSpend is one row of the top-customers ranking.
type CustomerSpend struct {
	CustomerID uint32
	Total      float64
}

// ProductSales is one row of the product-popularity ranking.
type ProductSales struct {
	ProductID uint32
	Quantity  uint64
}

// RegionStats aggregates sales for one region.
type RegionStats struct {
	Revenue       float64
	OrderCount    int
	AvgOrderValue float64
}

// Engine runs the analytic queries over a fixed number of pages. Every query
// performs its own full scan, the repeated-read pattern the buffer pool is
// built for.
type Engine struct {
	source   PageSource
	numPages int64
	logger   *zap.Logger
}

func NewEngine(source PageSource, numPages int64, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{source: source, numPages: numPages, logger: logger}
}

// FullTableScan reads every page in order and returns all orders.
func (e *Engine) FullTableScan() ([]record.Order, error) {
	start := time.Now()
	var orders []record.Order
	for id := page.PageID(0); int64(id) < e.numPages; id++ {
		p, err := e.source.GetPage(id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, p.Orders...)
	}
	e.logger.Debug("full table scan",
		zap.Int64("pages", e.numPages),
		zap.Int("orders", len(orders)),
		zap.Duration("elapsed", time.Since(start)))
	return orders, nil
}

// MonthlyRevenue sums revenue per 30-day bucket of the order date.
func (e *Engine) MonthlyRevenue() (map[uint32]float64, error) {
	orders, err := e.FullTableScan()
	if err != nil {
		return nil, err
	}
	revenue := make(map[uint32]float64)
	for _, o := range orders {
		revenue[o.OrderDate/30] += o.Price()
	}
	return revenue, nil
}

// TopCustomers ranks customers by total spending, descending, ties broken by
// customer id for determinism.
func (e *Engine) TopCustomers(limit int) ([]CustomerSpend, error) {
	orders, err := e.FullTableScan()
	if err != nil {
		return nil, err
	}
	spending := make(map[uint32]float64)
	for _, o := range orders {
		spending[o.CustomerID] += o.Price()
	}
	ranked := make([]CustomerSpend, 0, len(spending))
	for id, total := range spending {
		ranked = append(ranked, CustomerSpend{CustomerID: id, Total: total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		return ranked[i].CustomerID < ranked[j].CustomerID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// TopProducts ranks products by total quantity sold, descending, ties broken
// by product id.
func (e *Engine) TopProducts(limit int) ([]ProductSales, error) {
	orders, err := e.FullTableScan()
	if err != nil {
		return nil, err
	}
	sales := make(map[uint32]uint64)
	for _, o := range orders {
		sales[o.ProductID] += uint64(o.Quantity)
	}
	ranked := make([]ProductSales, 0, len(sales))
	for id, qty := range sales {
		ranked = append(ranked, ProductSales{ProductID: id, Quantity: qty})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Quantity != ranked[j].Quantity {
			return ranked[i].Quantity > ranked[j].Quantity
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// RegionalSales aggregates revenue, order count and average order value per
// region.
func (e *Engine) RegionalSales() (map[uint32]RegionStats, error) {
	orders, err := e.FullTableScan()
	if err != nil {
		return nil, err
	}
	regions := make(map[uint32]RegionStats)
	for _, o := range orders {
		rs := regions[o.Region]
		rs.Revenue += o.Price()
		rs.OrderCount++
		regions[o.Region] = rs
	}
	for region, rs := range regions {
		rs.AvgOrderValue = rs.Revenue / float64(rs.OrderCount)
		regions[region] = rs
	}
	return regions, nil
}
