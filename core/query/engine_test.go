package query

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Stravanni/bdm/core/buffer"
	"github.com/Stravanni/bdm/core/disk"
	"github.com/Stravanni/bdm/core/page"
	"github.com/Stravanni/bdm/core/record"
)

// setupDatabase writes a small hand-built dataset across two pages and
// returns a disk manager over it.
func setupDatabase(t *testing.T) (*disk.DiskManager, int64) {
	t.Helper()
	dm, err := disk.NewDiskManager(filepath.Join(t.TempDir(), "orders.db"), zap.NewNop())
	require.NoError(t, err)

	orders := []record.Order{
		{OrderID: 1, CustomerID: 1, ProductID: 10, Quantity: 2, PriceCents: 10_000, OrderDate: 5, Region: 1},
		{OrderID: 2, CustomerID: 2, ProductID: 10, Quantity: 1, PriceCents: 20_000, OrderDate: 35, Region: 1},
		{OrderID: 3, CustomerID: 1, ProductID: 11, Quantity: 5, PriceCents: 1_000, OrderDate: 40, Region: 2},
		{OrderID: 4, CustomerID: 3, ProductID: 12, Quantity: 1, PriceCents: 50_000, OrderDate: 65, Region: 2},
	}

	p0 := page.New(0)
	p0.AddOrder(orders[0])
	p0.AddOrder(orders[1])
	p1 := page.New(1)
	p1.AddOrder(orders[2])
	p1.AddOrder(orders[3])
	require.NoError(t, dm.WritePage(p0))
	require.NoError(t, dm.WritePage(p1))
	dm.ResetStats()
	return dm, 2
}

func TestFullTableScan(t *testing.T) {
	dm, numPages := setupDatabase(t)
	e := NewEngine(NewDiskSource(dm), numPages, zap.NewNop())

	orders, err := e.FullTableScan()
	require.NoError(t, err)
	require.Len(t, orders, 4)
	require.Equal(t, uint32(1), orders[0].OrderID)
	require.Equal(t, uint32(4), orders[3].OrderID)
}

func TestMonthlyRevenue(t *testing.T) {
	dm, numPages := setupDatabase(t)
	e := NewEngine(NewDiskSource(dm), numPages, zap.NewNop())

	revenue, err := e.MonthlyRevenue()
	require.NoError(t, err)

	// Days 5 -> month 0, days 35 and 40 -> month 1, day 65 -> month 2.
	require.InDelta(t, 100.00, revenue[0], 1e-9)
	require.InDelta(t, 200.00+10.00, revenue[1], 1e-9)
	require.InDelta(t, 500.00, revenue[2], 1e-9)
}

func TestTopCustomers(t *testing.T) {
	dm, numPages := setupDatabase(t)
	e := NewEngine(NewDiskSource(dm), numPages, zap.NewNop())

	top, err := e.TopCustomers(2)
	require.NoError(t, err)
	require.Len(t, top, 2)

	// Customer 3 spent $500, customer 2 $200, customer 1 $110.
	require.Equal(t, uint32(3), top[0].CustomerID)
	require.InDelta(t, 500.00, top[0].Total, 1e-9)
	require.Equal(t, uint32(2), top[1].CustomerID)
}

func TestTopProducts(t *testing.T) {
	dm, numPages := setupDatabase(t)
	e := NewEngine(NewDiskSource(dm), numPages, zap.NewNop())

	top, err := e.TopProducts(0)
	require.NoError(t, err)
	require.Len(t, top, 3)

	// Product 11 sold 5 units, product 10 sold 3, product 12 sold 1.
	require.Equal(t, ProductSales{ProductID: 11, Quantity: 5}, top[0])
	require.Equal(t, ProductSales{ProductID: 10, Quantity: 3}, top[1])
	require.Equal(t, ProductSales{ProductID: 12, Quantity: 1}, top[2])
}

func TestRegionalSales(t *testing.T) {
	dm, numPages := setupDatabase(t)
	e := NewEngine(NewDiskSource(dm), numPages, zap.NewNop())

	regions, err := e.RegionalSales()
	require.NoError(t, err)
	require.Len(t, regions, 2)

	r1 := regions[1]
	require.InDelta(t, 300.00, r1.Revenue, 1e-9)
	require.Equal(t, 2, r1.OrderCount)
	require.InDelta(t, 150.00, r1.AvgOrderValue, 1e-9)

	r2 := regions[2]
	require.InDelta(t, 510.00, r2.Revenue, 1e-9)
	require.Equal(t, 2, r2.OrderCount)
	require.InDelta(t, 255.00, r2.AvgOrderValue, 1e-9)
}

// TestBufferedEngineMatchesNaive runs the same queries through the buffer
// pool and verifies identical results with less disk traffic.
func TestBufferedEngineMatchesNaive(t *testing.T) {
	dm, numPages := setupDatabase(t)

	naive := NewEngine(NewDiskSource(dm), numPages, zap.NewNop())
	wantCustomers, err := naive.TopCustomers(0)
	require.NoError(t, err)
	wantRevenue, err := naive.MonthlyRevenue()
	require.NoError(t, err)
	naiveReads := dm.Stats().Reads
	dm.ResetStats()

	pool := buffer.NewBufferPool(dm, 4, buffer.NewLRUPolicy(), zap.NewNop())
	buffered := NewEngine(pool, numPages, zap.NewNop())
	gotCustomers, err := buffered.TopCustomers(0)
	require.NoError(t, err)
	gotRevenue, err := buffered.MonthlyRevenue()
	require.NoError(t, err)

	require.Equal(t, wantCustomers, gotCustomers)
	require.Equal(t, wantRevenue, gotRevenue)
	require.Less(t, dm.Stats().Reads, naiveReads, "the pool must absorb repeated scans")
	require.Positive(t, pool.Stats().Hits)
}
