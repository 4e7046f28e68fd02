package metrics

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Stravanni/bdm/core/buffer"
	"github.com/Stravanni/bdm/core/disk"
	"github.com/Stravanni/bdm/core/page"
	"github.com/Stravanni/bdm/core/record"
)

func setupCollector(t *testing.T) (*Collector, *buffer.BufferPool) {
	t.Helper()
	dm, err := disk.NewDiskManager(filepath.Join(t.TempDir(), "orders.db"), zap.NewNop())
	require.NoError(t, err)

	p := page.New(0)
	p.AddOrder(record.Order{OrderID: 1, Quantity: 1, PriceCents: 100, Region: 1})
	require.NoError(t, dm.WritePage(p))
	dm.ResetStats()

	pool := buffer.NewBufferPool(dm, 2, buffer.NewLRUPolicy(), zap.NewNop())
	return NewCollector(pool), pool
}

// metricValue gathers the collector's output and returns the named metric's
// current value.
func metricValue(t *testing.T, c *Collector, name string) float64 {
	t.Helper()
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		require.Len(t, fam.GetMetric(), 1)
		m := fam.GetMetric()[0]
		if m.GetCounter() != nil {
			return m.GetCounter().GetValue()
		}
		return m.GetGauge().GetValue()
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestCollectorRegisters(t *testing.T) {
	c, _ := setupCollector(t)
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 11)
}

func TestCollectorTracksPoolActivity(t *testing.T) {
	c, pool := setupCollector(t)

	_, err := pool.GetPage(0)
	require.NoError(t, err)
	_, err = pool.GetPage(0)
	require.NoError(t, err)

	require.InDelta(t, 1, metricValue(t, c, "bdm_pool_hits_total"), 1e-9)
	require.InDelta(t, 1, metricValue(t, c, "bdm_pool_misses_total"), 1e-9)
	require.InDelta(t, 1, metricValue(t, c, "bdm_disk_reads_total"), 1e-9)
	require.InDelta(t, 1, metricValue(t, c, "bdm_pool_frames_used"), 1e-9)
	require.InDelta(t, 1, metricValue(t, c, "bdm_pool_frames_free"), 1e-9)
}
