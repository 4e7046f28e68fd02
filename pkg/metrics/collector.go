// Package metrics exposes buffer-pool and disk statistics as Prometheus
// metrics. The collector reads counter snapshots on scrape, so the core
// stays free of metrics plumbing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Stravanni/bdm/core/buffer"
	"github.com/Stravanni/bdm/core/disk"
)

// Collector implements prometheus.Collector over a pool and its disk
// manager. All metrics are const metrics built from stats snapshots.
type Collector struct {
	pool *buffer.BufferPool
	disk *disk.DiskManager

	hits       *prometheus.Desc
	misses     *prometheus.Desc
	evictions  *prometheus.Desc
	framesUsed *prometheus.Desc
	framesFree *prometheus.Desc

	reads        *prometheus.Desc
	writes       *prometheus.Desc
	bytesRead    *prometheus.Desc
	bytesWritten *prometheus.Desc
	readSeconds  *prometheus.Desc
	writeSeconds *prometheus.Desc
}

// NewCollector builds a collector for the pool and the disk manager beneath
// it. Works for the tenant-aware pool too via its embedded BufferPool.
func NewCollector(pool *buffer.BufferPool) *Collector {
	poolLabels := prometheus.Labels{"policy": pool.Stats().Policy}
	return &Collector{
		pool: pool,
		disk: pool.Disk(),
		hits: prometheus.NewDesc("bdm_pool_hits_total",
			"Page requests served from the buffer pool.", nil, poolLabels),
		misses: prometheus.NewDesc("bdm_pool_misses_total",
			"Page requests that went to disk.", nil, poolLabels),
		evictions: prometheus.NewDesc("bdm_pool_evictions_total",
			"Pages evicted from the buffer pool.", nil, poolLabels),
		framesUsed: prometheus.NewDesc("bdm_pool_frames_used",
			"Frames currently holding a page.", nil, poolLabels),
		framesFree: prometheus.NewDesc("bdm_pool_frames_free",
			"Frames currently free.", nil, poolLabels),
		reads: prometheus.NewDesc("bdm_disk_reads_total",
			"Pages read from the backing file.", nil, nil),
		writes: prometheus.NewDesc("bdm_disk_writes_total",
			"Pages written to the backing file.", nil, nil),
		bytesRead: prometheus.NewDesc("bdm_disk_read_bytes_total",
			"Bytes read from the backing file.", nil, nil),
		bytesWritten: prometheus.NewDesc("bdm_disk_written_bytes_total",
			"Bytes written to the backing file.", nil, nil),
		readSeconds: prometheus.NewDesc("bdm_disk_read_seconds_total",
			"Cumulative wall time spent in page reads.", nil, nil),
		writeSeconds: prometheus.NewDesc("bdm_disk_write_seconds_total",
			"Cumulative wall time spent in page writes.", nil, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.framesUsed
	ch <- c.framesFree
	ch <- c.reads
	ch <- c.writes
	ch <- c.bytesRead
	ch <- c.bytesWritten
	ch <- c.readSeconds
	ch <- c.writeSeconds
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ps := c.pool.Stats()
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(ps.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(ps.Misses))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(ps.Evictions))
	ch <- prometheus.MustNewConstMetric(c.framesUsed, prometheus.GaugeValue, float64(ps.FramesUsed))
	ch <- prometheus.MustNewConstMetric(c.framesFree, prometheus.GaugeValue, float64(ps.FramesFree))

	ds := c.disk.Stats()
	ch <- prometheus.MustNewConstMetric(c.reads, prometheus.CounterValue, float64(ds.Reads))
	ch <- prometheus.MustNewConstMetric(c.writes, prometheus.CounterValue, float64(ds.Writes))
	ch <- prometheus.MustNewConstMetric(c.bytesRead, prometheus.CounterValue, float64(ds.BytesRead))
	ch <- prometheus.MustNewConstMetric(c.bytesWritten, prometheus.CounterValue, float64(ds.BytesWritten))
	ch <- prometheus.MustNewConstMetric(c.readSeconds, prometheus.CounterValue, ds.ReadTime.Seconds())
	ch <- prometheus.MustNewConstMetric(c.writeSeconds, prometheus.CounterValue, ds.WriteTime.Seconds())
}
