package disk

import "time"

// Stats accumulates disk I/O counters. Values are totals since construction
// or the last ResetStats.
type Stats struct {
	Reads        uint64
	Writes       uint64
	BytesRead    uint64
	BytesWritten uint64
	ReadTime     time.Duration
	WriteTime    time.Duration
}

// TotalIOTime is the cumulative wall time spent in reads and writes.
func (s Stats) TotalIOTime() time.Duration {
	return s.ReadTime + s.WriteTime
}

// AvgReadTime is the mean latency of a page read, zero if none happened.
func (s Stats) AvgReadTime() time.Duration {
	if s.Reads == 0 {
		return 0
	}
	return s.ReadTime / time.Duration(s.Reads)
}

// AvgWriteTime is the mean latency of a page write, zero if none happened.
func (s Stats) AvgWriteTime() time.Duration {
	if s.Writes == 0 {
		return 0
	}
	return s.WriteTime / time.Duration(s.Writes)
}

// ReadThroughputMBps is read throughput in MB/s over the measured read time.
func (s Stats) ReadThroughputMBps() float64 {
	if s.ReadTime <= 0 {
		return 0
	}
	return float64(s.BytesRead) / (1024 * 1024) / s.ReadTime.Seconds()
}

// WriteThroughputMBps is write throughput in MB/s over the measured write time.
func (s Stats) WriteThroughputMBps() float64 {
	if s.WriteTime <= 0 {
		return 0
	}
	return float64(s.BytesWritten) / (1024 * 1024) / s.WriteTime.Seconds()
}
