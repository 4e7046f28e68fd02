// Package disk implements the paged storage layer: seek-based whole-page
// reads and writes against a flat backing file, with real I/O timing and
// throughput accounting.
package disk

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Stravanni/bdm/core/page"
)

var (
	// ErrPageNotFound reports a read beyond the current file extent. It is a
	// result, not a failure: the page simply does not exist yet.
	ErrPageNotFound = errors.New("page not found")
	// ErrIO wraps seek/read/write/sync failures. Never retried internally;
	// retry policy belongs to the caller.
	ErrIO = errors.New("i/o error")
)

// DiskManager performs page-granular I/O against a single backing file.
//
// The file is opened per operation rather than held open, so every call is
// self-contained and the file may grow between writes. Writes are synced to
// durable storage before returning, so the recorded timings reflect device
// latency rather than OS buffering.
type DiskManager struct {
	path   string
	logger *zap.Logger
	stats  Stats
}

// NewDiskManager prepares a manager for the given file, creating it empty if
// it does not exist yet.
func NewDiskManager(path string, logger *zap.Logger) (*DiskManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing %s: %v", ErrIO, path, err)
	}
	logger.Info("disk manager initialized", zap.String("path", path))
	return &DiskManager{path: path, logger: logger}, nil
}

// Path returns the backing file path.
func (dm *DiskManager) Path() string { return dm.path }

// NumPages reports how many whole pages the backing file currently holds.
func (dm *DiskManager) NumPages() (int64, error) {
	fi, err := os.Stat(dm.path)
	if err != nil {
		return 0, fmt.Errorf("%w: stating %s: %v", ErrIO, dm.path, err)
	}
	return fi.Size() / page.PageSize, nil
}

// ReadPage reads and decodes the page at the given id. A short read (page
// beyond EOF, truncated file) yields ErrPageNotFound rather than a partial
// page.
func (dm *DiskManager) ReadPage(id page.PageID) (*page.Page, error) {
	if id < 0 {
		return nil, fmt.Errorf("%w: negative page id %d", ErrIO, id)
	}
	start := time.Now()

	f, err := os.Open(dm.path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrIO, dm.path, err)
	}
	defer f.Close()

	buf := make([]byte, page.PageSize)
	if _, err := f.ReadAt(buf, int64(id)*page.PageSize); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: page %d beyond end of file", ErrPageNotFound, id)
		}
		return nil, fmt.Errorf("%w: reading page %d: %v", ErrIO, id, err)
	}

	p, err := page.Decode(id, buf)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	dm.stats.Reads++
	dm.stats.BytesRead += page.PageSize
	dm.stats.ReadTime += elapsed
	dm.logger.Debug("disk read",
		zap.Int64("page", int64(id)),
		zap.Int("orders", len(p.Orders)),
		zap.Duration("elapsed", elapsed))
	return p, nil
}

// WritePage serializes the page and writes it at its offset. If the file is
// shorter than required the gap is zero-extended first, since pages may be
// written out of order. The write is flushed and synced before returning.
func (dm *DiskManager) WritePage(p *page.Page) error {
	if p.ID < 0 {
		return fmt.Errorf("%w: negative page id %d", ErrIO, p.ID)
	}
	start := time.Now()

	f, err := os.OpenFile(dm.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrIO, dm.path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stating %s: %v", ErrIO, dm.path, err)
	}
	required := (int64(p.ID) + 1) * page.PageSize
	if fi.Size() < required {
		if err := f.Truncate(required); err != nil {
			return fmt.Errorf("%w: extending file for page %d: %v", ErrIO, p.ID, err)
		}
	}

	if _, err := f.WriteAt(p.Encode(), int64(p.ID)*page.PageSize); err != nil {
		return fmt.Errorf("%w: writing page %d: %v", ErrIO, p.ID, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: syncing page %d: %v", ErrIO, p.ID, err)
	}

	elapsed := time.Since(start)
	dm.stats.Writes++
	dm.stats.BytesWritten += page.PageSize
	dm.stats.WriteTime += elapsed
	dm.logger.Debug("disk write",
		zap.Int64("page", int64(p.ID)),
		zap.Duration("elapsed", elapsed))
	return nil
}

// Stats returns a snapshot of the accumulated I/O counters.
func (dm *DiskManager) Stats() Stats { return dm.stats }

// ResetStats zeroes all I/O counters for a clean measurement.
func (dm *DiskManager) ResetStats() {
	dm.stats = Stats{}
	dm.logger.Debug("disk statistics reset")
}
