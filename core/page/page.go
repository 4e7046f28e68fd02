package page

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Stravanni/bdm/core/record"
)

const (
	// PageSize is the fixed unit of disk I/O.
	PageSize = 4096
	// RecordsPerPage is how many order slots fit in one page.
	RecordsPerPage = PageSize / record.RecordSize
)

// PageID identifies a page within the backing file. Page i occupies byte
// range [i*PageSize, (i+1)*PageSize). IDs are non-negative; InvalidPageID
// marks the absence of a page.
type PageID int64

const InvalidPageID PageID = -1

// ErrInvalidPageSize reports a decode input whose length is not exactly
// PageSize. Fatal to that decode call.
var ErrInvalidPageSize = errors.New("invalid page size")

// Page is an ordered sequence of up to RecordsPerPage orders. A page has no
// intrinsic ownership: the durable copy lives in the backing file and an
// in-memory copy belongs to whichever buffer frame currently caches it.
type Page struct {
	ID     PageID
	Orders []record.Order
}

func New(id PageID) *Page {
	return &Page{ID: id}
}

// AddOrder appends an order to the page. Returns false when the page is full.
func (p *Page) AddOrder(o record.Order) bool {
	if p.IsFull() {
		return false
	}
	p.Orders = append(p.Orders, o)
	return true
}

func (p *Page) IsFull() bool {
	return len(p.Orders) >= RecordsPerPage
}

// Encode serializes the page to exactly PageSize bytes: slot i at offset
// i*RecordSize, unused slots zero-filled.
func (p *Page) Encode() []byte {
	data := make([]byte, PageSize)
	for i, o := range p.Orders {
		copy(data[i*record.RecordSize:], o.Encode())
	}
	return data
}

// Decode reconstructs a page from PageSize bytes read from disk. A slot
// whose leading id word is zero is empty and skipped; a slot that fails to
// decode is skipped as corrupt without failing the page. Record order is
// preserved.
func Decode(id PageID, data []byte) (*Page, error) {
	if len(data) != PageSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPageSize, PageSize, len(data))
	}
	p := New(id)
	for i := 0; i < RecordsPerPage; i++ {
		slot := data[i*record.RecordSize : (i+1)*record.RecordSize]
		if binary.LittleEndian.Uint32(slot[:4]) == 0 {
			continue // empty slot
		}
		o, err := record.Decode(slot)
		if err != nil {
			continue // corrupt slot, recover by skipping
		}
		p.Orders = append(p.Orders, o)
	}
	return p, nil
}

func (p *Page) String() string {
	return fmt.Sprintf("Page(id=%d, orders=%d/%d)", p.ID, len(p.Orders), RecordsPerPage)
}
