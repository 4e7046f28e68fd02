package record

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// RecordSize is the fixed on-disk width of one serialized Order: eight
// little-endian uint32 words, the last of which is reserved padding.
const RecordSize = 32

// ErrCorruptRecord reports a slot whose bytes cannot be decoded as an Order.
// Callers recover by skipping the slot; the surrounding page stays valid.
var ErrCorruptRecord = errors.New("corrupt order record")

// Order is a single fixed-width row of the order table.
//
// OrderID 0 is reserved as the empty-slot marker inside a page, so a real
// order must never carry id 0. Prices are held in integer cents so the codec
// round-trips exactly.
type Order struct {
	OrderID    uint32
	CustomerID uint32
	ProductID  uint32
	Quantity   uint32
	PriceCents uint32
	OrderDate  uint32 // days since the dataset epoch
	Region     uint32
}

// Price returns the order amount in currency units. Reporting only; the
// canonical value is PriceCents.
func (o Order) Price() float64 {
	return float64(o.PriceCents) / 100.0
}

// Encode serializes the order into its fixed 32-byte representation.
func (o Order) Encode() []byte {
	buf := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(buf[0:4], o.OrderID)
	binary.LittleEndian.PutUint32(buf[4:8], o.CustomerID)
	binary.LittleEndian.PutUint32(buf[8:12], o.ProductID)
	binary.LittleEndian.PutUint32(buf[12:16], o.Quantity)
	binary.LittleEndian.PutUint32(buf[16:20], o.PriceCents)
	binary.LittleEndian.PutUint32(buf[20:24], o.OrderDate)
	binary.LittleEndian.PutUint32(buf[24:28], o.Region)
	// buf[28:32] stays zero: reserved padding word
	return buf
}

// Decode reconstructs an Order from a 32-byte slot.
func Decode(data []byte) (Order, error) {
	if len(data) < RecordSize {
		return Order{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrCorruptRecord, RecordSize, len(data))
	}
	return Order{
		OrderID:    binary.LittleEndian.Uint32(data[0:4]),
		CustomerID: binary.LittleEndian.Uint32(data[4:8]),
		ProductID:  binary.LittleEndian.Uint32(data[8:12]),
		Quantity:   binary.LittleEndian.Uint32(data[12:16]),
		PriceCents: binary.LittleEndian.Uint32(data[16:20]),
		OrderDate:  binary.LittleEndian.Uint32(data[20:24]),
		Region:     binary.LittleEndian.Uint32(data[24:28]),
	}, nil
}

func (o Order) String() string {
	return fmt.Sprintf("Order(id=%d, customer=%d, product=%d, price=$%.2f)",
		o.OrderID, o.CustomerID, o.ProductID, o.Price())
}
