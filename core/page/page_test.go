package page

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Stravanni/bdm/core/record"
)

func makeOrders(n int) []record.Order {
	orders := make([]record.Order, n)
	for i := range orders {
		orders[i] = record.Order{
			OrderID:    uint32(i + 1),
			CustomerID: uint32(i % 10),
			ProductID:  uint32(100 + i),
			Quantity:   1,
			PriceCents: uint32(1000 + i),
			OrderDate:  uint32(i % 730),
			Region:     uint32(i%10 + 1),
		}
	}
	return orders
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := New(3)
	for _, o := range makeOrders(5) {
		require.True(t, p.AddOrder(o))
	}

	data := p.Encode()
	require.Len(t, data, PageSize)

	got, err := Decode(3, data)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, p.Orders, got.Orders, "record order must survive the round trip")
}

func TestDecodeWrongLength(t *testing.T) {
	_, err := Decode(0, make([]byte, PageSize-1))
	require.ErrorIs(t, err, ErrInvalidPageSize)

	_, err = Decode(0, make([]byte, PageSize+1))
	require.ErrorIs(t, err, ErrInvalidPageSize)
}

func TestDecodeEmptyPage(t *testing.T) {
	got, err := Decode(7, make([]byte, PageSize))
	require.NoError(t, err)
	require.Empty(t, got.Orders)
}

func TestDecodeSkipsEmptySlots(t *testing.T) {
	p := New(0)
	orders := makeOrders(3)
	for _, o := range orders {
		p.AddOrder(o)
	}
	data := p.Encode()

	// Zero out the middle slot's id word: that slot becomes empty.
	for i := 0; i < record.RecordSize; i++ {
		data[record.RecordSize+i] = 0
	}

	got, err := Decode(0, data)
	require.NoError(t, err)
	require.Equal(t, []record.Order{orders[0], orders[2]}, got.Orders)
}

func TestCapacity(t *testing.T) {
	p := New(0)
	for _, o := range makeOrders(RecordsPerPage) {
		require.True(t, p.AddOrder(o))
	}
	require.True(t, p.IsFull())
	require.False(t, p.AddOrder(record.Order{OrderID: 9999}))
	require.Len(t, p.Orders, RecordsPerPage)
}

func TestPartialPageRoundTrip(t *testing.T) {
	p := New(12)
	p.AddOrder(record.Order{OrderID: 1, PriceCents: 500})

	got, err := Decode(12, p.Encode())
	require.NoError(t, err)
	require.Len(t, got.Orders, 1)
	require.Equal(t, uint32(1), got.Orders[0].OrderID)
}
