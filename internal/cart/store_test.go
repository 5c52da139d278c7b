package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fjod/go_bazar/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

type memorySlot struct {
	m     sync.Mutex
	data  []byte
	saves int
	err   error
}

func (s *memorySlot) Load(context.Context) ([]byte, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.data == nil {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), s.data...), nil
}

func (s *memorySlot) Save(_ context.Context, data []byte) error {
	s.m.Lock()
	defer s.m.Unlock()
	s.saves++
	if s.err != nil {
		return s.err
	}
	s.data = append([]byte(nil), data...)
	return nil
}

func product(id string, price float64) domain.Product {
	return domain.Product{ID: id, Title: "product " + id, Price: price, Stock: 10, Images: []string{}, Rating: []float64{0}}
}

func TestAdd_MergesSameProduct(t *testing.T) {
	sut := Open(context.Background(), &memorySlot{}, nil)

	sut.Add(product("a", 1000), 2)
	sut.Add(product("a", 1000), 1)

	items := sut.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 3, sut.Quantity("a"))
}

func TestAdd_IgnoresNonPositiveQuantity(t *testing.T) {
	slot := &memorySlot{}
	sut := Open(context.Background(), slot, nil)

	sut.Add(product("a", 1000), 0)
	sut.Add(product("a", 1000), -2)

	assert.Zero(t, sut.Count())
	assert.Zero(t, slot.saves)
}

func TestAdd_KeepsInsertionOrder(t *testing.T) {
	sut := Open(context.Background(), &memorySlot{}, nil)

	sut.Add(product("b", 1), 1)
	sut.Add(product("a", 1), 1)
	sut.Add(product("b", 1), 1)

	items := sut.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "a", items[1].ID)
}

func TestRemove(t *testing.T) {
	sut := Open(context.Background(), &memorySlot{}, nil)
	sut.Add(product("a", 1000), 1)
	sut.Add(product("b", 2000), 1)

	sut.Remove("a")
	sut.Remove("missing")

	assert.False(t, sut.Contains("a"))
	assert.True(t, sut.Contains("b"))
	assert.Equal(t, 1, sut.Count())
}

func TestIncrementDecrement(t *testing.T) {
	sut := Open(context.Background(), &memorySlot{}, nil)
	sut.Add(product("a", 1000), 1)

	sut.Decrement("a")
	assert.Equal(t, 1, sut.Quantity("a"), "decrement floors at 1")

	for i := 0; i < 20; i++ {
		sut.Increment("a")
	}
	assert.Equal(t, 21, sut.Quantity("a"), "store does not cap at stock")

	sut.Decrement("a")
	assert.Equal(t, 20, sut.Quantity("a"))

	sut.Increment("missing")
	sut.Decrement("missing")
	assert.Equal(t, 1, sut.Count())
	assert.Zero(t, sut.Quantity("missing"))
}

func TestTotal(t *testing.T) {
	sut := Open(context.Background(), &memorySlot{}, nil)
	assert.True(t, sut.Total().IsZero())

	sut.Add(product("a", 0.1), 3)
	sut.Add(product("b", 120000), 2)
	assert.True(t, sut.Total().Equal(decimal.RequireFromString("240000.3")), sut.Total().String())

	sut.Remove("a")
	assert.True(t, sut.Total().Equal(decimal.NewFromInt(240000)))

	sut.Clear()
	assert.True(t, sut.Total().IsZero())
	assert.Empty(t, sut.Items())
}

func TestOpen_RehydratesMissingQuantityAsOne(t *testing.T) {
	slot := &memorySlot{data: []byte(`[{"id":"a","title":"A","price":500},{"id":"b","title":"B","price":100,"quantity":4}]`)}

	sut := Open(context.Background(), slot, nil)

	assert.Equal(t, 1, sut.Quantity("a"))
	assert.Equal(t, 4, sut.Quantity("b"))
	assert.True(t, sut.Total().Equal(decimal.NewFromInt(900)))
}

func TestOpen_CorruptPayloadStartsEmpty(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	slot := &memorySlot{data: []byte(`{not json`)}

	sut := Open(context.Background(), slot, zap.New(core))

	assert.Zero(t, sut.Count())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "cart payload corrupt, starting empty", logs.All()[0].Message)
}

func TestOpen_LoadErrorStartsEmpty(t *testing.T) {
	sut := Open(context.Background(), &memorySlot{err: errors.New("disk gone")}, nil)
	assert.Zero(t, sut.Count())
}

func TestSaveFailureIsSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	slot := &memorySlot{}
	sut := Open(context.Background(), slot, zap.New(core))
	slot.err = errors.New("quota exceeded")

	sut.Add(product("a", 1000), 1)

	assert.Equal(t, 1, sut.Quantity("a"), "in-memory state still updated")
	assert.Equal(t, 1, logs.FilterMessage("cart save failed").Len())
}

func TestPersistedCartReloadsEqual(t *testing.T) {
	slot := &memorySlot{}
	sut := Open(context.Background(), slot, nil)
	sut.Add(product("a", 1000), 2)
	sut.Add(product("b", 2500), 1)
	sut.Increment("b")

	reopened := Open(context.Background(), slot, nil)

	if diff := cmp.Diff(sut.Items(), reopened.Items()); diff != "" {
		t.Errorf("reloaded cart mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, sut.Total().Equal(reopened.Total()))
}

func TestSubscribe(t *testing.T) {
	sut := Open(context.Background(), &memorySlot{}, nil)

	var got [][]Item
	unsubscribe := sut.Subscribe(func(items []Item) { got = append(got, items) })

	sut.Add(product("a", 1000), 1)
	sut.Increment("a")
	unsubscribe()
	unsubscribe()
	sut.Clear()

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0][0].Quantity)
	assert.Equal(t, 2, got[1][0].Quantity)
}

func TestSubscriberMayReadStore(t *testing.T) {
	sut := Open(context.Background(), &memorySlot{}, nil)

	var count int
	sut.Subscribe(func([]Item) { count = sut.Count() })
	sut.Add(product("a", 1), 1)

	assert.Equal(t, 1, count)
}

func TestItemsReturnsCopy(t *testing.T) {
	sut := Open(context.Background(), &memorySlot{}, nil)
	sut.Add(product("a", 1000), 1)

	items := sut.Items()
	items[0].Quantity = 99

	assert.Equal(t, 1, sut.Quantity("a"))
}

func TestConcurrentMutations(t *testing.T) {
	sut := Open(context.Background(), &memorySlot{}, nil)
	sut.Add(product("a", 1000), 1)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sut.Increment("a")
		}()
	}
	wg.Wait()

	assert.Equal(t, 51, sut.Quantity("a"))
}
