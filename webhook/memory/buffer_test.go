package memory_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/marcelsud/webhook-viewer/webhook"
	"github.com/marcelsud/webhook-viewer/webhook/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(i int) webhook.Record {
	return webhook.Record{
		ID:        fmt.Sprintf("wh-%d", i),
		Method:    "POST",
		URL:       "/api/webhook",
		Headers:   map[string]string{"Content-Type": "application/json"},
		Timestamp: time.Unix(int64(i), 0),
	}
}

func ids(records []webhook.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestBuffer_Insert(t *testing.T) {
	t.Run("newest first", func(t *testing.T) {
		b := memory.NewBuffer(10)
		b.Insert(record(1))
		b.Insert(record(2))
		b.Insert(record(3))

		assert.Equal(t, []string{"wh-3", "wh-2", "wh-1"}, ids(b.List(10)))
	})

	t.Run("never exceeds capacity", func(t *testing.T) {
		b := memory.NewBuffer(memory.DefaultCapacity)
		for i := 1; i <= 250; i++ {
			b.Insert(record(i))
			require.LessOrEqual(t, b.Len(), memory.DefaultCapacity)
		}
	})

	t.Run("keeps the 100 most recent after 101 inserts", func(t *testing.T) {
		b := memory.NewBuffer(memory.DefaultCapacity)
		for i := 1; i <= 101; i++ {
			b.Insert(record(i))
		}

		all := b.List(1000)
		require.Len(t, all, 100)
		assert.Equal(t, "wh-101", all[0].ID)
		assert.Equal(t, "wh-2", all[99].ID)
		_, found := b.Get("wh-1")
		assert.False(t, found)
	})

	t.Run("invalid capacity falls back to default", func(t *testing.T) {
		b := memory.NewBuffer(0)
		assert.Equal(t, memory.DefaultCapacity, b.Capacity())
	})
}

func TestBuffer_List(t *testing.T) {
	b := memory.NewBuffer(10)
	for i := 1; i <= 5; i++ {
		b.Insert(record(i))
	}

	t.Run("limit clamps to length", func(t *testing.T) {
		assert.Len(t, b.List(50), 5)
	})

	t.Run("negative limit returns nothing", func(t *testing.T) {
		assert.Empty(t, b.List(-1))
	})

	t.Run("zero limit returns nothing", func(t *testing.T) {
		assert.Empty(t, b.List(0))
	})

	t.Run("result is a copy", func(t *testing.T) {
		got := b.List(2)
		got[0].ID = "mutated"
		assert.Equal(t, "wh-5", b.List(1)[0].ID)
	})
}

func TestBuffer_Delete(t *testing.T) {
	t.Run("absent id is a no-op", func(t *testing.T) {
		b := memory.NewBuffer(10)
		b.Insert(record(1))
		b.Insert(record(2))

		b.Delete(webhook.IDSet([]string{"missing"}))

		assert.Equal(t, []string{"wh-2", "wh-1"}, ids(b.List(10)))
	})

	t.Run("preserves order of remaining records", func(t *testing.T) {
		b := memory.NewBuffer(10)
		for i := 1; i <= 4; i++ {
			b.Insert(record(i))
		}

		b.Delete(webhook.IDSet([]string{"wh-3"}))

		assert.Equal(t, []string{"wh-4", "wh-2", "wh-1"}, ids(b.List(10)))
	})

	t.Run("idempotent", func(t *testing.T) {
		once := memory.NewBuffer(10)
		twice := memory.NewBuffer(10)
		for i := 1; i <= 4; i++ {
			once.Insert(record(i))
			twice.Insert(record(i))
		}

		set := webhook.IDSet([]string{"wh-1", "wh-4"})
		once.Delete(set)
		twice.Delete(set)
		twice.Delete(set)

		assert.Equal(t, once.List(10), twice.List(10))
	})

	t.Run("deleting every id empties the buffer", func(t *testing.T) {
		b := memory.NewBuffer(10)
		for i := 1; i <= 3; i++ {
			b.Insert(record(i))
		}

		b.Delete(webhook.IDSet([]string{"wh-1", "wh-2", "wh-3"}))

		assert.Equal(t, 0, b.Len())
	})
}

func TestBuffer_Clear(t *testing.T) {
	b := memory.NewBuffer(10)
	b.Insert(record(1))
	b.Clear()

	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.List(10))
}

func TestBuffer_ImplementsBuffer(t *testing.T) {
	var _ webhook.Buffer = (*memory.Buffer)(nil)
}
