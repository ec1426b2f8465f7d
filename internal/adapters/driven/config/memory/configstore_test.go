package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.values)
}

func TestConfigStore_Set_Update(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("key1", "original"))
	require.NoError(t, store.Set("key1", "updated"))

	val, ok := store.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, "updated", val)
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store := NewConfigStore()

	val, ok := store.Get("nonexistent")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_GetString(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("str", "value")
	_ = store.Set("num", 123)

	assert.Equal(t, "value", store.GetString("str"))
	assert.Equal(t, "", store.GetString("num"))
	assert.Equal(t, "", store.GetString("missing"))
}

func TestConfigStore_GetInt64(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int64
	}{
		{"int", 42, 42},
		{"int64", int64(50 << 20), 50 << 20},
		{"float64", float64(123.7), 123},
		{"wrong type", "not_a_number", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewConfigStore()
			_ = store.Set("key", tt.value)
			assert.Equal(t, tt.want, store.GetInt64("key"))
			assert.Equal(t, int(tt.want), store.GetInt("key"))
		})
	}
}

func TestConfigStore_GetBool(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("yes", true)
	_ = store.Set("str", "true")

	assert.True(t, store.GetBool("yes"))
	assert.False(t, store.GetBool("str"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_GetDuration(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("str", "1m30s")
	_ = store.Set("native", 5*time.Second)
	_ = store.Set("bad", "soon")

	assert.Equal(t, 90*time.Second, store.GetDuration("str"))
	assert.Equal(t, 5*time.Second, store.GetDuration("native"))
	assert.Zero(t, store.GetDuration("bad"))
	assert.Zero(t, store.GetDuration("missing"))
}

func TestConfigStore_GetTime(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("rfc", "2024-03-01T10:00:00Z")
	_ = store.Set("date", "2024-03-01")
	_ = store.Set("bad", "someday")

	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), store.GetTime("rfc").UTC())
	assert.Equal(t, 2024, store.GetTime("date").Year())
	assert.True(t, store.GetTime("bad").IsZero())
	assert.True(t, store.GetTime("missing").IsZero())
}

func TestConfigStore_GetStringSlice(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("strings", []string{"a", "b"})
	_ = store.Set("mixed", []any{"a", 1, "b"})

	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("strings"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("mixed"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_Keys(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("extensions.depth.2", []string{".txt"})
	_ = store.Set("extensions.depth.0", []string{".doc"})
	_ = store.Set("search.whole_word", true)

	assert.Equal(t, []string{"extensions.depth.0", "extensions.depth.2"}, store.Keys("extensions.depth."))
	assert.Empty(t, store.Keys("nothing."))
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("key1", "value1")

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, "value1", store.GetString("key1"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", id)
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_ = store.Keys("key-")
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.Keys("key-"), 50)
}
