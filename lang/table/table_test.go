package table_test

import (
	"testing"

	"github.com/mna/wisp/lang/table"
	"github.com/mna/wisp/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strKey(s string) *value.String {
	return &value.String{Chars: s, Hash: fnv32(s)}
}

// fnv32 mirrors lang/heap's hash so tests don't need to import it.
func fnv32(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

func TestSetGetDelete(t *testing.T) {
	var tb table.Table
	k1, k2 := strKey("a"), strKey("b")

	require.True(t, tb.Set(k1, value.Number(1)))
	require.False(t, tb.Set(k1, value.Number(2)), "overwriting an existing key is not a new entry")

	v, ok := tb.Get(k1)
	require.True(t, ok)
	require.Equal(t, value.Number(2), v)

	_, ok = tb.Get(k2)
	require.False(t, ok)

	require.True(t, tb.Set(k2, value.Number(3)))
	assert.Equal(t, 2, tb.Len())

	require.True(t, tb.Delete(k1))
	_, ok = tb.Get(k1)
	require.False(t, ok)
	assert.Equal(t, 1, tb.Len())

	require.False(t, tb.Delete(k1), "deleting an absent key reports false")
}

func TestDeleteThenSetReusesTombstone(t *testing.T) {
	var tb table.Table
	k1 := strKey("x")

	require.True(t, tb.Set(k1, value.Number(1)))
	require.True(t, tb.Delete(k1))

	// re-inserting under the same key, after deletion, must still see it as
	// a new entry (the old key is gone) and lands in the tombstoned slot;
	// other keys still insert and read back normally afterwards.
	require.True(t, tb.Set(k1, value.Number(3)))
	v, ok := tb.Get(k1)
	require.True(t, ok)
	require.Equal(t, value.Number(3), v)

	k2 := strKey("y")
	require.True(t, tb.Set(k2, value.Number(2)))
	v, ok = tb.Get(k2)
	require.True(t, ok)
	require.Equal(t, value.Number(2), v)
}

func TestGrowthAcrossLoadFactor(t *testing.T) {
	var tb table.Table
	keys := make([]*value.String, 0, 64)
	for i := 0; i < 64; i++ {
		k := strKey(string(rune('a')) + string(rune(i)))
		keys = append(keys, k)
		require.True(t, tb.Set(k, value.Number(float64(i))))
	}
	for i, k := range keys {
		v, ok := tb.Get(k)
		require.True(t, ok, "key %d", i)
		require.Equal(t, value.Number(float64(i)), v)
	}
	assert.Equal(t, 64, tb.Len())
}

func TestFindString(t *testing.T) {
	var tb table.Table
	s := strKey("hello")
	tb.Set(s, value.Nil)

	found := tb.FindString("hello", s.Hash)
	require.NotNil(t, found)
	assert.Same(t, s, found)

	assert.Nil(t, tb.FindString("nope", fnv32("nope")))
}

func TestAddAll(t *testing.T) {
	var src, dst table.Table
	k1, k2 := strKey("a"), strKey("b")
	src.Set(k1, value.Number(1))
	src.Set(k2, value.Number(2))

	dst.Set(k1, value.Number(99))
	dst.AddAll(&src)

	v, _ := dst.Get(k1)
	assert.Equal(t, value.Number(1), v, "AddAll overwrites existing keys")
	v, _ = dst.Get(k2)
	assert.Equal(t, value.Number(2), v)
}

func TestKeysOmitsTombstones(t *testing.T) {
	var tb table.Table
	k1, k2 := strKey("a"), strKey("b")
	tb.Set(k1, value.Number(1))
	tb.Set(k2, value.Number(2))
	tb.Delete(k1)

	keys := tb.Keys()
	require.Len(t, keys, 1)
	assert.Same(t, k2, keys[0])
}
