package morton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMorton_DecodeEncodeRoundTrip(t *testing.T) {
	for i := Index(0); i < Size; i++ {
		x, y, z := Decode(i)
		require.Equal(t, i, Encode(x, y, z), "индекс %d должен восстанавливаться", i)
	}
}

func TestMorton_EncodeDecodeRoundTrip(t *testing.T) {
	seen := make(map[Index]struct{}, Size)
	for x := 0; x < Dim; x++ {
		for y := 0; y < Dim; y++ {
			for z := 0; z < Dim; z++ {
				i := Encode(x, y, z)
				require.True(t, Valid(i))

				dx, dy, dz := Decode(i)
				require.Equal(t, [3]int{x, y, z}, [3]int{dx, dy, dz})

				_, dup := seen[i]
				require.False(t, dup, "индекс %d выдан дважды", i)
				seen[i] = struct{}{}
			}
		}
	}
	assert.Len(t, seen, Size, "отображение должно быть биекцией")
}

func TestMorton_BitLayout(t *testing.T) {
	assert.Equal(t, Index(0), Encode(0, 0, 0))
	assert.Equal(t, Index(1), Encode(1, 0, 0))
	assert.Equal(t, Index(2), Encode(0, 1, 0))
	assert.Equal(t, Index(4), Encode(0, 0, 1))
	assert.Equal(t, Index(Size-1), Encode(15, 15, 15))
}

func TestMorton_OutOfRangePanics(t *testing.T) {
	assert.Panics(t, func() { Encode(16, 0, 0) })
	assert.Panics(t, func() { Encode(0, -1, 0) })
	assert.Panics(t, func() { Decode(Size) })
	assert.False(t, Valid(Size))
}
