package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3_ChunkConversion(t *testing.T) {
	pos := Vec3{X: 17, Y: -1, Z: 32}

	assert.Equal(t, Vec3{X: 1, Y: -1, Z: 2}, pos.ToChunkCoords())
	assert.Equal(t, Vec3{X: 1, Y: 15, Z: 0}, pos.LocalInChunk())
	assert.Equal(t, Vec3{X: 16, Y: -16, Z: 32}, pos.ToChunkCoords().ChunkOrigin())
}

func TestVec3_Less(t *testing.T) {
	assert.True(t, Vec3{X: 5, Y: 0}.Less(Vec3{X: 0, Y: 1}))
	assert.True(t, Vec3{X: 5, Z: 0}.Less(Vec3{X: 0, Z: 1}))
	assert.True(t, Vec3{X: 0}.Less(Vec3{X: 1}))
	assert.False(t, Vec3{X: 1}.Less(Vec3{X: 1}))
}

func TestDirection_OffsetsAndOpposites(t *testing.T) {
	for _, d := range Directions {
		o := d.Offset()
		back := d.Opposite().Offset()
		assert.Equal(t, Vec3{}, o.Add(back), "%s и противоположная грань должны гасить друг друга", d)
		assert.Equal(t, 1, abs(o.X)+abs(o.Y)+abs(o.Z), "%s должен быть единичным", d)
		assert.Equal(t, d, d.Opposite().Opposite())
	}
	assert.Equal(t, Right, Left.Opposite())
	assert.Equal(t, Above, Below.Opposite())
	assert.Equal(t, "front", Front.String())
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
