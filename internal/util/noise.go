package util

import (
	"github.com/aquilax/go-perlin"
)

// Noise обёртка над шумом Перлина с нормализацией в диапазон [0, 1].
// Экземпляр не меняет состояние после создания и безопасен для
// параллельного чтения.
type Noise struct {
	p     *perlin.Perlin
	scale float64
}

// NewNoise создаёт генератор шума с указанным сидом и масштабом координат
func NewNoise(seed int64, scale float64) *Noise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &Noise{
		p:     perlin.NewPerlin(alpha, beta, n, seed),
		scale: scale,
	}
}

// At2D возвращает значение шума для мировых координат (от 0 до 1)
func (n *Noise) At2D(x, y int) float64 {
	v := n.p.Noise2D(float64(x)*n.scale, float64(y)*n.scale)
	return clamp01((v + 1.0) / 2.0)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
