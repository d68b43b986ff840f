package vec

// Direction одна из шести осевых граней вокселя.
// Порядок констант совпадает с порядком эмиссии граней мешером.
type Direction uint8

const (
	Left  Direction = iota // -X
	Right                  // +X
	Back                   // -Z
	Front                  // +Z
	Below                  // -Y
	Above                  // +Y

	DirectionCount // всегда последний
)

// Directions все направления в порядке эмиссии
var Directions = [DirectionCount]Direction{Left, Right, Back, Front, Below, Above}

var offsets = [DirectionCount]Vec3{
	Left:  {X: -1},
	Right: {X: 1},
	Back:  {Z: -1},
	Front: {Z: 1},
	Below: {Y: -1},
	Above: {Y: 1},
}

// Offset единичный сдвиг в сторону грани
func (d Direction) Offset() Vec3 {
	return offsets[d]
}

// Opposite противоположное направление
func (d Direction) Opposite() Direction {
	return d ^ 1
}

// String возвращает имя направления для логов
func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Back:
		return "back"
	case Front:
		return "front"
	case Below:
		return "below"
	case Above:
		return "above"
	default:
		return "unknown"
	}
}
