package morton

import "fmt"

// Index 12-битный Z-order индекс вокселя внутри чанка 16x16x16.
type Index uint16

const (
	// Dim размер чанка по каждой оси
	Dim = 16
	// Size количество вокселей в чанке
	Size = Dim * Dim * Dim
)

// spread раскладывает 4 бита координаты через каждые три бита индекса.
// x занимает биты 0,3,6,9; y: 1,4,7,10; z: 2,5,8,11.
var spread [Dim]Index

// coord распакованная координата для таблицы декодирования
type coord struct {
	x, y, z uint8
}

var decodeTable [Size]coord

func init() {
	for v := 0; v < Dim; v++ {
		var s Index
		for bit := 0; bit < 4; bit++ {
			if v&(1<<bit) != 0 {
				s |= 1 << (3 * bit)
			}
		}
		spread[v] = s
	}

	for x := 0; x < Dim; x++ {
		for y := 0; y < Dim; y++ {
			for z := 0; z < Dim; z++ {
				decodeTable[encode(x, y, z)] = coord{uint8(x), uint8(y), uint8(z)}
			}
		}
	}
}

func encode(x, y, z int) Index {
	return spread[x] | spread[y]<<1 | spread[z]<<2
}

// Encode переводит локальную координату вокселя в Morton-индекс.
// Координаты вне диапазона 0..15: ошибка программиста, вызывает panic.
func Encode(x, y, z int) Index {
	if uint(x)|uint(y)|uint(z) >= Dim {
		panic(fmt.Sprintf("morton: координата (%d,%d,%d) вне чанка", x, y, z))
	}
	return encode(x, y, z)
}

// Decode возвращает координату вокселя по Morton-индексу.
func Decode(i Index) (x, y, z int) {
	if !Valid(i) {
		panic(fmt.Sprintf("morton: индекс %d вне диапазона", i))
	}
	c := decodeTable[i]
	return int(c.x), int(c.y), int(c.z)
}

// Valid проверяет, что индекс адресует воксель чанка.
func Valid(i Index) bool {
	return i < Size
}
