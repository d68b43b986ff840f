package voxel

// Code упакованный воксель: младшие 15 бит: ID типа блока,
// старший бит: флаг прозрачности.
type Code uint16

const (
	// TransparentFlag старший бит кода
	TransparentFlag Code = 1 << 15
	// IDMask маска ID типа блока
	IDMask Code = 0x7FFF

	// Air воздух: ID 0, всегда прозрачен
	Air Code = TransparentFlag
	// LegacyAir кодировка воздуха в уже существующих данных мира
	LegacyAir Code = TransparentFlag | 1
)

// NewCode собирает код из ID типа блока и флага прозрачности
func NewCode(id uint16, transparent bool) Code {
	c := Code(id) & IDMask
	if transparent {
		c |= TransparentFlag
	}
	return c
}

// ID возвращает ID типа блока без флага прозрачности
func (c Code) ID() uint16 {
	return uint16(c & IDMask)
}

// IsAir возвращает true для воздуха
func (c Code) IsAir() bool {
	return c&IDMask == 0 || c == LegacyAir
}

// IsTransparent возвращает true, если сквозь воксель видны грани соседей
func (c Code) IsTransparent() bool {
	return c&TransparentFlag != 0 || c.IsAir()
}
