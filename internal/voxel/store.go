package voxel

import (
	"encoding/binary"
	"fmt"

	"github.com/annel0/chunk-mesher/internal/morton"
)

// EncodedSize размер бинарного образа Store в байтах
const EncodedSize = morton.Size * 2

// Store хранит 4096 вокселей чанка в порядке Morton-индекса.
// Нулевое значение Store: чанк, целиком заполненный непрозрачным ID 0;
// используйте NewStore для чанка из воздуха.
type Store [morton.Size]Code

// NewStore создаёт хранилище, заполненное воздухом
func NewStore() *Store {
	s := &Store{}
	s.Fill(Air)
	return s
}

// Get возвращает код по Morton-индексу
func (s *Store) Get(i morton.Index) Code {
	return s[i]
}

// Set записывает код по Morton-индексу
func (s *Store) Set(i morton.Index, c Code) {
	s[i] = c
}

// At возвращает код по локальным координатам
func (s *Store) At(x, y, z int) Code {
	return s[morton.Encode(x, y, z)]
}

// SetAt записывает код по локальным координатам
func (s *Store) SetAt(x, y, z int, c Code) {
	s[morton.Encode(x, y, z)] = c
}

// Fill заполняет весь чанк одним кодом
func (s *Store) Fill(c Code) {
	for i := range s {
		s[i] = c
	}
}

// Count считает воксели, удовлетворяющие предикату
func (s *Store) Count(pred func(Code) bool) int {
	n := 0
	for _, c := range s {
		if pred(c) {
			n++
		}
	}
	return n
}

// MarshalBinary кодирует хранилище в little-endian образ в порядке Morton
func (s *Store) MarshalBinary() ([]byte, error) {
	buf := make([]byte, EncodedSize)
	for i, c := range s {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(c))
	}
	return buf, nil
}

// UnmarshalBinary восстанавливает хранилище из образа MarshalBinary
func (s *Store) UnmarshalBinary(data []byte) error {
	if len(data) != EncodedSize {
		return fmt.Errorf("неверный размер образа чанка: %d байт, ожидалось %d", len(data), EncodedSize)
	}
	for i := range s {
		s[i] = Code(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return nil
}
