package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"
)

// Формат сохранённого поля:
//
//	magic "NFLD" | version (1 байт) | zstd( resolution u32 | count u32 | count × f32 )
//
// Все числа little-endian.
const (
	fieldMagic   = "NFLD"
	fieldVersion = byte(1)
	headerSize   = len(fieldMagic) + 1
)

// ErrCorruptField возвращается, если данные не являются сохранённым полем.
var ErrCorruptField = errors.New("corrupt field payload")

var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	// EncodeAll и DecodeAll безопасны для конкурентного использования
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(fmt.Sprintf("zstd encoder: %v", err))
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("zstd decoder: %v", err))
	}
}

// EncodeField упаковывает значения поля и его разрешение.
func EncodeField(resolution int, values []float32) ([]byte, error) {
	if resolution < 0 || uint64(resolution) > math.MaxUint32 {
		return nil, fmt.Errorf("resolution %d out of range", resolution)
	}
	raw := make([]byte, 8+4*len(values))
	binary.LittleEndian.PutUint32(raw[0:], uint32(resolution))
	binary.LittleEndian.PutUint32(raw[4:], uint32(len(values)))
	for i, v := range values {
		binary.LittleEndian.PutUint32(raw[8+4*i:], math.Float32bits(v))
	}

	out := make([]byte, 0, headerSize+len(raw)/2)
	out = append(out, fieldMagic...)
	out = append(out, fieldVersion)
	return encoder.EncodeAll(raw, out), nil
}

// DecodeField распаковывает данные, записанные EncodeField.
func DecodeField(data []byte) (resolution int, values []float32, err error) {
	if len(data) < headerSize || !bytes.Equal(data[:len(fieldMagic)], []byte(fieldMagic)) {
		return 0, nil, fmt.Errorf("%w: bad magic", ErrCorruptField)
	}
	if v := data[len(fieldMagic)]; v != fieldVersion {
		return 0, nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptField, v)
	}

	raw, err := decoder.DecodeAll(data[headerSize:], nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrCorruptField, err)
	}
	if len(raw) < 8 {
		return 0, nil, fmt.Errorf("%w: short body", ErrCorruptField)
	}
	resolution = int(binary.LittleEndian.Uint32(raw[0:]))
	count := int(binary.LittleEndian.Uint32(raw[4:]))
	if len(raw) != 8+4*count {
		return 0, nil, fmt.Errorf("%w: expected %d values, body has %d bytes", ErrCorruptField, count, len(raw)-8)
	}

	values = make([]float32, count)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[8+4*i:]))
	}
	return resolution, values, nil
}
