package db2700

import (
	"encoding/binary"
)

var ByteOrder = binary.LittleEndian

func DecodeInt(b []byte) int32 {
	return int32(ByteOrder.Uint32(b[:IntSize]))
}

func EncodeInt(b []byte, x int32) {
	ByteOrder.PutUint32(b[:IntSize], uint32(x))
}
