package pkg

import (
	"encoding/binary"
)

func Int64ToBytes(num int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(num))
	return b
}

func BytesToInt64(bytes []byte) int64 {
	if len(bytes) < 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(bytes))
}

// HeightKey renders a height so that lexical key order equals numeric order.
func HeightKey(prefix string, height int64) []byte {
	return append([]byte(prefix), Int64ToBytes(height)...)
}
