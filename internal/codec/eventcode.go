package codec

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// Event codes are stored little-endian. These helpers expose the stored
// bytes in either order instead of reinterpreting host memory.

// LittleEndianBytes returns v as stored on disk, least significant byte first
func LittleEndianBytes(v int32) [4]byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	return b
}

// BigEndianBytes returns v most significant byte first
func BigEndianBytes(v int32) [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return b
}

// HexLittle renders the stored bytes in storage order as 8 uppercase hex digits
func HexLittle(v int32) string {
	b := LittleEndianBytes(v)
	return strings.ToUpper(hex.EncodeToString(b[:]))
}

// HexBig renders the stored bytes most significant first as 8 uppercase hex digits
func HexBig(v int32) string {
	b := BigEndianBytes(v)
	return strings.ToUpper(hex.EncodeToString(b[:]))
}
