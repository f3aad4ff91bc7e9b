package saltchannel

import "encoding/binary"

// Wire integers are little-endian throughout. These helpers keep the codec
// allocation-free: callers always supply the destination/source slice.

func putU16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func getU16(b []byte) uint16    { return binary.LittleEndian.Uint16(b) }

func putU32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func getU32(b []byte) uint32    { return binary.LittleEndian.Uint32(b) }

func putU64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }
func getU64(b []byte) uint64    { return binary.LittleEndian.Uint64(b) }

// ParseError is returned by decode functions on malformed input. It always
// carries CodeParse.
func parseErrorf(op string) error {
	return wrapErr(op, CodeParse, errBadLength)
}

var errBadLength = errString("bad length")

type errString string

func (e errString) Error() string { return string(e) }
