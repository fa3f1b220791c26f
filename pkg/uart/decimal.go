package uart

import "strconv"

// DecimalBufferSize is the size of the scratch buffer for digits.
const DecimalBufferSize = 32

// AppendDecimal appends the base-10 digits of v, most significant first,
// without leading zeros.
func AppendDecimal(dst []byte, v uint32) []byte {
	var buf [DecimalBufferSize]byte
	return append(dst, strconv.AppendUint(buf[:0], uint64(v), 10)...)
}

// EncodeDecimal returns the base-10 digits of v.
func EncodeDecimal(v uint32) []byte {
	return AppendDecimal(nil, v)
}
