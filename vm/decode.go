package vm

import "encoding/binary"

// isNameByte reports whether b can begin a NameString: root/parent
// prefixes, dual/multi-name prefixes, or a NameSeg lead char
// (uppercase letter or underscore).
func isNameByte(b byte) bool {
	switch Opcode(b) {
	case RootChar, ParentChar, DualPrefix, MultiPfx:
		return true
	}
	return (b >= 'A' && b <= 'Z') || b == '_'
}

// readInteger reads a literal integer given the prefix opcode already
// consumed, decoding the following 1/2/4/8 little-endian bytes for
// BYTE/WORD/DWORD/QWORD respectively. ZERO_OP/ONE_OP/ONES_OP carry no
// trailing bytes and are handled by the caller directly.
func readInteger(prefix Opcode, body []byte) (value uint64, consumed int) {
	switch prefix {
	case BytePrefix:
		return uint64(body[0]), 1
	case WordPrefix:
		return uint64(binary.LittleEndian.Uint16(body[:2])), 2
	case DWordPrefix:
		return uint64(binary.LittleEndian.Uint32(body[:4])), 4
	case QWordPrefix:
		return binary.LittleEndian.Uint64(body[:8]), 8
	default:
		panic(FatalErrorf("readInteger: not a literal prefix opcode %s", prefix))
	}
}

// parsePkgLength decodes AML's variable-length package-size encoding:
// the lead byte's top two bits give the count of following length
// bytes (0-3); when that count is nonzero only the low nibble of the
// lead byte contributes to the length's low bits. Returns the total
// package length (including the length-encoding bytes themselves,
// matching AML's PkgLength definition) and the number of bytes the
// encoding itself occupied.
func parsePkgLength(body []byte) (length int, consumed int) {
	lead := body[0]
	extra := int(lead >> 6)
	if extra == 0 {
		return int(lead & 0x3F), 1
	}
	length = int(lead & 0x0F)
	for i := 0; i < extra; i++ {
		length |= int(body[1+i]) << (4 + 8*i)
	}
	return length, 1 + extra
}
