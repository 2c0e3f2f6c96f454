package classfile

// ClassID computes the content-derived identity of a class: a CRC-64
// checksum over the raw class file bytes with the reflected ISO-3309
// polynomial, zero initial value and no final inversion. This is the exact
// function the recording side uses, so the identity is independent of file
// path and timestamp. hash/crc64 is not usable here: it inverts the running
// sum on entry and exit and therefore produces different values.

const crc64Poly = 0xD800000000000000

var crc64Table = makeCRC64Table()

func makeCRC64Table() [256]uint64 {
	var table [256]uint64
	for i := range table {
		v := uint64(i)
		for bit := 0; bit < 8; bit++ {
			if v&1 != 0 {
				v = v>>1 ^ crc64Poly
			} else {
				v >>= 1
			}
		}
		table[i] = v
	}
	return table
}

func ClassID(b []byte) uint64 {
	var sum uint64
	for _, c := range b {
		sum = sum>>8 ^ crc64Table[byte(sum)^c]
	}
	return sum
}
