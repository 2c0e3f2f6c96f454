package execdata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"fortio.org/safecast"
)

// Compact wire primitives of the container format, matching the upstream
// java.io.DataOutput conventions: fixed-width integers are big-endian,
// strings are a u16 length followed by the bytes, block counts are 7-bit
// variable-length integers and probe arrays are bit-packed LSB-first.

type compactDecoder struct {
	rd  io.Reader
	err error
}

func (d *compactDecoder) error() error {
	return d.err
}

// fail translates low-level read failures: a stream that ends inside a block
// is corrupt, anything else is an I/O failure.
func (d *compactDecoder) fail(err error, what string) {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		d.err = fmt.Errorf("%w: stream ends inside %s", ErrMalformed, what)
		return
	}
	d.err = fmt.Errorf("failed to read %s: %w: %w", what, ErrUnreadable, err)
}

func (d *compactDecoder) readByte(what string) (byte, bool) {
	if d.err != nil {
		return 0, false
	}
	var buf [1]byte
	if _, err := io.ReadFull(d.rd, buf[:]); err != nil {
		d.fail(err, what)
		return 0, false
	}
	return buf[0], true
}

func (d *compactDecoder) readU16(what string) (uint16, bool) {
	if d.err != nil {
		return 0, false
	}
	var buf [2]byte
	if _, err := io.ReadFull(d.rd, buf[:]); err != nil {
		d.fail(err, what)
		return 0, false
	}
	return binary.BigEndian.Uint16(buf[:]), true
}

func (d *compactDecoder) readU64(what string) (uint64, bool) {
	if d.err != nil {
		return 0, false
	}
	var buf [8]byte
	if _, err := io.ReadFull(d.rd, buf[:]); err != nil {
		d.fail(err, what)
		return 0, false
	}
	return binary.BigEndian.Uint64(buf[:]), true
}

// readVarInt reads a little-endian group varint: 7 payload bits per byte,
// high bit set on all bytes but the last.
func (d *compactDecoder) readVarInt(what string) (uint32, bool) {
	var value uint32
	for shift := 0; ; shift += 7 {
		if shift > 28 {
			d.err = fmt.Errorf("%w: varint in %s is too long", ErrMalformed, what)
			return 0, false
		}
		b, ok := d.readByte(what)
		if !ok {
			return 0, false
		}
		value |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return value, true
		}
	}
}

func (d *compactDecoder) readUTF(what string) (string, bool) {
	length, ok := d.readU16(what)
	if !ok {
		return "", false
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(d.rd, buf); err != nil {
		d.fail(err, what)
		return "", false
	}
	return string(buf), true
}

// readBooleanArray reads a probe vector: varint count, then bit-packed
// payload, eight probes per byte starting from the least significant bit.
func (d *compactDecoder) readBooleanArray(what string) ([]bool, bool) {
	count, ok := d.readVarInt(what)
	if !ok {
		return nil, false
	}
	n, err := safecast.Conv[int](count)
	if err != nil {
		d.err = fmt.Errorf("%w: probe count overflow in %s: %v", ErrMalformed, what, err)
		return nil, false
	}
	probes := make([]bool, n)
	var buffer byte
	for i := range probes {
		if i%8 == 0 {
			buffer, ok = d.readByte(what)
			if !ok {
				return nil, false
			}
		}
		probes[i] = buffer&0x01 != 0
		buffer >>= 1
	}
	return probes, true
}

type compactEncoder struct {
	wr  io.Writer
	err error
}

func (e *compactEncoder) error() error {
	return e.err
}

func (e *compactEncoder) write(buf []byte) {
	if e.err != nil {
		return
	}
	if _, err := e.wr.Write(buf); err != nil {
		e.err = err
	}
}

func (e *compactEncoder) writeByte(b byte) {
	e.write([]byte{b})
}

func (e *compactEncoder) writeU16(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	e.write(buf[:])
}

func (e *compactEncoder) writeU64(v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	e.write(buf[:])
}

func (e *compactEncoder) writeVarInt(v uint32) {
	for v&^0x7F != 0 {
		e.writeByte(byte(v&0x7F) | 0x80)
		v >>= 7
	}
	e.writeByte(byte(v))
}

func (e *compactEncoder) writeUTF(s string) {
	if len(s) > 0xFFFF {
		e.err = fmt.Errorf("string of %d bytes does not fit into a UTF block", len(s))
		return
	}
	e.writeU16(uint16(len(s)))
	e.write([]byte(s))
}

func (e *compactEncoder) writeBooleanArray(probes []bool) {
	count, err := safecast.Conv[uint32](len(probes))
	if err != nil {
		e.err = fmt.Errorf("probe count overflow: %w", err)
		return
	}
	e.writeVarInt(count)
	var buffer byte
	for i, hit := range probes {
		if hit {
			buffer |= 1 << (i % 8)
		}
		if i%8 == 7 {
			e.writeByte(buffer)
			buffer = 0
		}
	}
	if len(probes)%8 != 0 {
		e.writeByte(buffer)
	}
}
