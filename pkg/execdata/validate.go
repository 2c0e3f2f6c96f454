package execdata

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Validate reads exactly the fixed-size header prefix and confirms the
// stream is a recognized container of the supported format version. It is
// safe to call before a full decode and consumes nothing past the prefix.
func Validate(r io.Reader) error {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return fmt.Errorf("%w: stream is shorter than the container header", ErrMalformed)
	}
	if buf[0] != BlockHeader {
		return fmt.Errorf("%w: first block tag is 0x%02x, want header", ErrMalformed, buf[0])
	}
	if magic := binary.BigEndian.Uint16(buf[1:3]); magic != MagicNumber {
		return fmt.Errorf("%w: invalid magic number 0x%04x", ErrMalformed, magic)
	}
	if version := binary.BigEndian.Uint16(buf[3:5]); version != FormatVersion {
		return fmt.Errorf("%w (stream format 0x%04x, supported 0x%04x)",
			ErrIncompatibleVersion, version, FormatVersion)
	}
	return nil
}

// ValidateFile opens path and validates its header prefix.
func ValidateFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to read %s: %w: %w", path, ErrUnreadable, err)
	}
	defer func() { _ = f.Close() }()

	if err := Validate(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
