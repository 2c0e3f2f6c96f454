package execdata

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Reader streams an execution data container block by block and hands every
// decoded record to the registered visitors. Visitors observe records in
// stream order. A visitor error aborts the read; records delivered before
// the failure are not rolled back.
type Reader struct {
	dec       compactDecoder
	exec      ExecutionVisitor
	sess      SessionVisitor
	sawHeader bool
}

func NewReader(r io.Reader) *Reader {
	return &Reader{dec: compactDecoder{rd: r}}
}

func (r *Reader) SetExecutionVisitor(v ExecutionVisitor) {
	r.exec = v
}

func (r *Reader) SetSessionVisitor(v SessionVisitor) {
	r.sess = v
}

// Read consumes the stream until its end marker (clean EOF at a block
// boundary). The container permits exactly one header block, at offset zero.
func (r *Reader) Read() error {
	for {
		tag, err := r.readTag()
		if err != nil {
			return err
		}
		if tag == nil {
			return nil
		}
		if err := r.readBlock(*tag); err != nil {
			return err
		}
	}
}

// readTag returns nil without error on clean EOF.
func (r *Reader) readTag() (*byte, error) {
	var buf [1]byte
	_, err := io.ReadFull(r.dec.rd, buf[:])
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read block tag: %w: %w", ErrUnreadable, err)
	}
	return &buf[0], nil
}

func (r *Reader) readBlock(tag byte) error {
	if !r.sawHeader && tag != BlockHeader {
		return fmt.Errorf("%w: stream does not start with a header block", ErrMalformed)
	}
	switch tag {
	case BlockHeader:
		if r.sawHeader {
			return fmt.Errorf("%w: second header block in stream", ErrMalformed)
		}
		r.sawHeader = true
		return r.readHeader()
	case BlockSessionInfo:
		return r.readSessionInfo()
	case BlockExecutionData:
		return r.readExecutionData()
	default:
		return fmt.Errorf("%w: unknown block tag 0x%02x", ErrMalformed, tag)
	}
}

func (r *Reader) readHeader() error {
	magic, _ := r.dec.readU16("header block")
	version, ok := r.dec.readU16("header block")
	if !ok {
		return r.dec.error()
	}
	if magic != MagicNumber {
		return fmt.Errorf("%w: invalid magic number 0x%04x", ErrMalformed, magic)
	}
	if version != FormatVersion {
		return fmt.Errorf("%w (stream format 0x%04x, supported 0x%04x)",
			ErrIncompatibleVersion, version, FormatVersion)
	}
	return nil
}

func (r *Reader) readSessionInfo() error {
	id, _ := r.dec.readUTF("session info block")
	start, _ := r.dec.readU64("session info block")
	dump, ok := r.dec.readU64("session info block")
	if !ok {
		return r.dec.error()
	}
	if r.sess == nil {
		return nil
	}
	return r.sess.VisitSession(SessionInfo{
		ID:    id,
		Start: time.UnixMilli(int64(start)),
		Dump:  time.UnixMilli(int64(dump)),
	})
}

func (r *Reader) readExecutionData() error {
	id, _ := r.dec.readU64("execution data block")
	name, _ := r.dec.readUTF("execution data block")
	probes, ok := r.dec.readBooleanArray("execution data block")
	if !ok {
		return r.dec.error()
	}
	if r.exec == nil {
		return nil
	}
	return r.exec.VisitExecution(&ExecutionData{
		ID:     id,
		Name:   name,
		Probes: probes,
	})
}
