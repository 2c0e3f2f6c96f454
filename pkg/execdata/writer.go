package execdata

import "io"

// Writer produces an execution data container. The header block is written
// on construction so that concatenating the output of one Writer always
// yields a well-formed stream.
type Writer struct {
	enc compactEncoder
}

var _ ExecutionVisitor = (*Writer)(nil)
var _ SessionVisitor = (*Writer)(nil)

func NewWriter(w io.Writer) (*Writer, error) {
	wr := &Writer{enc: compactEncoder{wr: w}}
	wr.enc.writeByte(BlockHeader)
	wr.enc.writeU16(MagicNumber)
	wr.enc.writeU16(FormatVersion)
	return wr, wr.enc.error()
}

// WriteSession appends a session info block.
func (w *Writer) WriteSession(info SessionInfo) error {
	w.enc.writeByte(BlockSessionInfo)
	w.enc.writeUTF(info.ID)
	w.enc.writeU64(uint64(info.Start.UnixMilli()))
	w.enc.writeU64(uint64(info.Dump.UnixMilli()))
	return w.enc.error()
}

// WriteExecution appends an execution data block.
func (w *Writer) WriteExecution(data *ExecutionData) error {
	w.enc.writeByte(BlockExecutionData)
	w.enc.writeU64(data.ID)
	w.enc.writeUTF(data.Name)
	w.enc.writeBooleanArray(data.Probes)
	return w.enc.error()
}

// VisitSession makes Writer a SessionVisitor, so a session store can be
// replayed straight into a new container.
func (w *Writer) VisitSession(info SessionInfo) error {
	return w.WriteSession(info)
}

// VisitExecution makes Writer an ExecutionVisitor.
func (w *Writer) VisitExecution(data *ExecutionData) error {
	return w.WriteExecution(data)
}
