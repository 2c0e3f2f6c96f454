// Package execdata reads and writes the binary execution data container
// produced by JVM coverage instrumentation (the .exec format). The container
// is a flat sequence of tagged blocks: a single header at offset zero,
// followed by session info and execution data blocks in recording order.
package execdata

import "errors"

const (
	// Block tags of the container format.
	BlockHeader        byte = 0x01
	BlockSessionInfo   byte = 0x10
	BlockExecutionData byte = 0x11

	// MagicNumber identifies the container. Big-endian on the wire.
	MagicNumber uint16 = 0xC0C0

	// FormatVersion is the single upstream format revision this reader
	// supports. Reports written by other revisions are rejected.
	FormatVersion uint16 = 0x1007

	// headerSize is the fixed prefix checked by Validate: block tag,
	// magic and version.
	headerSize = 5
)

var (
	// ErrUnreadable reports an I/O failure opening or reading a report
	// or a class file.
	ErrUnreadable = errors.New("unreadable file")

	// ErrMalformed reports a stream that does not conform to the
	// block-tag grammar of the container.
	ErrMalformed = errors.New("malformed execution data")

	// ErrIncompatibleVersion reports a recognized container written by an
	// unsupported format revision. The text is the user-facing message of
	// the upstream toolchain and is part of the compatibility contract.
	ErrIncompatibleVersion = errors.New(
		"You are using an incompatible binary-format version, please consider upgrading to a supported version")

	// ErrInconsistentProbeCount reports a probe vector whose length
	// disagrees with a previously recorded vector or with the
	// instrumentation points discovered in the class bytecode. It means
	// the report and the class files come from different instrumentations.
	ErrInconsistentProbeCount = errors.New("inconsistent probe count")
)
