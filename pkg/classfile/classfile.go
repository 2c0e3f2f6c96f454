// Package classfile parses compiled JVM class files just deeply enough to
// recover the structure coverage analysis needs: the class name, the methods
// in declaration order, their bytecode and their line number tables. It does
// not resolve the full constant pool, verify bytecode or model the type
// system.
package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const classMagic uint32 = 0xCAFEBABE

// ErrMalformed reports bytes that cannot be parsed as a structurally valid
// class file.
var ErrMalformed = errors.New("malformed class file")

// LineEntry maps a bytecode offset to the source line the following
// instructions belong to.
type LineEntry struct {
	StartPC int
	Line    int
}

// Method is one declared method with its bytecode. Abstract and native
// methods carry no code and no line table.
type Method struct {
	Name        string
	Descriptor  string
	AccessFlags uint16
	Code        []byte
	LineTable   []LineEntry
}

// LineAt returns the source line of the instruction at the given bytecode
// offset, or -1 when the method carries no debug information for it.
func (m *Method) LineAt(offset int) int {
	line := -1
	best := -1
	for _, entry := range m.LineTable {
		if entry.StartPC <= offset && entry.StartPC > best {
			best = entry.StartPC
			line = entry.Line
		}
	}
	return line
}

// ClassFile is the parsed structural view of one compiled class.
type ClassFile struct {
	// Name is the VM name of the class, e.g. "org/example/Foo".
	Name string

	Major   uint16
	Minor   uint16
	Methods []Method
}

type cursor struct {
	buf []byte
	off int
	err error
}

func (c *cursor) error() error {
	return c.err
}

func (c *cursor) need(n int, what string) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || len(c.buf)-c.off < n {
		c.err = fmt.Errorf("%w: truncated %s at offset %d", ErrMalformed, what, c.off)
		return nil
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b
}

func (c *cursor) u1(what string) byte {
	b := c.need(1, what)
	if b == nil {
		return 0
	}
	return b[0]
}

func (c *cursor) u2(what string) uint16 {
	b := c.need(2, what)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (c *cursor) u4(what string) uint32 {
	b := c.need(4, what)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (c *cursor) skip(n int, what string) {
	c.need(n, what)
}

// constPool keeps only what name resolution needs: Utf8 payloads and the
// name index of each Class entry.
type constPool struct {
	utf8    map[uint16]string
	classes map[uint16]uint16
}

func (p *constPool) utf8At(idx uint16) (string, error) {
	s, ok := p.utf8[idx]
	if !ok {
		return "", fmt.Errorf("%w: constant #%d is not a Utf8 entry", ErrMalformed, idx)
	}
	return s, nil
}

func (p *constPool) classNameAt(idx uint16) (string, error) {
	nameIdx, ok := p.classes[idx]
	if !ok {
		return "", fmt.Errorf("%w: constant #%d is not a Class entry", ErrMalformed, idx)
	}
	return p.utf8At(nameIdx)
}

// Constant pool tags, JVMS §4.4.
const (
	cpUtf8               = 1
	cpInteger            = 3
	cpFloat              = 4
	cpLong               = 5
	cpDouble             = 6
	cpClass              = 7
	cpString             = 8
	cpFieldref           = 9
	cpMethodref          = 10
	cpInterfaceMethodref = 11
	cpNameAndType        = 12
	cpMethodHandle       = 15
	cpMethodType         = 16
	cpDynamic            = 17
	cpInvokeDynamic      = 18
	cpModule             = 19
	cpPackage            = 20
)

func parseConstPool(c *cursor) *constPool {
	pool := &constPool{
		utf8:    make(map[uint16]string),
		classes: make(map[uint16]uint16),
	}
	count := c.u2("constant pool count")
	for i := uint16(1); i < count && c.err == nil; i++ {
		tag := c.u1("constant pool tag")
		switch tag {
		case cpUtf8:
			length := c.u2("Utf8 constant")
			b := c.need(int(length), "Utf8 constant")
			if b != nil {
				pool.utf8[i] = string(b)
			}
		case cpInteger, cpFloat:
			c.skip(4, "numeric constant")
		case cpLong, cpDouble:
			c.skip(8, "numeric constant")
			i++ // longs and doubles occupy two pool slots
		case cpClass:
			pool.classes[i] = c.u2("Class constant")
		case cpString, cpMethodType, cpModule, cpPackage:
			c.skip(2, "constant")
		case cpFieldref, cpMethodref, cpInterfaceMethodref, cpNameAndType, cpDynamic, cpInvokeDynamic:
			c.skip(4, "constant")
		case cpMethodHandle:
			c.skip(3, "MethodHandle constant")
		default:
			c.err = fmt.Errorf("%w: unknown constant pool tag %d", ErrMalformed, tag)
		}
	}
	return pool
}

// Parse reads the structural view of a class file.
func Parse(b []byte) (*ClassFile, error) {
	c := &cursor{buf: b}

	if magic := c.u4("class file header"); c.err == nil && magic != classMagic {
		return nil, fmt.Errorf("%w: invalid magic number 0x%08x", ErrMalformed, magic)
	}
	minor := c.u2("class file header")
	major := c.u2("class file header")

	pool := parseConstPool(c)
	if c.err != nil {
		return nil, c.err
	}

	c.skip(2, "access flags")
	thisClass := c.u2("this_class")
	c.skip(2, "super_class")

	interfaces := c.u2("interfaces count")
	c.skip(2*int(interfaces), "interfaces")

	// Fields carry no executable code; skip them wholesale.
	fields := c.u2("fields count")
	for i := uint16(0); i < fields && c.err == nil; i++ {
		c.skip(6, "field_info")
		skipAttributes(c, "field attributes")
	}

	methodCount := c.u2("methods count")
	methods := make([]Method, 0, methodCount)
	for i := uint16(0); i < methodCount && c.err == nil; i++ {
		m, err := parseMethod(c, pool)
		if err != nil {
			return nil, err
		}
		methods = append(methods, *m)
	}
	if c.err != nil {
		return nil, c.err
	}

	name, err := pool.classNameAt(thisClass)
	if err != nil {
		return nil, err
	}

	return &ClassFile{
		Name:    name,
		Major:   major,
		Minor:   minor,
		Methods: methods,
	}, nil
}

func skipAttributes(c *cursor, what string) {
	count := c.u2(what)
	for i := uint16(0); i < count && c.err == nil; i++ {
		c.skip(2, what)
		length := c.u4(what)
		c.skip(int(length), what)
	}
}

func parseMethod(c *cursor, pool *constPool) (*Method, error) {
	access := c.u2("method_info")
	nameIdx := c.u2("method_info")
	descIdx := c.u2("method_info")
	if c.err != nil {
		return nil, c.err
	}

	name, err := pool.utf8At(nameIdx)
	if err != nil {
		return nil, err
	}
	desc, err := pool.utf8At(descIdx)
	if err != nil {
		return nil, err
	}

	m := &Method{Name: name, Descriptor: desc, AccessFlags: access}

	count := c.u2("method attributes")
	for i := uint16(0); i < count && c.err == nil; i++ {
		attrIdx := c.u2("method attribute")
		length := c.u4("method attribute")
		if c.err != nil {
			return nil, c.err
		}
		attrName, err := pool.utf8At(attrIdx)
		if err != nil {
			return nil, err
		}
		if attrName != "Code" {
			c.skip(int(length), "method attribute")
			continue
		}
		if err := parseCode(c, pool, m); err != nil {
			return nil, err
		}
	}
	return m, c.err
}

func parseCode(c *cursor, pool *constPool, m *Method) error {
	c.skip(4, "Code attribute") // max_stack, max_locals
	codeLength := c.u4("Code attribute")
	code := c.need(int(codeLength), "Code attribute")
	if c.err != nil {
		return c.err
	}
	m.Code = code

	exceptions := c.u2("exception table")
	c.skip(8*int(exceptions), "exception table")

	count := c.u2("Code attributes")
	for i := uint16(0); i < count && c.err == nil; i++ {
		attrIdx := c.u2("Code attribute entry")
		length := c.u4("Code attribute entry")
		if c.err != nil {
			return c.err
		}
		attrName, err := pool.utf8At(attrIdx)
		if err != nil {
			return err
		}
		if attrName != "LineNumberTable" {
			c.skip(int(length), "Code attribute entry")
			continue
		}
		entries := c.u2("LineNumberTable")
		for j := uint16(0); j < entries && c.err == nil; j++ {
			startPC := c.u2("LineNumberTable entry")
			line := c.u2("LineNumberTable entry")
			m.LineTable = append(m.LineTable, LineEntry{
				StartPC: int(startPC),
				Line:    int(line),
			})
		}
	}
	return c.err
}
