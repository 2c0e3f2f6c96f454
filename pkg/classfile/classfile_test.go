package classfile_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvmcov/jvmcov/pkg/classfile"
	"github.com/jvmcov/jvmcov/pkg/coverage"
)

type classWriter struct {
	buf bytes.Buffer
}

func (w *classWriter) u1(v byte)     { w.buf.WriteByte(v) }
func (w *classWriter) u2(v uint16)   { _ = binary.Write(&w.buf, binary.BigEndian, v) }
func (w *classWriter) u4(v uint32)   { _ = binary.Write(&w.buf, binary.BigEndian, v) }
func (w *classWriter) raw(b []byte)  { w.buf.Write(b) }
func (w *classWriter) utf8(s string) { w.u1(1); w.u2(uint16(len(s))); w.raw([]byte(s)) }

// testClass builds a minimal class "Foo" with one method:
//
//	void run(boolean):
//	  0: iload_1        // line 10
//	  1: ifeq 5         // line 10, conditional branch
//	  4: return         // line 11
//	  5: return         // line 12
func testClass(t *testing.T) []byte {
	t.Helper()

	w := &classWriter{}
	w.u4(0xCAFEBABE)
	w.u2(0)  // minor
	w.u2(52) // major, Java 8

	w.u2(9) // constant pool count
	w.utf8("Foo")              // #1
	w.u1(7)                    // #2 Class
	w.u2(1)                    //    -> #1
	w.utf8("java/lang/Object") // #3
	w.u1(7)                    // #4 Class
	w.u2(3)                    //    -> #3
	w.utf8("run")              // #5
	w.utf8("(Z)V")             // #6
	w.utf8("Code")             // #7
	w.utf8("LineNumberTable")  // #8

	w.u2(0x0021) // access flags
	w.u2(2)      // this_class
	w.u2(4)      // super_class
	w.u2(0)      // interfaces
	w.u2(0)      // fields

	w.u2(1)      // methods
	w.u2(0x0001) // public
	w.u2(5)      // name "run"
	w.u2(6)      // descriptor "(Z)V"
	w.u2(1)      // one attribute

	code := []byte{0x1B, 0x99, 0x00, 0x04, 0xB1, 0xB1}

	w.u2(7)                           // "Code"
	w.u4(uint32(12 + len(code) + 20)) // attribute length
	w.u2(1)                           // max_stack
	w.u2(2)                           // max_locals
	w.u4(uint32(len(code)))
	w.raw(code)
	w.u2(0) // exception table
	w.u2(1) // one code attribute

	w.u2(8)  // "LineNumberTable"
	w.u4(14) // 2 + 3 entries * 4
	w.u2(3)
	for _, entry := range [][2]uint16{{0, 10}, {4, 11}, {5, 12}} {
		w.u2(entry[0])
		w.u2(entry[1])
	}

	return w.buf.Bytes()
}

func TestParse(t *testing.T) {
	cf, err := classfile.Parse(testClass(t))
	require.NoError(t, err)

	assert.Equal(t, "Foo", cf.Name)
	assert.Equal(t, uint16(52), cf.Major)
	require.Len(t, cf.Methods, 1)

	m := cf.Methods[0]
	assert.Equal(t, "run", m.Name)
	assert.Equal(t, "(Z)V", m.Descriptor)
	require.Len(t, m.Code, 6)
	require.Len(t, m.LineTable, 3)

	assert.Equal(t, 10, m.LineAt(0))
	assert.Equal(t, 10, m.LineAt(1))
	assert.Equal(t, 11, m.LineAt(4))
	assert.Equal(t, 12, m.LineAt(5))
}

func TestParseMalformed(t *testing.T) {
	for _, test := range []struct {
		name  string
		bytes []byte
	}{
		{name: "empty", bytes: nil},
		{name: "wrong magic", bytes: []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 52}},
		{name: "truncated pool", bytes: []byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 52, 0, 9, 1}},
		{name: "truncated body", bytes: testClass(t)[:40]},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := classfile.Parse(test.bytes)
			require.ErrorIs(t, err, classfile.ErrMalformed)
		})
	}
}

func TestClassID(t *testing.T) {
	// Reference values of the CRC-64 variant: zero init, reflected
	// ISO-3309 polynomial, no final inversion.
	assert.Equal(t, uint64(0), classfile.ClassID(nil))
	assert.Equal(t, uint64(0), classfile.ClassID([]byte{0x00}))
	assert.Equal(t, uint64(0x01B0000000000000), classfile.ClassID([]byte{0x01}))

	class := testClass(t)
	assert.Equal(t, classfile.ClassID(class), classfile.ClassID(class))
	assert.NotEqual(t, classfile.ClassID(class), classfile.ClassID(class[:len(class)-1]))
}

func TestExtractorPoints(t *testing.T) {
	class := testClass(t)
	unit, err := classfile.NewExtractor().Extract(class)
	require.NoError(t, err)

	assert.Equal(t, "Foo", unit.Name)
	assert.Equal(t, classfile.ClassID(class), unit.ID)

	// Two outcomes of the ifeq on line 10, then the two returns.
	require.Equal(t, []coverage.ProbePoint{
		{Line: 10, Branch: 0},
		{Line: 10, Branch: 0},
		{Line: 11, Branch: -1},
		{Line: 12, Branch: -1},
	}, unit.Points)
}

func TestExtractorRejectsGarbage(t *testing.T) {
	_, err := classfile.NewExtractor().Extract([]byte("not a class file"))
	require.ErrorIs(t, err, classfile.ErrMalformed)
}
