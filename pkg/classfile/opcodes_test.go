package classfile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type scannedInst struct {
	offset  int
	opcode  byte
	targets int
}

func scanAll(t *testing.T, code []byte) []scannedInst {
	t.Helper()
	var insts []scannedInst
	err := scanCode(code, func(offset int, opcode byte, switchTargets int) error {
		insts = append(insts, scannedInst{offset, opcode, switchTargets})
		return nil
	})
	require.NoError(t, err)
	return insts
}

func TestScanFixedWidth(t *testing.T) {
	code := []byte{
		0x04,             // iconst_1
		0x10, 0x2A,       // bipush 42
		0xB6, 0x00, 0x07, // invokevirtual #7
		0xB1, // return
	}
	insts := scanAll(t, code)
	require.Equal(t, []scannedInst{
		{0, 0x04, 0},
		{1, 0x10, 0},
		{3, 0xB6, 0},
		{6, 0xB1, 0},
	}, insts)
}

func TestScanTableSwitch(t *testing.T) {
	// tableswitch at offset 0: operands padded to offset 4, cases 1..3.
	code := []byte{
		0xAA,             // tableswitch
		0x00, 0x00, 0x00, // padding
		0x00, 0x00, 0x00, 0x1C, // default
		0x00, 0x00, 0x00, 0x01, // low = 1
		0x00, 0x00, 0x00, 0x03, // high = 3
		0x00, 0x00, 0x00, 0x1C,
		0x00, 0x00, 0x00, 0x1C,
		0x00, 0x00, 0x00, 0x1C,
		0xB1, // return at offset 28
	}
	insts := scanAll(t, code)
	require.Equal(t, []scannedInst{
		{0, 0xAA, 4}, // 3 cases + default
		{28, 0xB1, 0},
	}, insts)
}

func TestScanLookupSwitch(t *testing.T) {
	// lookupswitch at offset 1, so padding is two bytes.
	code := []byte{
		0x00,       // nop
		0xAB,       // lookupswitch
		0x00, 0x00, // padding to offset 4
		0x00, 0x00, 0x00, 0x18, // default
		0x00, 0x00, 0x00, 0x02, // npairs = 2
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x18, // match 1
		0x00, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00, 0x18, // match 5
		0xB1, // return at offset 28
	}
	insts := scanAll(t, code)
	require.Equal(t, []scannedInst{
		{0, 0x00, 0},
		{1, 0xAB, 3}, // 2 pairs + default
		{28, 0xB1, 0},
	}, insts)
}

func TestScanWide(t *testing.T) {
	code := []byte{
		0xC4, 0x84, 0x00, 0x05, 0x00, 0x01, // wide iinc
		0xC4, 0x15, 0x01, 0x00, // wide iload
		0xB1,
	}
	insts := scanAll(t, code)
	require.Equal(t, []scannedInst{
		{0, 0xC4, 0},
		{6, 0xC4, 0},
		{10, 0xB1, 0},
	}, insts)
}

func TestScanMalformed(t *testing.T) {
	for _, test := range []struct {
		name string
		code []byte
	}{
		{name: "undefined opcode", code: []byte{0xCB}},
		{name: "truncated operand", code: []byte{0x10}},
		{name: "truncated switch", code: []byte{0xAA, 0x00, 0x00, 0x00}},
		{name: "inverted switch bounds", code: []byte{
			0xAA,
			0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x0C,
			0x00, 0x00, 0x00, 0x03, // low = 3
			0x00, 0x00, 0x00, 0x01, // high = 1
		}},
	} {
		t.Run(test.name, func(t *testing.T) {
			err := scanCode(test.code, func(int, byte, int) error { return nil })
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestOpcodeClassification(t *testing.T) {
	require.True(t, isConditionalBranch(0x99))  // ifeq
	require.True(t, isConditionalBranch(0xA6))  // if_acmpne
	require.True(t, isConditionalBranch(0xC6))  // ifnull
	require.False(t, isConditionalBranch(0xA7)) // goto

	require.True(t, isExit(0xAC)) // ireturn
	require.True(t, isExit(0xB1)) // return
	require.True(t, isExit(0xBF)) // athrow
	require.False(t, isExit(0xB2))

	require.True(t, isSwitch(opTableSwitch))
	require.True(t, isSwitch(opLookupSwitch))
}
