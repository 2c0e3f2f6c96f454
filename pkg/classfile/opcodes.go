package classfile

import (
	"encoding/binary"
	"fmt"
)

// Linear bytecode scan. No control-flow graph is built: coverage structure
// only needs the positions of conditional branches, switches and method
// exits, all of which a single forward pass over instruction boundaries
// yields.

const (
	opIinc         = 0x84
	opTableSwitch  = 0xAA
	opLookupSwitch = 0xAB
	opWide         = 0xC4
)

// opcodeLengths holds the total byte size of every fixed-width instruction.
// Zero marks opcodes that are variable-width (wide, tableswitch,
// lookupswitch) or undefined.
var opcodeLengths [256]int

func init() {
	set := func(from, to int, n int) {
		for op := from; op <= to; op++ {
			opcodeLengths[op] = n
		}
	}
	set(0x00, 0x0F, 1)  // nop, constant pushes
	set(0x10, 0x10, 2)  // bipush
	set(0x11, 0x11, 3)  // sipush
	set(0x12, 0x12, 2)  // ldc
	set(0x13, 0x14, 3)  // ldc_w, ldc2_w
	set(0x15, 0x19, 2)  // iload..aload
	set(0x1A, 0x35, 1)  // *load_<n>, array loads
	set(0x36, 0x3A, 2)  // istore..astore
	set(0x3B, 0x56, 1)  // *store_<n>, array stores
	set(0x57, 0x5F, 1)  // stack manipulation
	set(0x60, 0x83, 1)  // arithmetic, logic
	set(0x84, 0x84, 3)  // iinc
	set(0x85, 0x98, 1)  // conversions, comparisons
	set(0x99, 0xA8, 3)  // ifeq..if_acmpne, goto, jsr
	set(0xA9, 0xA9, 2)  // ret
	set(0xAC, 0xB1, 1)  // ireturn..return
	set(0xB2, 0xB8, 3)  // field access, invokevirtual..invokestatic
	set(0xB9, 0xBA, 5)  // invokeinterface, invokedynamic
	set(0xBB, 0xBB, 3)  // new
	set(0xBC, 0xBC, 2)  // newarray
	set(0xBD, 0xBD, 3)  // anewarray
	set(0xBE, 0xBF, 1)  // arraylength, athrow
	set(0xC0, 0xC1, 3)  // checkcast, instanceof
	set(0xC2, 0xC3, 1)  // monitorenter, monitorexit
	set(0xC5, 0xC5, 4)  // multianewarray
	set(0xC6, 0xC7, 3)  // ifnull, ifnonnull
	set(0xC8, 0xC9, 5)  // goto_w, jsr_w
}

// isConditionalBranch reports two-way conditional jumps.
func isConditionalBranch(op byte) bool {
	return (op >= 0x99 && op <= 0xA6) || op == 0xC6 || op == 0xC7
}

// isSwitch reports multi-way jumps.
func isSwitch(op byte) bool {
	return op == opTableSwitch || op == opLookupSwitch
}

// isExit reports instructions that leave the method.
func isExit(op byte) bool {
	return (op >= 0xAC && op <= 0xB1) || op == 0xBF
}

// scanCode walks the bytecode instruction by instruction, calling visit with
// each instruction's offset, opcode and, for switches, the number of jump
// targets including the default.
func scanCode(code []byte, visit func(offset int, opcode byte, switchTargets int) error) error {
	pc := 0
	for pc < len(code) {
		op := code[pc]
		var next int
		targets := 0

		switch {
		case op == opTableSwitch, op == opLookupSwitch:
			// Operands start at the next 4-byte boundary relative to
			// the beginning of the code array.
			base := pc + 1 + (4-(pc+1)%4)%4
			if base+8 > len(code) {
				return truncatedInstruction(op, pc)
			}
			if op == opTableSwitch {
				if base+12 > len(code) {
					return truncatedInstruction(op, pc)
				}
				low := int32(binary.BigEndian.Uint32(code[base+4:]))
				high := int32(binary.BigEndian.Uint32(code[base+8:]))
				if high < low {
					return fmt.Errorf("%w: tableswitch bounds [%d, %d] at offset %d",
						ErrMalformed, low, high, pc)
				}
				targets = int(high-low+1) + 1
				next = base + 12 + 4*int(high-low+1)
			} else {
				npairs := int32(binary.BigEndian.Uint32(code[base+4:]))
				if npairs < 0 {
					return fmt.Errorf("%w: lookupswitch with %d pairs at offset %d",
						ErrMalformed, npairs, pc)
				}
				targets = int(npairs) + 1
				next = base + 8 + 8*int(npairs)
			}

		case op == opWide:
			if pc+1 >= len(code) {
				return truncatedInstruction(op, pc)
			}
			if code[pc+1] == opIinc {
				next = pc + 6
			} else {
				next = pc + 4
			}

		default:
			size := opcodeLengths[op]
			if size == 0 {
				return fmt.Errorf("%w: undefined opcode 0x%02x at offset %d", ErrMalformed, op, pc)
			}
			next = pc + size
		}

		if next > len(code) {
			return truncatedInstruction(op, pc)
		}
		if err := visit(pc, op, targets); err != nil {
			return err
		}
		pc = next
	}
	return nil
}

func truncatedInstruction(op byte, pc int) error {
	return fmt.Errorf("%w: truncated instruction 0x%02x at offset %d", ErrMalformed, op, pc)
}
