package classfile

import (
	"fmt"

	"github.com/jvmcov/jvmcov/pkg/coverage"
)

// Extractor derives the instrumentation structure of a class from its
// bytecode. The probe assignment scheme is the contract shared with the
// instrumenter and is fixed:
//
//   - methods contribute points in declaration order, instructions in
//     ascending bytecode offset;
//   - every conditional branch contributes one point per outcome (two), in
//     one branch group;
//   - every tableswitch/lookupswitch contributes one point per jump target
//     including the default, in one branch group;
//   - every method exit (the return family and athrow) contributes one
//     point outside any branch group.
//
// Points inherit the source line of their instruction from the method's
// line number table.
type Extractor struct{}

var _ coverage.StructureExtractor = (*Extractor)(nil)

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(classBytes []byte) (*coverage.UnitStructure, error) {
	cf, err := Parse(classBytes)
	if err != nil {
		return nil, err
	}

	unit := &coverage.UnitStructure{
		ID:   ClassID(classBytes),
		Name: cf.Name,
	}

	branchGroup := 0
	for i := range cf.Methods {
		m := &cf.Methods[i]
		if len(m.Code) == 0 {
			continue
		}
		err := scanCode(m.Code, func(offset int, opcode byte, switchTargets int) error {
			line := m.LineAt(offset)
			switch {
			case isConditionalBranch(opcode):
				unit.Points = append(unit.Points,
					coverage.ProbePoint{Line: line, Branch: branchGroup},
					coverage.ProbePoint{Line: line, Branch: branchGroup},
				)
				branchGroup++
			case isSwitch(opcode):
				for t := 0; t < switchTargets; t++ {
					unit.Points = append(unit.Points,
						coverage.ProbePoint{Line: line, Branch: branchGroup})
				}
				branchGroup++
			case isExit(opcode):
				unit.Points = append(unit.Points,
					coverage.ProbePoint{Line: line, Branch: -1})
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("method %s%s: %w", m.Name, m.Descriptor, err)
		}
	}
	return unit, nil
}
