// Package ss implements the single-stage reference core: one architectural
// instruction is fetched, decoded, executed, and retired per cycle.
package ss

import (
	"fmt"

	"github.com/rv32lockstep/sim/pkg/isa"
	"github.com/rv32lockstep/sim/pkg/mem"
	"github.com/rv32lockstep/sim/pkg/rf"
	"github.com/rv32lockstep/sim/pkg/trace"
)

// MaxCycles aborts a run that never reaches HALT.
const MaxCycles = 10000

// Core is the single-stage functional core. It owns its own data memory and
// register file; the instruction memory is shared with the five-stage core.
type Core struct {
	im *mem.IMEM
	dm *mem.DMEM
	rf *rf.RF

	pc      uint32
	cycle   int
	retired int
	halted  bool

	rfw *trace.RFWriter
	sw  *trace.StateWriter
}

// New constructs a single-stage core over shared IMEM and a dedicated DMEM,
// writing its trace blocks through rfw/sw.
func New(im *mem.IMEM, dm *mem.DMEM, rfw *trace.RFWriter, sw *trace.StateWriter) *Core {
	return &Core{im: im, dm: dm, rf: rf.New(), rfw: rfw, sw: sw}
}

// Halted reports whether this core has stopped.
func (c *Core) Halted() bool { return c.halted }

// Cycle returns the number of cycles retired so far.
func (c *Core) Cycle() int { return c.cycle }

// Retired returns the number of instructions retired so far (HALT counts).
func (c *Core) Retired() int { return c.retired }

// DM returns the core's private data memory, for the driver's final dump.
func (c *Core) DM() *mem.DMEM { return c.dm }

// RF returns the core's register file.
func (c *Core) RF() *rf.RF { return c.rf }

// WriteInitialRF writes the cycle-0 RF snapshot (all registers zero).
func (c *Core) WriteInitialRF() error {
	return c.rfw.WriteBlock(false, rfHeader(0), c.rf)
}

func rfHeader(cycle int) string {
	return fmt.Sprintf("State of RF after executing cycle:  %d", cycle)
}

func boolStr(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func (c *Core) stateLines(pc uint32, nop bool) []string {
	return []string{
		fmt.Sprintf("IF.PC: %d", pc),
		fmt.Sprintf("IF.nop: %s", boolStr(nop)),
	}
}

func (c *Core) writeCycleSnapshot(cycle int, pc uint32, nop bool) error {
	if err := c.rfw.WriteBlock(false, rfHeader(cycle), c.rf); err != nil {
		return err
	}
	header := fmt.Sprintf("State after executing cycle: %d", cycle)
	return c.sw.WriteBlock(header, c.stateLines(pc, nop))
}

// Step executes exactly one cycle. Once halted, Step is a no-op.
func (c *Core) Step() error {
	if c.halted {
		return nil
	}
	if c.cycle >= MaxCycles {
		c.halted = true
		return nil
	}

	fetchPC := c.pc
	word := c.im.FetchWord(fetchPC)
	d := isa.Decode(word)

	if int(fetchPC) >= c.im.Len() || d.Opcode == isa.OpHalt {
		c.cycle++
		if err := c.writeCycleSnapshot(c.cycle, fetchPC, true); err != nil {
			return err
		}
		if err := c.writeCycleSnapshot(c.cycle+1, fetchPC, true); err != nil {
			return err
		}
		c.halted = true
		c.retired++
		return nil
	}

	a := c.rf.Read(d.Rs1)
	b := c.rf.Read(d.Rs2)
	nextPC := fetchPC + 4

	switch d.Opcode {
	case isa.OpR:
		c.rf.Write(d.Rd, isa.ALUCompute(isa.ALUOpReg, d.Funct3, d.Funct7, a, b))
	case isa.OpI:
		// Funct7 is imm[11:5] for I-type, not a SUB selector -- pass 0 so
		// ADDI/XORI/ORI/ANDI never mistakenly subtract.
		c.rf.Write(d.Rd, isa.ALUCompute(isa.ALUOpReg, d.Funct3, 0, a, uint32(d.ImmI)))
	case isa.OpLoad:
		c.rf.Write(d.Rd, c.dm.ReadWord(a+uint32(d.ImmI)))
	case isa.OpStore:
		c.dm.WriteWord(a+uint32(d.ImmS), b)
	case isa.OpBranch:
		if isa.BranchTaken(d.Funct3, a, b) {
			nextPC = fetchPC + uint32(d.ImmB)
		}
	case isa.OpJAL:
		c.rf.Write(d.Rd, fetchPC+4)
		nextPC = fetchPC + uint32(d.ImmJ)
	default:
		// Undefined opcode: treated as a NOP (no register or memory effect).
	}

	c.pc = nextPC
	c.cycle++
	c.retired++
	return c.writeCycleSnapshot(c.cycle, fetchPC, false)
}

// Run steps the core until it halts or MaxCycles is reached.
func (c *Core) Run() error {
	for !c.halted {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}
