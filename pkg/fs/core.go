// Package fs implements the five-stage pipelined core: IF, ID, EX, MEM, and
// WB run every cycle, overlapped, joined by four pipeline latches plus the
// fetch stage's own program-counter latch. Hazards are resolved by
// forwarding where possible and by a single load-use stall otherwise;
// branches and jumps resolve in ID, one stage earlier than a textbook EX
// resolution, which is why the forwarding network reaches one cycle deeper
// than the classic two-source EX/MEM + MEM/WB network (see forwardToID).
package fs

import (
	"fmt"

	"github.com/rv32lockstep/sim/pkg/isa"
	"github.com/rv32lockstep/sim/pkg/mem"
	"github.com/rv32lockstep/sim/pkg/rf"
	"github.com/rv32lockstep/sim/pkg/trace"
)

// MaxCycles aborts a run that never drains to all-nop.
const MaxCycles = 100000

// Core is the five-stage pipelined core.
type Core struct {
	im *mem.IMEM
	dm *mem.DMEM
	rf *rf.RF

	ifl   IFLatch
	ifid  IFIDLatch
	idex  IDEXLatch
	exmem EXMEMLatch
	memwb MEMWBLatch

	cycle   int
	retired int
	halted  bool

	rfw *trace.RFWriter
	sw  *trace.StateWriter
}

// New constructs a five-stage core over shared IMEM and a dedicated DMEM.
func New(im *mem.IMEM, dm *mem.DMEM, rfw *trace.RFWriter, sw *trace.StateWriter) *Core {
	return &Core{im: im, dm: dm, rf: rf.New(), rfw: rfw, sw: sw}
}

// Halted reports whether every latch has drained to nop.
func (c *Core) Halted() bool { return c.halted }

// Cycle returns the number of cycles executed so far.
func (c *Core) Cycle() int { return c.cycle }

// Retired returns the number of instructions whose WB wrote a register
// (RegWrite set and rd != 0). Stores, branches, writes to x0 and HALT pass
// through WB without counting.
func (c *Core) Retired() int { return c.retired }

// DM returns the core's private data memory, for the driver's final dump.
func (c *Core) DM() *mem.DMEM { return c.dm }

// RF returns the core's register file.
func (c *Core) RF() *rf.RF { return c.rf }

// WriteInitialRF writes the cycle-0 RF snapshot (all registers zero).
func (c *Core) WriteInitialRF() error {
	return c.rfw.WriteBlock(true, rfHeader(0), c.rf)
}

func rfHeader(cycle int) string {
	return fmt.Sprintf("State of RF after executing cycle:%d", cycle)
}

func (c *Core) writeSnapshot() error {
	if err := c.rfw.WriteBlock(true, rfHeader(c.cycle), c.rf); err != nil {
		return err
	}
	header := fmt.Sprintf("State after executing cycle: %d", c.cycle)
	var lines []string
	lines = append(lines, c.ifl.Lines()...)
	lines = append(lines, c.ifid.Lines()...)
	lines = append(lines, c.idex.Lines()...)
	lines = append(lines, c.exmem.Lines()...)
	lines = append(lines, c.memwb.Lines()...)
	return c.sw.WriteBlock(header, lines)
}

// forwardToEX resolves an EX-stage operand: EX/MEM has priority over
// MEM/WB; both consult the pre-swap (current-cycle) latches only, per the
// same-cycle ordering described in SPEC_FULL.md §5.
func (c *Core) forwardToEX(reg uint8, fallback uint32) uint32 {
	if reg == 0 {
		return 0
	}
	if !c.exmem.Nop && c.exmem.RegWrite && !c.exmem.MemRead && c.exmem.Rd == reg {
		return c.exmem.ALUResult
	}
	if !c.memwb.Nop && c.memwb.RegWrite && c.memwb.Rd == reg {
		return c.memwb.WriteData
	}
	return fallback
}

// forwardToID resolves an operand used by ID's own branch comparison. A
// branch reads its operands one stage earlier than a normal EX consumer
// would, so the producer immediately ahead of it is still completing EX in
// this very cycle rather than already sitting in EX/MEM: nextExMem (this
// cycle's freshly computed EX output, available because EX runs before ID
// in the per-cycle reverse traversal) is consulted first, then the
// standing EX/MEM and MEM/WB latches. A load immediately ahead of a branch
// is instead handled by the load-use stall, never by this path.
func (c *Core) forwardToID(reg uint8, fallback uint32, nextExMem EXMEMLatch) uint32 {
	if reg == 0 {
		return 0
	}
	if !nextExMem.Nop && nextExMem.RegWrite && !nextExMem.MemRead && nextExMem.Rd == reg {
		return nextExMem.ALUResult
	}
	if !c.exmem.Nop && c.exmem.RegWrite && !c.exmem.MemRead && c.exmem.Rd == reg {
		return c.exmem.ALUResult
	}
	if !c.memwb.Nop && c.memwb.RegWrite && c.memwb.Rd == reg {
		return c.memwb.WriteData
	}
	return fallback
}

// Step advances the pipeline by exactly one cycle. Once halted, Step is a
// no-op. Stages run WB, MEM, EX, ID, IF — in that order, so that the
// WB issued this cycle is visible to this same cycle's ID-stage register
// reads, and so that a stage never consumes a latch another stage has
// already overwritten this cycle.
func (c *Core) Step() error {
	if c.halted {
		return nil
	}
	if c.cycle >= MaxCycles {
		c.halted = true
		return nil
	}
	c.cycle++

	// WB
	if !c.memwb.Nop && c.memwb.RegWrite && c.memwb.Rd != 0 {
		c.rf.Write(c.memwb.Rd, c.memwb.WriteData)
		c.retired++
	}

	// MEM
	var nextMemWB MEMWBLatch
	if c.exmem.Nop {
		nextMemWB = MEMWBLatch{Nop: true}
	} else {
		var readData uint32
		if c.exmem.MemRead {
			readData = c.dm.ReadWord(c.exmem.ALUResult)
		}
		if c.exmem.MemWrite {
			c.dm.WriteWord(c.exmem.ALUResult, c.exmem.WriteData)
		}
		writeData := c.exmem.ALUResult
		if c.exmem.MemToReg {
			writeData = readData
		}
		nextMemWB = MEMWBLatch{
			Nop:       false,
			ALUResult: c.exmem.ALUResult,
			ReadData:  readData,
			WriteData: writeData,
			Rd:        c.exmem.Rd,
			Rs1:       c.exmem.Rs1,
			Rs2:       c.exmem.Rs2,
			RegWrite:  c.exmem.RegWrite,
			MemToReg:  c.exmem.MemToReg,
			IsJAL:     c.exmem.IsJAL,
			IsHalt:    c.exmem.IsHalt,
		}
	}

	// EX
	var nextExMem EXMEMLatch
	if c.idex.Nop {
		nextExMem = EXMEMLatch{Nop: true}
	} else {
		op1 := c.forwardToEX(c.idex.Rs1, c.idex.ReadData1)
		op2 := c.forwardToEX(c.idex.Rs2, c.idex.ReadData2)

		var aluResult uint32
		switch c.idex.ALUOp {
		case isa.ALUOpReg:
			operandB := op2
			funct7 := c.idex.Funct7
			if c.idex.ALUSrc {
				// I-type: Funct7 is really imm[11:5] here, not a SUB
				// selector -- ADDI/XORI/ORI/ANDI must not read it.
				operandB = uint32(c.idex.Imm)
				funct7 = 0
			}
			aluResult = isa.ALUCompute(isa.ALUOpReg, c.idex.Funct3, funct7, op1, operandB)
		case isa.ALUOpMemAddr:
			aluResult = isa.ALUCompute(isa.ALUOpMemAddr, 0, 0, op1, uint32(c.idex.Imm))
		case isa.ALUOpLink:
			aluResult = c.idex.PC + 4
		default:
			aluResult = 0
		}

		nextExMem = EXMEMLatch{
			Nop:       false,
			PC:        c.idex.PC,
			ALUResult: aluResult,
			WriteData: op2,
			Rd:        c.idex.Rd,
			Rs1:       c.idex.Rs1,
			Rs2:       c.idex.Rs2,
			MemRead:   c.idex.MemRead,
			MemWrite:  c.idex.MemWrite,
			RegWrite:  c.idex.RegWrite,
			MemToReg:  c.idex.MemToReg,
			IsJAL:     c.idex.IsJAL,
			IsHalt:    c.idex.IsHalt,
		}
	}

	// ID
	nextIDEX, stall, redirect, target := c.stageID(nextExMem)

	// IF
	nextIF, nextIFID := c.stageIF(stall, redirect, target)

	c.memwb = nextMemWB
	c.exmem = nextExMem
	c.idex = nextIDEX
	c.ifid = nextIFID
	c.ifl = nextIF

	if err := c.writeSnapshot(); err != nil {
		return err
	}
	if allNop(c.ifl, c.ifid, c.idex, c.exmem, c.memwb) {
		c.halted = true
	}
	return nil
}

func (c *Core) stageID(nextExMem EXMEMLatch) (nextIDEX IDEXLatch, stall bool, redirect bool, target uint32) {
	if c.ifid.Nop {
		nextIDEX = IDEXLatch{Nop: true}
		return
	}

	d := isa.Decode(c.ifid.Instr)

	if !c.idex.Nop && c.idex.MemRead && c.idex.Rd != 0 && (c.idex.Rd == d.Rs1 || c.idex.Rd == d.Rs2) {
		stall = true
		nextIDEX = IDEXLatch{Nop: true}
		return
	}

	ctrl := isa.Control(d.Opcode)
	rawA := c.rf.Read(d.Rs1)
	rawB := c.rf.Read(d.Rs2)

	var imm int32
	switch d.Opcode {
	case isa.OpLoad, isa.OpI:
		imm = d.ImmI
	case isa.OpStore:
		imm = d.ImmS
	}

	switch d.Opcode {
	case isa.OpBranch:
		a := c.forwardToID(d.Rs1, rawA, nextExMem)
		b := c.forwardToID(d.Rs2, rawB, nextExMem)
		if isa.BranchTaken(d.Funct3, a, b) {
			redirect = true
			target = c.ifid.PC + uint32(d.ImmB)
		}
	case isa.OpJAL:
		redirect = true
		target = c.ifid.PC + uint32(d.ImmJ)
	}

	nextIDEX = IDEXLatch{
		Nop:       false,
		Instr:     c.ifid.Instr,
		PC:        c.ifid.PC,
		ReadData1: rawA,
		ReadData2: rawB,
		Imm:       imm,
		Rs1:       d.Rs1,
		Rs2:       d.Rs2,
		Rd:        d.Rd,
		Opcode:    d.Opcode,
		Funct3:    d.Funct3,
		Funct7:    d.Funct7,
		MemRead:   ctrl.MemRead,
		MemWrite:  ctrl.MemWrite,
		RegWrite:  ctrl.RegWrite,
		MemToReg:  ctrl.MemToReg,
		ALUSrc:    ctrl.ALUSrc,
		ALUOp:     ctrl.ALUOp,
		IsJAL:     ctrl.IsJAL,
		IsHalt:    ctrl.IsHalt,
	}
	return
}

func (c *Core) stageIF(stall, redirect bool, target uint32) (IFLatch, IFIDLatch) {
	if c.ifl.Nop {
		return IFLatch{Nop: true, PC: c.ifl.PC}, IFIDLatch{Nop: true}
	}
	if stall {
		return IFLatch{Nop: false, PC: c.ifl.PC}, c.ifid
	}
	if redirect {
		return IFLatch{Nop: false, PC: target}, IFIDLatch{Nop: true}
	}

	fetchPC := c.ifl.PC
	word := c.im.FetchWord(fetchPC)
	d := isa.Decode(word)

	ifid := IFIDLatch{Nop: false, PC: fetchPC, Instr: word}
	if int(fetchPC) >= c.im.Len() || d.Opcode == isa.OpHalt {
		return IFLatch{Nop: true, PC: fetchPC}, ifid
	}
	return IFLatch{Nop: false, PC: fetchPC + 4}, ifid
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
