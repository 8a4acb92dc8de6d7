package fs

import (
	"fmt"

	"github.com/rv32lockstep/sim/pkg/isa"
)

// Every latch below is a fixed-shape tagged record: Nop marks it a bubble
// that performs no architectural effect and whose other fields read as
// zero, except that a nop IFLatch keeps its PC pinned. Fields are kept in the order SPEC_FULL.md §3 declares them, since
// that is also the order the state trace prints them in.

// IFLatch holds the fetch stage's own program counter.
type IFLatch struct {
	Nop bool
	PC  uint32
}

// IFIDLatch is the IF/ID pipeline register.
type IFIDLatch struct {
	Nop   bool
	PC    uint32
	Instr uint32
}

// IDEXLatch is the ID/EX pipeline register.
type IDEXLatch struct {
	Nop       bool
	Instr     uint32
	PC        uint32
	ReadData1 uint32
	ReadData2 uint32
	Imm       int32
	Rs1       uint8
	Rs2       uint8
	Rd        uint8
	Opcode    isa.Opcode
	Funct3    uint8
	Funct7    uint8
	MemRead   bool
	MemWrite  bool
	RegWrite  bool
	MemToReg  bool
	ALUSrc    bool
	ALUOp     isa.ALUOp
	IsJAL     bool
	IsHalt    bool
}

// EXMEMLatch is the EX/MEM pipeline register.
type EXMEMLatch struct {
	Nop       bool
	PC        uint32
	ALUResult uint32
	WriteData uint32
	Rd        uint8
	Rs1       uint8
	Rs2       uint8
	MemRead   bool
	MemWrite  bool
	RegWrite  bool
	MemToReg  bool
	IsJAL     bool
	IsHalt    bool
}

// MEMWBLatch is the MEM/WB pipeline register.
type MEMWBLatch struct {
	Nop       bool
	ALUResult uint32
	ReadData  uint32
	WriteData uint32
	Rd        uint8
	Rs1       uint8
	Rs2       uint8
	RegWrite  bool
	MemToReg  bool
	IsJAL     bool
	IsHalt    bool
}

func boolStr(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func bin32(v uint32) string { return fmt.Sprintf("%032b", v) }
func bin5(v uint8) string   { return fmt.Sprintf("%05b", v&0x1F) }
func bin2(v isa.ALUOp) string {
	return fmt.Sprintf("%02b", uint8(v)&0x3)
}

// Lines renders the IF latch's fields in declared order.
func (l IFLatch) Lines() []string {
	return []string{
		fmt.Sprintf("IF.nop: %s", boolStr(l.Nop)),
		fmt.Sprintf("IF.PC: %d", l.PC),
	}
}

// Lines renders the IF/ID latch's fields in declared order. The
// instruction slot is left blank when the latch is a bubble.
func (l IFIDLatch) Lines() []string {
	instr := ""
	if !l.Nop {
		instr = bin32(l.Instr)
	}
	return []string{
		fmt.Sprintf("IF/ID.nop: %s", boolStr(l.Nop)),
		fmt.Sprintf("IF/ID.PC: %d", l.PC),
		fmt.Sprintf("IF/ID.Instr: %s", instr),
	}
}

// Lines renders the ID/EX latch's fields in declared order.
func (l IDEXLatch) Lines() []string {
	instr := ""
	if !l.Nop {
		instr = bin32(l.Instr)
	}
	return []string{
		fmt.Sprintf("ID/EX.nop: %s", boolStr(l.Nop)),
		fmt.Sprintf("ID/EX.Instr: %s", instr),
		fmt.Sprintf("ID/EX.PC: %d", l.PC),
		fmt.Sprintf("ID/EX.Read_data1: %s", bin32(l.ReadData1)),
		fmt.Sprintf("ID/EX.Read_data2: %s", bin32(l.ReadData2)),
		fmt.Sprintf("ID/EX.Imm: %d", l.Imm),
		fmt.Sprintf("ID/EX.rs1: %s", bin5(l.Rs1)),
		fmt.Sprintf("ID/EX.rs2: %s", bin5(l.Rs2)),
		fmt.Sprintf("ID/EX.rd: %s", bin5(l.Rd)),
		fmt.Sprintf("ID/EX.opcode: %d", l.Opcode),
		fmt.Sprintf("ID/EX.funct3: %d", l.Funct3),
		fmt.Sprintf("ID/EX.funct7: %d", l.Funct7),
		fmt.Sprintf("ID/EX.MemRead: %s", boolStr(l.MemRead)),
		fmt.Sprintf("ID/EX.MemWrite: %s", boolStr(l.MemWrite)),
		fmt.Sprintf("ID/EX.RegWrite: %s", boolStr(l.RegWrite)),
		fmt.Sprintf("ID/EX.MemtoReg: %s", boolStr(l.MemToReg)),
		fmt.Sprintf("ID/EX.ALUSrc: %s", boolStr(l.ALUSrc)),
		fmt.Sprintf("ID/EX.ALUOp: %s", bin2(l.ALUOp)),
		fmt.Sprintf("ID/EX.isJAL: %s", boolStr(l.IsJAL)),
		fmt.Sprintf("ID/EX.is_halt: %s", boolStr(l.IsHalt)),
	}
}

// Lines renders the EX/MEM latch's fields in declared order.
func (l EXMEMLatch) Lines() []string {
	return []string{
		fmt.Sprintf("EX/MEM.nop: %s", boolStr(l.Nop)),
		fmt.Sprintf("EX/MEM.PC: %d", l.PC),
		fmt.Sprintf("EX/MEM.ALUResult: %s", bin32(l.ALUResult)),
		fmt.Sprintf("EX/MEM.WriteData: %s", bin32(l.WriteData)),
		fmt.Sprintf("EX/MEM.rd: %s", bin5(l.Rd)),
		fmt.Sprintf("EX/MEM.rs1: %s", bin5(l.Rs1)),
		fmt.Sprintf("EX/MEM.rs2: %s", bin5(l.Rs2)),
		fmt.Sprintf("EX/MEM.MemRead: %s", boolStr(l.MemRead)),
		fmt.Sprintf("EX/MEM.MemWrite: %s", boolStr(l.MemWrite)),
		fmt.Sprintf("EX/MEM.RegWrite: %s", boolStr(l.RegWrite)),
		fmt.Sprintf("EX/MEM.MemtoReg: %s", boolStr(l.MemToReg)),
		fmt.Sprintf("EX/MEM.isJAL: %s", boolStr(l.IsJAL)),
		fmt.Sprintf("EX/MEM.is_halt: %s", boolStr(l.IsHalt)),
	}
}

// Lines renders the MEM/WB latch's fields in declared order.
func (l MEMWBLatch) Lines() []string {
	return []string{
		fmt.Sprintf("MEM/WB.nop: %s", boolStr(l.Nop)),
		fmt.Sprintf("MEM/WB.ALUResult: %s", bin32(l.ALUResult)),
		fmt.Sprintf("MEM/WB.ReadData: %s", bin32(l.ReadData)),
		fmt.Sprintf("MEM/WB.WriteData: %s", bin32(l.WriteData)),
		fmt.Sprintf("MEM/WB.rd: %s", bin5(l.Rd)),
		fmt.Sprintf("MEM/WB.rs1: %s", bin5(l.Rs1)),
		fmt.Sprintf("MEM/WB.rs2: %s", bin5(l.Rs2)),
		fmt.Sprintf("MEM/WB.RegWrite: %s", boolStr(l.RegWrite)),
		fmt.Sprintf("MEM/WB.MemtoReg: %s", boolStr(l.MemToReg)),
		fmt.Sprintf("MEM/WB.isJAL: %s", boolStr(l.IsJAL)),
		fmt.Sprintf("MEM/WB.is_halt: %s", boolStr(l.IsHalt)),
	}
}

// allNop reports whether every latch in the pipeline is currently a bubble
// — the condition that, once observed, means the core is halted.
func allNop(ifl IFLatch, ifid IFIDLatch, idex IDEXLatch, exmem EXMEMLatch, memwb MEMWBLatch) bool {
	return ifl.Nop && ifid.Nop && idex.Nop && exmem.Nop && memwb.Nop
}
