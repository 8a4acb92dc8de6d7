// Package isa decodes the RV32I subset shared by both cores and centralizes
// the ALU and control-signal logic so it is written exactly once instead of
// being duplicated per core.
package isa

// Opcode is the 7-bit opcode field of an RV32I instruction word.
type Opcode uint8

const (
	OpR      Opcode = 0x33 // register-register ALU
	OpI      Opcode = 0x13 // register-immediate ALU
	OpLoad   Opcode = 0x03 // LW
	OpStore  Opcode = 0x23 // SW
	OpBranch Opcode = 0x63 // BEQ / BNE
	OpJAL    Opcode = 0x6F // JAL
	OpHalt   Opcode = 0x7F // architectural stop sentinel
)

// funct3 values, scoped to the opcode they appear under.
const (
	Funct3AddSub uint8 = 0x0
	Funct3Xor    uint8 = 0x4
	Funct3Or     uint8 = 0x6
	Funct3And    uint8 = 0x7
	Funct3Load   uint8 = 0x2 // LW
	Funct3Store  uint8 = 0x2 // SW
	Funct3Beq    uint8 = 0x0
	Funct3Bne    uint8 = 0x1
)

// Funct7Sub distinguishes SUB from ADD on OpR/Funct3AddSub.
const Funct7Sub uint8 = 0x20

// ALUOp is the 2-bit control code threaded from ID/EX through to the EX
// stage ALU, mirroring the classic two-bit ALUOp of a textbook 5-stage
// datapath: the exact operation (add/sub/xor/or/and) is resolved from
// funct3/funct7 only once ALUOp says "this is an R/I-type ALU op".
type ALUOp uint8

const (
	ALUOpMemAddr ALUOp = 0 // loads/stores: address = rs1 + imm
	ALUOpBranch  ALUOp = 1 // branch: passed through inert, resolved in ID
	ALUOpReg     ALUOp = 2 // R-type/I-type: funct3/funct7 select the op
	ALUOpLink    ALUOp = 3 // JAL: ALUResult = PC + 4
)

// Decoded holds every field extracted from one fetched instruction word.
type Decoded struct {
	Raw    uint32
	Opcode Opcode
	Rd     uint8
	Funct3 uint8
	Rs1    uint8
	Rs2    uint8
	Funct7 uint8

	ImmI int32
	ImmS int32
	ImmB int32
	ImmJ int32
}

// ControlSignals are the datapath control lines generated in decode, carried
// in the ID/EX (and, in truncated form, EX/MEM and MEM/WB) latches.
type ControlSignals struct {
	MemRead  bool
	MemWrite bool
	RegWrite bool
	MemToReg bool
	ALUSrc   bool
	IsJAL    bool
	IsHalt   bool
	ALUOp    ALUOp
}

// Control derives the fixed control signals for an opcode. Undefined
// opcodes (anything outside the supported subset) decode as an inert NOP:
// no register write, no memory effect.
func Control(op Opcode) ControlSignals {
	switch op {
	case OpR:
		return ControlSignals{RegWrite: true, ALUOp: ALUOpReg}
	case OpI:
		return ControlSignals{RegWrite: true, ALUSrc: true, ALUOp: ALUOpReg}
	case OpLoad:
		return ControlSignals{MemRead: true, RegWrite: true, MemToReg: true, ALUSrc: true, ALUOp: ALUOpMemAddr}
	case OpStore:
		return ControlSignals{MemWrite: true, ALUSrc: true, ALUOp: ALUOpMemAddr}
	case OpBranch:
		return ControlSignals{ALUOp: ALUOpBranch}
	case OpJAL:
		return ControlSignals{RegWrite: true, IsJAL: true, ALUOp: ALUOpLink}
	case OpHalt:
		return ControlSignals{IsHalt: true}
	default:
		return ControlSignals{}
	}
}

// SignExtend sign-extends the low `bits` bits of v to a full int32.
func SignExtend(v uint32, bits int) int32 {
	shift := uint(32 - bits)
	return int32(v<<shift) >> shift
}

// Decode extracts every instruction field from a fetched 32-bit word.
// Non-applicable fields for a given opcode are still computed; callers pick
// the immediate that matters for the opcode at hand.
func Decode(word uint32) Decoded {
	d := Decoded{
		Raw:    word,
		Opcode: Opcode(word & 0x7F),
		Rd:     uint8((word >> 7) & 0x1F),
		Funct3: uint8((word >> 12) & 0x7),
		Rs1:    uint8((word >> 15) & 0x1F),
		Rs2:    uint8((word >> 20) & 0x1F),
		Funct7: uint8((word >> 25) & 0x7F),
	}

	d.ImmI = SignExtend(word>>20, 12)

	immS := ((word >> 25) << 5) | ((word >> 7) & 0x1F)
	d.ImmS = SignExtend(immS, 12)

	immB := (((word >> 31) & 0x1) << 12) |
		(((word >> 7) & 0x1) << 11) |
		(((word >> 25) & 0x3F) << 5) |
		(((word >> 8) & 0xF) << 1)
	d.ImmB = SignExtend(immB, 13)

	immJ := (((word >> 31) & 0x1) << 20) |
		(((word >> 12) & 0xFF) << 12) |
		(((word >> 20) & 0x1) << 11) |
		(((word >> 21) & 0x3FF) << 1)
	d.ImmJ = SignExtend(immJ, 21)

	return d
}

// ALUCompute evaluates the R-type/I-type ALU and the load/store address
// adder. JAL's link value (PC+4) and branch comparisons are not ALU
// operations in this datapath — see EX (§4.3.3) and ID (§4.3.2) respectively.
// funct7 only selects SUB for R-type; I-type instructions have no funct7
// field (bits[31:25] there are imm[11:5]), so callers must pass 0 for them
// or ADDI/XORI/ORI/ANDI will misread an immediate as a SUB selector.
func ALUCompute(aluOp ALUOp, funct3, funct7 uint8, a, b uint32) uint32 {
	switch aluOp {
	case ALUOpMemAddr:
		return a + b
	case ALUOpReg:
		switch funct3 {
		case Funct3AddSub:
			if funct7 == Funct7Sub {
				return a - b
			}
			return a + b
		case Funct3Xor:
			return a ^ b
		case Funct3Or:
			return a | b
		case Funct3And:
			return a & b
		}
	}
	return 0
}

// BranchTaken evaluates a branch's condition given its funct3 and operands.
func BranchTaken(funct3 uint8, a, b uint32) bool {
	switch funct3 {
	case Funct3Beq:
		return a == b
	case Funct3Bne:
		return a != b
	}
	return false
}
