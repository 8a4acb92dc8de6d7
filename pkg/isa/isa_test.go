package isa

import "testing"

func encodeR(funct7, rs2, rs1, funct3, rd uint8) uint32 {
	return uint32(funct7)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | uint32(funct3)<<12 | uint32(rd)<<7 | uint32(OpR)
}

func encodeI(imm int32, rs1, funct3, rd uint8) uint32 {
	return uint32(uint32(imm)&0xFFF)<<20 | uint32(rs1)<<15 | uint32(funct3)<<12 | uint32(rd)<<7 | uint32(OpI)
}

func encodeS(imm int32, rs2, rs1, funct3 uint8) uint32 {
	u := uint32(imm) & 0xFFF
	return (u>>5)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | uint32(funct3)<<12 | (u&0x1F)<<7 | uint32(OpStore)
}

func encodeB(imm int32, rs2, rs1, funct3 uint8) uint32 {
	u := uint32(imm) & 0x1FFF
	bit12 := (u >> 12) & 0x1
	bit11 := (u >> 11) & 0x1
	bits10_5 := (u >> 5) & 0x3F
	bits4_1 := (u >> 1) & 0xF
	return bit12<<31 | bits10_5<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | uint32(funct3)<<12 | bits4_1<<8 | bit11<<7 | uint32(OpBranch)
}

func encodeJ(imm int32, rd uint8) uint32 {
	u := uint32(imm) & 0x1FFFFF
	bit20 := (u >> 20) & 0x1
	bits10_1 := (u >> 1) & 0x3FF
	bit11 := (u >> 11) & 0x1
	bits19_12 := (u >> 12) & 0xFF
	return bit20<<31 | bits10_1<<21 | bit11<<20 | bits19_12<<12 | uint32(rd)<<7 | uint32(OpJAL)
}

func TestDecodeRType(t *testing.T) {
	word := encodeR(Funct7Sub, 3, 2, Funct3AddSub, 1)
	d := Decode(word)
	if d.Opcode != OpR || d.Rd != 1 || d.Rs1 != 2 || d.Rs2 != 3 || d.Funct3 != Funct3AddSub || d.Funct7 != Funct7Sub {
		t.Errorf("Decode(R-type SUB) = %+v, fields mismatch", d)
	}
}

func TestDecodeImmediates(t *testing.T) {
	tests := []struct {
		name string
		word uint32
		want int32
	}{
		{"I-type positive", encodeI(100, 1, Funct3AddSub, 2), 100},
		{"I-type negative", encodeI(-1, 1, Funct3AddSub, 2), -1},
		{"S-type negative", encodeS(-4, 5, 1, 0x2), -4},
		{"B-type negative", encodeB(-8, 2, 1, Funct3Beq), -8},
		{"J-type positive", encodeJ(2048, 1), 2048},
	}
	for _, tc := range tests {
		d := Decode(tc.word)
		var got int32
		switch {
		case d.Opcode == OpI:
			got = d.ImmI
		case d.Opcode == OpStore:
			got = d.ImmS
		case d.Opcode == OpBranch:
			got = d.ImmB
		case d.Opcode == OpJAL:
			got = d.ImmJ
		}
		if got != tc.want {
			t.Errorf("%s: immediate = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestControlUndefinedOpcodeIsInertNop(t *testing.T) {
	ctrl := Control(Opcode(0x00))
	if ctrl.RegWrite || ctrl.MemRead || ctrl.MemWrite || ctrl.IsJAL || ctrl.IsHalt {
		t.Errorf("Control(undefined opcode) = %+v, want all-false control signals", ctrl)
	}
}

func TestALUComputeRegOps(t *testing.T) {
	tests := []struct {
		name           string
		funct3, funct7 uint8
		a, b           uint32
		want           uint32
	}{
		{"add", Funct3AddSub, 0, 5, 3, 8},
		{"sub", Funct3AddSub, Funct7Sub, 5, 3, 2},
		{"xor", Funct3Xor, 0, 0xF0, 0x0F, 0xFF},
		{"or", Funct3Or, 0, 0xF0, 0x0F, 0xFF},
		{"and", Funct3And, 0, 0xFF, 0x0F, 0x0F},
	}
	for _, tc := range tests {
		got := ALUCompute(ALUOpReg, tc.funct3, tc.funct7, tc.a, tc.b)
		if got != tc.want {
			t.Errorf("%s: ALUCompute = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestALUComputeMemAddr(t *testing.T) {
	if got := ALUCompute(ALUOpMemAddr, 0, 0, 100, 8); got != 108 {
		t.Errorf("ALUCompute(MemAddr) = %d, want 108", got)
	}
}

func TestBranchTaken(t *testing.T) {
	if !BranchTaken(Funct3Beq, 5, 5) {
		t.Error("BEQ 5,5 should be taken")
	}
	if BranchTaken(Funct3Beq, 5, 6) {
		t.Error("BEQ 5,6 should not be taken")
	}
	if !BranchTaken(Funct3Bne, 5, 6) {
		t.Error("BNE 5,6 should be taken")
	}
	if BranchTaken(Funct3Bne, 5, 5) {
		t.Error("BNE 5,5 should not be taken")
	}
}

func TestSignExtend(t *testing.T) {
	if got := SignExtend(0xFFF, 12); got != -1 {
		t.Errorf("SignExtend(0xFFF, 12) = %d, want -1", got)
	}
	if got := SignExtend(0x7FF, 12); got != 2047 {
		t.Errorf("SignExtend(0x7FF, 12) = %d, want 2047", got)
	}
}
