package hw

// opdef describes how to execute an opcode.
type opdef struct {
	name        string
	mode        AddrMode
	cycles      uint8 // base cost
	pagePenalty bool  // +1 cycle when indexing crosses a page
	exec        func(*CPU)
}

// ops is the dispatch table, an entry with a nil exec is an unimplemented
// opcode.
var ops [256]opdef

// unofficial reports the opcodes not documented by the manufacturer.
var unofficial [256]bool

func init() {
	for code, op := range officialOps {
		if op.exec != nil {
			ops[code] = op
		}
	}
	for code, op := range unofficialOps {
		if op.exec != nil {
			ops[code] = op
			unofficial[code] = true
		}
	}
}

var officialOps = [256]opdef{
	0x69: {"ADC", IMM, 2, false, ADC},
	0x65: {"ADC", ZPG, 3, false, ADC},
	0x75: {"ADC", ZPX, 4, false, ADC},
	0x6D: {"ADC", ABS, 4, false, ADC},
	0x7D: {"ADC", ABX, 4, true, ADC},
	0x79: {"ADC", ABY, 4, true, ADC},
	0x61: {"ADC", IZX, 6, false, ADC},
	0x71: {"ADC", IZY, 5, true, ADC},

	0x29: {"AND", IMM, 2, false, AND},
	0x25: {"AND", ZPG, 3, false, AND},
	0x35: {"AND", ZPX, 4, false, AND},
	0x2D: {"AND", ABS, 4, false, AND},
	0x3D: {"AND", ABX, 4, true, AND},
	0x39: {"AND", ABY, 4, true, AND},
	0x21: {"AND", IZX, 6, false, AND},
	0x31: {"AND", IZY, 5, true, AND},

	0x0A: {"ASL", ACC, 2, false, ASL},
	0x06: {"ASL", ZPG, 5, false, ASL},
	0x16: {"ASL", ZPX, 6, false, ASL},
	0x0E: {"ASL", ABS, 6, false, ASL},
	0x1E: {"ASL", ABX, 7, false, ASL},

	0x90: {"BCC", REL, 2, false, BCC},
	0xB0: {"BCS", REL, 2, false, BCS},
	0xF0: {"BEQ", REL, 2, false, BEQ},
	0x30: {"BMI", REL, 2, false, BMI},
	0xD0: {"BNE", REL, 2, false, BNE},
	0x10: {"BPL", REL, 2, false, BPL},
	0x50: {"BVC", REL, 2, false, BVC},
	0x70: {"BVS", REL, 2, false, BVS},

	0x24: {"BIT", ZPG, 3, false, BIT},
	0x2C: {"BIT", ABS, 4, false, BIT},

	0x00: {"BRK", IMP, 7, false, BRK},

	0x18: {"CLC", IMP, 2, false, CLC},
	0xD8: {"CLD", IMP, 2, false, CLD},
	0x58: {"CLI", IMP, 2, false, CLI},
	0xB8: {"CLV", IMP, 2, false, CLV},

	0xC9: {"CMP", IMM, 2, false, CMP},
	0xC5: {"CMP", ZPG, 3, false, CMP},
	0xD5: {"CMP", ZPX, 4, false, CMP},
	0xCD: {"CMP", ABS, 4, false, CMP},
	0xDD: {"CMP", ABX, 4, true, CMP},
	0xD9: {"CMP", ABY, 4, true, CMP},
	0xC1: {"CMP", IZX, 6, false, CMP},
	0xD1: {"CMP", IZY, 5, true, CMP},

	0xE0: {"CPX", IMM, 2, false, CPX},
	0xE4: {"CPX", ZPG, 3, false, CPX},
	0xEC: {"CPX", ABS, 4, false, CPX},

	0xC0: {"CPY", IMM, 2, false, CPY},
	0xC4: {"CPY", ZPG, 3, false, CPY},
	0xCC: {"CPY", ABS, 4, false, CPY},

	0xC6: {"DEC", ZPG, 5, false, DEC},
	0xD6: {"DEC", ZPX, 6, false, DEC},
	0xCE: {"DEC", ABS, 6, false, DEC},
	0xDE: {"DEC", ABX, 7, false, DEC},

	0xCA: {"DEX", IMP, 2, false, DEX},
	0x88: {"DEY", IMP, 2, false, DEY},

	0x49: {"EOR", IMM, 2, false, EOR},
	0x45: {"EOR", ZPG, 3, false, EOR},
	0x55: {"EOR", ZPX, 4, false, EOR},
	0x4D: {"EOR", ABS, 4, false, EOR},
	0x5D: {"EOR", ABX, 4, true, EOR},
	0x59: {"EOR", ABY, 4, true, EOR},
	0x41: {"EOR", IZX, 6, false, EOR},
	0x51: {"EOR", IZY, 5, true, EOR},

	0xE6: {"INC", ZPG, 5, false, INC},
	0xF6: {"INC", ZPX, 6, false, INC},
	0xEE: {"INC", ABS, 6, false, INC},
	0xFE: {"INC", ABX, 7, false, INC},

	0xE8: {"INX", IMP, 2, false, INX},
	0xC8: {"INY", IMP, 2, false, INY},

	0x4C: {"JMP", ABS, 3, false, JMP},
	0x6C: {"JMP", IND, 5, false, JMP},
	0x20: {"JSR", ABS, 6, false, JSR},

	0xA9: {"LDA", IMM, 2, false, LDA},
	0xA5: {"LDA", ZPG, 3, false, LDA},
	0xB5: {"LDA", ZPX, 4, false, LDA},
	0xAD: {"LDA", ABS, 4, false, LDA},
	0xBD: {"LDA", ABX, 4, true, LDA},
	0xB9: {"LDA", ABY, 4, true, LDA},
	0xA1: {"LDA", IZX, 6, false, LDA},
	0xB1: {"LDA", IZY, 5, true, LDA},

	0xA2: {"LDX", IMM, 2, false, LDX},
	0xA6: {"LDX", ZPG, 3, false, LDX},
	0xB6: {"LDX", ZPY, 4, false, LDX},
	0xAE: {"LDX", ABS, 4, false, LDX},
	0xBE: {"LDX", ABY, 4, true, LDX},

	0xA0: {"LDY", IMM, 2, false, LDY},
	0xA4: {"LDY", ZPG, 3, false, LDY},
	0xB4: {"LDY", ZPX, 4, false, LDY},
	0xAC: {"LDY", ABS, 4, false, LDY},
	0xBC: {"LDY", ABX, 4, true, LDY},

	0x4A: {"LSR", ACC, 2, false, LSR},
	0x46: {"LSR", ZPG, 5, false, LSR},
	0x56: {"LSR", ZPX, 6, false, LSR},
	0x4E: {"LSR", ABS, 6, false, LSR},
	0x5E: {"LSR", ABX, 7, false, LSR},

	0xEA: {"NOP", IMP, 2, false, NOP},

	0x09: {"ORA", IMM, 2, false, ORA},
	0x05: {"ORA", ZPG, 3, false, ORA},
	0x15: {"ORA", ZPX, 4, false, ORA},
	0x0D: {"ORA", ABS, 4, false, ORA},
	0x1D: {"ORA", ABX, 4, true, ORA},
	0x19: {"ORA", ABY, 4, true, ORA},
	0x01: {"ORA", IZX, 6, false, ORA},
	0x11: {"ORA", IZY, 5, true, ORA},

	0x48: {"PHA", IMP, 3, false, PHA},
	0x08: {"PHP", IMP, 3, false, PHP},
	0x68: {"PLA", IMP, 4, false, PLA},
	0x28: {"PLP", IMP, 4, false, PLP},

	0x2A: {"ROL", ACC, 2, false, ROL},
	0x26: {"ROL", ZPG, 5, false, ROL},
	0x36: {"ROL", ZPX, 6, false, ROL},
	0x2E: {"ROL", ABS, 6, false, ROL},
	0x3E: {"ROL", ABX, 7, false, ROL},

	0x6A: {"ROR", ACC, 2, false, ROR},
	0x66: {"ROR", ZPG, 5, false, ROR},
	0x76: {"ROR", ZPX, 6, false, ROR},
	0x6E: {"ROR", ABS, 6, false, ROR},
	0x7E: {"ROR", ABX, 7, false, ROR},

	0x40: {"RTI", IMP, 6, false, RTI},
	0x60: {"RTS", IMP, 6, false, RTS},

	0xE9: {"SBC", IMM, 2, false, SBC},
	0xE5: {"SBC", ZPG, 3, false, SBC},
	0xF5: {"SBC", ZPX, 4, false, SBC},
	0xED: {"SBC", ABS, 4, false, SBC},
	0xFD: {"SBC", ABX, 4, true, SBC},
	0xF9: {"SBC", ABY, 4, true, SBC},
	0xE1: {"SBC", IZX, 6, false, SBC},
	0xF1: {"SBC", IZY, 5, true, SBC},

	0x38: {"SEC", IMP, 2, false, SEC},
	0xF8: {"SED", IMP, 2, false, SED},
	0x78: {"SEI", IMP, 2, false, SEI},

	0x85: {"STA", ZPG, 3, false, STA},
	0x95: {"STA", ZPX, 4, false, STA},
	0x8D: {"STA", ABS, 4, false, STA},
	0x9D: {"STA", ABX, 5, false, STA},
	0x99: {"STA", ABY, 5, false, STA},
	0x81: {"STA", IZX, 6, false, STA},
	0x91: {"STA", IZY, 6, false, STA},

	0x86: {"STX", ZPG, 3, false, STX},
	0x96: {"STX", ZPY, 4, false, STX},
	0x8E: {"STX", ABS, 4, false, STX},

	0x84: {"STY", ZPG, 3, false, STY},
	0x94: {"STY", ZPX, 4, false, STY},
	0x8C: {"STY", ABS, 4, false, STY},

	0xAA: {"TAX", IMP, 2, false, TAX},
	0xA8: {"TAY", IMP, 2, false, TAY},
	0xBA: {"TSX", IMP, 2, false, TSX},
	0x8A: {"TXA", IMP, 2, false, TXA},
	0x9A: {"TXS", IMP, 2, false, TXS},
	0x98: {"TYA", IMP, 2, false, TYA},
}

// Unstable opcodes (ANE, LXA, SHA, SHX, SHY, TAS, LAS) and the ones jamming
// the CPU are left out.
var unofficialOps = [256]opdef{
	0x1A: {"NOP", IMP, 2, false, NOP},
	0x3A: {"NOP", IMP, 2, false, NOP},
	0x5A: {"NOP", IMP, 2, false, NOP},
	0x7A: {"NOP", IMP, 2, false, NOP},
	0xDA: {"NOP", IMP, 2, false, NOP},
	0xFA: {"NOP", IMP, 2, false, NOP},

	0x80: {"NOP", IMM, 2, false, SKB},
	0x82: {"NOP", IMM, 2, false, SKB},
	0x89: {"NOP", IMM, 2, false, SKB},
	0xC2: {"NOP", IMM, 2, false, SKB},
	0xE2: {"NOP", IMM, 2, false, SKB},

	0x04: {"NOP", ZPG, 3, false, SKB},
	0x44: {"NOP", ZPG, 3, false, SKB},
	0x64: {"NOP", ZPG, 3, false, SKB},

	0x14: {"NOP", ZPX, 4, false, SKB},
	0x34: {"NOP", ZPX, 4, false, SKB},
	0x54: {"NOP", ZPX, 4, false, SKB},
	0x74: {"NOP", ZPX, 4, false, SKB},
	0xD4: {"NOP", ZPX, 4, false, SKB},
	0xF4: {"NOP", ZPX, 4, false, SKB},

	0x0C: {"NOP", ABS, 4, false, SKB},
	0x1C: {"NOP", ABX, 4, true, SKB},
	0x3C: {"NOP", ABX, 4, true, SKB},
	0x5C: {"NOP", ABX, 4, true, SKB},
	0x7C: {"NOP", ABX, 4, true, SKB},
	0xDC: {"NOP", ABX, 4, true, SKB},
	0xFC: {"NOP", ABX, 4, true, SKB},

	0xA7: {"LAX", ZPG, 3, false, LAX},
	0xB7: {"LAX", ZPY, 4, false, LAX},
	0xAF: {"LAX", ABS, 4, false, LAX},
	0xBF: {"LAX", ABY, 4, true, LAX},
	0xA3: {"LAX", IZX, 6, false, LAX},
	0xB3: {"LAX", IZY, 5, true, LAX},

	0x87: {"SAX", ZPG, 3, false, SAX},
	0x97: {"SAX", ZPY, 4, false, SAX},
	0x8F: {"SAX", ABS, 4, false, SAX},
	0x83: {"SAX", IZX, 6, false, SAX},

	0xEB: {"SBC", IMM, 2, false, SBC},

	0xC7: {"DCP", ZPG, 5, false, DCP},
	0xD7: {"DCP", ZPX, 6, false, DCP},
	0xCF: {"DCP", ABS, 6, false, DCP},
	0xDF: {"DCP", ABX, 7, false, DCP},
	0xDB: {"DCP", ABY, 7, false, DCP},
	0xC3: {"DCP", IZX, 8, false, DCP},
	0xD3: {"DCP", IZY, 8, false, DCP},

	0xE7: {"ISB", ZPG, 5, false, ISB},
	0xF7: {"ISB", ZPX, 6, false, ISB},
	0xEF: {"ISB", ABS, 6, false, ISB},
	0xFF: {"ISB", ABX, 7, false, ISB},
	0xFB: {"ISB", ABY, 7, false, ISB},
	0xE3: {"ISB", IZX, 8, false, ISB},
	0xF3: {"ISB", IZY, 8, false, ISB},

	0x07: {"SLO", ZPG, 5, false, SLO},
	0x17: {"SLO", ZPX, 6, false, SLO},
	0x0F: {"SLO", ABS, 6, false, SLO},
	0x1F: {"SLO", ABX, 7, false, SLO},
	0x1B: {"SLO", ABY, 7, false, SLO},
	0x03: {"SLO", IZX, 8, false, SLO},
	0x13: {"SLO", IZY, 8, false, SLO},

	0x27: {"RLA", ZPG, 5, false, RLA},
	0x37: {"RLA", ZPX, 6, false, RLA},
	0x2F: {"RLA", ABS, 6, false, RLA},
	0x3F: {"RLA", ABX, 7, false, RLA},
	0x3B: {"RLA", ABY, 7, false, RLA},
	0x23: {"RLA", IZX, 8, false, RLA},
	0x33: {"RLA", IZY, 8, false, RLA},

	0x47: {"SRE", ZPG, 5, false, SRE},
	0x57: {"SRE", ZPX, 6, false, SRE},
	0x4F: {"SRE", ABS, 6, false, SRE},
	0x5F: {"SRE", ABX, 7, false, SRE},
	0x5B: {"SRE", ABY, 7, false, SRE},
	0x43: {"SRE", IZX, 8, false, SRE},
	0x53: {"SRE", IZY, 8, false, SRE},

	0x67: {"RRA", ZPG, 5, false, RRA},
	0x77: {"RRA", ZPX, 6, false, RRA},
	0x6F: {"RRA", ABS, 6, false, RRA},
	0x7F: {"RRA", ABX, 7, false, RRA},
	0x7B: {"RRA", ABY, 7, false, RRA},
	0x63: {"RRA", IZX, 8, false, RRA},
	0x73: {"RRA", IZY, 8, false, RRA},

	0x0B: {"ANC", IMM, 2, false, ANC},
	0x2B: {"ANC", IMM, 2, false, ANC},
	0x4B: {"ALR", IMM, 2, false, ALR},
	0x6B: {"ARR", IMM, 2, false, ARR},
	0xCB: {"SBX", IMM, 2, false, SBX},
}
