package mem

// IMEM is the read-only instruction memory shared by both cores. Fetches
// beyond the loaded image yield zero bytes rather than erroring, so a
// program can simply run off the end without the core choking on it.
type IMEM struct {
	bytes []byte
}

// LoadIMEM reads an instruction image from path.
func LoadIMEM(path string) (*IMEM, error) {
	b, err := loadImageFile(path)
	if err != nil {
		return nil, err
	}
	return &IMEM{bytes: b}, nil
}

func (m *IMEM) byteAt(addr uint32) byte {
	if int(addr) >= len(m.bytes) {
		return 0
	}
	return m.bytes[addr]
}

// FetchWord reads a big-endian 32-bit word at byte address addr.
func (m *IMEM) FetchWord(addr uint32) uint32 {
	return uint32(m.byteAt(addr))<<24 |
		uint32(m.byteAt(addr+1))<<16 |
		uint32(m.byteAt(addr+2))<<8 |
		uint32(m.byteAt(addr+3))
}

// Len returns the number of loaded instruction bytes.
func (m *IMEM) Len() int {
	return len(m.bytes)
}
