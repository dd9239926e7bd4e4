package medium

// Memory is a RAM-backed medium, standing in for the SPI flash part in tests
// and simulations.
type Memory struct {
	data []byte
}

func NewMemory(size uint32) *Memory {
	return &Memory{data: make([]byte, size)}
}

func (m *Memory) Read(offset, length uint32) ([]byte, error) {
	if err := checkRange(m.Size(), offset, length); err != nil {
		return nil, err
	}

	buf := make([]byte, length)
	copy(buf, m.data[offset:offset+length])
	return buf, nil
}

func (m *Memory) Write(offset uint32, data []byte) error {
	if err := checkRange(m.Size(), offset, uint32(len(data))); err != nil {
		return err
	}

	copy(m.data[offset:], data)
	return nil
}

func (m *Memory) Size() uint32 {
	return uint32(len(m.data))
}
