package cartridge

const (
	// ROMBankSize is the size of one switchable ROM bank.
	ROMBankSize = 0x4000
	// RAMBankSize is the size of one external RAM bank.
	RAMBankSize = 0x2000

	// OpenBus is the value observed when reading disabled or absent
	// external memory.
	OpenBus uint8 = 0xFF
)

// Banks is a bounds-checked view over a ROM or RAM image split into
// fixed-size banks. Bank indices past the end of the image wrap, the way
// unconnected address lines do on the cartridge.
type Banks struct {
	data     []byte
	bankSize int
}

// NewBanks splits data into banks of bankSize bytes. Images smaller than a
// single bank (2 KiB RAM) become one bank that mirrors across the window.
func NewBanks(data []byte, bankSize int) *Banks {
	return &Banks{data: data, bankSize: bankSize}
}

// Len returns the image size in bytes.
func (b *Banks) Len() int {
	return len(b.data)
}

// Count returns the number of banks in the image.
func (b *Banks) Count() int {
	if len(b.data) == 0 {
		return 0
	}
	if len(b.data) < b.bankSize {
		return 1
	}
	return len(b.data) / b.bankSize
}

// Bytes exposes the backing image.
func (b *Banks) Bytes() []byte {
	return b.data
}

func (b *Banks) offset(bank, offset int) (int, error) {
	if len(b.data) == 0 || offset < 0 || offset >= b.bankSize || bank < 0 {
		return 0, &BoundsError{Bank: bank, Offset: offset, Len: len(b.data)}
	}
	bank %= b.Count()
	flat := bank*b.bankSize + offset
	if len(b.data) < b.bankSize {
		flat %= len(b.data)
	}
	if flat >= len(b.data) {
		return 0, &BoundsError{Bank: bank, Offset: offset, Len: len(b.data)}
	}
	return flat, nil
}

// Read returns the byte at offset inside bank.
func (b *Banks) Read(bank, offset int) (uint8, error) {
	flat, err := b.offset(bank, offset)
	if err != nil {
		return OpenBus, err
	}
	return b.data[flat], nil
}

// Write stores value at offset inside bank.
func (b *Banks) Write(bank, offset int, value uint8) error {
	flat, err := b.offset(bank, offset)
	if err != nil {
		return err
	}
	b.data[flat] = value
	return nil
}
