package cartridge

// TestROMBuilder builds synthetic ROM images for tests. Every bank starts
// with its own bank number so bank switches are easy to observe.
type TestROMBuilder struct {
	banks    int
	typeCode uint8
	ramCode  uint8
	title    string
	cgbFlag  uint8
	data     map[int][]byte
}

// NewTestROMBuilder returns a builder for a 32 KiB ROM-only image.
func NewTestROMBuilder() *TestROMBuilder {
	return &TestROMBuilder{
		banks: 2,
		title: "TESTROM",
		data:  make(map[int][]byte),
	}
}

// WithBanks sets the number of 16 KiB ROM banks.
func (b *TestROMBuilder) WithBanks(banks int) *TestROMBuilder {
	b.banks = banks
	return b
}

// WithType sets the cartridge type byte at 0x0147.
func (b *TestROMBuilder) WithType(code uint8) *TestROMBuilder {
	b.typeCode = code
	return b
}

// WithRAMCode sets the RAM size byte at 0x0149.
func (b *TestROMBuilder) WithRAMCode(code uint8) *TestROMBuilder {
	b.ramCode = code
	return b
}

// WithTitle sets the header title.
func (b *TestROMBuilder) WithTitle(title string) *TestROMBuilder {
	b.title = title
	return b
}

// WithCGBFlag sets the byte at 0x0143.
func (b *TestROMBuilder) WithCGBFlag(flag uint8) *TestROMBuilder {
	b.cgbFlag = flag
	return b
}

// WithData places data at a flat offset in the image.
func (b *TestROMBuilder) WithData(offset int, data []byte) *TestROMBuilder {
	b.data[offset] = data
	return b
}

// Build returns the ROM image with a valid header checksum.
func (b *TestROMBuilder) Build() []byte {
	rom := make([]byte, b.banks*ROMBankSize)
	for bank := 0; bank < b.banks; bank++ {
		rom[bank*ROMBankSize] = uint8(bank)
		rom[bank*ROMBankSize+1] = uint8(bank >> 8)
	}

	copy(rom[headerTitle:headerTitle+headerTitleMaxLength], b.title)
	rom[headerCGBFlag] = b.cgbFlag
	rom[headerType] = b.typeCode
	rom[headerRAMSize] = b.ramCode
	for size := 0; (2<<size)*ROMBankSize <= len(rom); size++ {
		rom[headerROMSize] = uint8(size)
	}

	for offset, data := range b.data {
		copy(rom[offset:], data)
	}
	rom[headerChecksum] = HeaderChecksum(rom)
	return rom
}

// BuildCartridge builds the image and loads it.
func (b *TestROMBuilder) BuildCartridge() (*Cartridge, error) {
	return LoadFromBytes(b.Build())
}
