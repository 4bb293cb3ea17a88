package cartridge

import (
	"strings"
)

// Header field offsets inside bank 0.
const (
	headerTitle          = 0x0134
	headerCGBFlag        = 0x0143
	headerType           = 0x0147
	headerROMSize        = 0x0148
	headerRAMSize        = 0x0149
	headerChecksum       = 0x014D
	headerEnd            = 0x0150
	headerChecksumStart  = 0x0134
	headerChecksumEnd    = 0x014C
	headerTitleMaxLength = 16
)

// Metadata describes the cartridge as declared by its header.
type Metadata struct {
	Title          string
	TypeCode       uint8
	Scheme         Scheme
	ROMSize        int // declared, in bytes
	RAMSize        int // in bytes
	HasBattery     bool
	HasRTC         bool
	CGB            bool // CGB-enhanced or CGB-only
	CGBOnly        bool
	HeaderChecksum uint8
	ChecksumValid  bool
}

// cartridgeTypes maps the type byte at 0x0147 to its controller and extras.
var cartridgeTypes = map[uint8]struct {
	scheme  Scheme
	ram     bool
	battery bool
	rtc     bool
}{
	0x00: {scheme: SchemeNone},
	0x01: {scheme: SchemeMBC1},
	0x02: {scheme: SchemeMBC1, ram: true},
	0x03: {scheme: SchemeMBC1, ram: true, battery: true},
	0x08: {scheme: SchemeNone, ram: true},
	0x09: {scheme: SchemeNone, ram: true, battery: true},
	0x0F: {scheme: SchemeMBC3, battery: true, rtc: true},
	0x10: {scheme: SchemeMBC3, ram: true, battery: true, rtc: true},
	0x11: {scheme: SchemeMBC3},
	0x12: {scheme: SchemeMBC3, ram: true},
	0x13: {scheme: SchemeMBC3, ram: true, battery: true},
}

// ramSizes maps the RAM size byte at 0x0149 to a byte count.
var ramSizes = map[uint8]int{
	0x00: 0,
	0x01: 2 * 1024,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

// ParseHeader reads the cartridge header from a ROM image.
func ParseHeader(rom []byte) (*Metadata, error) {
	if len(rom) < headerEnd {
		return nil, &ROMSizeError{Size: len(rom)}
	}

	code := rom[headerType]
	kind, ok := cartridgeTypes[code]
	if !ok {
		return nil, &UnsupportedSchemeError{TypeCode: code}
	}

	meta := &Metadata{
		Title:          parseTitle(rom),
		TypeCode:       code,
		Scheme:         kind.scheme,
		ROMSize:        (32 * 1024) << rom[headerROMSize],
		HasBattery:     kind.battery,
		HasRTC:         kind.rtc,
		CGB:            rom[headerCGBFlag]&0x80 != 0,
		CGBOnly:        rom[headerCGBFlag] == 0xC0,
		HeaderChecksum: rom[headerChecksum],
	}

	if kind.ram {
		meta.RAMSize = ramSizes[rom[headerRAMSize]]
	}
	meta.ChecksumValid = HeaderChecksum(rom) == meta.HeaderChecksum

	return meta, nil
}

// HeaderChecksum computes the 0x014D header checksum over 0x0134-0x014C.
func HeaderChecksum(rom []byte) uint8 {
	var sum uint8
	for _, b := range rom[headerChecksumStart : headerChecksumEnd+1] {
		sum = sum - b - 1
	}
	return sum
}

func parseTitle(rom []byte) string {
	raw := rom[headerTitle : headerTitle+headerTitleMaxLength]
	// CGB carts reuse the last title byte as the CGB flag.
	if raw[15]&0x80 != 0 {
		raw = raw[:15]
	}
	if i := strings.IndexByte(string(raw), 0); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(string(raw))
}
