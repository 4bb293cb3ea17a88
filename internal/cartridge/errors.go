package cartridge

import (
	"errors"
	"fmt"
)

// ErrUndefinedRegisterSelect is reported when a RAM/RTC select write names
// neither a RAM bank nor an RTC register. It is recoverable: the selection
// is recorded and later 0xA000-0xBFFF accesses are inert.
var ErrUndefinedRegisterSelect = errors.New("undefined RAM/RTC register select")

// UnsupportedSchemeError is returned at load time when the cartridge type
// byte names a bank controller with no implemented control logic.
type UnsupportedSchemeError struct {
	TypeCode uint8
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("unsupported cartridge type 0x%02X", e.TypeCode)
}

// UnmappedAddressError is returned when a bus access falls outside every
// range the active bank controller decodes. It signals an emulation gap and
// is fatal for the session.
type UnmappedAddressError struct {
	Op      string // "read" or "write"
	Address uint16
	Value   uint8 // only meaningful for writes
	Scheme  Scheme
}

func (e *UnmappedAddressError) Error() string {
	if e.Op == "write" {
		return fmt.Sprintf("unmapped write at address 0x%04X value 0x%02X in %s", e.Address, e.Value, e.Scheme)
	}
	return fmt.Sprintf("unmapped read at address 0x%04X in %s", e.Address, e.Scheme)
}

// BoundsError is returned by Banks when a bank/offset pair does not resolve
// to a byte inside the backing image.
type BoundsError struct {
	Bank   int
	Offset int
	Len    int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("bank %d offset 0x%04X outside %d byte image", e.Bank, e.Offset, e.Len)
}

// ROMSizeError is returned when the ROM image is not a whole number of
// 16 KiB banks, or is too small to hold the fixed and switchable windows.
type ROMSizeError struct {
	Size int
}

func (e *ROMSizeError) Error() string {
	return fmt.Sprintf("invalid ROM size %d bytes: must be a multiple of %d and at least %d", e.Size, ROMBankSize, 2*ROMBankSize)
}

// IsFatal reports whether err must stop the emulation session.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrUndefinedRegisterSelect)
}
