package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gogb/internal/cartridge"
	"gogb/internal/logger"
)

// SaveManager persists battery-backed cartridge RAM and clock state in
// .sav files named after the ROM.
type SaveManager struct {
	saveDirectory string
	now           func() time.Time
}

// NewSaveManager creates a save manager writing into saveDirectory
func NewSaveManager(saveDirectory string) *SaveManager {
	return &SaveManager{
		saveDirectory: saveDirectory,
		now:           time.Now,
	}
}

// BatteryPath returns the .sav path for romPath
func (sm *SaveManager) BatteryPath(romPath string) string {
	base := filepath.Base(romPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(sm.saveDirectory, base+".sav")
}

// Load restores battery RAM for cart. A missing file is not an error.
func (sm *SaveManager) Load(cart *cartridge.Cartridge, romPath string) error {
	if !cart.HasBattery() {
		return nil
	}

	path := sm.BatteryPath(romPath)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		logger.Debugf("SAVE", "no battery file at %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open battery file: %w", err)
	}
	defer f.Close()

	if err := cart.ReadBattery(f, sm.now()); err != nil {
		return fmt.Errorf("failed to read battery file %s: %w", path, err)
	}

	logger.Infof("SAVE", "battery RAM loaded from %s", path)
	return nil
}

// Save writes battery RAM for cart. The file is replaced atomically.
func (sm *SaveManager) Save(cart *cartridge.Cartridge, romPath string) error {
	if !cart.HasBattery() {
		return nil
	}

	if err := os.MkdirAll(sm.saveDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}

	path := sm.BatteryPath(romPath)
	tmp, err := os.CreateTemp(sm.saveDirectory, filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create battery file: %w", err)
	}

	if err := cart.WriteBattery(tmp, sm.now()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write battery file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write battery file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace battery file: %w", err)
	}

	logger.Infof("SAVE", "battery RAM written to %s", path)
	return nil
}

// HasSave reports whether a battery file exists for romPath
func (sm *SaveManager) HasSave(romPath string) bool {
	_, err := os.Stat(sm.BatteryPath(romPath))
	return err == nil
}

// GetSaveDirectory returns the save directory
func (sm *SaveManager) GetSaveDirectory() string {
	return sm.saveDirectory
}
