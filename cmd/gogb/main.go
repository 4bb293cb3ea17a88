// Command gogb runs a Game Boy cartridge in a window, a terminal or headless.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gogb/internal/app"
	"gogb/internal/cartridge"
	"gogb/internal/logger"
	"gogb/internal/version"
)

func main() {
	var (
		romPath     = flag.String("rom", "", "Path to Game Boy ROM file")
		configPath  = flag.String("config", "", "Path to configuration file")
		backend     = flag.String("backend", "", "Video backend: ebitengine, terminal or headless")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		nogui       = flag.Bool("nogui", false, "Run without GUI (headless mode)")
		frames      = flag.Int("frames", 0, "Stop after this many frames, 0 runs until interrupted")
		memvizPath  = flag.String("memviz", "", "Write a Graphviz dump of the session to this file on exit")
		statsView   = flag.Bool("statsview", false, "Serve runtime statistics over HTTP")
		help        = flag.Bool("help", false, "Show help information")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		version.PrintBuildInfo(os.Stdout)
		return
	}

	if *help {
		printUsage()
		return
	}

	if *romPath == "" && flag.NArg() > 0 {
		*romPath = flag.Arg(0)
	}
	if *romPath == "" {
		fmt.Fprintln(os.Stderr, "Error: no ROM given, use -rom <file>")
		printUsage()
		os.Exit(2)
	}

	config := app.NewConfig()
	path := *configPath
	if path == "" {
		path = app.GetDefaultConfigPath()
	}
	if err := config.LoadFromFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *debug {
		config.Debug.LogLevel = "DEBUG"
	}
	if *backend != "" {
		config.Video.Backend = *backend
	}
	if *nogui {
		config.Video.Backend = "headless"
	}
	if *frames > 0 {
		config.Emulation.MaxFrames = *frames
	}
	if *memvizPath != "" {
		config.Debug.MemvizPath = *memvizPath
	}
	if *statsView {
		config.Debug.StatsView = true
	}

	os.Exit(run(config, *romPath))
}

// run owns the application lifetime so deferred cleanup happens before
// the process exits.
func run(config *app.Config, romPath string) int {
	headless := config.Video.Backend == "headless"

	application, err := app.NewApplicationWithConfig(config, headless)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create application: %v\n", err)
		return 1
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cleanup failed: %v\n", err)
		}
	}()

	if err := application.LoadROM(romPath); err != nil {
		reportError(err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	runErr := application.RunContext(ctx)

	if dump := config.Debug.MemvizPath; dump != "" {
		if err := application.DumpGraph(dump); err != nil {
			logger.Warnf("APP", "memviz dump failed: %v", err)
		} else {
			logger.Infof("APP", "session graph written to %s", dump)
		}
	}

	if runErr != nil {
		reportError(runErr)
		return 1
	}

	if application.IsHeadless() {
		printSessionStats(application, time.Since(start))
	}
	return 0
}

// reportError logs err with the faulting bus access when there is one.
func reportError(err error) {
	var unmapped *cartridge.UnmappedAddressError
	if errors.As(err, &unmapped) {
		logger.Errorf("APP", "fatal %s at 0x%04X value 0x%02X scheme %s",
			unmapped.Op, unmapped.Address, unmapped.Value, unmapped.Scheme)
	}

	var unsupported *cartridge.UnsupportedSchemeError
	if errors.As(err, &unsupported) {
		logger.Errorf("APP", "cartridge type 0x%02X is not supported", unsupported.TypeCode)
	}

	logger.Errorf("APP", "%v", err)
	logger.Flush()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func printSessionStats(application *app.Application, elapsed time.Duration) {
	emulator := application.GetEmulator()
	frames := emulator.GetFrameCount()

	fmt.Printf("Frames:          %d\n", frames)
	fmt.Printf("Cycles:          %d\n", emulator.GetCycleCount())
	fmt.Printf("Emulated time:   %v\n", emulator.GetEmulationTime().Round(time.Millisecond))
	fmt.Printf("Wall time:       %v\n", elapsed.Round(time.Millisecond))
	if elapsed > 0 {
		fmt.Printf("Frames/second:   %.1f\n", float64(frames)/elapsed.Seconds())
	}
}

func printUsage() {
	fmt.Printf("gogb - Go Game Boy emulator\n\n")
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s [options] -rom <rom_file>\n\n", os.Args[0])
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nControls:\n")
	fmt.Printf("  Arrow Keys    D-Pad\n")
	fmt.Printf("  X             A button\n")
	fmt.Printf("  Z             B button\n")
	fmt.Printf("  Enter         Start\n")
	fmt.Printf("  Backspace     Select\n")
	fmt.Printf("  P             Pause/Resume\n")
	fmt.Printf("  F1            Reset\n")
	fmt.Printf("  F5            Write battery save\n")
	fmt.Printf("  F12           Screenshot\n")
	fmt.Printf("  ESC (x2)      Quit\n")
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  %s -rom game.gb\n", os.Args[0])
	fmt.Printf("  %s -rom game.gbc -nogui -frames 600\n", os.Args[0])
	fmt.Printf("  %s -rom game.gb -backend terminal\n", os.Args[0])
}
