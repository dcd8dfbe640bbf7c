// Package main provides the miniDAQ capture command-line tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"MiniDAQ/miniDAQ-Go-Capture/config"
	"MiniDAQ/miniDAQ-Go-Capture/internal/blob"
	"MiniDAQ/miniDAQ-Go-Capture/internal/collectlogs"
	"MiniDAQ/miniDAQ-Go-Capture/internal/daq"
	"MiniDAQ/miniDAQ-Go-Capture/internal/export"
	"MiniDAQ/miniDAQ-Go-Capture/internal/logger"
	"MiniDAQ/miniDAQ-Go-Capture/internal/metadata"
	"MiniDAQ/miniDAQ-Go-Capture/internal/session"
	"MiniDAQ/miniDAQ-Go-Capture/internal/version"
)

func printHelp() {
	fmt.Print(`minidaqctl - miniDAQ stream capture tool

Usage: minidaqctl [collect-logs] [-o out.dat] [-d device] [-m max-packets] [--version|-v] [--help|-h]

Runs a capture session against the configured interface using config.json,
writing the word-packed stream to a timestamped .dat file.

Options:
  -o, --out           Output file path. Defaults to run_<timestamp>.dat
  -d, --device        Interface name to capture from, overriding config.json
  -m, --max-packets   Stop after this many packets (default: unlimited)
  collect-logs        Package logs, config, and capture file names into a zip archive for support
  --version, -v       Print version and exit
  --help, -h          Show this help message and exit
`)
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "collect-logs" {
		runCollectLogs()
		return
	}

	out := flag.String("o", "", "output file path")
	flag.StringVar(out, "out", "", "output file path")
	device := flag.String("d", "", "interface name")
	flag.StringVar(device, "device", "", "interface name")
	maxPackets := flag.Int("m", daq.AllPackets, "maximum packets to capture")
	flag.IntVar(maxPackets, "max-packets", daq.AllPackets, "maximum packets to capture")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.BoolVar(showVersion, "v", false, "print version and exit")
	flag.Usage = printHelp
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Version)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.InitializeLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	deviceName := cfg.Capture.Interface
	if *device != "" {
		deviceName = *device
	}

	registry := daq.NewRegistry(cfg.CaptureOptions())
	var target daq.Device
	if deviceName != "" {
		d, ok := registry.Lookup(deviceName)
		if !ok {
			registry.Enumerate()
			d, ok = registry.Lookup(deviceName)
		}
		if !ok {
			log.Error("minidaqctl: unknown device %q", deviceName)
			os.Exit(1)
		}
		target = d
	} else {
		devices := registry.Enumerate()
		if len(devices) == 0 {
			log.Error("minidaqctl: no capture devices available")
			os.Exit(1)
		}
		target = devices[0]
	}

	sess := session.New(registry)
	if err := sess.Start(target); err != nil {
		log.Error("minidaqctl: failed to start session on %s: %v", target.Name(), err)
		os.Exit(1)
	}
	defer sess.End()

	outPath := *out
	if outPath == "" {
		outPath = defaultOutputPath()
	}
	outFile, err := os.Create(outPath)
	if err != nil {
		log.Error("minidaqctl: failed to create output file: %v", err)
		os.Exit(1)
	}
	defer outFile.Close()

	var exporter *export.Client
	if cfg.Export.Enabled {
		c, err := export.New(cfg.Export.Server, cfg.Export.APIKey, cfg.Export.Insecure)
		if err != nil {
			log.Warn("minidaqctl: export disabled, failed to connect: %v", err)
		} else {
			exporter = c
			defer exporter.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("minidaqctl: received interrupt, ending session")
		sess.Interrupt()
		cancel()
	}()

	runMeta := metadata.GenerateRunMetadata(target.Name(), blob.WordSize, cfg.Capture.IncludeIdleWords)
	log.Info("minidaqctl: capturing from %s into %s (session %s)", target.Name(), outPath, runMeta["session_id"])

	total := 0
	for {
		if ctx.Err() != nil {
			break
		}
		remaining := daq.AllPackets
		if *maxPackets >= 0 {
			remaining = *maxPackets - total
			if remaining <= 0 {
				break
			}
		}

		b, err := sess.Fetch(daq.ForeverTimeout, remaining)
		if err != nil {
			if err == daq.ErrTimeoutExceeded {
				continue
			}
			log.Error("minidaqctl: fetch failed: %v", err)
			break
		}

		for _, w := range b.Warnings() {
			log.Warn("minidaqctl: %s", w)
		}
		if _, err := b.WriteTo(outFile); err != nil {
			log.Error("minidaqctl: failed to write output: %v", err)
			break
		}
		total += b.PacketCount()

		if exporter != nil {
			if err := exporter.Publish(ctx, b); err != nil {
				log.Warn("minidaqctl: export failed: %v", err)
			}
		}

		if b.PacketCount() == 0 {
			break
		}
	}

	log.Info("minidaqctl: capture complete, %d packets written to %s", total, outPath)
}

func runCollectLogs() {
	cfg, err := loadConfig()
	var logFile, configFile string
	if err == nil {
		logFile = cfg.Logging.File
	}
	if p, err := filepath.Abs("config.json"); err == nil {
		configFile = p
	}

	zipName := fmt.Sprintf("minidaq-logs-%s.zip", time.Now().Format("20060102-150405"))
	opts := collectlogs.Options{LogFile: logFile, ConfigFile: configFile, CaptureDir: "."}
	if err := collectlogs.Collect(zipName, opts); err != nil {
		fmt.Fprintf(os.Stderr, "failed to collect logs: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created %s with logs, config, and capture listing\n", zipName)
}

func loadConfig() (*config.Config, error) {
	paths := []string{"/etc/minidaqctl/config.json", "config.json"}
	var cfg *config.Config
	var err error
	for _, p := range paths {
		cfg, err = config.LoadConfig(p)
		if err == nil {
			return cfg, nil
		}
	}
	return nil, err
}

func defaultOutputPath() string {
	return fmt.Sprintf("run_%s.dat", time.Now().Format("20060102_150405"))
}
