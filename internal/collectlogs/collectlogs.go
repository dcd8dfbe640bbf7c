// Package collectlogs bundles the current log file, config, and a listing
// of the files in the capture directory into a zip archive for support
// purposes.
package collectlogs

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"MiniDAQ/miniDAQ-Go-Capture/internal/version"
)

// Options controls which paths Collect looks for. Any path left empty is
// skipped rather than treated as an error.
type Options struct {
	LogFile    string
	ConfigFile string
	CaptureDir string
}

// Collect writes a zip archive to zipPath containing the log file, config
// file, the names (not contents) of all files directly in CaptureDir, and
// basic system info. Missing inputs are skipped, not fatal.
func Collect(zipPath string, opts Options) error {
	zipFile, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("collectlogs: failed to create archive: %w", err)
	}
	defer zipFile.Close()

	w := zip.NewWriter(zipFile)
	defer w.Close()

	if opts.LogFile != "" {
		if err := addFile(w, "log.txt", opts.LogFile); err != nil {
			// Non-fatal: the log file may not exist yet on a fresh install.
			_ = err
		}
	}
	if opts.ConfigFile != "" {
		if err := addFile(w, "config.json", opts.ConfigFile); err != nil {
			_ = err
		}
	}
	if opts.CaptureDir != "" {
		if err := addString(w, "capture-files.txt", listCaptureFiles(opts.CaptureDir)); err != nil {
			return fmt.Errorf("collectlogs: failed to write capture listing: %w", err)
		}
	}
	if err := addString(w, "version.txt", version.Version+"\n"); err != nil {
		return fmt.Errorf("collectlogs: failed to write version: %w", err)
	}
	if err := addString(w, "system-info.txt", systemInfo()); err != nil {
		return fmt.Errorf("collectlogs: failed to write system info: %w", err)
	}

	return nil
}

// validateZipPath rejects entry names that could escape the directory an
// archive is later extracted into.
func validateZipPath(name string) error {
	if strings.Contains(name, "..") {
		return fmt.Errorf("entry name contains '..': %s", name)
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return fmt.Errorf("entry name is absolute: %s", name)
	}
	return nil
}

func addFile(w *zip.Writer, entryName, srcPath string) error {
	if err := validateZipPath(entryName); err != nil {
		return err
	}
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()

	entry, err := w.Create(entryName)
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, f)
	return err
}

func addString(w *zip.Writer, entryName, content string) error {
	if err := validateZipPath(entryName); err != nil {
		return err
	}
	entry, err := w.Create(entryName)
	if err != nil {
		return err
	}
	_, err = entry.Write([]byte(content))
	return err
}

// listCaptureFiles returns the names of files in dir, one per line, without
// reading their contents: bulk capture data does not belong in a support
// bundle.
func listCaptureFiles(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		b.WriteString(e.Name())
		b.WriteString("\n")
	}
	return b.String()
}

func systemInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "OS: %s\n", runtime.GOOS)
	fmt.Fprintf(&b, "Arch: %s\n", runtime.GOARCH)
	fmt.Fprintf(&b, "Go version: %s\n", runtime.Version())
	fmt.Fprintf(&b, "NumCPU: %d\n", runtime.NumCPU())
	if hn, err := os.Hostname(); err == nil {
		fmt.Fprintf(&b, "Hostname: %s\n", hn)
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Fprintf(&b, "Memory: Alloc=%d TotalAlloc=%d Sys=%d NumGC=%d\n", m.Alloc, m.TotalAlloc, m.Sys, m.NumGC)
	return b.String()
}
