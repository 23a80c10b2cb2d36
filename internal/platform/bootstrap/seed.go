// Package bootstrap prepares the on-disk dataset directory on first startup.
package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const valuesSuffix = "_values.csv"

// SeedPrices copies the bundled initial dataset files into dataDir when the
// directory does not exist yet. An existing dataDir is left untouched, so
// uploaded data survives restarts. A missing seedDir is not an error; the
// service then starts with an empty directory.
func SeedPrices(dataDir, seedDir string) error {
	if _, err := os.Stat(dataDir); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking dataset directory %s: %w", dataDir, err)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating dataset directory %s: %w", dataDir, err)
	}

	seeds, err := os.ReadDir(seedDir)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("no seed dataset bundled, starting empty", "seed_dir", seedDir)
			return nil
		}
		return fmt.Errorf("reading seed directory %s: %w", seedDir, err)
	}

	copied := 0
	for _, de := range seeds {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, valuesSuffix) {
			continue
		}
		if err := copyFile(filepath.Join(seedDir, name), filepath.Join(dataDir, name)); err != nil {
			return fmt.Errorf("seeding %s: %w", name, err)
		}
		copied++
	}
	slog.Info("seeded initial datasets", "data_dir", dataDir, "files", copied)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
