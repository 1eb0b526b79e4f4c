package archive

import (
	"archive/tar"
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/gzip"
)

func (e *Expander) extractZip(ctx context.Context, archivePath, scratchDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("open zip: %w", err)
	}
	// ErrInsecurePath still yields a usable reader; writeEntry drops the
	// offending entries individually.
	defer reader.Close()

	for _, entry := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.FileInfo().IsDir() {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return fmt.Errorf("open zip entry %s: %w", entry.Name, err)
		}
		writeErr := e.writeEntry(scratchDir, entry.Name, rc)
		rc.Close()
		if writeErr != nil {
			return fmt.Errorf("extract zip entry %s: %w", entry.Name, writeErr)
		}
	}
	return nil
}

func (e *Expander) extractTar(ctx context.Context, archivePath, scratchDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open tar: %w", err)
	}
	defer file.Close()

	var stream io.Reader = file
	lower := strings.ToLower(filepath.Base(archivePath))
	if strings.HasSuffix(lower, ".gz") || strings.HasSuffix(lower, ".tgz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()
		stream = gz
	}

	tr := tar.NewReader(stream)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		if err := e.writeEntry(scratchDir, header.Name, tr); err != nil {
			return fmt.Errorf("extract tar entry %s: %w", header.Name, err)
		}
	}
}

func (e *Expander) extractSevenZip(ctx context.Context, archivePath, scratchDir string) error {
	reader, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open 7z: %w", err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.FileInfo().IsDir() {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return fmt.Errorf("open 7z entry %s: %w", entry.Name, err)
		}
		writeErr := e.writeEntry(scratchDir, entry.Name, rc)
		rc.Close()
		if writeErr != nil {
			return fmt.Errorf("extract 7z entry %s: %w", entry.Name, writeErr)
		}
	}
	return nil
}
