// Package docio reads and rewrites G-code documents on disk. Reads prefer
// mmap because sliced print files routinely run to hundreds of megabytes;
// writes go through a backup copy and an atomic rename so a failed conversion
// can never leave a truncated file behind.
package docio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/samcharles93/orcapost/pkg/gcode"
)

// ReadDocument loads a G-code file into memory. If mmap is unavailable it
// falls back to ReadAt-based loading.
func ReadDocument(path string) (gcode.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return gcode.Document{}, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return gcode.Document{}, err
	}
	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return gcode.Document{}, fmt.Errorf("docio: file %q too large to load", path)
	}
	size := int(size64)

	if size > 0 {
		data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
		if err == nil {
			// ParseDocument copies the bytes into a string, so the
			// mapping can be dropped immediately.
			doc := gcode.ParseDocument(data)
			_ = unix.Munmap(data)
			return doc, nil
		}
	}

	data, err := readAllAt(f, size)
	if err != nil {
		return gcode.Document{}, err
	}
	return gcode.ParseDocument(data), nil
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

// Backup copies path to backupPath, truncating any previous backup. The copy
// happens before the original is touched.
func Backup(path, backupPath string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// ReplaceFile atomically replaces path with data by writing a sibling temp
// file and renaming it into place.
func ReplaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Restore copies a backup over path. Used when the final write fails after
// the original was already replaced.
func Restore(backupPath, path string) error {
	return Backup(backupPath, path)
}
