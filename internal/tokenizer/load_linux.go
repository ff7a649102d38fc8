//go:build linux

package tokenizer

import (
	"os"

	"golang.org/x/sys/unix"
)

// readFileShared maps the file read-only. The caller must invoke the
// returned release func once the bytes are no longer referenced. Falls
// back to a plain read if mmap fails.
func readFileShared(path string) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := stat.Size()
	if size <= 0 || size > int64(int(^uint(0)>>1)) {
		return readFileFallback(path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return readFileFallback(path)
	}
	return data, func() { _ = unix.Munmap(data) }, nil
}

func readFileFallback(path string) ([]byte, func(), error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, func() {}, nil
}
