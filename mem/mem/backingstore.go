package mem

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/vmmgr/mem/vm"
)

// A BackingStore supplies the content of pages that are not resident.
type BackingStore interface {
	// ReadPage returns the vm.PageSize bytes of the page.
	ReadPage(page vm.PageNumber) ([]byte, error)
}

// ErrBackingStoreTooSmall is returned when a backing store cannot hold every
// page of the address space.
var ErrBackingStoreTooSmall = errors.New("backing store is smaller than the address space")

// BackingStoreReadError reports that a page could not be read.
type BackingStoreReadError struct {
	Page vm.PageNumber
	Err  error
}

func (e *BackingStoreReadError) Error() string {
	return fmt.Sprintf("cannot read page %d from backing store: %v",
		e.Page, e.Err)
}

func (e *BackingStoreReadError) Unwrap() error {
	return e.Err
}

// FileBackingStore reads pages from a file. The file is opened read-only once
// and kept open until Close is called.
type FileBackingStore struct {
	path string
	file *os.File
}

// OpenFileBackingStore opens the file at path. The file must hold at least
// vm.BackingStoreSize bytes.
func OpenFileBackingStore(path string) (*FileBackingStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	if info.Size() < vm.BackingStoreSize {
		f.Close()
		return nil, fmt.Errorf("%s has %d bytes, need %d: %w",
			path, info.Size(), vm.BackingStoreSize, ErrBackingStoreTooSmall)
	}

	return &FileBackingStore{path: path, file: f}, nil
}

// Path returns the path of the file.
func (s *FileBackingStore) Path() string {
	return s.path
}

// ReadPage reads the page at byte offset page * vm.PageSize.
func (s *FileBackingStore) ReadPage(page vm.PageNumber) ([]byte, error) {
	return readPageAt(s.file, page)
}

// Close releases the file.
func (s *FileBackingStore) Close() error {
	return s.file.Close()
}

// BytesBackingStore serves pages from a byte slice.
type BytesBackingStore struct {
	data []byte
}

// NewBytesBackingStore wraps data, which is not copied.
func NewBytesBackingStore(data []byte) (*BytesBackingStore, error) {
	if len(data) < vm.BackingStoreSize {
		return nil, fmt.Errorf("%d bytes, need %d: %w",
			len(data), vm.BackingStoreSize, ErrBackingStoreTooSmall)
	}

	return &BytesBackingStore{data: data}, nil
}

// ReadPage returns a copy of the page.
func (s *BytesBackingStore) ReadPage(page vm.PageNumber) ([]byte, error) {
	return readPageAt(bytes.NewReader(s.data), page)
}

func readPageAt(r io.ReaderAt, page vm.PageNumber) ([]byte, error) {
	buf := make([]byte, vm.PageSize)
	offset := int64(page) * vm.PageSize

	n, err := r.ReadAt(buf, offset)
	if n == len(buf) {
		return buf, nil
	}

	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}

	return nil, &BackingStoreReadError{Page: page, Err: err}
}
