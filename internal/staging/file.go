package staging

import (
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3stream/s3types"
)

const (
	// DefaultDir is the directory, relative to the filesystem root, temporary part files are created in.
	DefaultDir = "s3stream"

	filePrefix = "part-"
)

// File stages a part in a temporary file on a billy filesystem.
// The file is created once and truncated between parts.
type File struct {
	fs     billy.Filesystem
	file   billy.File
	name   string
	n      int64
	sealed bool
}

// NewFile creates a temporary part file in dir on fs.
func NewFile(fs billy.Filesystem, dir string) (*File, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("staging: mkdirall %q: %w", dir, err)
	}
	f, err := util.TempFile(fs, dir, filePrefix)
	if err != nil {
		return nil, fmt.Errorf("staging: tempfile dir=%q: %w", dir, err)
	}
	return &File{
		fs:   fs,
		file: f,
		name: f.Name(),
	}, nil
}

// FileFactory returns a factory producing file-backed part buffers in dir on fs.
func FileFactory(fs billy.Filesystem, dir string) s3types.PartBufferFactory {
	return func() (s3types.PartBuffer, error) {
		return NewFile(fs, dir)
	}
}

// TempDirFactory returns a factory producing part files on the local disk under root.
// An empty root selects the operating system temporary directory.
func TempDirFactory(root string) s3types.PartBufferFactory {
	if root == "" {
		root = os.TempDir()
	}
	return FileFactory(osfs.New(root), DefaultDir)
}

// Name returns the path of the backing file relative to the filesystem root.
func (f *File) Name() string {
	return f.name
}

// Write appends p to the part file.
func (f *File) Write(p []byte) (int, error) {
	if f.file == nil {
		return 0, ErrReleased
	}
	if f.sealed {
		return 0, ErrSealed
	}
	n, err := f.file.Write(p)
	f.n += int64(n)
	if err != nil {
		return n, fmt.Errorf("staging: write %q: %w", f.name, err)
	}
	return n, nil
}

// Len returns the number of staged bytes.
func (f *File) Len() int64 {
	return f.n
}

// Reader seals the file and returns a reader over the staged bytes.
// The reader is valid until the next Reset or Close.
func (f *File) Reader() (io.ReadSeeker, error) {
	if f.file == nil {
		return nil, ErrReleased
	}
	f.sealed = true
	return io.NewSectionReader(f.file, 0, f.n), nil
}

// Reset truncates the file and reopens it for writing.
func (f *File) Reset() error {
	if f.file == nil {
		return ErrReleased
	}
	if err := f.file.Truncate(0); err != nil {
		return fmt.Errorf("staging: truncate %q: %w", f.name, err)
	}
	if _, err := f.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("staging: seek %q: %w", f.name, err)
	}
	f.n = 0
	f.sealed = false
	return nil
}

// Close closes and removes the backing file.
func (f *File) Close() error {
	if f.file == nil {
		return nil
	}
	closeErr := f.file.Close()
	f.file = nil
	if err := f.fs.Remove(f.name); err != nil {
		return fmt.Errorf("staging: remove %q: %w", f.name, err)
	}
	if closeErr != nil {
		return fmt.Errorf("staging: close %q: %w", f.name, closeErr)
	}
	return nil
}

var _ s3types.PartBuffer = (*File)(nil)
