package rangeio

import (
	"github.com/spf13/afero"

	"github.com/matzehuels/wheelpeek/pkg/errors"
)

// FileSource is a [Source] backed by a local file.
type FileSource struct {
	afero.File
	size int64
}

// OpenFile opens path on fs. Pass afero.NewOsFs() for the real filesystem.
// Missing, unreadable and directory paths fail with LOCAL_FILE_UNAVAILABLE.
func OpenFile(fs afero.Fs, path string) (*FileSource, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLocalFileUnavailable, err, "open %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(errors.ErrCodeLocalFileUnavailable, err, "stat %s", path)
	}
	if info.IsDir() {
		f.Close()
		return nil, errors.New(errors.ErrCodeLocalFileUnavailable, "%s is a directory", path)
	}
	return &FileSource{File: f, size: info.Size()}, nil
}

// Size returns the file size at open time.
func (s *FileSource) Size() int64 { return s.size }

// Ensure FileSource implements Source.
var _ Source = (*FileSource)(nil)
