package export

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// ErrBadFileName is returned for names that are not a plain file in the download directory.
var ErrBadFileName = errors.New("export: bad file name")

// FileSaver stores reports in a download directory.
type FileSaver struct {
	fs  afero.Fs
	dir string
}

// NewFileSaver returns a saver writing into dir on fs.
func NewFileSaver(fs afero.Fs, dir string) *FileSaver {
	if dir == "" {
		dir = "downloads"
	}
	return &FileSaver{fs: fs, dir: dir}
}

// Save writes data as name, replacing any previous file of that name.
func (s *FileSaver) Save(name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, path.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Open returns a saved file for reading. The caller closes it.
func (s *FileSaver) Open(name string) (afero.File, os.FileInfo, error) {
	if err := checkName(name); err != nil {
		return nil, nil, err
	}
	f, err := s.fs.Open(path.Join(s.dir, name))
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, os.ErrNotExist
	}
	return f, info, nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrBadFileName, name)
	}
	return nil
}
