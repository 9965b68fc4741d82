package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/afero"
)

// Stager copies uploads into temporary files so providers read from local
// storage instead of the client connection.
type Stager struct {
	fs  afero.Fs
	dir string
}

// NewStager returns a Stager writing into dir on fsys. An empty dir means
// the OS temp directory.
func NewStager(fsys afero.Fs, dir string) *Stager {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Stager{fs: fsys, dir: dir}
}

// StagedAudio is a temporary copy of one upload. It belongs to the request
// that created it and must be released on every exit path.
type StagedAudio struct {
	fs   afero.Fs
	Path string
	Size int64
}

// Stage copies src into a new temp file. The caller must call Release.
func (s *Stager) Stage(src io.Reader) (*StagedAudio, error) {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	out, err := afero.TempFile(s.fs, s.dir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	staged := &StagedAudio{fs: s.fs, Path: out.Name()}

	n, copyErr := io.Copy(out, src)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = staged.Release()
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	staged.Size = n
	return staged, nil
}

// Open opens the staged copy for reading.
func (a *StagedAudio) Open() (afero.File, error) {
	return a.fs.Open(a.Path)
}

// Release deletes the staged copy. Releasing twice is not an error.
func (a *StagedAudio) Release() error {
	if err := a.fs.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", a.Path, err)
	}
	return nil
}
