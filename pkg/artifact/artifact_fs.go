package artifact

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/infinivision/buildlocks/pkg/meta"
	"github.com/pkg/errors"
)

type fsStorage struct {
	dir string
}

// NewFSStorage returns a storage keeping artifacts in `<dir>/<buildID>/<path>`
func NewFSStorage(dir string) (Storage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "create artifacts dir %s", dir)
	}

	return &fsStorage{dir: dir}, nil
}

func (s *fsStorage) file(buildID uint64, path string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d", buildID), filepath.FromSlash(path))
}

func (s *fsStorage) Read(buildID uint64, path string) ([]byte, error) {
	data, err := ioutil.ReadFile(s.file(buildID, path))
	if os.IsNotExist(err) {
		return nil, meta.ErrArtifactNotFound
	}
	return data, err
}

func (s *fsStorage) Write(buildID uint64, path string, data []byte) error {
	file := s.file(buildID, path)
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return errors.Wrapf(err, "create parent dirs of %s", file)
	}

	tmp := file + ".tmp"
	if err := ioutil.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, file)
}

func (s *fsStorage) Remove(buildID uint64, path string) error {
	err := os.Remove(s.file(buildID, path))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *fsStorage) Close() error {
	return nil
}
