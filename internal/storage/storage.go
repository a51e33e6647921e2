package storage

import (
	"io"
	"os"
	"path"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/src-d/go-billy.v4"
	"gopkg.in/src-d/go-billy.v4/memfs"
	"gopkg.in/src-d/go-billy.v4/osfs"
)

// Storage is the file access layer used by the point cloud reader and writer.
// Paths are slash separated and relative to the storage root.
type Storage interface {
	Exists(name string) (bool, error)
	Open(name string) (io.ReadCloser, error)
	ReadFile(name string) ([]byte, error)
	Create(name string) (io.WriteCloser, error)
	MkdirAll(dir string) error
	Root() string
}

// memfs keeps its files in a plain map, the lock serializes the changes to
// the directory tree against the lookups
type billyStorage struct {
	mu sync.RWMutex
	fs billy.Filesystem
}

// Returns a storage rooted at the given directory of the local disk
func NewOSStorage(root string) Storage {
	return &billyStorage{fs: osfs.New(root)}
}

// Returns an empty in memory storage
func NewMemStorage() Storage {
	return &billyStorage{fs: memfs.New()}
}

// Wraps an arbitrary billy filesystem
func NewBillyStorage(fs billy.Filesystem) Storage {
	return &billyStorage{fs: fs}
}

func (s *billyStorage) Root() string {
	return s.fs.Root()
}

func (s *billyStorage) Exists(name string) (bool, error) {
	s.mu.RLock()
	_, err := s.fs.Stat(name)
	s.mu.RUnlock()
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "cannot stat %s", name)
}

func (s *billyStorage) Open(name string) (io.ReadCloser, error) {
	s.mu.RLock()
	f, err := s.fs.Open(name)
	s.mu.RUnlock()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", name)
	}
	return f, nil
}

func (s *billyStorage) ReadFile(name string) ([]byte, error) {
	f, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", name)
	}
	return content, nil
}

func (s *billyStorage) Create(name string) (io.WriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dir := path.Dir(name); dir != "." {
		if err := s.mkdirAll(dir); err != nil {
			return nil, err
		}
	}
	f, err := s.fs.Create(name)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create %s", name)
	}
	return f, nil
}

func (s *billyStorage) MkdirAll(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mkdirAll(dir)
}

func (s *billyStorage) mkdirAll(dir string) error {
	if err := s.fs.MkdirAll(dir, 0777); err != nil {
		return errors.Wrapf(err, "cannot create directory %s", dir)
	}
	return nil
}
