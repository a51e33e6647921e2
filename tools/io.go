package tools

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Environment variable overriding the working folder
const WorkdirEnv = "PCSTREAMER_WORKDIR"

// Returns the folder relative paths given on the command line are resolved
// against: the PCSTREAMER_WORKDIR variable if set, the current directory
// otherwise
func GetRootFolder() (string, error) {
	if dir := os.Getenv(WorkdirEnv); dir != "" {
		return dir, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "cannot retrieve the working directory")
	}
	return dir, nil
}

// Resolves path against the root folder unless it is absolute
func ResolvePath(path string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return path, nil
	}
	root, err := GetRootFolder()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, path), nil
}

func CreateDirectoryIfDoesNotExist(directory string) error {
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		if err := os.MkdirAll(directory, 0777); err != nil {
			return errors.Wrapf(err, "cannot create %s", directory)
		}
	}
	return nil
}
