package tools

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestFileNames(t *testing.T) {
	test.That(t, GetFilenameWithoutExtension("/data/tiles/block_12.las"), test.ShouldEqual, "block_12")
	test.That(t, GetFilenameWithoutExtension("plain"), test.ShouldEqual, "plain")
	test.That(t, OctreeFolderName("a/b/scan.LAS"), test.ShouldEqual, "octree-scan")
	test.That(t, FmtJSONString(map[string]int{"a": 1}), test.ShouldEqual, `{"a":1}`)
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(WorkdirEnv, dir)

	root, err := GetRootFolder()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, root, test.ShouldEqual, dir)

	p, err := ResolvePath("clouds/a.las")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldEqual, filepath.Join(dir, "clouds", "a.las"))

	abs := filepath.Join(dir, "x")
	p, err = ResolvePath(abs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldEqual, abs)

	t.Setenv(WorkdirEnv, "")
	wd, err := os.Getwd()
	test.That(t, err, test.ShouldBeNil)
	root, err = GetRootFolder()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, root, test.ShouldEqual, wd)
}

func TestCreateDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	test.That(t, CreateDirectoryIfDoesNotExist(dir), test.ShouldBeNil)
	info, err := os.Stat(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.IsDir(), test.ShouldBeTrue)
	// existing folders are left alone
	test.That(t, CreateDirectoryIfDoesNotExist(dir), test.ShouldBeNil)
}
