package path_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/yhkuo41/sectorfs/pkg/device"
	"github.com/yhkuo41/sectorfs/pkg/file"
	"github.com/yhkuo41/sectorfs/pkg/filesystem"
	"github.com/yhkuo41/sectorfs/pkg/path"
	. "github.com/yhkuo41/sectorfs/pkg/types"
)

// newVolume formats an in-memory volume with a small tree:
//
//	/d/        (directory)
//	/d/e/      (directory)
//	/d/e/f     (file)
func newVolume(t *testing.T) device.Device {
	t.Helper()
	dev := device.NewMemDisk(256)
	fs, err := filesystem.New(dev, true)
	if err != nil {
		t.Fatalf("formatting: %v", err)
	}
	if err := fs.Mkdir("/d"); err != nil {
		t.Fatalf("making /d: %v", err)
	}
	if err := fs.Mkdir("/d/e"); err != nil {
		t.Fatalf("making /d/e: %v", err)
	}
	if err := fs.Create("/d/e/f", 100); err != nil {
		t.Fatalf("creating /d/e/f: %v", err)
	}
	return dev
}

func openRoot(t *testing.T, dev device.Device) *file.OpenFile {
	t.Helper()
	root, err := file.Open(dev, DirectorySector)
	if err != nil {
		t.Fatalf("opening root directory file: %v", err)
	}
	return root
}

func TestResolveRoot(t *testing.T) {
	dev := newVolume(t)
	result, err := path.Resolve(dev, openRoot(t, dev), "/", true)
	if err != nil {
		t.Fatalf("resolving: %v", err)
	}
	if !result.Exists {
		t.Fatal("wanted the root to exist")
	}
	if result.Sector != DirectorySector {
		t.Fatalf(
			"wanted sector `%d`; found `%d`",
			DirectorySector,
			result.Sector,
		)
	}
	if result.ParentSector != SectorNil {
		t.Fatalf(
			"wanted no parent for the root; found `%d`",
			result.ParentSector,
		)
	}
}

func TestResolveRootAsFile(t *testing.T) {
	dev := newVolume(t)
	result, err := path.Resolve(dev, openRoot(t, dev), "/", false)
	if err != nil {
		t.Fatalf("resolving: %v", err)
	}
	if result.Exists {
		t.Fatal("wanted no regular file named `/`")
	}
}

func TestResolveNested(t *testing.T) {
	dev := newVolume(t)
	root := openRoot(t, dev)

	dir, err := path.Resolve(dev, root, "/d/e", true)
	if err != nil {
		t.Fatalf("resolving /d/e: %v", err)
	}
	if !dir.Exists {
		t.Fatal("wanted /d/e to exist")
	}

	result, err := path.Resolve(dev, root, "/d/e/f", false)
	if err != nil {
		t.Fatalf("resolving /d/e/f: %v", err)
	}
	if !result.Exists {
		t.Fatal("wanted /d/e/f to exist")
	}
	if result.ParentSector != dir.Sector {
		t.Fatalf(
			"wanted parent sector `%d`; found `%d`",
			dir.Sector,
			result.ParentSector,
		)
	}
	if result.Name != "f" {
		t.Fatalf("wanted leaf name `f`; found `%s`", result.Name)
	}
}

func TestResolveKindMismatch(t *testing.T) {
	dev := newVolume(t)
	result, err := path.Resolve(dev, openRoot(t, dev), "/d/e/f", true)
	if err != nil {
		t.Fatalf("resolving: %v", err)
	}
	if result.Exists {
		t.Fatal("wanted no directory named /d/e/f")
	}
	if result.ParentSector == SectorNil {
		t.Fatal("wanted the parent of a missing leaf to be reported")
	}
}

func TestResolveMissingIntermediate(t *testing.T) {
	dev := newVolume(t)
	result, err := path.Resolve(dev, openRoot(t, dev), "/nope/f", false)
	if err != nil {
		t.Fatalf("resolving: %v", err)
	}
	if result.Exists {
		t.Fatal("wanted /nope/f to be missing")
	}
	if result.ParentSector != SectorNil {
		t.Fatalf(
			"wanted no parent under a missing intermediate; found `%d`",
			result.ParentSector,
		)
	}
}

func TestResolveTrailingSlash(t *testing.T) {
	dev := newVolume(t)
	result, err := path.Resolve(dev, openRoot(t, dev), "/d/", true)
	if err != nil {
		t.Fatalf("resolving: %v", err)
	}
	if result.Exists {
		t.Fatal("wanted a trailing slash to resolve to nothing")
	}
}

func TestResolveNotAbsolute(t *testing.T) {
	dev := newVolume(t)
	root := openRoot(t, dev)
	for _, name := range []string{"", "d/e"} {
		if _, err := path.Resolve(dev, root, name, true); !errors.Is(
			err,
			path.NotAbsolutePathErr,
		) {
			t.Fatalf(
				"resolving `%s`: wanted `%v`; found `%v`",
				name,
				path.NotAbsolutePathErr,
				err,
			)
		}
	}
}

func TestResolveTooLongTouchesNoDirectory(t *testing.T) {
	dev := newVolume(t)
	root := openRoot(t, dev)
	counting := &countingDevice{Device: dev}

	name := "/" + strings.Repeat("x", PathNameMaxLen)
	result, err := path.Resolve(counting, root, name, false)
	if err != nil {
		t.Fatalf("resolving: %v", err)
	}
	if result.Exists {
		t.Fatal("wanted an over-long path to be missing")
	}
	if counting.reads != 0 {
		t.Fatalf(
			"wanted `0` device reads for an over-long path; found `%d`",
			counting.reads,
		)
	}
}

type countingDevice struct {
	device.Device
	reads int
}

func (dev *countingDevice) ReadSector(sector Sector, b []byte) error {
	dev.reads++
	return dev.Device.ReadSector(sector, b)
}
