package filesystem

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/yhkuo41/sectorfs/pkg/device"
	"github.com/yhkuo41/sectorfs/pkg/directory"
	"github.com/yhkuo41/sectorfs/pkg/file"
	"github.com/yhkuo41/sectorfs/pkg/header"
	. "github.com/yhkuo41/sectorfs/pkg/types"
)

func newFS(t *testing.T, numSectors Sector) *FileSystem {
	t.Helper()
	fs, err := New(device.NewMemDisk(numSectors), true)
	if err != nil {
		t.Fatalf("formatting `%d`-sector volume: %v", numSectors, err)
	}
	return fs
}

func usedSectors(t *testing.T, fs *FileSystem) map[Sector]bool {
	t.Helper()
	freeMap, err := fs.fetchFreeMap()
	if err != nil {
		t.Fatalf("fetching free map: %v", err)
	}
	used := map[Sector]bool{}
	for sector := Sector(0); sector < fs.dev.NumSectors(); sector++ {
		if freeMap.Test(sector) {
			used[sector] = true
		}
	}
	return used
}

func freeMapBytes(t *testing.T, fs *FileSystem) []byte {
	t.Helper()
	freeMap, err := fs.fetchFreeMap()
	if err != nil {
		t.Fatalf("fetching free map: %v", err)
	}
	return append([]byte(nil), freeMap.Bytes()...)
}

// Formatting a 128-sector volume claims the two reserved header sectors,
// one data sector for the 16-byte free-map file, and ten data sectors for
// the 1280-byte root directory file: sectors 0 through 12.
func TestFormat(t *testing.T) {
	fs := newFS(t, 128)
	used := usedSectors(t, fs)
	if len(used) != 13 {
		t.Fatalf("wanted `13` used sectors after format; found `%d`", len(used))
	}
	for sector := Sector(0); sector < 13; sector++ {
		if !used[sector] {
			t.Fatalf("wanted sector `%d` in use after format", sector)
		}
	}
}

func TestCreateSmallFile(t *testing.T) {
	fs := newFS(t, 128)
	before := usedSectors(t, fs)

	if err := fs.Create("/a", 10); err != nil {
		t.Fatalf("creating /a: %v", err)
	}

	used := usedSectors(t, fs)
	if len(used) != len(before)+2 {
		t.Fatalf(
			"wanted `%d` used sectors (header + one data sector); found `%d`",
			len(before)+2,
			len(used),
		)
	}
	if !used[13] || !used[14] {
		t.Fatal("wanted sectors `13` and `14` claimed by /a")
	}

	root := directory.New()
	if err := root.FetchFrom(fs.rootDirFile); err != nil {
		t.Fatalf("fetching root directory: %v", err)
	}
	wanted := DirEntry{InUse: true, IsDir: false, Sector: 13, Name: "a"}
	entries := root.Entries()
	if len(entries) != 1 || entries[0] != wanted {
		t.Fatalf("wanted root entries `[%+v]`; found `%+v`", wanted, entries)
	}
}

func TestCreateRemoveRestoresBitmap(t *testing.T) {
	fs := newFS(t, 128)
	before := freeMapBytes(t, fs)

	if err := fs.Create("/x", 1000); err != nil {
		t.Fatalf("creating /x: %v", err)
	}
	if err := fs.Remove("/x", false); err != nil {
		t.Fatalf("removing /x: %v", err)
	}

	if found := freeMapBytes(t, fs); !bytes.Equal(found, before) {
		t.Fatalf(
			"wanted the bitmap bit-for-bit restored: `%v`; found `%v`",
			before,
			found,
		)
	}
}

func TestCreateMultiLevelFile(t *testing.T) {
	fs := newFS(t, 128)
	if err := fs.Create("/big", 2*MaxSizeL0); err != nil {
		t.Fatalf("creating /big: %v", err)
	}

	f, err := fs.Open("/big")
	if err != nil {
		t.Fatalf("opening /big: %v", err)
	}
	if length := f.Length(); length != 2*MaxSizeL0 {
		t.Fatalf("wanted length `%d`; found `%d`", 2*MaxSizeL0, length)
	}

	disk := f.Header().Disk()
	if disk.DataSectors[0] == SectorNil || disk.DataSectors[1] == SectorNil {
		t.Fatal("wanted two child headers on a level-1 file")
	}
	if disk.DataSectors[2] != SectorNil {
		t.Fatalf(
			"wanted exactly two child headers; found a third at `%d`",
			disk.DataSectors[2],
		)
	}

	// Writes through one level-1 tree must survive a reopen.
	data := make([]byte, 2*MaxSizeL0)
	for i := range data {
		data[i] = byte(i % 239)
	}
	if n, err := f.Write(data); err != nil || n != 2*MaxSizeL0 {
		t.Fatalf("wanted `%d` bytes written; found `%d` (err: %v)",
			2*MaxSizeL0, n, err)
	}
	reopened, err := fs.Open("/big")
	if err != nil {
		t.Fatalf("reopening /big: %v", err)
	}
	found := make([]byte, 2*MaxSizeL0)
	if _, err := reopened.Read(found); err != nil {
		t.Fatalf("reading /big: %v", err)
	}
	if !bytes.Equal(found, data) {
		t.Fatal("multi-level file corrupted the data")
	}
}

func TestRecursiveRemove(t *testing.T) {
	fs := newFS(t, 256)
	if err := fs.Mkdir("/d"); err != nil {
		t.Fatalf("making /d: %v", err)
	}
	after := freeMapBytes(t, fs)

	if err := fs.Mkdir("/d/e"); err != nil {
		t.Fatalf("making /d/e: %v", err)
	}
	if err := fs.Create("/d/e/f", 100); err != nil {
		t.Fatalf("creating /d/e/f: %v", err)
	}
	if err := fs.Create("/d/g", 50); err != nil {
		t.Fatalf("creating /d/g: %v", err)
	}

	if err := fs.Remove("/d", true); err != nil {
		t.Fatalf("recursively removing /d: %v", err)
	}

	// The subtree's sectors are free again; /d itself stays allocated.
	if found := freeMapBytes(t, fs); !bytes.Equal(found, after) {
		t.Fatalf(
			"wanted the bitmap back to its post-mkdir state: `%v`; found `%v`",
			after,
			found,
		)
	}
	var out strings.Builder
	if err := fs.List(&out, "/d", false); err != nil {
		t.Fatalf("listing /d: %v", err)
	}
	if out.String() != "" {
		t.Fatalf("wanted /d empty; found `%q`", out.String())
	}
}

func TestNonRecursiveRemoveOfDirectory(t *testing.T) {
	fs := newFS(t, 128)
	if err := fs.Mkdir("/d"); err != nil {
		t.Fatalf("making /d: %v", err)
	}

	if err := fs.Remove("/d", false); !errors.Is(err, NotFoundErr) {
		t.Fatalf("wanted `%v`; found `%v`", NotFoundErr, err)
	}
	var out strings.Builder
	if err := fs.List(&out, "/d", false); err != nil {
		t.Fatalf("wanted /d to survive; listing failed: %v", err)
	}
}

func TestRecursiveRemoveOfFileFallsBack(t *testing.T) {
	fs := newFS(t, 128)
	before := freeMapBytes(t, fs)
	if err := fs.Create("/f", 10); err != nil {
		t.Fatalf("creating /f: %v", err)
	}

	if err := fs.Remove("/f", true); err != nil {
		t.Fatalf("recursively removing a file: %v", err)
	}
	if found := freeMapBytes(t, fs); !bytes.Equal(found, before) {
		t.Fatal("wanted the file's sectors returned to the bitmap")
	}
}

func TestCreateCollision(t *testing.T) {
	fs := newFS(t, 128)
	if err := fs.Create("/x", 10); err != nil {
		t.Fatalf("creating /x: %v", err)
	}
	before := freeMapBytes(t, fs)

	if err := fs.Create("/x", 20); !errors.Is(err, ExistsErr) {
		t.Fatalf("wanted `%v`; found `%v`", ExistsErr, err)
	}
	if found := freeMapBytes(t, fs); !bytes.Equal(found, before) {
		t.Fatal("wanted the bitmap unchanged by the failed create")
	}
}

func TestFileAndDirOfSameName(t *testing.T) {
	fs := newFS(t, 256)
	if err := fs.Create("/x", 10); err != nil {
		t.Fatalf("creating file /x: %v", err)
	}
	if err := fs.Mkdir("/x"); err != nil {
		t.Fatalf("making directory /x beside file /x: %v", err)
	}
	if err := fs.Create("/x/inner", 10); err != nil {
		t.Fatalf("creating /x/inner: %v", err)
	}
}

func TestCreateMissingParent(t *testing.T) {
	fs := newFS(t, 128)
	if err := fs.Create("/nope/f", 10); !errors.Is(err, NotFoundErr) {
		t.Fatalf("wanted `%v`; found `%v`", NotFoundErr, err)
	}
}

func TestCreateSizeLimits(t *testing.T) {
	fs := newFS(t, 128)
	if err := fs.Create("/huge", MaxSizeL3+1); !errors.Is(err, TooLargeErr) {
		t.Fatalf("wanted `%v`; found `%v`", TooLargeErr, err)
	}
	if err := fs.Create("/neg", -1); !errors.Is(err, NegativeSizeErr) {
		t.Fatalf("wanted `%v`; found `%v`", NegativeSizeErr, err)
	}
}

func TestCreateOutOfSpace(t *testing.T) {
	fs := newFS(t, 32)
	before := freeMapBytes(t, fs)

	err := fs.Create("/big", 25*SectorSize)
	if !errors.Is(err, header.OutOfSectorsErr) {
		t.Fatalf("wanted `%v`; found `%v`", header.OutOfSectorsErr, err)
	}
	if found := freeMapBytes(t, fs); !bytes.Equal(found, before) {
		t.Fatal("wanted the failed create to write nothing")
	}
}

func TestOpenFallsBackToDirectory(t *testing.T) {
	fs := newFS(t, 128)
	if err := fs.Mkdir("/d"); err != nil {
		t.Fatalf("making /d: %v", err)
	}
	f, err := fs.Open("/d")
	if err != nil {
		t.Fatalf("opening /d: %v", err)
	}
	if length := f.Length(); length != DirectoryFileSize {
		t.Fatalf(
			"wanted directory length `%d`; found `%d`",
			DirectoryFileSize,
			length,
		)
	}
}

func TestOpenMissing(t *testing.T) {
	fs := newFS(t, 128)
	if _, err := fs.Open("/nope"); !errors.Is(err, NotFoundErr) {
		t.Fatalf("wanted `%v`; found `%v`", NotFoundErr, err)
	}
}

func TestListRecursive(t *testing.T) {
	fs := newFS(t, 256)
	if err := fs.Mkdir("/d"); err != nil {
		t.Fatalf("making /d: %v", err)
	}
	if err := fs.Create("/d/f", 10); err != nil {
		t.Fatalf("creating /d/f: %v", err)
	}
	if err := fs.Create("/top", 10); err != nil {
		t.Fatalf("creating /top: %v", err)
	}

	var out strings.Builder
	if err := fs.List(&out, "/", true); err != nil {
		t.Fatalf("listing recursively: %v", err)
	}
	if wanted := "d/\n  f\ntop\n"; out.String() != wanted {
		t.Fatalf("wanted listing `%q`; found `%q`", wanted, out.String())
	}
}

func TestPrint(t *testing.T) {
	fs := newFS(t, 128)
	if err := fs.Create("/a", 10); err != nil {
		t.Fatalf("creating /a: %v", err)
	}

	var out strings.Builder
	if err := fs.Print(&out); err != nil {
		t.Fatalf("printing: %v", err)
	}
	for _, wanted := range []string{
		"free-map file header:",
		"root directory file header:",
		"used sectors:",
		"root directory:",
		"a",
	} {
		if !strings.Contains(out.String(), wanted) {
			t.Fatalf("wanted `%s` in the dump; found `%q`", wanted, out.String())
		}
	}
}

// Every sector the bitmap reports in use must be reachable from exactly one
// owner: a reserved header, a directory entry's header tree, or a directory
// file's own data.
func TestReachabilityInvariant(t *testing.T) {
	fs := newFS(t, 256)
	for _, step := range []func() error{
		func() error { return fs.Mkdir("/d") },
		func() error { return fs.Mkdir("/d/e") },
		func() error { return fs.Create("/d/e/f", 2*MaxSizeL0) },
		func() error { return fs.Create("/top", 500) },
	} {
		if err := step(); err != nil {
			t.Fatalf("building tree: %v", err)
		}
	}

	reachable := map[Sector]int{}
	claim := func(sector Sector) {
		reachable[sector]++
	}
	claim(FreeMapSector)
	claim(DirectorySector)
	claimHeaderTree(t, fs, FreeMapSector, claim)
	claimHeaderTree(t, fs, DirectorySector, claim)
	claimDirectoryTree(t, fs, DirectorySector, claim)

	used := usedSectors(t, fs)
	for sector := range used {
		if reachable[sector] == 0 {
			t.Fatalf("sector `%d` is marked in use but unreachable", sector)
		}
	}
	for sector, owners := range reachable {
		if !used[sector] {
			t.Fatalf("sector `%d` is reachable but marked free", sector)
		}
		if owners != 1 {
			t.Fatalf("sector `%d` has `%d` owners; wanted `1`", sector, owners)
		}
	}
}

// claimHeaderTree claims the sectors a header tree occupies, excluding the
// root header's own sector (its owner claims that).
func claimHeaderTree(
	t *testing.T,
	fs *FileSystem,
	sector Sector,
	claim func(Sector),
) {
	t.Helper()
	hdr := header.New()
	if err := hdr.FetchFrom(fs.dev, sector); err != nil {
		t.Fatalf("fetching header at `%d`: %v", sector, err)
	}
	disk := hdr.Disk()
	if header.Level(disk.NumBytes) == 0 {
		for i := int32(0); i < disk.NumDataSectors; i++ {
			claim(disk.DataSectors[i])
		}
		return
	}
	for i := Byte(0); i < NumDirect && disk.DataSectors[i] != SectorNil; i++ {
		claim(disk.DataSectors[i])
		claimHeaderTree(t, fs, disk.DataSectors[i], claim)
	}
}

func claimDirectoryTree(
	t *testing.T,
	fs *FileSystem,
	sector Sector,
	claim func(Sector),
) {
	t.Helper()
	dirFile, err := file.Open(fs.dev, sector)
	if err != nil {
		t.Fatalf("opening directory at `%d`: %v", sector, err)
	}
	dir := directory.New()
	if err := dir.FetchFrom(dirFile); err != nil {
		t.Fatalf("fetching directory at `%d`: %v", sector, err)
	}
	for _, entry := range dir.Entries() {
		claim(entry.Sector)
		claimHeaderTree(t, fs, entry.Sector, claim)
		if entry.IsDir {
			claimDirectoryTree(t, fs, entry.Sector, claim)
		}
	}
}
