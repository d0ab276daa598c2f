package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-judim/internal/config"
	"github.com/deploymenttheory/go-judim/internal/disk"
	"github.com/deploymenttheory/go-judim/internal/parsers/tape"
	core "github.com/deploymenttheory/go-judim/internal/services"
	"github.com/deploymenttheory/go-judim/internal/types"
)

func testConfig() *config.Config {
	return &config.Config{
		Geometry:       "plus3",
		ImageFormat:    "auto",
		ChecksumPolicy: config.ChecksumWarn,
		Output:         "table",
		Workers:        2,
		Creator:        "test",
	}
}

func testFactory(t *testing.T) *ServiceFactory {
	t.Helper()
	factory := NewServiceFactory(testConfig(), zerolog.Nop())
	require.NoError(t, factory.Initialize())
	return factory
}

// writeSampleTape writes a BASIC loader, a code block and a headerless block
func writeSampleTape(t *testing.T, dir string) string {
	t.Helper()
	program := make([]byte, 200)
	code := make([]byte, 1500)
	for i := range code {
		code[i] = byte(i)
	}

	stream := tape.EncodeStream(
		tape.HeaderBlock(types.TapeHeader{FileType: types.TapeFileProgram, Name: tape.NewName("loader"), DataLength: 200, Param1: 10, Param2: 200}),
		tape.DataBlock(program),
		tape.HeaderBlock(types.TapeHeader{FileType: types.TapeFileCode, Name: tape.NewName("screen"), DataLength: 1500, Param1: 16384}),
		tape.DataBlock(code),
		tape.DataBlock([]byte{1, 2, 3}),
	)
	path := filepath.Join(dir, "game.tap")
	require.NoError(t, os.WriteFile(path, stream, 0o644))
	return path
}

func TestServiceFactory(t *testing.T) {
	factory := NewServiceFactory(testConfig(), zerolog.Nop())
	assert.False(t, factory.IsInitialized())

	tapes, err := factory.TapeService()
	require.NoError(t, err)
	assert.NotNil(t, tapes)
	assert.True(t, factory.IsInitialized())

	disks, err := factory.DiskService()
	require.NoError(t, err)
	assert.NotNil(t, disks)

	require.NoError(t, factory.Shutdown())
	assert.False(t, factory.IsInitialized())

	_, err = NewServiceFactory(nil, zerolog.Nop()).TapeService()
	assert.ErrorIs(t, err, ErrServiceNotAvailable)
}

func TestListAvailableServices(t *testing.T) {
	badGeometry := testConfig()
	badGeometry.Geometry = "amiga"

	tests := []struct {
		name          string
		factory       *ServiceFactory
		wantTape      bool
		wantDisk      bool
		wantReasonFor string
	}{
		{name: "configured", factory: NewServiceFactory(testConfig(), zerolog.Nop()), wantTape: true, wantDisk: true},
		{name: "unknown geometry", factory: NewServiceFactory(badGeometry, zerolog.Nop()), wantTape: true, wantReasonFor: "disk"},
		{name: "no configuration", factory: NewServiceFactory(nil, zerolog.Nop()), wantReasonFor: "tape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := tt.factory.ListAvailableServices()
			require.Len(t, list, 2)
			assert.Equal(t, "tape", list[0].Name)
			assert.Equal(t, tt.wantTape, list[0].Available)
			assert.Equal(t, "disk", list[1].Name)
			assert.Equal(t, tt.wantDisk, list[1].Available)
			for _, info := range list {
				if info.Name == tt.wantReasonFor {
					assert.NotEmpty(t, info.Reason)
				}
				if info.Available {
					assert.Empty(t, info.Reason)
				}
			}
		})
	}
}

func TestExplode(t *testing.T) {
	tests := []struct {
		name    string
		opts    ExtractOptions
		files   []string
		skipped []int
	}{
		{
			name:  "tap streams",
			opts:  ExtractOptions{},
			files: []string{"00-loader.tap", "01-screen.tap", "02-block.tap"},
		},
		{
			name:    "disk form",
			opts:    ExtractOptions{DiskForm: true},
			files:   []string{"00-loader.prg", "01-screen.cod"},
			skipped: []int{2},
		},
		{
			name:  "raw data",
			opts:  ExtractOptions{Raw: true},
			files: []string{"00-loader.prg", "01-screen.cod", "02-block.bin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeSampleTape(t, dir)
			out := filepath.Join(dir, "out")

			tapes, err := testFactory(t).TapeService()
			require.NoError(t, err)

			result, err := tapes.Explode(context.Background(), path, out, tt.opts)
			require.NoError(t, err)

			_, err = uuid.Parse(result.RunID)
			assert.NoError(t, err)

			var names []string
			for _, f := range result.Files {
				names = append(names, f.Name)
				info, err := os.Stat(f.Path)
				require.NoError(t, err)
				assert.Equal(t, int64(f.Size), info.Size())
			}
			assert.Equal(t, tt.files, names)

			var skipped []int
			for _, s := range result.Skipped {
				skipped = append(skipped, s.Index)
			}
			assert.Equal(t, tt.skipped, skipped)
		})
	}
}

func TestExplodedTapeReopens(t *testing.T) {
	dir := t.TempDir()
	path := writeSampleTape(t, dir)
	tapes, err := testFactory(t).TapeService()
	require.NoError(t, err)

	result, err := tapes.Explode(context.Background(), path, dir, ExtractOptions{NoAutorun: true})
	require.NoError(t, err)

	archive, err := tapes.Open(context.Background(), result.Files[0].Path)
	require.NoError(t, err)
	require.Equal(t, 1, archive.Len())
	assert.Equal(t, "none", archive.Info()[0].Autostart)
}

func TestOpenMissingFile(t *testing.T) {
	factory := testFactory(t)
	tapes, _ := factory.TapeService()
	disks, _ := factory.DiskService()

	_, err := tapes.Open(context.Background(), filepath.Join(t.TempDir(), "missing.tap"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = disks.Open(context.Background(), filepath.Join(t.TempDir(), "missing.dsk"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiskPutGetCopy(t *testing.T) {
	for _, format := range []disk.ImageFormat{disk.FormatEDSK, disk.FormatRaw} {
		t.Run(string(format), func(t *testing.T) {
			dir := t.TempDir()
			image := filepath.Join(dir, "blank.dsk")
			disks, err := testFactory(t).DiskService()
			require.NoError(t, err)
			ctx := context.Background()

			formatted, err := disks.Format(ctx, image, FormatOptions{Format: format})
			require.NoError(t, err)
			assert.Equal(t, 175, formatted.Usage().TotalBlocks)

			_, err = disks.Format(ctx, image, FormatOptions{Format: format})
			assert.ErrorIs(t, err, ErrImageExists)

			text := []byte("HELLO FROM THE HOST\r\n")
			result, err := disks.Put(ctx, image, []HostFile{
				{Name: "hello.txt", Data: text},
				{Name: "3:notes.txt", Data: make([]byte, 5000)},
			})
			require.NoError(t, err)
			require.Len(t, result.Added, 2)
			assert.Equal(t, "HELLO.TXT", result.Added[0].Name)
			assert.Equal(t, 3, result.Added[1].User)
			assert.Equal(t, 2, result.Usage.Files)

			// the lock file stays behind, released
			_, err = os.Stat(image + ".lock")
			require.NoError(t, err)
			relock := flock.New(image + ".lock")
			locked, err := relock.TryLock()
			require.NoError(t, err)
			assert.True(t, locked)
			require.NoError(t, relock.Unlock())

			got, err := disks.Get(ctx, image, "hello.txt", GetOptions{})
			require.NoError(t, err)
			assert.Equal(t, text, got)

			out := filepath.Join(dir, "out")
			written, err := disks.Copy(ctx, image, []string{"hello.txt", "3:notes.txt"}, out)
			require.NoError(t, err)
			require.Len(t, written, 2)
			copied, err := os.ReadFile(filepath.Join(out, "NOTES.TXT"))
			require.NoError(t, err)
			assert.Len(t, copied, 5000)

			_, err = disks.Copy(ctx, image, []string{"nothere.txt"}, out)
			assert.ErrorIs(t, err, core.ErrFileNotFound)
		})
	}
}

func TestPutLeavesImageOnFailure(t *testing.T) {
	dir := t.TempDir()
	image := filepath.Join(dir, "disk.dsk")
	disks, err := testFactory(t).DiskService()
	require.NoError(t, err)
	ctx := context.Background()

	_, err = disks.Format(ctx, image, FormatOptions{})
	require.NoError(t, err)
	_, err = disks.Put(ctx, image, []HostFile{{Name: "a.txt", Data: []byte("a")}})
	require.NoError(t, err)
	before, err := os.ReadFile(image)
	require.NoError(t, err)

	_, err = disks.Put(ctx, image, []HostFile{
		{Name: "b.txt", Data: []byte("b")},
		{Name: "a.txt", Data: []byte("again")},
	})
	assert.ErrorIs(t, err, core.ErrFileExists)

	after, err := os.ReadFile(image)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPutLocked(t *testing.T) {
	dir := t.TempDir()
	image := filepath.Join(dir, "disk.dsk")
	disks, err := testFactory(t).DiskService()
	require.NoError(t, err)

	_, err = disks.Format(context.Background(), image, FormatOptions{})
	require.NoError(t, err)

	held := flock.New(image + ".lock")
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	_, err = disks.Put(context.Background(), image, []HostFile{{Name: "a.txt", Data: []byte("a")}})
	assert.ErrorIs(t, err, ErrImageLocked)
}

func TestPutTapeAndGetToTap(t *testing.T) {
	dir := t.TempDir()
	tapePath := writeSampleTape(t, dir)
	image := filepath.Join(dir, "disk.dsk")

	factory := testFactory(t)
	disks, _ := factory.DiskService()
	tapes, _ := factory.TapeService()
	ctx := context.Background()

	_, err := disks.Format(ctx, image, FormatOptions{})
	require.NoError(t, err)

	result, err := disks.PutTape(ctx, image, tapePath, []int{0, 1}, false)
	require.NoError(t, err)
	require.Len(t, result.Added, 2)
	assert.Equal(t, "LOADER.PRG", result.Added[0].Name)
	assert.Equal(t, types.TapeHeaderPayloadSize+200, result.Added[0].Size)
	assert.Equal(t, "SCREEN.COD", result.Added[1].Name)

	_, err = disks.PutTape(ctx, image, tapePath, []int{2}, false)
	assert.ErrorIs(t, err, core.ErrEntryPartMissing)

	archive, err := tapes.Open(ctx, tapePath)
	require.NoError(t, err)
	want, err := archive.Extract(1, core.PartsBoth, false)
	require.NoError(t, err)

	got, err := disks.Get(ctx, image, "screen.cod", GetOptions{ToTap: true})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
