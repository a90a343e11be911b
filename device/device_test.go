package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeFixture(t *testing.T, size int) string {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	path := filepath.Join(t.TempDir(), "volume.img")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestOpenReportsSectorCount(t *testing.T) {
	path := makeFixture(t, 512*10)
	dev, err := Open(path)
	require.NoError(t, err)
	defer dev.Close()

	assert.Equal(t, int64(512), dev.SectorSize())
	assert.Equal(t, int64(10), dev.SectorCount())
}

func TestReadSectorsReturnsExactByteCount(t *testing.T) {
	path := makeFixture(t, 512*4)
	dev, err := Open(path)
	require.NoError(t, err)
	defer dev.Close()

	buf, err := dev.ReadSectors(1, 2)
	require.NoError(t, err)
	assert.Len(t, buf, 1024)
	assert.Equal(t, byte(512%256), buf[0], "should start at sector 1, byte 512 (fixture value 512 mod 256)")
}

func TestReadSectorsFailsOnShortRead(t *testing.T) {
	path := makeFixture(t, 512*2)
	dev, err := Open(path)
	require.NoError(t, err)
	defer dev.Close()

	_, err = dev.ReadSectors(0, 4) // asks for more sectors than the fixture has
	assert.Error(t, err)
}

func TestOpenWithSectorSizeRejectsNonPositiveSize(t *testing.T) {
	path := makeFixture(t, 512)
	_, err := OpenWithSectorSize(path, 0)
	assert.Error(t, err)
}

func TestReaderAtAlignsAcrossSectorBoundary(t *testing.T) {
	path := makeFixture(t, 512*4)
	dev, err := Open(path)
	require.NoError(t, err)
	defer dev.Close()

	ra := ReaderAt(dev)
	buf := make([]byte, 8)
	n, err := ra.ReadAt(buf, 510) // straddles sector 0/1
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, byte(254), buf[0])
	assert.Equal(t, byte(255), buf[1])
	assert.Equal(t, byte(0), buf[2])
}
