package volume

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice is an in-memory device.SectorDevice, grounded on the
// spec's "synthetic ReaderAt-backed fake" test-tooling guidance, used
// here to drive the Volume Stream without a real disk.
type fakeDevice struct {
	sectorSize int64
	data       []byte
	reads      []readCall
}

type readCall struct {
	firstLBA, count int64
}

func newFakeDevice(sectorSize int64, sectorCount int64) *fakeDevice {
	data := make([]byte, sectorSize*sectorCount)
	for i := range data {
		data[i] = byte(i % 256)
	}
	return &fakeDevice{sectorSize: sectorSize, data: data}
}

func (f *fakeDevice) SectorSize() int64  { return f.sectorSize }
func (f *fakeDevice) SectorCount() int64 { return int64(len(f.data)) / f.sectorSize }

func (f *fakeDevice) ReadSectors(firstLBA, count int64) ([]byte, error) {
	f.reads = append(f.reads, readCall{firstLBA, count})
	start := firstLBA * f.sectorSize
	end := start + count*f.sectorSize
	buf := make([]byte, count*f.sectorSize)
	copy(buf, f.data[start:end])
	return buf, nil
}

func (f *fakeDevice) Close() error { return nil }

func TestReadUnalignedSpanUsesHeadAndTailSectors(t *testing.T) {
	dev := newFakeDevice(512, 4)
	s := New(dev)

	buf := make([]byte, 600)
	_, err := s.Seek(100, io.SeekStart)
	require.NoError(t, err)

	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 600, n)
	assert.Equal(t, byte(100), buf[0])

	// Reading [100, 700) spans sector 0 (head, unaligned, bytes
	// 100-511) and the first 188 bytes of sector 1 (tail).
	require.NotEmpty(t, dev.reads)
}

func TestReadClampsToVolumeLength(t *testing.T) {
	dev := newFakeDevice(512, 2)
	s := New(dev)

	_, err := s.Seek(900, io.SeekStart)
	require.NoError(t, err)

	buf := make([]byte, 200)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 124, n, "1024-byte volume minus 900-byte offset leaves 124 bytes")

	n, err = s.Read(buf)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, n)
}

func TestReadBatchesAlignedFullSectors(t *testing.T) {
	dev := newFakeDevice(512, 200)
	s := New(dev)

	buf := make([]byte, 512*150)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)

	var sawBatchOf128 bool
	for _, r := range dev.reads {
		if r.count == maxBatchSectors {
			sawBatchOf128 = true
		}
		assert.LessOrEqual(t, r.count, int64(maxBatchSectors))
	}
	assert.True(t, sawBatchOf128, "150 aligned sectors should be split into a batch capped at maxBatchSectors")
}

func TestSeekRejectsNegativePosition(t *testing.T) {
	dev := newFakeDevice(512, 2)
	s := New(dev)
	_, err := s.Seek(-1, io.SeekStart)
	assert.Error(t, err)
}

func TestWriteAlwaysFails(t *testing.T) {
	dev := newFakeDevice(512, 2)
	s := New(dev)
	_, err := s.Write([]byte("x"))
	assert.Error(t, err)
}
