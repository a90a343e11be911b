package sparse

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeavanzato/ReadLiveNTFS/model"
)

// fakeDense is a plain io.ReaderAt over an in-memory byte slice,
// standing in for the interpreter's dense backing stream.
type fakeDense struct {
	data []byte
}

func (f *fakeDense) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func TestReadSkipsLeadingHole(t *testing.T) {
	dense := &fakeDense{data: bytes.Repeat([]byte{0xAA}, 16)}
	regions := []model.DataRegion{{StartOffset: 8, Length: 8}}
	s := New(dense, regions, 16)

	buf := make([]byte, 4)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "read entirely within the leading hole must return 0 bytes, not zero-fill")
	assert.Equal(t, int64(8), s.Position(), "position should advance to the start of the next region")
}

func TestReadReturnsAllocatedBytes(t *testing.T) {
	dense := &fakeDense{data: []byte("0123456789ABCDEF")}
	regions := []model.DataRegion{{StartOffset: 0, Length: 16}}
	s := New(dense, regions, 16)

	buf := make([]byte, 5)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "01234", string(buf[:n]))
}

func TestReadStopsAtEndOfFileAfterTrailingHole(t *testing.T) {
	dense := &fakeDense{data: []byte("ABCD")}
	regions := []model.DataRegion{{StartOffset: 0, Length: 4}}
	s := New(dense, regions, 16) // trailing 12 bytes are an implicit hole

	buf := make([]byte, 4)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// Now in the trailing hole.
	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, int64(16), s.Position())

	n, err = s.Read(buf)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, n)
}

func TestSeekRecomputesCurrentRegion(t *testing.T) {
	dense := &fakeDense{data: bytes.Repeat([]byte{0x01}, 32)}
	regions := []model.DataRegion{
		{StartOffset: 0, Length: 8},
		{StartOffset: 16, Length: 8},
	}
	s := New(dense, regions, 32)

	pos, err := s.Seek(20, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(20), pos)

	buf := make([]byte, 4)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n, "seeking into an allocated region should read real bytes immediately")
}

func TestSeekNegativeFails(t *testing.T) {
	s := New(&fakeDense{}, nil, 0)
	_, err := s.Seek(-1, io.SeekStart)
	assert.Error(t, err)
}

func TestNewFromContentScanSynthesizesRegionsAroundZeroRuns(t *testing.T) {
	data := append(bytes.Repeat([]byte{0x00}, 8), bytes.Repeat([]byte{0xFF}, 8)...)
	data = append(data, bytes.Repeat([]byte{0x00}, 8)...)
	dense := &fakeDense{data: data}

	s, err := NewFromContentScan(dense, int64(len(data)), 8)
	require.NoError(t, err)

	regions := s.Regions()
	require.Len(t, regions, 1)
	assert.Equal(t, int64(8), regions[0].StartOffset)
	assert.Equal(t, int64(8), regions[0].Length)
}
