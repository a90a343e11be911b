// Package volume implements C2, the Volume Stream: a byte-addressable,
// seekable, read-only view over a C1 SectorDevice with sector-aligned
// batching. The read algorithm follows spec.md §4.2 exactly: an
// unaligned head sector, full sectors read in batches of up to
// maxBatchSectors, and an unaligned tail sector.
package volume

import (
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/joeavanzato/ReadLiveNTFS/device"
	"github.com/joeavanzato/ReadLiveNTFS/internal/errs"
	"github.com/joeavanzato/ReadLiveNTFS/internal/metrics"
)

const maxBatchSectors = 128

// Stream is the C2 byte-addressable cursor. Read/Seek/Write are not
// safe for concurrent use (spec.md §5: single-threaded per accessor),
// but ReadAt guards the device with a mutex so it can additionally
// serve as the positional io.ReaderAt that C3's paged reader drives
// from multiple call sites against the same underlying device.
type Stream struct {
	mu       sync.Mutex
	dev      device.SectorDevice
	position int64
	length   int64
}

func New(dev device.SectorDevice) *Stream {
	return &Stream{
		dev:    dev,
		length: dev.SectorCount() * dev.SectorSize(),
	}
}

func (s *Stream) Len() int64      { return s.length }
func (s *Stream) Position() int64 { return s.position }

// Read implements io.Reader, clamped to the remaining volume length.
func (s *Stream) Read(p []byte) (int, error) {
	defer metrics.Instrument("volume.read")()

	if s.position >= s.length {
		return 0, io.EOF
	}

	remaining := s.length - s.position
	count := int64(len(p))
	if count > remaining {
		count = remaining
	}
	if count == 0 {
		return 0, nil
	}

	n, err := s.readAt(p[:count], s.position)
	s.position += int64(n)
	return n, err
}

// ReadAt implements io.ReaderAt directly against the device, independent
// of the cursor's Read position. This is what lets C3 (ntfsfs.Open via
// NewPagedReader) sit on top of C2 instead of reading the device
// directly, per spec.md §2's data flow.
func (s *Stream) ReadAt(p []byte, off int64) (int, error) {
	defer metrics.Instrument("volume.readat")()

	if off >= s.length {
		return 0, io.EOF
	}

	remaining := s.length - off
	count := int64(len(p))
	if count > remaining {
		count = remaining
	}
	if count == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAt(p[:count], off)
}

func (s *Stream) readAt(p []byte, pos int64) (int, error) {
	sectorSize := s.dev.SectorSize()
	written := 0

	for len(p) > 0 {
		sector := pos / sectorSize
		offset := pos % sectorSize

		if offset != 0 {
			buf, err := s.dev.ReadSectors(sector, 1)
			if err != nil {
				return written, errs.Wrap(err, errs.DeviceIo, "", "reading unaligned head sector")
			}
			tail := buf[offset:]
			n := copy(p, tail)
			written += n
			p = p[n:]
			pos += int64(n)
			continue
		}

		fullSectors := int64(len(p)) / sectorSize
		if fullSectors > 0 {
			batch := fullSectors
			if batch > maxBatchSectors {
				batch = maxBatchSectors
			}
			buf, err := s.dev.ReadSectors(sector, batch)
			if err != nil {
				return written, errs.Wrap(err, errs.DeviceIo, "", "reading aligned sector batch")
			}
			n := copy(p, buf)
			written += n
			p = p[n:]
			pos += int64(n)
			continue
		}

		// Fewer than sectorSize bytes remain: terminal partial sector.
		buf, err := s.dev.ReadSectors(sector, 1)
		if err != nil {
			return written, errs.Wrap(err, errs.DeviceIo, "", "reading unaligned tail sector")
		}
		n := copy(p, buf)
		written += n
		p = p[n:]
		pos += int64(n)
	}

	return written, nil
}

// Seek implements io.Seeker. Seek is unchecked arithmetic; negative
// absolute positions fail with InvalidSeek (surfaced as
// InvalidArgument, the taxonomy has no dedicated InvalidSeek kind
// beyond that).
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = s.position + offset
	case io.SeekEnd:
		newPos = s.length + offset
	default:
		return 0, errs.New(errs.InvalidArgument, "", errors.New("invalid whence"))
	}
	if newPos < 0 {
		return 0, errs.New(errs.InvalidArgument, "", errors.Errorf("invalid seek to negative position %d", newPos))
	}
	s.position = newPos
	return s.position, nil
}

// Write always fails: the volume stream is read-only.
func (s *Stream) Write([]byte) (int, error) {
	return 0, errs.New(errs.NotSupported, "", errors.New("volume stream is read-only"))
}

func (s *Stream) Close() error {
	return s.dev.Close()
}
