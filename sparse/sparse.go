// Package sparse implements C4, the Sparse Stream: a byte-addressable
// read-only view over a file known to be sparse that skips
// unallocated ranges transparently (spec.md §4.3). Unlike the
// teacher's accessors/sparse/sparse.go, which zero-fills gaps, this
// implementation does NOT zero-fill: a read whose span lies entirely
// in a hole returns 0 bytes and advances past the hole, per spec.md's
// explicit requirement.
package sparse

import (
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/joeavanzato/ReadLiveNTFS/internal/errs"
	"github.com/joeavanzato/ReadLiveNTFS/model"
)

// Stream is the C4 reader. It is not safe for concurrent use.
type Stream struct {
	dense   io.ReaderAt
	regions []model.DataRegion // sorted, non-overlapping
	length  int64

	position     int64
	currentIndex int // index into regions the cursor is at/before
}

// New builds a Stream over dense using the given data regions
// (normally sourced from the NTFS interpreter's data-run extents) and
// the file's nominal length.
func New(dense io.ReaderAt, regions []model.DataRegion, length int64) *Stream {
	s := &Stream{dense: dense, regions: regions, length: length}
	s.currentIndex = s.regionIndexFor(0)
	return s
}

// NewFromContentScan builds a Stream using the degraded fallback mode
// (spec.md §4.3): scanning chunkSize-sized chunks of dense and
// synthesizing regions as runs of any non-zero content. This is
// semantically lossier than data-run extents (genuine zero-valued
// allocated data is indistinguishable from a hole) and must only be
// used when the interpreter cannot supply data-run extents.
func NewFromContentScan(dense io.ReaderAt, length int64, chunkSize int) (*Stream, error) {
	if chunkSize <= 0 {
		chunkSize = 64 * 1024
	}

	var regions []model.DataRegion
	buf := make([]byte, chunkSize)

	var runStart int64 = -1
	var pos int64
	for pos < length {
		n, err := dense.ReadAt(buf, pos)
		if n == 0 && err != nil && err != io.EOF {
			return nil, errs.Wrap(err, errs.DeviceIo, "", "scanning for sparse fallback regions")
		}
		chunk := buf[:n]

		if isAllZero(chunk) {
			if runStart >= 0 {
				regions = append(regions, model.DataRegion{StartOffset: runStart, Length: pos - runStart})
				runStart = -1
			}
		} else if runStart < 0 {
			runStart = pos
		}

		pos += int64(n)
		if n == 0 {
			break
		}
	}
	if runStart >= 0 {
		regions = append(regions, model.DataRegion{StartOffset: runStart, Length: pos - runStart})
	}

	return New(dense, regions, length), nil
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func (s *Stream) Len() int64      { return s.length }
func (s *Stream) Position() int64 { return s.position }

// Regions exposes the precomputed, sorted, non-overlapping DataRegion
// list (spec.md §8 property 3).
func (s *Stream) Regions() []model.DataRegion { return s.regions }

// regionIndexFor returns the index of the first region whose end is
// strictly after pos (i.e. the region containing or following pos).
func (s *Stream) regionIndexFor(pos int64) int {
	return sort.Search(len(s.regions), func(i int) bool {
		r := s.regions[i]
		return r.StartOffset+r.Length > pos
	})
}

// Read implements the state machine of spec.md §4.3 steps 1-4.
func (s *Stream) Read(p []byte) (int, error) {
	if s.position >= s.length {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	if s.currentIndex >= len(s.regions) {
		// No region follows: rest of file is a hole.
		s.position = s.length
		return 0, nil
	}

	region := s.regions[s.currentIndex]

	if s.position < region.StartOffset {
		// Step 3: before the next region — skip the hole. The skip is
		// observable as returning fewer bytes than requested (here,
		// zero, with the position having advanced).
		s.position = region.StartOffset
		if s.position >= s.length {
			return 0, nil
		}
		return 0, nil
	}

	regionEnd := region.StartOffset + region.Length
	if s.position >= regionEnd {
		// Shouldn't normally happen (currentIndex should already have
		// advanced), but stay correct: recompute and retry once.
		s.currentIndex = s.regionIndexFor(s.position)
		return s.Read(p)
	}

	// Step 2: inside the current region.
	maxRead := regionEnd - s.position
	want := int64(len(p))
	if want > maxRead {
		want = maxRead
	}

	n, err := s.dense.ReadAt(p[:want], s.position)
	if err != nil && err != io.EOF {
		return n, errs.Wrap(err, errs.DeviceIo, "", "reading allocated region")
	}
	s.position += int64(n)
	if s.position >= regionEnd {
		s.currentIndex++
	}
	return n, nil
}

// Seek recomputes currentIndex via binary search, per spec.md §4.3.
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
	s.currentIndex = s.regionIndexFor(newPos)
	return s.position, nil
}

func (s *Stream) Close() error {
	if closer, ok := s.dense.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
