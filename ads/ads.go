// Package ads implements C5, the ADS Handler: enumeration and opening
// of alternate data streams on a file (spec.md §4.4).
package ads

import (
	"io"

	"github.com/pkg/errors"
	ntfs "www.velocidex.com/golang/go-ntfs/parser"

	"github.com/joeavanzato/ReadLiveNTFS/internal/errs"
	"github.com/joeavanzato/ReadLiveNTFS/ntfsfs"
	"github.com/joeavanzato/ReadLiveNTFS/sparse"
)

// Stream is the capability set C7/C9 need from any stream: len,
// position, seek, read (spec.md §9's "polymorphism over 'is a
// stream'").
type Stream interface {
	io.Reader
	io.Seeker
	io.Closer
	Len() int64
}

type denseStream struct {
	io.ReaderAt
	pos    int64
	length int64
}

func (d *denseStream) Read(p []byte) (int, error) {
	if d.pos >= d.length {
		return 0, io.EOF
	}
	remaining := d.length - d.pos
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := d.ReadAt(p, d.pos)
	d.pos += int64(n)
	return n, err
}

func (d *denseStream) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = d.pos + offset
	case io.SeekEnd:
		newPos = d.length + offset
	default:
		return 0, errs.New(errs.InvalidArgument, "", errors.New("invalid whence"))
	}
	if newPos < 0 {
		return 0, errs.New(errs.InvalidArgument, "", errors.New("negative seek"))
	}
	d.pos = newPos
	return d.pos, nil
}

func (d *denseStream) Len() int64 { return d.length }
func (d *denseStream) Close() error {
	if c, ok := d.ReaderAt.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Handler enumerates and opens alternate data streams for files under
// a single NTFS context.
type Handler struct {
	ctx *ntfsfs.Context
}

func New(ctx *ntfsfs.Context) *Handler { return &Handler{ctx: ctx} }

// Enumerate returns the ordered, distinct (case-insensitive), named
// data streams on path.
func (h *Handler) Enumerate(path string) ([]string, error) {
	if path == "" {
		return nil, errs.New(errs.InvalidArgument, path, nil)
	}
	return h.ctx.AlternateDataStreams(path)
}

// Open opens the named ADS on path. If isSparse is set, the returned
// stream is a Sparse Stream (C4) built from the stream's own data-run
// extents; otherwise it is the interpreter's dense stream directly.
func (h *Handler) Open(path, adsName string, isSparse bool) (Stream, error) {
	if path == "" {
		return nil, errs.New(errs.NotFound, path, nil)
	}
	if adsName == "" {
		return nil, errs.New(errs.InvalidArgument, path, errors.New("empty ADS name"))
	}

	reader, err := h.ctx.OpenStream(path, adsName)
	if err != nil {
		return nil, errs.Wrap(err, errs.AdsOpen, path+":"+adsName, "opening alternate data stream")
	}

	length := streamLength(reader)

	if isSparse {
		regions, err := h.ctx.DataRuns(path, adsName)
		if err != nil {
			return nil, errs.Wrap(err, errs.AdsOpen, path+":"+adsName, "reading sparse extents")
		}
		return sparse.New(reader, regions, length), nil
	}

	return NewDenseStream(reader, length), nil
}

// NewDenseStream wraps a plain io.ReaderAt (no sparse skipping) as a
// Stream, for C7 callers opening non-ADS, non-sparse content.
func NewDenseStream(reader io.ReaderAt, length int64) Stream {
	return &denseStream{ReaderAt: reader, length: length}
}

func streamLength(reader ntfs.RangeReaderAt) int64 {
	var max int64
	for _, r := range reader.Ranges() {
		end := r.Offset + r.Length
		if end > max {
			max = end
		}
	}
	return max
}
