// Package device implements C1, the Sector Device: raw, sector-
// granular reads from a mounted volume. Opening the device by path is
// the one genuinely platform-specific seam in this stack (spec.md
// §1's "Explicitly out of scope" list calls this out directly); the
// rest of the package is a mockable interface so C2 and above can be
// exercised without a real volume handle.
package device

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/joeavanzato/ReadLiveNTFS/internal/errs"
)

// SectorDevice is the C1 contract: sector_size, sector_count, and a
// read_sectors that returns exactly count*sector_size bytes or fails
// with DeviceIo. No partial reads.
type SectorDevice interface {
	SectorSize() int64
	SectorCount() int64
	ReadSectors(firstLBA, count int64) ([]byte, error)
	Close() error
}

// fileDevice opens a raw volume (or, for testing, a plain disk-image
// file) by path via os.Open and serves sector reads against it. On
// Windows this is expected to be given a device namespace path such
// as `\\.\C:`; os.Open on such a path yields a handle the OS treats
// as a raw volume handle, matching the way go-ntfs's own CLI tools and
// the teacher's accessors open raw devices.
type fileDevice struct {
	f          *os.File
	sectorSize int64
	sectors    int64
}

const defaultSectorSize = 512

// Open opens the volume at path and determines its sector count from
// the file/device size, assuming the conventional 512-byte sector.
// Use OpenWithSectorSize when the device reports a different
// physical sector size (e.g. 4Kn drives).
func Open(path string) (SectorDevice, error) {
	return OpenWithSectorSize(path, defaultSectorSize)
}

func OpenWithSectorSize(path string, sectorSize int64) (SectorDevice, error) {
	if sectorSize <= 0 {
		return nil, errs.New(errs.InvalidArgument, path, errors.New("sector size must be positive"))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(err, errs.DeviceIo, path, "opening volume")
	}

	size, err := deviceSize(f)
	if err != nil {
		f.Close()
		return nil, errs.Wrap(err, errs.DeviceIo, path, "determining volume size")
	}

	return &fileDevice{
		f:          f,
		sectorSize: sectorSize,
		sectors:    size / sectorSize,
	}, nil
}

// deviceSize tries Seek(0, io.SeekEnd) first (works for regular files
// and many raw device handles). A block device whose size isn't
// reported this way yields zero, and the device then reports zero
// sectors.
func deviceSize(f *os.File) (int64, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	_, err = f.Seek(0, io.SeekStart)
	return size, err
}

func (d *fileDevice) SectorSize() int64  { return d.sectorSize }
func (d *fileDevice) SectorCount() int64 { return d.sectors }

func (d *fileDevice) ReadSectors(firstLBA, count int64) ([]byte, error) {
	if count <= 0 {
		return nil, errs.New(errs.InvalidArgument, "", errors.New("count must be positive"))
	}

	want := count * d.sectorSize
	buf := make([]byte, want)

	n, err := d.f.ReadAt(buf, firstLBA*d.sectorSize)
	if err != nil && !(err == io.EOF && int64(n) == want) {
		if int64(n) == want {
			// A non-EOF error that still filled the whole buffer is
			// tolerated; n covers the request.
		} else {
			return nil, errs.Wrap(err, errs.DeviceIo, "", "reading sectors")
		}
	}
	if int64(n) != want {
		return nil, errs.New(errs.DeviceIo, "", errors.Errorf(
			"short sector read: got %d bytes, wanted %d", n, want))
	}
	return buf, nil
}

func (d *fileDevice) Close() error {
	return d.f.Close()
}

// ReaderAt exposes the device as an io.ReaderAt aligned to its own
// sector size, for callers (like C2) that prefer to drive alignment
// themselves rather than call ReadSectors directly.
func ReaderAt(d SectorDevice) io.ReaderAt {
	if r, ok := d.(io.ReaderAt); ok {
		return r
	}
	return &sectorReaderAt{d: d}
}

type sectorReaderAt struct {
	d SectorDevice
}

func (r *sectorReaderAt) ReadAt(p []byte, off int64) (int, error) {
	ss := r.d.SectorSize()
	firstSector := off / ss
	lastSector := (off + int64(len(p)) - 1) / ss
	count := lastSector - firstSector + 1

	buf, err := r.d.ReadSectors(firstSector, count)
	if err != nil {
		return 0, err
	}
	start := off - firstSector*ss
	n := copy(p, buf[start:])
	return n, nil
}

// ReadAt on fileDevice lets ReaderAt avoid the sector-splitting
// fallback when the concrete device already has a native ReaderAt
// (os.File does).
func (d *fileDevice) ReadAt(p []byte, off int64) (int, error) {
	return d.f.ReadAt(p, off)
}
