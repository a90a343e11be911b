// Package accessor implements C9, the Accessor Facade: the single
// public entry point that constructs C1-C8 in order, holds Options
// and the drive identifier, and owns the lifecycle of the volume
// handle and parsed NTFS state (spec.md §4.8).
package accessor

import (
	"context"
	"sync"

	"github.com/google/uuid"
	ntfs "www.velocidex.com/golang/go-ntfs/parser"

	"github.com/joeavanzato/ReadLiveNTFS/ads"
	"github.com/joeavanzato/ReadLiveNTFS/device"
	"github.com/joeavanzato/ReadLiveNTFS/dirreader"
	"github.com/joeavanzato/ReadLiveNTFS/filereader"
	"github.com/joeavanzato/ReadLiveNTFS/internal/errs"
	"github.com/joeavanzato/ReadLiveNTFS/internal/logging"
	"github.com/joeavanzato/ReadLiveNTFS/internal/metrics"
	"github.com/joeavanzato/ReadLiveNTFS/links"
	"github.com/joeavanzato/ReadLiveNTFS/model"
	"github.com/joeavanzato/ReadLiveNTFS/ntfsfs"
	"github.com/joeavanzato/ReadLiveNTFS/volume"
)

var log = logging.Get("accessor")

const (
	pagedReaderPageSize  = 8 * 1024
	pagedReaderCacheSize = 4096
)

// Accessor is C9. It is not safe for concurrent use by more than one
// goroutine (spec.md §5); distinct Accessor instances for distinct
// volumes may run in parallel.
type Accessor struct {
	mu       sync.Mutex
	disposed bool

	sessionID string
	driveID   string
	opts      Options

	dev    device.SectorDevice
	vol    *volume.Stream
	ntfs   *ntfsfs.Context
	ads    *ads.Handler
	links  *links.Resolver
	files  *filereader.Reader
	dirs   *dirreader.Reader
}

// Open opens volumePath (a platform-specific device path or drive
// letter) as driveID (the identifier used to prefix absolute link
// targets, e.g. "C:") and constructs the full C1-C8 stack.
func Open(volumePath, driveID string, opts ...Option) (*Accessor, error) {
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	dev, err := device.Open(volumePath)
	if err != nil {
		return nil, err
	}

	vol := volume.New(dev)

	pagedReader, err := ntfsfs.NewPagedReader(vol, pagedReaderPageSize, pagedReaderCacheSize)
	if err != nil {
		dev.Close()
		return nil, err
	}

	ntfsCtx, err := ntfsfs.Open(pagedReader, 0, ntfsfs.Options{
		MaxDirectoryDepth: o.MaxDirectoryDepth,
		MaxLinks:          o.MaxGoNTFSLinks,
	})
	if err != nil {
		dev.Close()
		return nil, err
	}

	adsHandler := ads.New(ntfsCtx)
	resolver := links.New(ntfsCtx, driveID)
	fileReader := filereader.New(ntfsCtx, adsHandler, resolver)
	dirReader := dirreader.New(ntfsCtx, fileReader, resolver)

	a := &Accessor{
		sessionID: uuid.NewString(),
		driveID:   driveID,
		opts:      o,
		dev:       dev,
		vol:       vol,
		ntfs:      ntfsCtx,
		ads:       adsHandler,
		links:     resolver,
		files:     fileReader,
		dirs:      dirReader,
	}

	log.WithField("session", a.sessionID).WithField("drive", driveID).Info("opened NTFS volume accessor")
	return a, nil
}

func (a *Accessor) fileOptions() filereader.Options {
	return filereader.Options{
		BufferSize: a.opts.BufferSize,
		Options:    a.opts.linkOptions(),
	}
}

func (a *Accessor) checkDisposed() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return errs.New(errs.Disposed, "", nil)
	}
	return nil
}

// Exists reports whether path exists as a file (directories count via
// DirExists, not this).
func (a *Accessor) Exists(path string) (bool, error) {
	defer metrics.Instrument("accessor.exists")()
	if err := a.checkDisposed(); err != nil {
		return false, err
	}
	return a.files.Exists(path), nil
}

func (a *Accessor) DirExists(path string) (bool, error) {
	defer metrics.Instrument("accessor.dir_exists")()
	if err := a.checkDisposed(); err != nil {
		return false, err
	}
	return a.dirs.Exists(path), nil
}

func (a *Accessor) FileInfo(path string, resolveLinks bool) (*model.FileRecord, error) {
	defer metrics.Instrument("accessor.file_info")()
	if err := a.checkDisposed(); err != nil {
		return nil, err
	}
	return a.files.FileInfo(path, resolveLinks, a.fileOptions())
}

func (a *Accessor) DirInfo(path string, resolveLinks bool) (*model.DirectoryRecord, error) {
	defer metrics.Instrument("accessor.dir_info")()
	if err := a.checkDisposed(); err != nil {
		return nil, err
	}
	return a.dirs.DirInfo(path, resolveLinks, a.fileOptions())
}

func (a *Accessor) Open(path string) (ads.Stream, error) {
	defer metrics.Instrument("accessor.open")()
	if err := a.checkDisposed(); err != nil {
		return nil, err
	}
	stream, err := a.files.Open(path, a.fileOptions())
	if err != nil {
		return nil, err
	}
	return trackOpenStream(stream), nil
}

func (a *Accessor) Copy(source, dest string, overwrite bool, dst filereader.DestOpener) error {
	defer metrics.Instrument("accessor.copy")()
	if err := a.checkDisposed(); err != nil {
		return err
	}
	return a.files.Copy(source, dest, overwrite, a.fileOptions(), dst)
}

func (a *Accessor) ListFiles(dirPath, pattern string, recurse, resolveLinks bool) ([]*model.FileRecord, error) {
	defer metrics.Instrument("accessor.list_files")()
	if err := a.checkDisposed(); err != nil {
		return nil, err
	}
	return a.dirs.ListFiles(dirPath, pattern, recurse, resolveLinks, a.fileOptions())
}

func (a *Accessor) ListDirs(dirPath, pattern string, recurse, resolveLinks bool) ([]*model.DirectoryRecord, error) {
	defer metrics.Instrument("accessor.list_dirs")()
	if err := a.checkDisposed(); err != nil {
		return nil, err
	}
	return a.dirs.ListDirs(dirPath, pattern, recurse, resolveLinks, a.fileOptions())
}

func (a *Accessor) AlternateDataStreams(path string) ([]string, error) {
	defer metrics.Instrument("accessor.alternate_data_streams")()
	if err := a.checkDisposed(); err != nil {
		return nil, err
	}
	return a.ads.Enumerate(path)
}

func (a *Accessor) LinkTarget(path string) (model.LinkKind, string, error) {
	defer metrics.Instrument("accessor.link_target")()
	if err := a.checkDisposed(); err != nil {
		return model.LinkNone, "", err
	}
	return a.links.LinkTarget(path)
}

func (a *Accessor) ResolveTarget(path string) (string, error) {
	defer metrics.Instrument("accessor.resolve_target")()
	if err := a.checkDisposed(); err != nil {
		return "", err
	}
	return a.links.ResolveTarget(path, a.opts.linkOptions())
}

// WalkMFT and WalkUSNJournal are the SPEC_FULL.md-supplemented bulk
// forensic conveniences layered on C3.
func (a *Accessor) WalkMFT(ctx context.Context, fn func(ntfsfs.MFTHighlight) error) error {
	defer metrics.Instrument("accessor.walk_mft")()
	if err := a.checkDisposed(); err != nil {
		return err
	}
	return a.ntfs.WalkMFT(ctx, fn)
}

func (a *Accessor) WalkUSNJournal(ctx context.Context, fn func(ntfsfs.USNRecord) error) error {
	defer metrics.Instrument("accessor.walk_usn_journal")()
	if err := a.checkDisposed(); err != nil {
		return err
	}
	return a.ntfs.WalkUSNJournal(ctx, fn)
}

func (a *Accessor) OpenByMFTReference(ref string) (ads.Stream, error) {
	defer metrics.Instrument("accessor.open_by_mft_reference")()
	if err := a.checkDisposed(); err != nil {
		return nil, err
	}
	reader, err := a.ntfs.OpenByMFTReference(ref)
	if err != nil {
		return nil, err
	}
	return trackOpenStream(ads.NewDenseStream(reader, streamSize(reader))), nil
}

// trackOpenStream wraps a Stream handed out to a caller so
// metrics.OpenStreams reflects the number of streams currently open,
// decrementing exactly once no matter how many times Close is called.
type trackedStream struct {
	ads.Stream
	mu     sync.Mutex
	closed bool
}

func trackOpenStream(s ads.Stream) ads.Stream {
	metrics.OpenStreams.Inc()
	return &trackedStream{Stream: s}
}

func (t *trackedStream) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	metrics.OpenStreams.Dec()
	return t.Stream.Close()
}

func streamSize(reader ntfs.RangeReaderAt) int64 {
	var max int64
	for _, r := range reader.Ranges() {
		end := r.Offset + r.Length
		if end > max {
			max = end
		}
	}
	return max
}

// Dispose releases the NTFS interpreter and the Sector Device exactly
// once; subsequent disposal is a no-op (spec.md §4.8).
func (a *Accessor) Dispose() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return nil
	}
	a.disposed = true
	return a.vol.Close()
}
