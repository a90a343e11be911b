// Package filereader implements C7, the File Reader: per-file
// metadata, stream selection (primary vs ADS, sparse vs dense), and
// whole-file copy including every ADS (spec.md §4.6).
package filereader

import (
	"io"
	"strings"
	"time"

	"github.com/joeavanzato/ReadLiveNTFS/ads"
	"github.com/joeavanzato/ReadLiveNTFS/internal/errs"
	"github.com/joeavanzato/ReadLiveNTFS/internal/logging"
	"github.com/joeavanzato/ReadLiveNTFS/links"
	"github.com/joeavanzato/ReadLiveNTFS/model"
	"github.com/joeavanzato/ReadLiveNTFS/ntfsfs"
	"github.com/joeavanzato/ReadLiveNTFS/sparse"
)

var log = logging.Get("filereader")

// Options is the subset of the accessor's Options (spec.md §3) C7
// needs directly; link-following policy is forwarded to the Resolver.
type Options struct {
	BufferSize int64
	links.Options
}

// Reader is C7.
type Reader struct {
	ctx      *ntfsfs.Context
	ads      *ads.Handler
	resolver *links.Resolver
}

func New(ctx *ntfsfs.Context, adsHandler *ads.Handler, resolver *links.Resolver) *Reader {
	return &Reader{ctx: ctx, ads: adsHandler, resolver: resolver}
}

// Exists is the exists(path) operation: normalizes the path, swallows
// interpreter errors as false.
func (r *Reader) Exists(path string) bool {
	base, _, _ := splitADS(path)
	return r.ctx.FileExists(base)
}

// FileInfo is the file_info(path, resolve_links, options) operation.
func (r *Reader) FileInfo(path string, resolveLinks bool, opts Options) (*model.FileRecord, error) {
	base, adsName, hasADS := splitADS(path)

	if !r.ctx.FileExists(base) {
		return nil, errs.New(errs.NotFound, path, nil)
	}

	meta, err := r.ctx.FileInfo(base)
	if err != nil {
		return nil, err
	}

	names, err := r.ads.Enumerate(base)
	if err != nil {
		names = nil
	}

	record := &model.FileRecord{
		FullPath:       base,
		Size:           meta.Size,
		CreationTime:   time.Unix(0, meta.CreationTime),
		LastAccessTime: time.Unix(0, meta.LastAccessTime),
		LastWriteTime:  time.Unix(0, meta.LastWriteTime),
		Attributes:     meta.Attributes,
		AdsNames:       names,
	}

	if hasADS {
		record.FullPath = base + ":" + adsName
	}

	if record.IsReparsePoint() {
		_, target, err := r.resolver.LinkTarget(base)
		if err == nil {
			record.LinkTarget = target
		}

		if resolveLinks && canFollow(target, opts.Options) {
			resolved, err := r.resolver.ResolveTarget(base, opts.Options)
			if err == nil && resolved != base {
				return r.FileInfo(resolved, resolveLinks, opts)
			}
		}
	}

	return record, nil
}

func canFollow(target string, opts links.Options) bool {
	if links.IsAbsolute(target) {
		return opts.FollowAbsoluteLinks
	}
	return opts.FollowRelativeLinks
}

// Open is the open(path, options) operation.
func (r *Reader) Open(path string, opts Options) (ads.Stream, error) {
	base, adsName, hasADS := splitADS(path)

	if hasADS {
		baseInfo, err := r.ctx.FileInfo(base)
		if err != nil {
			return nil, err
		}
		isSparse := baseInfo.Attributes&model.AttrSparseFile != 0
		return r.ads.Open(base, adsName, isSparse)
	}

	meta, err := r.ctx.FileInfo(base)
	if err != nil {
		return nil, err
	}

	if meta.Attributes&model.AttrReparsePoint != 0 {
		_, target, err := r.resolver.LinkTarget(base)
		if err == nil && canFollow(target, opts.Options) {
			resolved, err := r.resolver.ResolveTarget(base, opts.Options)
			if err == nil && resolved != base {
				return r.Open(resolved, opts)
			}
		}
	}

	reader, err := r.ctx.OpenStream(base, "")
	if err != nil {
		return nil, err
	}

	if meta.Attributes&model.AttrSparseFile != 0 {
		regions, err := r.ctx.DataRuns(base, "")
		if err != nil {
			return nil, err
		}
		return sparse.New(reader, regions, meta.Size), nil
	}

	return ads.NewDenseStream(reader, meta.Size), nil
}

// Copy is the copy(source, dest, overwrite, options) operation.
// destOpener abstracts the host-provided destination file API
// (spec.md §1/§6: destination-side writing is an external
// collaborator) for both the primary stream and each ADS.
type DestOpener interface {
	EnsureParentDir(destPath string) error
	Exists(destPath string) bool
	CreatePrimary(destPath string) (io.WriteCloser, error)
	CreateADS(destPath, adsName string) (io.WriteCloser, error)
	SetTimestamps(destPath string, creation, lastWrite, lastAccess time.Time) error
	SetAttributes(destPath string, attrs uint32) error
}

func (r *Reader) Copy(source, dest string, overwrite bool, opts Options, dst DestOpener) error {
	if !overwrite && dst.Exists(dest) {
		return errs.New(errs.AlreadyExists, dest, nil)
	}
	if err := dst.EnsureParentDir(dest); err != nil {
		return errs.Wrap(err, errs.DestinationWrite, dest, "ensuring destination directory")
	}

	base, adsName, hasADS := splitADS(source)
	if hasADS {
		// The caller deliberately asked for one specific stream; write it
		// to dest as the primary stream, not as an ADS on dest.
		return r.copyOneStream(base, adsName, dest, false, opts, dst)
	}

	record, err := r.FileInfo(source, true, opts)
	if err != nil {
		return err
	}

	if err := r.copyOneStream(record.FullPath, "", dest, false, opts, dst); err != nil {
		return err
	}

	for _, name := range record.AdsNames {
		if err := r.copyOneStream(record.FullPath, name, dest, true, opts, dst); err != nil {
			return err
		}
	}

	if err := dst.SetTimestamps(dest, record.CreationTime, record.LastWriteTime, record.LastAccessTime); err != nil {
		log.WithField("path", dest).Warn("failed to propagate timestamps: ", err)
	}
	if err := dst.SetAttributes(dest, record.Attributes); err != nil {
		log.WithField("path", dest).Warn("failed to propagate attributes: ", err)
	}

	return nil
}

func (r *Reader) copyOneStream(base, adsName, dest string, asADS bool, opts Options, dst DestOpener) error {
	var src ads.Stream
	var err error
	if adsName == "" {
		src, err = r.Open(base, opts)
	} else {
		src, err = r.Open(base+":"+adsName, opts)
	}
	if err != nil {
		return err
	}
	defer src.Close()

	var out io.WriteCloser
	if asADS {
		out, err = dst.CreateADS(dest, adsName)
	} else {
		out, err = dst.CreatePrimary(dest)
	}
	if err != nil {
		return errs.Wrap(err, errs.DestinationWrite, dest, "creating destination stream")
	}
	defer out.Close()

	buf := make([]byte, opts.BufferSize)
	if len(buf) == 0 {
		buf = make([]byte, 4*1024*1024)
	}

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return errs.Wrap(werr, errs.DestinationWrite, dest, "writing destination stream")
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return errs.Wrap(rerr, errs.DeviceIo, base, "reading source stream")
		}
	}
}

func splitADS(path string) (base, adsName string, ok bool) {
	sepIdx := strings.LastIndexAny(path, `/\`)
	searchFrom := 0
	if sepIdx >= 0 {
		searchFrom = sepIdx
	}
	rest := path[searchFrom:]
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return path, "", false
	}
	return path[:searchFrom+colon], path[searchFrom+colon+1:], true
}

