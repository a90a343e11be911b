// Package dirreader implements C8, the Directory Reader: per-
// directory metadata, listing, and recursive enumeration with link
// following (spec.md §4.7).
package dirreader

import (
	"path"
	"strings"
	"time"

	"github.com/joeavanzato/ReadLiveNTFS/filereader"
	"github.com/joeavanzato/ReadLiveNTFS/internal/errs"
	"github.com/joeavanzato/ReadLiveNTFS/internal/logging"
	"github.com/joeavanzato/ReadLiveNTFS/links"
	"github.com/joeavanzato/ReadLiveNTFS/model"
	"github.com/joeavanzato/ReadLiveNTFS/ntfsfs"
)

var log = logging.Get("dirreader")

// Reader is C8.
type Reader struct {
	ctx      *ntfsfs.Context
	files    *filereader.Reader
	resolver *links.Resolver
}

func New(ctx *ntfsfs.Context, files *filereader.Reader, resolver *links.Resolver) *Reader {
	return &Reader{ctx: ctx, files: files, resolver: resolver}
}

func (r *Reader) Exists(dirPath string) bool {
	return r.ctx.DirExists(dirPath)
}

// DirInfo is the dir_info(path, resolve_links, options) operation.
func (r *Reader) DirInfo(dirPath string, resolveLinks bool, opts filereader.Options) (*model.DirectoryRecord, error) {
	if !r.ctx.DirExists(dirPath) {
		return nil, errs.New(errs.NotFound, dirPath, nil)
	}

	meta, err := r.ctx.FileInfo(dirPath)
	if err != nil {
		return nil, err
	}

	record := &model.DirectoryRecord{
		FullPath:       dirPath,
		CreationTime:   time.Unix(0, meta.CreationTime),
		LastAccessTime: time.Unix(0, meta.LastAccessTime),
		LastWriteTime:  time.Unix(0, meta.LastWriteTime),
		Attributes:     meta.Attributes,
	}

	if record.IsReparsePoint() {
		_, target, err := r.resolver.LinkTarget(dirPath)
		if err == nil {
			record.LinkTarget = target
		}
		if resolveLinks && canFollow(target, opts.Options) {
			resolved, err := r.resolver.ResolveTarget(dirPath, opts.Options)
			if err == nil && resolved != dirPath {
				return r.DirInfo(resolved, resolveLinks, opts)
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

// listingRoot resolves the one-level target switch of spec.md §4.7:
// "If the listed directory is itself a reparse point and policy
// permits following, listing is performed on the resolved target."
func (r *Reader) listingRoot(dirPath string, resolveLinks bool, opts filereader.Options) (string, error) {
	if !r.ctx.DirExists(dirPath) {
		return "", errs.New(errs.NotFound, dirPath, nil)
	}
	meta, err := r.ctx.FileInfo(dirPath)
	if err != nil {
		return "", err
	}
	if meta.Attributes&model.AttrReparsePoint == 0 || !resolveLinks {
		return dirPath, nil
	}
	_, target, err := r.resolver.LinkTarget(dirPath)
	if err != nil || !canFollow(target, opts.Options) {
		return dirPath, nil
	}
	resolved, err := r.resolver.ResolveTarget(dirPath, opts.Options)
	if err != nil {
		return dirPath, nil
	}
	return resolved, nil
}

// ListFiles is the list_files(path, pattern, recurse, resolve_links,
// options) operation.
func (r *Reader) ListFiles(dirPath, pattern string, recurse, resolveLinks bool, opts filereader.Options) ([]*model.FileRecord, error) {
	root, err := r.listingRoot(dirPath, resolveLinks, opts)
	if err != nil {
		return nil, err
	}

	var out []*model.FileRecord
	err = r.walk(root, dirPath, pattern, recurse, resolveLinks, opts, func(entryPath string, isDir bool) error {
		if isDir {
			return nil
		}
		rec, ferr := r.files.FileInfo(entryPath, resolveLinks, opts)
		if ferr != nil {
			log.WithField("path", entryPath).Warn("skipping file during listing: ", ferr)
			return nil
		}
		out = append(out, rewriteRoot(rec, root, dirPath))
		return nil
	})
	return out, err
}

// ListDirs is the list_dirs(...) operation.
func (r *Reader) ListDirs(dirPath, pattern string, recurse, resolveLinks bool, opts filereader.Options) ([]*model.DirectoryRecord, error) {
	root, err := r.listingRoot(dirPath, resolveLinks, opts)
	if err != nil {
		return nil, err
	}

	var out []*model.DirectoryRecord
	err = r.walk(root, dirPath, pattern, recurse, resolveLinks, opts, func(entryPath string, isDir bool) error {
		if !isDir {
			return nil
		}
		rec, derr := r.DirInfo(entryPath, resolveLinks, opts)
		if derr != nil {
			log.WithField("path", entryPath).Warn("skipping directory during listing: ", derr)
			return nil
		}
		out = append(out, rewriteDirRoot(rec, root, dirPath))
		return nil
	})
	return out, err
}

// walk performs preorder traversal: entries at the current level
// first, then descend into subdirectories. A LinkRecursion while
// descending aborts only that subtree.
func (r *Reader) walk(root, callerRoot, pattern string, recurse, resolveLinks bool, opts filereader.Options, visit func(entryPath string, isDir bool) error) error {
	entries, err := r.ctx.ListDir(root)
	if err != nil {
		return errs.Wrap(err, errs.AttributeRead, root, "listing directory")
	}

	var subdirs []string
	for _, entry := range entries {
		name := entry.Name
		entryPath := joinPath(root, name)

		// The pattern filters which entries are emitted, not which
		// directories are descended into — a subdirectory with a
		// non-matching name can still contain matching descendants.
		matched := true
		if pattern != "" {
			m, merr := path.Match(strings.ToLower(pattern), strings.ToLower(name))
			matched = merr == nil && m
		}

		if matched {
			if err := visit(entryPath, entry.IsDir); err != nil {
				return err
			}
		}
		if entry.IsDir {
			subdirs = append(subdirs, entryPath)
		}
	}

	if !recurse {
		return nil
	}

	for _, sub := range subdirs {
		if err := r.walk(sub, callerRoot, pattern, recurse, resolveLinks, opts, visit); err != nil {
			if kind, ok := errs.KindOf(err); ok && kind == errs.LinkRecursion {
				log.WithField("path", sub).Warn("link recursion aborted subtree: ", err)
				continue
			}
			return err
		}
	}
	return nil
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimSuffix(dir, `\`) + `\` + name
}

// rewriteRoot rewrites FullPath to be rooted under the caller's input
// path (preserving the caller's drive prefix), not the interpreter's
// normalized form (spec.md §4.7).
func rewriteRoot(rec *model.FileRecord, interpreterRoot, callerRoot string) *model.FileRecord {
	rec.FullPath = rebase(rec.FullPath, interpreterRoot, callerRoot)
	return rec
}

func rewriteDirRoot(rec *model.DirectoryRecord, interpreterRoot, callerRoot string) *model.DirectoryRecord {
	rec.FullPath = rebase(rec.FullPath, interpreterRoot, callerRoot)
	return rec
}

func rebase(full, interpreterRoot, callerRoot string) string {
	if !strings.HasPrefix(strings.ToLower(full), strings.ToLower(interpreterRoot)) {
		return full
	}
	suffix := full[len(interpreterRoot):]
	return strings.TrimSuffix(callerRoot, `\`) + suffix
}
