package ntfsfs

import (
	"strings"

	ntfs "www.velocidex.com/golang/go-ntfs/parser"

	"github.com/joeavanzato/ReadLiveNTFS/internal/errs"
)

// resolve walks path component by component from the filesystem root,
// following the directory index at each level. This mirrors the
// teacher's Open() function in vql/windows/filesystems/ntfs.go: at
// each directory, list its $I30 index via Dir(), match the next
// component against each entry's long (non-DOS) FILE_NAME, and
// descend via the matched entry's MFT reference.
func (c *Context) resolve(path string) (*ntfs.MFT_ENTRY, error) {
	components := splitPath(path)

	current := c.rootEntry()
	for _, component := range components {
		if component == "" {
			continue
		}

		entries, err := current.Dir(c.raw())
		if err != nil {
			return nil, errs.Wrap(err, errs.AttributeRead, path, "listing directory index")
		}

		var matchID uint64
		found := false
		for _, entry := range entries {
			fn := entry.File()
			if fn == nil {
				continue
			}
			// Skip DOS (8.3) short names; only match the long name,
			// mirroring the teacher's name_type != "DOS" filter.
			if fn.NameType().Name == "DOS" {
				continue
			}
			if strings.EqualFold(fn.Name(), component) {
				matchID = entry.MftReference()
				found = true
				break
			}
		}
		if !found {
			return nil, errs.New(errs.NotFound, path, nil)
		}

		next, err := c.getMFTEntry(matchID)
		if err != nil {
			return nil, errs.Wrap(err, errs.AttributeRead, path, "reading MFT entry")
		}
		current = next
	}
	return current, nil
}

// splitPath normalizes a path rooted relative to the volume (no
// drive prefix, no leading separator per spec.md §6) into components,
// accepting both platform-native separators.
func splitPath(path string) []string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// FileExists reports whether path resolves to an MFT entry that is
// not a directory.
func (c *Context) FileExists(path string) bool {
	base, _, ok := splitADS(path)
	if ok {
		path = base
	}
	entry, err := c.resolve(path)
	return err == nil && !isDirectory(c.raw(), entry)
}

// DirExists reports whether path resolves to a directory.
func (c *Context) DirExists(path string) bool {
	entry, err := c.resolve(path)
	if err != nil {
		return false
	}
	return isDirectory(c.raw(), entry)
}

func isDirectory(ntfsCtx *ntfs.NTFSContext, entry *ntfs.MFT_ENTRY) bool {
	stats := ntfs.Stat(ntfsCtx, entry)
	if len(stats) == 0 {
		return false
	}
	return stats[0].IsDir
}

// splitADS splits an optional trailing ":adsname" suffix off path, as
// used throughout C5/C7 (spec.md §4.4, §4.6). ok is false when there
// is no ADS suffix.
func splitADS(path string) (base, ads string, ok bool) {
	// Only colons after the last path separator are considered, so
	// the drive-letter colon of a path like "C:\dir\file" is not
	// mistaken for an ADS separator.
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

// ListDir returns the direct children of the directory at path.
func (c *Context) ListDir(path string) ([]*ntfs.FileInfo, error) {
	entry, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	return ntfs.ListDir(c.raw(), entry), nil
}
