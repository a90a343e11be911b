package ntfsfs

import (
	"encoding/binary"
	"io"

	ntfs "www.velocidex.com/golang/go-ntfs/parser"

	"github.com/joeavanzato/ReadLiveNTFS/internal/errs"
	"github.com/joeavanzato/ReadLiveNTFS/model"
)

// Metadata is the C3 file_info/dir_info surface (spec.md §6): length,
// the three timestamps, and the combined attribute bitset.
type Metadata struct {
	Size           int64
	CreationTime   int64 // unix nanos, translated by callers into time.Time
	LastAccessTime int64
	LastWriteTime  int64
	Attributes     uint32
	IsDir          bool
}

// FileInfo returns the C3 metadata for path, which must already be
// free of any ":ads" suffix (callers split that off via splitADS).
func (c *Context) FileInfo(path string) (*Metadata, error) {
	entry, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	stats := ntfs.Stat(c.raw(), entry)
	if len(stats) == 0 {
		return nil, errs.New(errs.AttributeRead, path, nil)
	}
	info := stats[0]

	siFlags, err := c.standardInformationFlags(entry)
	if err != nil {
		// Missing/unreadable $STANDARD_INFORMATION is not reported;
		// fall back to whatever go-ntfs's own FileInfo already
		// inferred (IsDir at least).
		siFlags = 0
	}

	attrs := translateAttributes(siFlags, info.IsDir)

	if hasAttribute(c.raw(), entry, attrReparsePoint) {
		attrs |= model.AttrReparsePoint
	}
	if c.hasNamedDataStream(entry) {
		// Presence of the stream itself doesn't set a bit; ADS
		// enumeration is a separate C5 call. Nothing to do here.
	}

	return &Metadata{
		Size:           info.Size,
		CreationTime:   info.Btime.UnixNano(),
		LastAccessTime: info.Atime.UnixNano(),
		LastWriteTime:  info.Mtime.UnixNano(),
		Attributes:     attrs,
		IsDir:          info.IsDir,
	}, nil
}

func translateAttributes(siFlags uint32, isDir bool) uint32 {
	var out uint32
	if siFlags&siFlagReadOnly != 0 {
		out |= model.AttrReadOnly
	}
	if siFlags&siFlagHidden != 0 {
		out |= model.AttrHidden
	}
	if siFlags&siFlagSystem != 0 {
		out |= model.AttrSystem
	}
	if siFlags&siFlagArchive != 0 {
		out |= model.AttrArchive
	}
	if siFlags&siFlagCompressed != 0 {
		out |= model.AttrCompressed
	}
	if siFlags&siFlagSparse != 0 {
		out |= model.AttrSparseFile
	}
	if siFlags&siFlagReparse != 0 {
		out |= model.AttrReparsePoint
	}
	if isDir {
		out |= model.AttrDirectory
	}
	return out
}

// standardInformationFlags reads the raw $STANDARD_INFORMATION
// attribute content and extracts the FILE_ATTRIBUTE flags field at
// its fixed offset (32, a 4-byte little-endian word), per the on-disk
// layout go-ntfs's own NTFS_PROFILE encodes for this attribute.
func (c *Context) standardInformationFlags(entry *ntfs.MFT_ENTRY) (uint32, error) {
	content, err := readAttributeContent(c.raw(), entry, attrStandardInformation, "", 36)
	if err != nil {
		return 0, err
	}
	if len(content) < 36 {
		return 0, errs.New(errs.AttributeRead, "", nil)
	}
	return binary.LittleEndian.Uint32(content[32:36]), nil
}

func hasAttribute(ntfsCtx *ntfs.NTFSContext, entry *ntfs.MFT_ENTRY, attrType uint64) bool {
	attr, err := entry.GetAttribute(ntfsCtx, attrType, -1)
	return err == nil && attr != nil
}

func (c *Context) hasNamedDataStream(entry *ntfs.MFT_ENTRY) bool {
	names, _ := enumerateADSNames(c.raw(), entry)
	return len(names) > 0
}

func readAttributeContent(ntfsCtx *ntfs.NTFSContext, entry *ntfs.MFT_ENTRY, attrType uint64, streamName string, minLen int) ([]byte, error) {
	attr, err := entry.GetAttribute(ntfsCtx, attrType, -1)
	if err != nil {
		return nil, errs.Wrap(err, errs.AttributeRead, "", "locating attribute")
	}

	reader, err := ntfs.OpenStream(ntfsCtx, entry, attrType, attr.Attribute_id(), streamName)
	if err != nil {
		return nil, errs.Wrap(err, errs.AttributeRead, "", "opening attribute stream")
	}

	buf := make([]byte, minLen)
	n, err := reader.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return nil, errs.Wrap(err, errs.AttributeRead, "", "reading attribute content")
	}
	return buf[:n], nil
}
