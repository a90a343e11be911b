package ntfsfs

import (
	ntfs "www.velocidex.com/golang/go-ntfs/parser"

	"github.com/joeavanzato/ReadLiveNTFS/internal/errs"
)

// OpenByMFTReference opens a stream addressed directly by
// "mft_id-attr_type-attr_id" (optionally suffixed with ":ads_name"),
// bypassing directory-tree resolution entirely. Grounded on
// accessors/ntfs/mft.go's MFTFileSystemAccessor, useful when a path
// has already been resolved out-of-band (e.g. from WalkMFT) and
// re-walking a live, changing directory tree would be wasteful.
func (c *Context) OpenByMFTReference(ref string) (ntfs.RangeReaderAt, error) {
	mftIdx, attrType, attrID, streamName, err := ntfs.ParseMFTId(ref)
	if err != nil {
		return nil, errs.Wrap(err, errs.InvalidArgument, ref, "parsing MFT reference")
	}

	entry, err := c.getMFTEntry(mftIdx)
	if err != nil {
		return nil, errs.Wrap(err, errs.NotFound, ref, "reading MFT entry")
	}

	reader, err := ntfs.OpenStream(c.raw(), entry, uint64(attrType), uint16(attrID), streamName)
	if err != nil {
		return nil, errs.Wrap(err, errs.AdsOpen, ref, "opening stream by MFT reference")
	}
	return reader, nil
}
