package ntfsfs

import (
	"context"
	"time"

	ntfs "www.velocidex.com/golang/go-ntfs/parser"
)

// MFTHighlight is a forensic-friendly view of one $MFT entry,
// independent of directory-tree walking — it can surface orphaned or
// unlinked entries a path-based walk could never reach. Grounded on
// other_examples/Velocidex-go-ntfs__mft.go's ParseMFTFile/MFTHighlight.
type MFTHighlight struct {
	EntryNumber int64
	InUse       bool
	FileName    string
	FullPath    string
	Links       []string
	SIFlags     uint32
}

// WalkMFT streams every entry of the $MFT independently of the
// directory tree, calling fn for each. Walking stops at the first
// error fn returns (other than nil).
func (c *Context) WalkMFT(ctx context.Context, fn func(MFTHighlight) error) error {
	mftEntry := c.rootEntry()
	mftReader, err := ntfs.OpenStream(c.raw(), mftEntry, attrData, 0, "")
	if err != nil {
		return err
	}

	size := int64(0)
	for _, r := range mftReader.Ranges() {
		end := r.Offset + r.Length
		if end > size {
			size = end
		}
	}

	highlights := ntfs.ParseMFTFile(ctx, mftReader, size, c.ClusterSize(), c.raw().RecordSize)
	for h := range highlights {
		if h == nil {
			continue
		}
		err := fn(MFTHighlight{
			EntryNumber: h.EntryNumber,
			InUse:       h.InUse,
			FileName:    h.FileName(),
			FullPath:    h.FullPath(),
			Links:       h.Links(),
			SIFlags:     h.SIFlags,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// USNRecord is a decoded $UsnJrnl:$J entry.
type USNRecord struct {
	USN            int64
	Filename       string
	FullPath       string
	Timestamp      time.Time
	Reason         string
	FileAttributes uint32
	SourceInfo     string
}

// WalkUSNJournal streams decoded records from the volume's USN
// journal ($Extend\$UsnJrnl:$J, read through go-ntfs's own ParseUSN
// rather than C4) without the caller needing to know that magic path. Grounded on
// other_examples/Velocidex-go-ntfs__usn.go's ParseUSN.
func (c *Context) WalkUSNJournal(ctx context.Context, fn func(USNRecord) error) error {
	records := ntfs.ParseUSN(ctx, c.raw(), 0)
	for rec := range records {
		if rec == nil {
			continue
		}
		err := fn(USNRecord{
			USN:            rec.Usn(),
			Filename:       rec.Filename(),
			FullPath:       rec.FullPath(),
			Timestamp:      rec.TimeStamp(),
			Reason:         rec.Reason(),
			FileAttributes: rec.FileAttributes(),
			SourceInfo:     rec.SourceInfo(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}
