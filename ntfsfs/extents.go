package ntfsfs

import (
	"github.com/joeavanzato/ReadLiveNTFS/model"
)

// DataRuns returns the allocated extents of path's $DATA attribute
// named streamName ("" for the primary stream), translated from go-ntfs's Range{Offset,Length,IsSparse}
// into the sparse-aware DataRegion list C4 needs (spec.md §4.3,
// "Preferred source: the NTFS interpreter's data-run extents").
// Sparse runs are omitted; only allocated (non-sparse) ranges are
// returned, already sorted by offset as go-ntfs produces them.
func (c *Context) DataRuns(path, streamName string) ([]model.DataRegion, error) {
	reader, err := c.OpenStream(path, streamName)
	if err != nil {
		return nil, err
	}

	var regions []model.DataRegion
	for _, r := range reader.Ranges() {
		if r.IsSparse {
			continue
		}
		regions = append(regions, model.DataRegion{
			StartOffset: r.Offset,
			Length:      r.Length,
		})
	}
	return regions, nil
}
