package ntfsfs

import (
	"strings"

	ntfs "www.velocidex.com/golang/go-ntfs/parser"

	"github.com/joeavanzato/ReadLiveNTFS/internal/errs"
)

// enumerateADSNames walks the MFT entry's attribute list (which,
// across $ATTRIBUTE_LIST entries, go-ntfs's EnumerateAttributes
// assembles transparently) for named $DATA attributes. A named
// $DATA attribute is exactly what NTFS calls an alternate data
// stream; the unnamed $DATA attribute is the primary stream and is
// excluded here.
func enumerateADSNames(ntfsCtx *ntfs.NTFSContext, entry *ntfs.MFT_ENTRY) ([]string, error) {
	attrs := entry.EnumerateAttributes(ntfsCtx)

	seen := make(map[string]struct{})
	var names []string
	for _, attr := range attrs {
		if attr == nil {
			continue
		}
		t := attr.Type()
		if t == nil || t.Value != attrData {
			continue
		}
		name := attr.Name()
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

// AlternateDataStreams is the C5 enumerate() operation.
func (c *Context) AlternateDataStreams(path string) ([]string, error) {
	entry, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	return enumerateADSNames(c.raw(), entry)
}

// OpenStream is the C3 open_file()/ADS-open primitive shared by C5
// and C7: streamName selects the primary stream ("") or a named
// alternate stream. The matching $DATA attribute instance is located
// by the same attribute-list walk used for enumeration, since the
// unqualified GetAttribute(type, -1) lookup only ever resolves the
// unnamed instance.
func (c *Context) OpenStream(path, streamName string) (ntfs.RangeReaderAt, error) {
	entry, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	attrID, err := findDataAttributeID(c.raw(), entry, streamName)
	if err != nil {
		return nil, errs.Wrap(err, errs.AdsOpen, path, "locating data stream")
	}

	reader, err := ntfs.OpenStream(c.raw(), entry, attrData, attrID, streamName)
	if err != nil {
		return nil, errs.Wrap(err, errs.AdsOpen, path, "opening data stream")
	}
	return reader, nil
}

// findDataAttributeID locates the $DATA attribute instance matching
// streamName (case-insensitive; "" selects the unnamed primary
// stream) and returns its attribute id for use with OpenStream.
func findDataAttributeID(ntfsCtx *ntfs.NTFSContext, entry *ntfs.MFT_ENTRY, streamName string) (uint16, error) {
	for _, attr := range entry.EnumerateAttributes(ntfsCtx) {
		if attr == nil {
			continue
		}
		t := attr.Type()
		if t == nil || t.Value != attrData {
			continue
		}
		if strings.EqualFold(attr.Name(), streamName) {
			return attr.Attribute_id(), nil
		}
	}
	return 0, errs.New(errs.AdsOpen, "", nil)
}
