package ntfsfs

import (
	"encoding/binary"
	"io"

	ntfs "www.velocidex.com/golang/go-ntfs/parser"

	"github.com/joeavanzato/ReadLiveNTFS/internal/errs"
	"github.com/joeavanzato/ReadLiveNTFS/model"
)

const maxReparseBufferSize = 16 * 1024

// ReparsePoint is the C3 reparse_point(p) primitive (spec.md §6): the
// raw tag plus whatever bytes follow it, exactly as stored in the
// $REPARSE_POINT attribute. Tag interpretation (mount point vs
// symlink vs unsupported) belongs to C6 (package links), not here.
func (c *Context) ReparsePoint(path string) (*model.ReparseBuffer, error) {
	entry, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	attr, err := entry.GetAttribute(c.raw(), attrReparsePoint, -1)
	if err != nil {
		return nil, errs.Wrap(err, errs.AttributeRead, path, "no reparse point on file")
	}

	reader, err := ntfs.OpenStream(c.raw(), entry, attrReparsePoint, attr.Attribute_id(), "")
	if err != nil {
		return nil, errs.Wrap(err, errs.AttributeRead, path, "opening reparse attribute")
	}

	buf := make([]byte, maxReparseBufferSize)
	n, err := reader.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return nil, errs.Wrap(err, errs.AttributeRead, path, "reading reparse buffer")
	}
	raw := buf[:n]

	if len(raw) < 4 {
		return nil, errs.New(errs.AttributeRead, path, nil)
	}
	tag := model.ReparseTag(binary.LittleEndian.Uint32(raw[0:4]))

	return &model.ReparseBuffer{Tag: tag, Content: raw}, nil
}
