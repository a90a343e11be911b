package links

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeavanzato/ReadLiveNTFS/model"
)

// buildMountPointBuffer constructs a MOUNT_POINT reparse payload at
// the conventional 8-byte header offset: tag, data length, reserved,
// then subst_off/subst_len/print_off/print_len, then the path buffer.
func buildMountPointBuffer(target string) []byte {
	utf16Target := utf16.Encode([]rune(target))
	pathBytes := make([]byte, len(utf16Target)*2)
	for i, u := range utf16Target {
		binary.LittleEndian.PutUint16(pathBytes[i*2:], u)
	}

	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], uint32(model.TagMountPoint))

	fixed := make([]byte, mountPointFixed)
	binary.LittleEndian.PutUint16(fixed[0:2], 0)                       // subst_off
	binary.LittleEndian.PutUint16(fixed[2:4], uint16(len(pathBytes)))   // subst_len
	binary.LittleEndian.PutUint16(fixed[4:6], uint16(len(pathBytes)+2)) // print_off (unused by decoder)
	binary.LittleEndian.PutUint16(fixed[6:8], 0)                        // print_len

	buf := append([]byte{}, header...)
	buf = append(buf, fixed...)
	buf = append(buf, pathBytes...)
	buf = append(buf, 0, 0) // null terminator
	return buf
}

func buildSymlinkBuffer(target string, relative bool) []byte {
	utf16Target := utf16.Encode([]rune(target))
	pathBytes := make([]byte, len(utf16Target)*2)
	for i, u := range utf16Target {
		binary.LittleEndian.PutUint16(pathBytes[i*2:], u)
	}

	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], uint32(model.TagSymlink))

	fixed := make([]byte, symlinkFixed)
	binary.LittleEndian.PutUint16(fixed[0:2], 0)
	binary.LittleEndian.PutUint16(fixed[2:4], uint16(len(pathBytes)))
	binary.LittleEndian.PutUint16(fixed[4:6], uint16(len(pathBytes)+2))
	binary.LittleEndian.PutUint16(fixed[6:8], 0)
	var flags uint32
	if relative {
		flags = 1
	}
	binary.LittleEndian.PutUint32(fixed[8:12], flags)

	buf := append([]byte{}, header...)
	buf = append(buf, fixed...)
	buf = append(buf, pathBytes...)
	buf = append(buf, 0, 0)
	return buf
}

func TestDecodeMountPoint(t *testing.T) {
	content := buildMountPointBuffer(`\??\C:\Targets\Real`)
	decoded, err := Decode(&model.ReparseBuffer{Tag: model.TagMountPoint, Content: content}, true)
	require.NoError(t, err)
	assert.Equal(t, model.LinkJunction, decoded.Kind)
	assert.Equal(t, `C:\Targets\Real`, decoded.RawTarget)
}

func TestDecodeAbsoluteSymlink(t *testing.T) {
	content := buildSymlinkBuffer(`\??\D:\Other\File.txt`, false)
	decoded, err := Decode(&model.ReparseBuffer{Tag: model.TagSymlink, Content: content}, false)
	require.NoError(t, err)
	assert.Equal(t, model.LinkSymbolicFile, decoded.Kind)
	assert.False(t, decoded.IsRelative)
	assert.Equal(t, `D:\Other\File.txt`, decoded.RawTarget)
}

func TestDecodeRelativeSymlinkDirectory(t *testing.T) {
	content := buildSymlinkBuffer(`..\Sibling`, true)
	decoded, err := Decode(&model.ReparseBuffer{Tag: model.TagSymlink, Content: content}, true)
	require.NoError(t, err)
	assert.Equal(t, model.LinkSymbolicDirectory, decoded.Kind)
	assert.True(t, decoded.IsRelative)
	assert.Equal(t, `..\Sibling`, decoded.RawTarget)
}

func TestDecodeUnsupportedTag(t *testing.T) {
	_, err := Decode(&model.ReparseBuffer{Tag: model.ReparseTag(0xDEADBEEF), Content: []byte{0, 0, 0, 0}}, false)
	assert.Error(t, err)
}

func TestIsAbsolute(t *testing.T) {
	assert.True(t, IsAbsolute(`C:\foo`))
	assert.True(t, IsAbsolute(`\Device\Foo`))
	assert.False(t, IsAbsolute(`..\foo`))
	assert.False(t, IsAbsolute(`foo\bar`))
}
