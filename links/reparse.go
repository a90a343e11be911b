// Package links implements C6, the Link Resolver: reparse-buffer
// decoding and iterative, cycle/depth-bounded link-target resolution
// (spec.md §4.5). The binary layout is authoritative per spec.md §6:
// MOUNT_POINT and SYMLINK payloads, with a probed 0/8-byte header
// offset ambiguity per spec.md §9.
package links

import (
	"encoding/binary"
	"strings"
	"unicode/utf16"

	"github.com/pkg/errors"

	"github.com/joeavanzato/ReadLiveNTFS/internal/errs"
	"github.com/joeavanzato/ReadLiveNTFS/model"
)

const (
	offsetSubstOffset = 0
	offsetSubstLen    = 2
	offsetPrintOffset = 4
	offsetPrintLen    = 6
	mountPointFixed   = 8 // subst_off,subst_len,print_off,print_len
	symlinkFixed      = 12 // + flags u32
)

// DecodedReparse is the result of dispatching a ReparseBuffer by tag.
type DecodedReparse struct {
	Kind         model.LinkKind
	RawTarget    string // substitute name, post-processed per spec.md §4.5
	IsRelative   bool
	HeaderOffset int // 0 or 8; which layout yielded a valid path
}

// Decode dispatches buf.Tag, probing both the 0- and 8-byte header
// offsets (spec.md §9) and preferring whichever yields a syntactically
// valid UTF-16 path containing a separator; a non-empty name without a
// separator (a bare relative target) is accepted only if neither
// offset yields one with a separator.
func Decode(buf *model.ReparseBuffer, isReparseDirectory bool) (*DecodedReparse, error) {
	switch buf.Tag {
	case model.TagMountPoint:
		return decodeMountPoint(buf.Content)
	case model.TagSymlink:
		return decodeSymlink(buf.Content, isReparseDirectory)
	default:
		return nil, errs.New(errs.UnsupportedReparseTag, "",
			errors.Errorf("unsupported reparse tag 0x%08X", uint32(buf.Tag)))
	}
}

func decodeMountPoint(content []byte) (*DecodedReparse, error) {
	for i, headerOffset := range []int{8, 0, 8, 0} {
		target, ok := tryDecodePayload(content, headerOffset, mountPointFixed, i >= 2)
		if ok {
			return &DecodedReparse{
				Kind:         model.LinkJunction,
				RawTarget:    postProcess(target),
				HeaderOffset: headerOffset,
			}, nil
		}
	}
	return nil, errs.New(errs.AttributeRead, "", errors.New("could not decode mount point payload at either header offset"))
}

func decodeSymlink(content []byte, isDir bool) (*DecodedReparse, error) {
	for i, headerOffset := range []int{8, 0, 8, 0} {
		payload := sliceFrom(content, headerOffset)
		if len(payload) < symlinkFixed {
			continue
		}
		flags := binary.LittleEndian.Uint32(payload[8:12])
		target, ok := tryDecodePayload(content, headerOffset, symlinkFixed, i >= 2)
		if !ok {
			continue
		}

		kind := model.LinkSymbolicFile
		if isDir {
			kind = model.LinkSymbolicDirectory
		}
		return &DecodedReparse{
			Kind:         kind,
			RawTarget:    postProcess(target),
			IsRelative:   flags&1 != 0,
			HeaderOffset: headerOffset,
		}, nil
	}
	return nil, errs.New(errs.AttributeRead, "", errors.New("could not decode symlink payload at either header offset"))
}

// tryDecodePayload reads the four u16 offset/length fields at
// content[headerOffset:], extracts the substitute name from
// content[headerOffset+fixedFieldsLen:] using those offsets (which
// are themselves relative to the start of the path buffer, i.e. right
// after the fixed fields), and reports ok=false if the result isn't a
// plausible UTF-16 path: empty, or without a separator unless
// allowNoSeparator is set.
func tryDecodePayload(content []byte, headerOffset, fixedFieldsLen int, allowNoSeparator bool) (string, bool) {
	payload := sliceFrom(content, headerOffset)
	if len(payload) < fixedFieldsLen {
		return "", false
	}

	substOff := binary.LittleEndian.Uint16(payload[offsetSubstOffset : offsetSubstOffset+2])
	substLen := binary.LittleEndian.Uint16(payload[offsetSubstLen : offsetSubstLen+2])

	pathBuffer := payload[fixedFieldsLen:]
	start := int(substOff)
	end := start + int(substLen)
	if start < 0 || end > len(pathBuffer) || start > end {
		return "", false
	}

	name := decodeUTF16LE(pathBuffer[start:end])
	if name == "" || (!allowNoSeparator && !strings.ContainsAny(name, `\/`)) {
		return "", false
	}
	return name, true
}

func sliceFrom(content []byte, offset int) []byte {
	if offset > len(content) {
		return nil
	}
	return content[offset:]
}

func decodeUTF16LE(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(units))
}

// postProcess normalizes a substitute name: it strips the NT
// device-namespace prefix and normalizes separators. A
// \??\Volume{GUID}\ target is returned as-is after the prefix strip,
// without separator normalization; the volume GUID is never mapped to
// a drive identifier, not even for the current volume.
func postProcess(raw string) string {
	const ntPrefix = `\??\`
	s := raw
	if strings.HasPrefix(s, ntPrefix) {
		s = s[len(ntPrefix):]
	}

	if strings.HasPrefix(s, "Volume{") {
		// Cross-volume resolution is not supported (spec.md §1
		// Non-goals); the raw target is surfaced unresolved.
		if idx := strings.IndexAny(s, `\/`); idx >= 0 {
			return s
		}
		return s
	}

	s = strings.ReplaceAll(s, "/", `\`)
	return s
}

// IsAbsolute reports whether target is an absolute Windows-style path
// (drive-letter or UNC/device form), for follow_absolute_links vs
// follow_relative_links policy (spec.md §3/§4.5).
func IsAbsolute(target string) bool {
	if len(target) >= 2 && target[1] == ':' {
		return true
	}
	return strings.HasPrefix(target, `\`)
}
