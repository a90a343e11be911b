package accessor

import "github.com/joeavanzato/ReadLiveNTFS/links"

// Options is the per-accessor-session, immutable Options of spec.md
// §3, with the defaults spec.md names.
type Options struct {
	BufferSize          int64
	MaxLinkDepth        int
	FollowRelativeLinks bool
	FollowAbsoluteLinks bool

	// MaxDirectoryDepth/MaxGoNTFSLinks bound go-ntfs's own internal
	// directory-depth and link-following safeguards (SPEC_FULL.md
	// ambient stack section); distinct from MaxLinkDepth, which
	// bounds this project's own resolve_target loop.
	MaxDirectoryDepth int
	MaxGoNTFSLinks    int
}

func DefaultOptions() Options {
	return Options{
		BufferSize:          4 * 1024 * 1024,
		MaxLinkDepth:        10,
		FollowRelativeLinks: true,
		FollowAbsoluteLinks: false,
		MaxDirectoryDepth:   64,
		MaxGoNTFSLinks:      64,
	}
}

type Option func(*Options)

func WithBufferSize(n int64) Option { return func(o *Options) { o.BufferSize = n } }
func WithMaxLinkDepth(n int) Option { return func(o *Options) { o.MaxLinkDepth = n } }
func WithFollowRelativeLinks(b bool) Option {
	return func(o *Options) { o.FollowRelativeLinks = b }
}
func WithFollowAbsoluteLinks(b bool) Option {
	return func(o *Options) { o.FollowAbsoluteLinks = b }
}

func (o Options) linkOptions() links.Options {
	return links.Options{
		MaxLinkDepth:        o.MaxLinkDepth,
		FollowRelativeLinks: o.FollowRelativeLinks,
		FollowAbsoluteLinks: o.FollowAbsoluteLinks,
	}
}
