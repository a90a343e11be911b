package links

import (
	"path"
	"strings"

	"github.com/joeavanzato/ReadLiveNTFS/internal/errs"
	"github.com/joeavanzato/ReadLiveNTFS/internal/logging"
	"github.com/joeavanzato/ReadLiveNTFS/model"
)

var log = logging.Get("links")

// Interpreter is the narrow slice of C3 the resolver needs: reparse
// buffer retrieval, existence and directory-ness checks.
type Interpreter interface {
	ReparsePoint(path string) (*model.ReparseBuffer, error)
	FileExists(path string) bool
	DirExists(path string) bool
}

// Options mirrors the link-following fields of the accessor's Options
// (spec.md §3).
type Options struct {
	MaxLinkDepth        int
	FollowRelativeLinks bool
	FollowAbsoluteLinks bool
}

// Resolver is C6.
type Resolver struct {
	ctx     Interpreter
	driveID string
}

func New(ctx Interpreter, driveID string) *Resolver {
	return &Resolver{ctx: ctx, driveID: driveID}
}

// LinkTarget is the (a) operation of spec.md §4.5: returns
// (LinkNone, "") if path is not a reparse point.
func (r *Resolver) LinkTarget(p string) (model.LinkKind, string, error) {
	if !r.isReparsePoint(p) {
		return model.LinkNone, "", nil
	}

	buf, err := r.ctx.ReparsePoint(p)
	if err != nil {
		return model.LinkNone, "", err
	}

	decoded, err := Decode(buf, r.ctx.DirExists(p))
	if err != nil {
		return model.LinkNone, "", err
	}
	return decoded.Kind, decoded.RawTarget, nil
}

func (r *Resolver) isReparsePoint(p string) bool {
	buf, err := r.ctx.ReparsePoint(p)
	return err == nil && buf != nil
}

// ResolveTarget is the (b) operation of spec.md §4.5: iteratively
// dereferences reparse points until reaching a non-reparse target, a
// policy refusal, or a failure.
func (r *Resolver) ResolveTarget(startPath string, opts Options) (string, error) {
	state := model.NewLinkResolutionState()
	current := startPath

	for {
		normalized := normalize(current)
		if already := state.Visit(normalized); already {
			return "", errs.NewLinkRecursion(current, state.Depth)
		}

		if !r.isReparsePoint(current) {
			return current, nil
		}

		if state.Depth >= opts.MaxLinkDepth {
			return "", errs.NewLinkRecursion(current, state.Depth)
		}
		state.Depth++

		buf, err := r.ctx.ReparsePoint(current)
		if err != nil {
			return "", err
		}

		decoded, err := Decode(buf, r.ctx.DirExists(current))
		if err != nil {
			return "", err
		}

		target := decoded.RawTarget
		absolute := IsAbsolute(target)

		if decoded.IsRelative && !opts.FollowRelativeLinks {
			return target, nil
		}
		if absolute && !opts.FollowAbsoluteLinks {
			return withDrivePrefix(r.driveID, target), nil
		}

		var next string
		if decoded.IsRelative {
			next = canonicalize(parentDir(current) + `\` + target)
		} else {
			next = stripDrivePrefix(target)
		}

		if !r.ctx.FileExists(next) && !r.ctx.DirExists(next) {
			// Target does not exist in the current volume: terminate
			// resolution and return the current candidate.
			log.WithField("path", next).Warn("reparse target does not exist on this volume; stopping resolution")
			return next, nil
		}

		current = next
	}
}

func normalize(p string) string {
	return strings.ToLower(canonicalize(p))
}

func canonicalize(p string) string {
	slashed := strings.ReplaceAll(p, `\`, "/")
	cleaned := path.Clean(slashed)
	return strings.ReplaceAll(cleaned, "/", `\`)
}

func parentDir(p string) string {
	slashed := strings.ReplaceAll(p, `\`, "/")
	dir := path.Dir(slashed)
	return strings.ReplaceAll(dir, "/", `\`)
}

// withDrivePrefix qualifies a rooted-but-driveless absolute target
// (e.g. `\Users`) with driveID. A target that already carries its own
// drive letter (e.g. after postProcess resolves `\??\C:\Users` to
// `C:\Users`) is returned unchanged — prefixing it again would produce
// a nonsensical path like `C:\C:\Users`.
func withDrivePrefix(driveID, p string) string {
	if len(p) >= 2 && p[1] == ':' {
		return p
	}
	if driveID == "" {
		return p
	}
	trimmed := strings.TrimPrefix(p, `\`)
	return driveID + `\` + trimmed
}

func stripDrivePrefix(p string) string {
	if len(p) >= 2 && p[1] == ':' {
		rest := p[2:]
		return strings.TrimPrefix(rest, `\`)
	}
	return strings.TrimPrefix(p, `\`)
}
