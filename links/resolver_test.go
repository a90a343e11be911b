package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeavanzato/ReadLiveNTFS/internal/errs"
	"github.com/joeavanzato/ReadLiveNTFS/model"
)

// fakeInterpreter is a minimal, in-memory Interpreter for exercising
// ResolveTarget without a real NTFS volume. Each entry maps a
// normalized path to either a reparse buffer (if it's a link) or
// nothing (a plain file/directory, which still must be registered to
// be considered "existing").
type fakeInterpreter struct {
	reparse map[string]*model.ReparseBuffer
	dirs    map[string]bool
	files   map[string]bool
}

func newFakeInterpreter() *fakeInterpreter {
	return &fakeInterpreter{
		reparse: map[string]*model.ReparseBuffer{},
		dirs:    map[string]bool{},
		files:   map[string]bool{},
	}
}

func (f *fakeInterpreter) ReparsePoint(path string) (*model.ReparseBuffer, error) {
	buf, ok := f.reparse[path]
	if !ok {
		return nil, errs.New(errs.AttributeRead, path, nil)
	}
	return buf, nil
}

func (f *fakeInterpreter) FileExists(path string) bool { return f.files[path] }
func (f *fakeInterpreter) DirExists(path string) bool  { return f.dirs[path] }

func symlinkBuffer(target string, relative bool) *model.ReparseBuffer {
	content := buildSymlinkBuffer(target, relative)
	return &model.ReparseBuffer{Tag: model.TagSymlink, Content: content}
}

func TestResolveTargetFollowsChainToPlainFile(t *testing.T) {
	fi := newFakeInterpreter()
	fi.dirs[`A`] = true
	fi.dirs[`B`] = true
	fi.files[`C`] = true
	fi.reparse[`A`] = symlinkBuffer(`B`, true)
	fi.reparse[`B`] = symlinkBuffer(`C`, true)

	r := New(fi, "C:")
	target, err := r.ResolveTarget(`A`, Options{MaxLinkDepth: 10, FollowRelativeLinks: true})
	require.NoError(t, err)
	assert.Equal(t, `C`, target)
}

func TestResolveTargetDetectsTwoHopCycle(t *testing.T) {
	fi := newFakeInterpreter()
	fi.dirs[`A`] = true
	fi.dirs[`B`] = true
	fi.reparse[`A`] = symlinkBuffer(`B`, true)
	fi.reparse[`B`] = symlinkBuffer(`A`, true)

	r := New(fi, "C:")
	_, err := r.ResolveTarget(`A`, Options{MaxLinkDepth: 10, FollowRelativeLinks: true})
	require.Error(t, err)

	kind, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.LinkRecursion, kind)

	var linkErr *errs.Error
	ok = false
	if e, isErr := err.(*errs.Error); isErr {
		linkErr = e
		ok = true
	}
	require.True(t, ok)
	assert.GreaterOrEqual(t, linkErr.Depth, 2)
}

func TestResolveTargetCapsAtMaxLinkDepth(t *testing.T) {
	fi := newFakeInterpreter()
	const chainLen = 11
	for i := 0; i < chainLen; i++ {
		name := linkName(i)
		next := linkName(i + 1)
		fi.dirs[name] = true
		fi.reparse[name] = symlinkBuffer(next, true)
	}
	fi.dirs[linkName(chainLen)] = true

	r := New(fi, "C:")
	_, err := r.ResolveTarget(linkName(0), Options{MaxLinkDepth: 10, FollowRelativeLinks: true})
	require.Error(t, err)

	e, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.LinkRecursion, e.Kind)
	assert.Equal(t, 10, e.Depth, "depth reported at cap must equal the configured max, not one past it")
}

func linkName(i int) string {
	return string(rune('A' + i))
}

func TestResolveTargetStopsAtPlainNonReparsePath(t *testing.T) {
	fi := newFakeInterpreter()
	fi.files[`Plain`] = true

	r := New(fi, "C:")
	target, err := r.ResolveTarget(`Plain`, Options{MaxLinkDepth: 10, FollowRelativeLinks: true})
	require.NoError(t, err)
	assert.Equal(t, `Plain`, target)
}

func TestResolveTargetRefusesAbsoluteWhenPolicyDisallows(t *testing.T) {
	fi := newFakeInterpreter()
	fi.dirs[`A`] = true
	fi.reparse[`A`] = symlinkBuffer(`D:\Elsewhere`, false)

	r := New(fi, "C:")
	target, err := r.ResolveTarget(`A`, Options{MaxLinkDepth: 10, FollowAbsoluteLinks: false})
	require.NoError(t, err)
	assert.Equal(t, `D:\Elsewhere`, target)
}
