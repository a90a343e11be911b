package accessor

import "testing"

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	if o.MaxLinkDepth != 10 {
		t.Errorf("default MaxLinkDepth = %d, want 10", o.MaxLinkDepth)
	}
	if o.FollowAbsoluteLinks {
		t.Error("default FollowAbsoluteLinks should be false")
	}
	if !o.FollowRelativeLinks {
		t.Error("default FollowRelativeLinks should be true")
	}
}

func TestOptionsApplyOverrides(t *testing.T) {
	o := DefaultOptions()
	for _, fn := range []Option{
		WithBufferSize(1024),
		WithMaxLinkDepth(3),
		WithFollowAbsoluteLinks(true),
		WithFollowRelativeLinks(false),
	} {
		fn(&o)
	}
	if o.BufferSize != 1024 || o.MaxLinkDepth != 3 || !o.FollowAbsoluteLinks || o.FollowRelativeLinks {
		t.Errorf("options after overrides: %+v", o)
	}
}

func TestLinkOptionsTranslation(t *testing.T) {
	o := DefaultOptions()
	lo := o.linkOptions()
	if lo.MaxLinkDepth != o.MaxLinkDepth || lo.FollowRelativeLinks != o.FollowRelativeLinks || lo.FollowAbsoluteLinks != o.FollowAbsoluteLinks {
		t.Errorf("linkOptions() did not translate fields faithfully: %+v vs %+v", lo, o)
	}
}
