package snapshot

import "testing"

func TestNewReflowTest_NoOverflow(t *testing.T) {
	rt := newReflowTest(320, 320, 320)
	if rt.HasOverflow {
		t.Error("equal widths should not report overflow")
	}
	if !rt.Passed {
		t.Error("equal widths should pass")
	}
	if rt.ViewportWidth != 320 {
		t.Errorf("viewport width = %d, want 320", rt.ViewportWidth)
	}
}

func TestNewReflowTest_ScrollbarTolerance(t *testing.T) {
	// Overlay scrollbars report a pixel or two of phantom overflow.
	rt := newReflowTest(320, 322, 320)
	if rt.HasOverflow {
		t.Error("overflow within scrollbar tolerance should not fail")
	}

	rt = newReflowTest(320, 323, 320)
	if !rt.HasOverflow {
		t.Error("overflow beyond tolerance should be reported")
	}
	if rt.Passed {
		t.Error("overflow beyond tolerance should fail")
	}
}

func TestNewReflowTest_LargeOverflow(t *testing.T) {
	rt := newReflowTest(320, 980, 320)
	if !rt.HasOverflow || rt.Passed {
		t.Errorf("980px content in a 320px viewport must fail: %+v", rt)
	}
}

func TestNewZoomTest_VerdictAlwaysMet(t *testing.T) {
	// Horizontal scrolling under 200% zoom is acceptable, so the verdict
	// is fixed regardless of measured overflow.
	cases := []struct {
		name          string
		before, after widthMeasure
	}{
		{"no overflow", widthMeasure{1366, 1366}, widthMeasure{1366, 1366}},
		{"overflow after zoom", widthMeasure{1366, 1366}, widthMeasure{2732, 1366}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			zt := newZoomTest(tc.before, tc.after)
			if !zt.MeetsZoomRequirement {
				t.Error("zoom requirement verdict must always be met")
			}
		})
	}
}

func TestNewZoomTest_RecordsOverflow(t *testing.T) {
	zt := newZoomTest(widthMeasure{1366, 1366}, widthMeasure{2732, 1366})
	if !zt.OverflowAfterZoom {
		t.Error("measured overflow should still be recorded")
	}
	if zt.ScrollWidthAfter != 2732 {
		t.Errorf("scroll width after = %d, want 2732", zt.ScrollWidthAfter)
	}
}
