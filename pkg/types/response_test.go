package types

import "testing"

func TestNewPageResult(t *testing.T) {
	empty := NewPageResult[int](nil, 3, 5)
	if empty.Items == nil || len(empty.Items) != 0 {
		t.Fatalf("expected non-nil empty items, got %#v", empty.Items)
	}
	if empty.HasMore {
		t.Fatal("empty page must not report more")
	}

	full := NewPageResult([]int{1, 2}, 1, 2)
	if !full.HasMore {
		t.Fatal("full page should report more")
	}
	if partial := NewPageResult([]int{1}, 2, 2); partial.HasMore {
		t.Fatal("partial page must not report more")
	}
}
