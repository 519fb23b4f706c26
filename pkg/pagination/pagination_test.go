package pagination

import (
	"reflect"
	"testing"
)

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 7: 7, MaxLimit + 1: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(1, 20); got != 0 {
		t.Fatalf("expected offset 0, got %d", got)
	}
	if got := Offset(3, 20); got != 40 {
		t.Fatalf("expected offset 40, got %d", got)
	}
	if got := Offset(0, 20); got != 0 {
		t.Fatalf("expected page 0 to act as page 1, got %d", got)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		count int64
		limit int
		want  int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 3, 34},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.count, tc.limit); got != tc.want {
			t.Fatalf("TotalPages(%d, %d) = %d, want %d", tc.count, tc.limit, got, tc.want)
		}
	}
}

func TestControllerBoundaries(t *testing.T) {
	c := NewController(1, 3)
	if c.CanPrev() {
		t.Fatal("prev must be disabled on page 1")
	}
	if !c.CanNext() {
		t.Fatal("next must be enabled before the last page")
	}

	if same, ok := c.Go(0); ok || same != c {
		t.Fatalf("page 0 must be a no-op, got %+v ok=%v", same, ok)
	}
	if same, ok := c.Go(4); ok || same != c {
		t.Fatalf("page past total must be a no-op, got %+v ok=%v", same, ok)
	}

	last, ok := c.Go(3)
	if !ok {
		t.Fatal("expected navigation to last page")
	}
	if last.CanNext() {
		t.Fatal("next must be disabled on the last page")
	}
	if !last.CanPrev() {
		t.Fatal("prev must be enabled after page 1")
	}
	if _, ok := last.Next(); ok {
		t.Fatal("next past the end must be refused")
	}
}

func TestControllerWindow(t *testing.T) {
	cases := []struct {
		current, total int
		want           []int
	}{
		{1, 10, []int{1, 2, 3, 4, 5}},
		{8, 10, []int{8, 9, 10}},
		{10, 10, []int{10}},
		{1, 0, nil},
	}
	for _, tc := range cases {
		got := NewController(tc.current, tc.total).Window()
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Window(%d/%d) = %v, want %v", tc.current, tc.total, got, tc.want)
		}
	}
}

func TestControllerClampAndTotal(t *testing.T) {
	c := NewController(9, 4)
	if c.Current != 4 {
		t.Fatalf("expected clamp to 4, got %d", c.Current)
	}
	if c.Last() != 4 {
		t.Fatalf("expected last 4, got %d", c.Last())
	}

	shrunk := NewController(4, 4).WithTotal(2)
	if shrunk.Current != 2 {
		t.Fatalf("expected current to follow shrinking total, got %d", shrunk.Current)
	}

	empty := NewController(0, 0)
	if empty.Current != 1 || empty.CanNext() || empty.CanPrev() {
		t.Fatalf("unexpected empty controller %+v", empty)
	}
	if empty.Last() != 1 {
		t.Fatalf("expected last 1 for empty controller, got %d", empty.Last())
	}
}
