package stream

import (
	"testing"
)

func TestFromSliceCollect(t *testing.T) {
	data := []int64{1, 2, 3, 4, 5}
	results, err := Collect(FromSlice(data))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(results) != len(data) {
		t.Fatalf("expected %d results, got %d", len(data), len(results))
	}
	for i, v := range results {
		if v != data[i] {
			t.Errorf("index %d: expected %v, got %v", i, data[i], v)
		}
	}
}

func TestWhere(t *testing.T) {
	even := Where(func(v int64) bool { return v%2 == 0 })
	results, err := Collect(even(FromSlice([]int64{1, 2, 3, 4, 5, 6})))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []int64{2, 4, 6}
	if len(results) != len(want) {
		t.Fatalf("expected %v, got %v", want, results)
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], results[i])
		}
	}
}

func TestMapChain(t *testing.T) {
	double := Map(func(v int64) int64 { return v * 2 })
	positive := Where(func(v int64) bool { return v > 0 })
	pipeline := Pipe(positive, double)

	results, err := Collect(pipeline(FromSlice([]int64{-1, 1, 2, -3, 3})))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []int64{2, 4, 6}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], results[i])
		}
	}
}

func TestCount(t *testing.T) {
	n, err := Count(FromSlice([]string{"a", "b", "c"}))
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}

func TestSum(t *testing.T) {
	total, err := Sum(FromSlice([]int64{1, 2, 3, 4}))
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if total != 10 {
		t.Fatalf("expected 10, got %d", total)
	}
}

func TestForEach(t *testing.T) {
	var seen []int64
	err := ForEach(func(v int64) { seen = append(seen, v) })(FromSlice([]int64{7, 8, 9}))
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	if len(seen) != 3 || seen[2] != 9 {
		t.Fatalf("unexpected result: %v", seen)
	}
}

func TestParallelPreservesElements(t *testing.T) {
	input := FromSlice([]int64{1, 2, 3, 4, 5, 6, 7, 8})
	doubled := Parallel(4, func(v int64) int64 { return v * 2 })(input)

	results, err := Collect(doubled)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(results) != 8 {
		t.Fatalf("expected 8 results, got %d", len(results))
	}
	var total int64
	for _, v := range results {
		total += v
	}
	if total != 72 { // 2*(1+..+8) = 72
		t.Fatalf("expected sum 72, got %d", total)
	}
}
