package tensor

import (
	"math"
	"sync"
	"testing"
)

func affineNaive(dst []float32, w *Mat, x, bias []float32) {
	for i := 0; i < w.R; i++ {
		var sum float64
		for j := 0; j < w.C; j++ {
			sum += float64(w.Data[i*w.C+j]) * float64(x[j])
		}
		if bias != nil {
			sum += float64(bias[i])
		}
		dst[i] = float32(sum)
	}
}

func assertClose(t *testing.T, got, want []float32, tol float64) {
	t.Helper()
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > tol {
			t.Fatalf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func ramp(n int) []float32 {
	x := make([]float32, n)
	for i := range x {
		x[i] = float32(i%7) - 3
	}
	return x
}

func TestAffineSmall(t *testing.T) {
	t.Parallel()

	w, err := NewMatFromData(2, 3, []float32{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("NewMatFromData: %v", err)
	}
	dst := make([]float32, 2)
	Affine(dst, &w, []float32{1, 0, -1}, nil)
	assertClose(t, dst, []float32{-2, -2}, 0)

	Affine(dst, &w, []float32{1, 0, -1}, []float32{0.5, 2})
	assertClose(t, dst, []float32{-1.5, 0}, 0)
}

func TestAffineParallelMatchesNaive(t *testing.T) {
	t.Parallel()

	p := NewPool(4)
	defer p.Close()

	// Large enough to be split across workers.
	w := NewMat(1031, 257)
	FillRand(&w, 3)
	x := ramp(w.C)
	bias := ramp(w.R)

	got := make([]float32, w.R)
	want := make([]float32, w.R)
	p.Affine(got, &w, x, bias)
	affineNaive(want, &w, x, bias)
	assertClose(t, got, want, 1e-4)

	p.Affine(got, &w, x, nil)
	affineNaive(want, &w, x, nil)
	assertClose(t, got, want, 1e-4)
}

func TestPoolConcurrentCallers(t *testing.T) {
	t.Parallel()

	p := NewPool(3)
	defer p.Close()

	w := NewMat(512, 256)
	FillRand(&w, 9)
	x := ramp(w.C)
	want := make([]float32, w.R)
	affineNaive(want, &w, x, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := make([]float32, w.R)
			p.Affine(got, &w, x, nil)
			for i := range want {
				if math.Abs(float64(got[i]-want[i])) > 1e-4 {
					t.Errorf("row %d: got %v want %v", i, got[i], want[i])
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestNewPoolDefaultsWorkers(t *testing.T) {
	t.Parallel()

	p := NewPool(0)
	defer p.Close()
	if p.Workers() < 1 {
		t.Fatalf("expected at least one worker, got %d", p.Workers())
	}
	p.Close() // idempotent
}

func TestAffineShapeMismatchPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	w := NewMat(2, 3)
	Affine(make([]float32, 2), &w, make([]float32, 2), nil)
}

func TestMatTranspose(t *testing.T) {
	t.Parallel()

	w, err := NewMatFromData(2, 3, []float32{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("NewMatFromData: %v", err)
	}
	tr := w.T()
	if tr.R != 3 || tr.C != 2 {
		t.Fatalf("unexpected shape %dx%d", tr.R, tr.C)
	}
	assertClose(t, tr.Data, []float32{1, 4, 2, 5, 3, 6}, 0)
	assertClose(t, tr.Row(1), []float32{2, 5}, 0)
}

func TestNewMatFromDataMismatch(t *testing.T) {
	t.Parallel()

	if _, err := NewMatFromData(2, 2, []float32{1, 2, 3}); err == nil {
		t.Fatal("expected length mismatch error")
	}
	if _, err := NewMatFromData(-1, 2, nil); err == nil {
		t.Fatal("expected negative dimension error")
	}
}

func TestTanhAndWiden(t *testing.T) {
	t.Parallel()

	x := []float32{0, 100, -100}
	Tanh(x)
	assertClose(t, x, []float32{0, 1, -1}, 1e-6)

	wide := Widen([]float32{0.5, -2})
	if len(wide) != 2 || wide[0] != 0.5 || wide[1] != -2 {
		t.Fatalf("Widen = %v", wide)
	}
}

func BenchmarkAffineNaive(b *testing.B) {
	w := NewMat(2048, 2048)
	FillRand(&w, 1)
	x := ramp(w.C)
	dst := make([]float32, w.R)

	for b.Loop() {
		affineNaive(dst, &w, x, nil)
	}
}

func BenchmarkAffineInline(b *testing.B) {
	w := NewMat(2048, 2048)
	FillRand(&w, 1)
	x := ramp(w.C)
	dst := make([]float32, w.R)

	for b.Loop() {
		affineRows(dst, &w, x, nil, 0, w.R)
	}
}

func BenchmarkAffinePool(b *testing.B) {
	w := NewMat(2048, 2048)
	FillRand(&w, 1)
	x := ramp(w.C)
	dst := make([]float32, w.R)

	for b.Loop() {
		Affine(dst, &w, x, nil)
	}
}
