package tensor

import (
	"runtime"
	"sync"
)

// parallelMinWork is the smallest R*C product a Pool splits across its
// workers. Smaller products run on the calling goroutine.
const parallelMinWork = 1 << 16

// Pool computes affine matrix-vector products by handing row ranges to a fixed
// set of goroutines. It is safe for concurrent use.
type Pool struct {
	workers   int
	jobs      chan rowJob
	closeOnce sync.Once
}

type rowJob struct {
	dst, x, bias []float32
	w            *Mat
	lo, hi       int
	done         chan<- struct{}
}

// NewPool starts a pool. workers < 1 selects GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = max(runtime.GOMAXPROCS(0), 1)
	}
	p := &Pool{
		workers: workers,
		jobs:    make(chan rowJob, workers*2),
	}
	for range workers {
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	for j := range p.jobs {
		affineRows(j.dst, j.w, j.x, j.bias, j.lo, j.hi)
		j.done <- struct{}{}
	}
}

// Workers reports the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// Close stops the workers. Products still in flight must finish first.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.jobs) })
}

// Affine computes dst = w * x + bias. A nil bias adds nothing.
func (p *Pool) Affine(dst []float32, w *Mat, x, bias []float32) {
	if w.R == 0 {
		return
	}
	if len(dst) < w.R || len(x) < w.C || (bias != nil && len(bias) < w.R) {
		panic("affine shape mismatch")
	}
	parts := min(p.workers, w.R)
	if w.R*w.C < parallelMinWork || parts <= 1 {
		affineRows(dst, w, x, bias, 0, w.R)
		return
	}

	chunk := (w.R + parts - 1) / parts
	done := make(chan struct{}, parts)
	sent := 0
	for lo := 0; lo < w.R; lo += chunk {
		p.jobs <- rowJob{
			dst:  dst,
			x:    x,
			bias: bias,
			w:    w,
			lo:   lo,
			hi:   min(lo+chunk, w.R),
			done: done,
		}
		sent++
	}
	for range sent {
		<-done
	}
}

var (
	defaultPool     *Pool
	defaultPoolOnce sync.Once
)

// Default returns the shared pool used by Affine.
func Default() *Pool {
	defaultPoolOnce.Do(func() {
		defaultPool = NewPool(0)
	})
	return defaultPool
}

// Affine computes dst = w * x + bias on the default pool.
func Affine(dst []float32, w *Mat, x, bias []float32) {
	Default().Affine(dst, w, x, bias)
}

// affineRows fills rows [lo, hi) of dst.
func affineRows(dst []float32, w *Mat, x, bias []float32, lo, hi int) {
	x = x[:w.C]
	for i := lo; i < hi; i++ {
		row := w.Data[i*w.C : (i+1)*w.C]
		var s0, s1, s2, s3 float32
		j := 0
		for ; j+3 < len(row); j += 4 {
			s0 += row[j] * x[j]
			s1 += row[j+1] * x[j+1]
			s2 += row[j+2] * x[j+2]
			s3 += row[j+3] * x[j+3]
		}
		for ; j < len(row); j++ {
			s0 += row[j] * x[j]
		}
		sum := (s0 + s1) + (s2 + s3)
		if bias != nil {
			sum += bias[i]
		}
		dst[i] = sum
	}
}
