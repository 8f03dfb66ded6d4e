package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend records every call in memory.
type fakeBackend struct {
	mu sync.Mutex

	counters   []counterCall
	histograms []histCall
	flushes    int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	orig := backend
	t.Cleanup(func() { backend = orig })
	fb := &fakeBackend{}
	backend = fb
	return fb
}

func TestRecordStep(t *testing.T) {
	fb := install(t)

	RecordStep("productmix", "load_dealers", nil, 2*time.Second)
	RecordStep("productmix", "write_output", errors.New("disk full"), 500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("counters=%d histograms=%d; want 2 and 2", len(fb.counters), len(fb.histograms))
	}

	c0 := fb.counters[0]
	if c0.name != StepTotal || c0.delta != 1 {
		t.Fatalf("counter[0] = %#v", c0)
	}
	if c0.labels["step"] != "load_dealers" || c0.labels["status"] != "success" || c0.labels["job"] != "productmix" {
		t.Fatalf("counter[0].labels = %v", c0.labels)
	}
	if h := fb.histograms[0]; h.name != StepDuration || h.value < 1.999 || h.value > 2.001 {
		t.Fatalf("hist[0] = %#v; want ~2s", h)
	}

	if got := fb.counters[1].labels["status"]; got != "failure" {
		t.Fatalf("counter[1].labels[status] = %q; want failure", got)
	}
	if h := fb.histograms[1]; h.value < 0.499 || h.value > 0.501 {
		t.Fatalf("hist[1].value = %v; want ~0.5", h.value)
	}
}

func TestRecordRowAndWarning(t *testing.T) {
	fb := install(t)

	RecordRow("productmix", "sales_lines", 10)
	RecordRow("productmix", "unmapped_rows", 0)
	RecordWarning("productmix", "duplicate_dealer", 2)
	RecordWarning("productmix", "unmatched_account", -1)

	if len(fb.counters) != 2 {
		t.Fatalf("counters = %d; want 2 (non-positive deltas are dropped)", len(fb.counters))
	}
	if c := fb.counters[0]; c.name != RecordsTotal || c.delta != 10 || c.labels["kind"] != "sales_lines" {
		t.Fatalf("counter[0] = %#v", c)
	}
	if c := fb.counters[1]; c.name != WarningsTotal || c.delta != 2 || c.labels["kind"] != "duplicate_dealer" {
		t.Fatalf("counter[1] = %#v", c)
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	orig := backend
	t.Cleanup(func() { backend = orig })

	fb := &fakeBackend{}
	SetBackend(fb)
	if backend != fb {
		t.Fatal("SetBackend did not replace global backend")
	}
	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if fb.flushes != 1 {
		t.Fatalf("flushes = %d; want 1", fb.flushes)
	}

	SetBackend(nil)
	if backend != fb {
		t.Fatal("SetBackend(nil) should keep the current backend")
	}
}

func TestNopBackend(t *testing.T) {
	orig := backend
	t.Cleanup(func() { backend = orig })
	backend = nopBackend{}

	RecordStep("j", "aggregate", nil, time.Millisecond)
	RecordRow("j", "accounts", 1)
	if err := Flush(); err != nil {
		t.Fatalf("nop Flush: %v", err)
	}
}
