package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"MarketSentry/internal/domain/models"
)

// fakeStreamSession mirrors the real client's contract: one buffered error,
// then both channels close when the read loop exits.
type fakeStreamSession struct {
	samples chan *models.PriceSample
	errs    chan error
}

func newFakeStreamSession() *fakeStreamSession {
	return &fakeStreamSession{
		samples: make(chan *models.PriceSample, 16),
		errs:    make(chan error, 1),
	}
}

func (s *fakeStreamSession) fail(err error) {
	s.errs <- err
	close(s.errs)
	close(s.samples)
}

type fakeStream struct {
	mu         sync.Mutex
	sessions   []*fakeStreamSession
	readCalls  int
	reconnects int
	connected  bool
}

func (f *fakeStream) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

func (f *fakeStream) Subscribe(ctx context.Context) error { return nil }

func (f *fakeStream) Read(ctx context.Context) (<-chan *models.PriceSample, <-chan error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readCalls >= len(f.sessions) {
		s := newFakeStreamSession()
		f.sessions = append(f.sessions, s)
	}
	s := f.sessions[f.readCalls]
	f.readCalls++
	return s.samples, s.errs
}

func (f *fakeStream) Reconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconnects++
	f.connected = true
	return nil
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

func (f *fakeStream) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeStream) counts() (readCalls, reconnects int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readCalls, f.reconnects
}

func newTestCollector(t *testing.T, fs *fakeStream, samples *fakeSamples, m *fakeMetrics) *StreamCollector {
	t.Helper()
	proc := NewSampleProcessor(nil, samples, m, "clickhouse")
	return NewStreamCollector(fs, proc, m, nil)
}

func TestCollectorDeliversSamples(t *testing.T) {
	s1 := newFakeStreamSession()
	fs := &fakeStream{sessions: []*fakeStreamSession{s1}}
	samples := &fakeSamples{}
	c := newTestCollector(t, fs, samples, newFakeMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	s1.samples <- &models.PriceSample{Symbol: "AAPL", Timestamp: time.Now().Unix(), Price: 190.5, Volume: 1200}

	waitForSamples(t, samples, 1)
	if got := samples.stored()[0]; got.Symbol != "AAPL" || got.Price != 190.5 {
		t.Errorf("sample shape wrong: %+v", got)
	}
}

func TestCollectorResumesReadingAfterReconnect(t *testing.T) {
	s1 := newFakeStreamSession()
	s2 := newFakeStreamSession()
	fs := &fakeStream{sessions: []*fakeStreamSession{s1, s2}}
	samples := &fakeSamples{}
	m := newFakeMetrics()
	c := newTestCollector(t, fs, samples, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// break the first session the way the real client does
	s1.fail(errors.New("stream read: connection reset"))

	// a sample on the reconnected session must still reach the store
	s2.samples <- &models.PriceSample{Symbol: "NVDA", Timestamp: time.Now().Unix(), Price: 901, Volume: 5000}

	waitForSamples(t, samples, 1)
	readCalls, reconnects := fs.counts()
	if reconnects != 1 {
		t.Errorf("reconnects: got %d, want 1", reconnects)
	}
	if readCalls != 2 {
		t.Errorf("expected a fresh read session after reconnect, Read called %d times", readCalls)
	}
	m.mu.Lock()
	streamErrs := m.errs["stream"]
	m.mu.Unlock()
	if streamErrs != 1 {
		t.Errorf("stream error not recorded: %v", m.errs)
	}
}

func TestCollectorCleanCloseIsTerminal(t *testing.T) {
	s1 := newFakeStreamSession()
	fs := &fakeStream{sessions: []*fakeStreamSession{s1}}
	c := newTestCollector(t, fs, &fakeSamples{}, newFakeMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// channels closing without an error means the read loop exited cleanly;
	// the collector must stop, not reconnect or grab another session
	close(s1.errs)
	close(s1.samples)
	time.Sleep(50 * time.Millisecond)

	readCalls, reconnects := fs.counts()
	if reconnects != 0 {
		t.Errorf("clean close triggered %d reconnects", reconnects)
	}
	if readCalls != 1 {
		t.Errorf("clean close restarted reading: Read called %d times", readCalls)
	}
}

func waitForSamples(t *testing.T, samples *fakeSamples, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(samples.stored()) < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d samples, have %d", n, len(samples.stored()))
		}
		time.Sleep(time.Millisecond)
	}
}
