package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/sayback/internal/recording"
	"github.com/rbright/sayback/internal/speech"
)

type fakeStream struct {
	ch      chan []byte
	tail    [][]byte
	once    sync.Once
	stopped atomic.Bool
	aborted atomic.Bool
}

func newFakeStream(tail ...string) *fakeStream {
	s := &fakeStream{ch: make(chan []byte, 64)}
	for _, fragment := range tail {
		s.tail = append(s.tail, []byte(fragment))
	}
	return s
}

func (s *fakeStream) Fragments() <-chan []byte { return s.ch }

func (s *fakeStream) push(fragments ...string) {
	for _, fragment := range fragments {
		s.ch <- []byte(fragment)
	}
}

func (s *fakeStream) Stop() error {
	s.once.Do(func() {
		s.stopped.Store(true)
		for _, fragment := range s.tail {
			s.ch <- fragment
		}
		close(s.ch)
	})
	return nil
}

func (s *fakeStream) Abort() {
	s.once.Do(func() {
		s.aborted.Store(true)
		close(s.ch)
	})
}

type fakeRecorder struct {
	mu        sync.Mutex
	streams   []*fakeStream
	err       error
	starts    int
	finalized []*recording.Clip
}

func (r *fakeRecorder) queue(streams ...*fakeStream) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams = append(r.streams, streams...)
}

func (r *fakeRecorder) Start(context.Context) (FragmentStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	if r.err != nil {
		return nil, r.err
	}
	if len(r.streams) == 0 {
		return nil, errors.New("no stream queued")
	}
	next := r.streams[0]
	r.streams = r.streams[1:]
	return next, nil
}

func (r *fakeRecorder) Finalized(_ context.Context, clip *recording.Clip) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalized = append(r.finalized, clip)
}

func (r *fakeRecorder) lastClip(t *testing.T) *recording.Clip {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.finalized)
	return r.finalized[len(r.finalized)-1]
}

type fakePlayer struct {
	mu      sync.Mutex
	sources []string
	played  chan string
	err     error
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{played: make(chan string, 16)}
}

func (p *fakePlayer) Play(_ context.Context, source string) error {
	p.mu.Lock()
	p.sources = append(p.sources, source)
	p.mu.Unlock()
	p.played <- source
	return p.err
}

func (p *fakePlayer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sources)
}

type fakeIndicator struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeIndicator) record(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeIndicator) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func (f *fakeIndicator) ShowRecording(context.Context)          { f.record("recording") }
func (f *fakeIndicator) ShowReady(context.Context)              { f.record("ready") }
func (f *fakeIndicator) ShowSubmitting(context.Context)         { f.record("submitting") }
func (f *fakeIndicator) ShowReply(_ context.Context, msg string) { f.record("reply:" + msg) }
func (f *fakeIndicator) ShowError(_ context.Context, msg string) { f.record("error:" + msg) }
func (f *fakeIndicator) CueStart(context.Context)               { f.record("cue:start") }
func (f *fakeIndicator) CueStop(context.Context)                { f.record("cue:stop") }
func (f *fakeIndicator) CueComplete(context.Context)            { f.record("cue:complete") }
func (f *fakeIndicator) CueCancel(context.Context)              { f.record("cue:cancel") }
func (f *fakeIndicator) Hide(context.Context)                   { f.record("hide") }

type fakeAlerter struct {
	mu    sync.Mutex
	kinds []ErrorKind
}

func (a *fakeAlerter) Alert(_ context.Context, kind ErrorKind, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.kinds = append(a.kinds, kind)
	return nil
}

func (a *fakeAlerter) snapshot() []ErrorKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ErrorKind(nil), a.kinds...)
}

type fakeDisplay struct {
	mu    sync.Mutex
	views []View
}

func (d *fakeDisplay) Render(_ context.Context, view View) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.views = append(d.views, view)
	return nil
}

// syncBuffer guards log output written from the loop goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	controller *Controller
	recorder   *fakeRecorder
	player     *fakePlayer
	indicator  *fakeIndicator
	alerter    *fakeAlerter
	display    *fakeDisplay
	logs       *syncBuffer
	previewDir string
}

type harnessOption func(*Options, *Deps)

func withSubmitter(submitter Submitter) harnessOption {
	return func(_ *Options, deps *Deps) { deps.Submitter = submitter }
}

func withServer(t *testing.T, handler http.HandlerFunc) harnessOption {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := speech.NewClient(speech.Config{BaseURL: server.URL})
	require.NoError(t, err)
	return withSubmitter(client)
}

func newHarness(t *testing.T, options ...harnessOption) *harness {
	t.Helper()

	h := &harness{
		recorder:   &fakeRecorder{},
		player:     newFakePlayer(),
		indicator:  &fakeIndicator{},
		alerter:    &fakeAlerter{},
		display:    &fakeDisplay{},
		logs:       &syncBuffer{},
		previewDir: filepath.Join(t.TempDir(), "state"),
	}

	opts := Options{
		UserPrefix:      "User: ",
		AssistantPrefix: "Assistant: ",
		Autoplay:        true,
		PreviewDir:      h.previewDir,
	}
	deps := Deps{
		Recorder: h.recorder,
		Submitter: SubmitFunc(func(context.Context, *recording.Clip) (speech.Reply, error) {
			return speech.Reply{}, errors.New("no submitter configured")
		}),
		Player:    h.player,
		Indicator: h.indicator,
		Alerter:   h.alerter,
		Display:   h.display,
	}
	for _, option := range options {
		option(&opts, &deps)
	}

	logger := slog.New(slog.NewJSONHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	controller, err := NewController(logger, opts, deps)
	require.NoError(t, err)
	h.controller = controller

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- controller.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-runErr:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("controller did not stop")
		}
		controller.Wait()
	})
	return h
}

func (h *harness) trigger(t *testing.T, command Command) Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.controller.Trigger(ctx, command)
}

// record runs capture, delivers fragments, and stops.
func (h *harness) record(t *testing.T, fragments ...string) Outcome {
	t.Helper()
	stream := newFakeStream()
	h.recorder.queue(stream)

	outcome := h.trigger(t, CommandCapture)
	require.NoError(t, outcome.Err)
	stream.push(fragments...)

	outcome = h.trigger(t, CommandStop)
	require.NoError(t, outcome.Err)
	return outcome
}

func replyHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}
