package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// fragmentsPerSecond sets the delivery cadence (20ms fragments).
const fragmentsPerSecond = 50

// Capture streams raw s16le mono fragments from one Pulse source.
//
// Fragments are delivered in capture order. Stop is graceful: every byte
// Pulse handed over is delivered before Fragments closes, so callers must
// keep draining while Stop runs. Abort discards whatever is still queued.
type Capture struct {
	device       Device
	fragmentSize int

	client *pulse.Client
	stream *pulse.RecordStream

	fragments chan []byte
	abortCh   chan struct{}

	mu        sync.Mutex
	pending   []byte
	stopped   bool
	abortOnce sync.Once
	stopOnce  sync.Once

	inflight sync.WaitGroup
	bytes    atomic.Int64
}

// StartCapture opens a record stream at sampleRate on the selected device.
// Cancelling ctx aborts the capture.
func StartCapture(ctx context.Context, selected Device, sampleRate int) (*Capture, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	client, err := newClient()
	if err != nil {
		return nil, err
	}

	source, err := client.SourceByID(selected.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", selected.ID, err)
	}

	capture := newCapture(selected, fragmentSizeFor(sampleRate))
	capture.client = client

	writer := pulse.NewWriter(writerFunc(capture.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(sampleRate),
		pulse.RecordBufferFragmentSize(uint32(capture.fragmentSize)),
		pulse.RecordMediaName("sayback voice note"),
	)
	if err != nil {
		capture.Abort()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	capture.stream = stream
	stream.Start()

	go func() {
		select {
		case <-ctx.Done():
			capture.Abort()
		case <-capture.abortCh:
		}
	}()

	return capture, nil
}

func newCapture(device Device, fragmentSize int) *Capture {
	return &Capture{
		device:       device,
		fragmentSize: fragmentSize,
		fragments:    make(chan []byte, 128),
		abortCh:      make(chan struct{}),
	}
}

func fragmentSizeFor(sampleRate int) int {
	size := sampleRate * 2 / fragmentsPerSecond
	if size < 2 {
		return 2
	}
	return size &^ 1
}

// Device returns capture metadata for logging and diagnostics.
func (c *Capture) Device() Device {
	return c.device
}

// Fragments yields captured PCM until the capture is stopped or aborted.
func (c *Capture) Fragments() <-chan []byte {
	return c.fragments
}

// BytesCaptured reports total bytes accepted from Pulse.
func (c *Capture) BytesCaptured() int64 {
	return c.bytes.Load()
}

// Stop halts the stream, delivers residual PCM, and closes Fragments.
func (c *Capture) Stop() error {
	c.stopOnce.Do(c.shutdown)
	return nil
}

// Abort halts the stream without waiting for queued fragments to be read.
func (c *Capture) Abort() {
	c.abortOnce.Do(func() { close(c.abortCh) })
	c.stopOnce.Do(c.shutdown)
}

func (c *Capture) shutdown() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()

	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	if c.client != nil {
		c.client.Close()
	}

	c.inflight.Wait()

	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	if len(pending) > 0 {
		select {
		case c.fragments <- pending:
		case <-c.abortCh:
		}
	}
	close(c.fragments)
}

// onPCM receives raw Pulse frames and emits fragmentSize slices.
func (c *Capture) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return 0, io.EOF
	}
	// Add under the same mutex as stopped to avoid Add/Wait races.
	c.inflight.Add(1)

	c.pending = append(c.pending, buffer...)
	ready := make([][]byte, 0, len(c.pending)/c.fragmentSize)
	for len(c.pending) >= c.fragmentSize {
		fragment := make([]byte, c.fragmentSize)
		copy(fragment, c.pending[:c.fragmentSize])
		c.pending = c.pending[c.fragmentSize:]
		ready = append(ready, fragment)
	}
	c.mu.Unlock()
	defer c.inflight.Done()

	c.bytes.Add(int64(len(buffer)))

	for _, fragment := range ready {
		select {
		case c.fragments <- fragment:
		case <-c.abortCh:
			return 0, io.EOF
		}
	}
	return len(buffer), nil
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
