// Package session owns the record, stop, submit, and display workflow.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rbright/sayback/internal/fsm"
	"github.com/rbright/sayback/internal/recording"
	"github.com/rbright/sayback/internal/speech"
)

// PreviewFilename is the preview WAV written under Options.PreviewDir.
const PreviewFilename = "preview.wav"

// Command names one trigger accepted by the controller.
type Command string

const (
	CommandCapture Command = "start"
	CommandStop    Command = "stop"
	CommandSubmit  Command = "submit"
	CommandCancel  Command = "cancel"
	CommandPreview Command = "preview"
	CommandReplay  Command = "replay"
	CommandStatus  Command = "status"
	CommandQuit    Command = "quit"
)

// Options tune display formatting and local artifacts.
type Options struct {
	UserPrefix      string
	AssistantPrefix string
	Autoplay        bool
	PreviewDir      string
	Format          recording.Format
}

// Deps are the collaborators driven by the controller. Nil members become no-ops,
// except Recorder and Submitter which are required.
type Deps struct {
	Recorder  Recorder
	Submitter Submitter
	Player    Player
	Indicator Indicator
	Alerter   Alerter
	Display   Display
}

// Outcome is the controller's answer to one trigger.
type Outcome struct {
	State   fsm.State
	View    View
	Message string
	Err     error
}

type trigger struct {
	command Command
	reply   chan Outcome
}

type submission struct {
	generation uint64
	reply      speech.Reply
	err        error
}

// Controller serializes triggers, fragment deliveries, and submission results on
// one goroutine started by Run.
type Controller struct {
	logger *slog.Logger
	opts   Options

	recorder  Recorder
	submitter Submitter
	player    Player
	indicator Indicator
	alerter   Alerter
	display   Display

	triggers chan trigger
	results  chan submission
	done     chan struct{}
	running  sync.Once

	mu    sync.RWMutex
	state fsm.State
	view  View

	// Loop-owned below.
	runCtx       context.Context
	generation   uint64
	stream       FragmentStream
	fragments    <-chan []byte
	buffer       *recording.Buffer
	clip         *recording.Clip
	submitCancel context.CancelFunc
	submitWaiter chan Outcome
	playCancel   context.CancelFunc
	background   sync.WaitGroup
}

// NewController constructs a controller in the idle state.
func NewController(logger *slog.Logger, opts Options, deps Deps) (*Controller, error) {
	if deps.Recorder == nil {
		return nil, errors.New("session: recorder is required")
	}
	if deps.Submitter == nil {
		return nil, errors.New("session: submitter is required")
	}
	if deps.Player == nil {
		deps.Player = noopPlayer{}
	}
	if deps.Indicator == nil {
		deps.Indicator = noopIndicator{}
	}
	if deps.Alerter == nil {
		deps.Alerter = noopAlerter{}
	}
	if deps.Display == nil {
		deps.Display = noopDisplay{}
	}
	if opts.Format.SampleRate == 0 {
		opts.Format = recording.DefaultFormat
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Controller{
		logger:    logger,
		opts:      opts,
		recorder:  deps.Recorder,
		submitter: deps.Submitter,
		player:    deps.Player,
		indicator: deps.Indicator,
		alerter:   deps.Alerter,
		display:   deps.Display,
		triggers:  make(chan trigger),
		results:   make(chan submission),
		done:      make(chan struct{}),
		state:     fsm.StateIdle,
	}
	c.view = View{}.withAffordances(fsm.StateIdle, false)
	return c, nil
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// View returns the current display snapshot.
func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// Done closes once Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Run drives the event loop until quit or ctx cancellation.
func (c *Controller) Run(ctx context.Context) error {
	started := false
	c.running.Do(func() { started = true })
	if !started {
		return errors.New("session: controller already running")
	}

	c.runCtx = ctx
	defer close(c.done)
	defer c.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-c.triggers:
			outcome, deferred, quit := c.dispatch(ctx, t)
			if !deferred {
				t.reply <- outcome
			}
			if quit {
				return nil
			}
		case fragment, ok := <-c.fragments:
			if !ok {
				c.logger.Warn("capture stream ended before stop")
				c.fragments = nil
				continue
			}
			c.buffer.Append(fragment)
		case res := <-c.results:
			c.complete(ctx, res)
		}
	}
}

// Trigger submits one command to the loop and waits for its outcome.
// Submit waits until the server answers.
func (c *Controller) Trigger(ctx context.Context, command Command) Outcome {
	if command == CommandStatus {
		return c.snapshot("")
	}

	t := trigger{command: command, reply: make(chan Outcome, 1)}
	select {
	case c.triggers <- t:
	case <-ctx.Done():
		return c.failed(ctx.Err())
	case <-c.done:
		return c.failed(ErrStopped)
	}

	select {
	case outcome := <-t.reply:
		return outcome
	case <-ctx.Done():
		return c.failed(ctx.Err())
	case <-c.done:
		// Quit replies before done closes; prefer that reply when present.
		select {
		case outcome := <-t.reply:
			return outcome
		default:
			return c.failed(ErrStopped)
		}
	}
}

func (c *Controller) dispatch(ctx context.Context, t trigger) (outcome Outcome, deferred bool, quit bool) {
	switch t.command {
	case CommandCapture:
		return c.capture(ctx), false, false
	case CommandStop:
		return c.stop(ctx), false, false
	case CommandSubmit:
		outcome, deferred = c.submit(ctx, t.reply)
		return outcome, deferred, false
	case CommandCancel:
		return c.cancel(ctx), false, false
	case CommandPreview:
		return c.preview(), false, false
	case CommandReplay:
		return c.replay(), false, false
	case CommandQuit:
		return c.snapshot("shutting down"), false, true
	default:
		return c.failed(fmt.Errorf("unknown command: %s", t.command)), false, false
	}
}

func (c *Controller) capture(ctx context.Context) Outcome {
	// The microphone is released before reopening; everything else survives a failed start.
	c.abortCapture()

	stream, err := c.recorder.Start(ctx)
	if err != nil {
		var permErr *PermissionError
		if !errors.As(err, &permErr) {
			err = &PermissionError{Err: err}
		}
		_ = c.transition(fsm.EventCaptureFailed)
		c.report(ctx, err)
		return c.failed(err)
	}

	c.supersedeSubmission()
	c.stopPlayback()

	c.generation++
	c.clip = nil
	c.updateView(func(v *View) { *v = View{} })

	if err := c.transition(fsm.EventCapture); err != nil {
		stream.Abort()
		return c.failed(err)
	}
	c.indicator.ShowRecording(ctx)

	c.stream = stream
	c.fragments = stream.Fragments()
	c.buffer = recording.NewBuffer(c.opts.Format)
	c.indicator.CueStart(ctx)
	c.logger.Info("capture started", "generation", c.generation)
	return c.snapshot("recording")
}

func (c *Controller) stop(ctx context.Context) Outcome {
	if c.stream == nil {
		return c.failed(ErrNoCapture)
	}
	if err := c.transition(fsm.EventStop); err != nil {
		return c.failed(err)
	}

	stream := c.stream
	c.stream = nil
	c.fragments = nil
	c.drain(stream)

	clip := c.buffer.Finalize()
	c.buffer = nil
	c.clip = clip
	c.recorder.Finalized(ctx, clip)

	preview := ""
	if c.opts.PreviewDir != "" {
		path := filepath.Join(c.opts.PreviewDir, PreviewFilename)
		if err := clip.SaveWAV(path); err != nil {
			c.logger.Warn("unable to save preview audio", "path", path, "error", err.Error())
		} else {
			preview = path
		}
	}
	c.updateView(func(v *View) { v.UserAudio = preview })

	c.indicator.CueStop(ctx)
	c.indicator.ShowReady(ctx)

	c.logger.Info("capture finalized",
		"generation", c.generation,
		"clip_id", clip.ID(),
		"bytes", clip.Size(),
		"duration_ms", clip.Duration().Milliseconds(),
	)
	return c.snapshot(fmt.Sprintf("recorded %s (%s)",
		clip.Duration().Round(100*time.Millisecond),
		humanize.Bytes(uint64(clip.Size())),
	))
}

// drain stops stream while appending its remaining fragments in order.
func (c *Controller) drain(stream FragmentStream) {
	stopped := make(chan error, 1)
	go func() { stopped <- stream.Stop() }()

	for fragment := range stream.Fragments() {
		c.buffer.Append(fragment)
	}
	if err := <-stopped; err != nil {
		c.logger.Warn("capture stop reported an error", "error", err.Error())
	}
}

func (c *Controller) submit(ctx context.Context, waiter chan Outcome) (Outcome, bool) {
	if c.submitCancel != nil {
		return c.failed(ErrSubmissionPending), false
	}
	if c.clip == nil {
		c.report(ctx, ErrNoRecording)
		return c.failed(ErrNoRecording), false
	}
	if err := c.transition(fsm.EventSubmit); err != nil {
		return c.failed(err), false
	}

	c.stopPlayback()
	c.indicator.ShowSubmitting(ctx)

	submitCtx, cancel := context.WithCancel(c.runCtx)
	c.submitCancel = cancel
	c.submitWaiter = waiter

	generation := c.generation
	clip := c.clip
	c.logger.Info("submission started", "generation", generation, "clip_id", clip.ID())

	c.background.Add(1)
	go func() {
		defer c.background.Done()
		reply, err := c.submitter.Submit(submitCtx, clip)
		select {
		case c.results <- submission{generation: generation, reply: reply, err: err}:
		case <-c.done:
		}
	}()
	return Outcome{}, true
}

func (c *Controller) complete(ctx context.Context, res submission) {
	if res.generation != c.generation || c.submitWaiter == nil {
		c.logger.Info("dropping stale submission result",
			"generation", res.generation,
			"current_generation", c.generation,
		)
		return
	}

	waiter := c.submitWaiter
	c.submitWaiter = nil
	c.submitCancel()
	c.submitCancel = nil

	if res.err != nil {
		_ = c.transition(fsm.EventSubmitFailed)
		c.logger.Error("submission failed", "generation", res.generation, "error", res.err.Error())
		c.report(ctx, res.err)
		waiter <- c.failed(res.err)
		return
	}

	reply := res.reply
	c.updateView(func(v *View) {
		v.UserText = c.opts.UserPrefix + reply.UserText
		v.AIText = c.opts.AssistantPrefix + reply.AIText
		v.AIAudio = ""
		v.AIAudioVisible = false
		if reply.HasAudio() {
			v.AIAudio = reply.AudioURL
			v.AIAudioVisible = true
		}
	})
	_ = c.transition(fsm.EventResponded)

	view := c.View()
	if err := c.display.Render(ctx, view); err != nil {
		c.logger.Warn("display render failed", "error", err.Error())
	}
	c.indicator.CueComplete(ctx)
	c.indicator.ShowReply(ctx, view.AIText)

	if view.AIAudioVisible && c.opts.Autoplay {
		c.play(view.AIAudio)
	}

	c.logger.Info("submission complete",
		"generation", res.generation,
		"request_id", reply.RequestID,
		"latency_ms", reply.Latency.Milliseconds(),
		"has_audio", reply.HasAudio(),
	)
	waiter <- c.snapshot("reply received")
}

func (c *Controller) cancel(ctx context.Context) Outcome {
	if c.stream == nil {
		return c.failed(ErrNoCapture)
	}
	c.abortCapture()
	if err := c.transition(fsm.EventCancel); err != nil {
		return c.failed(err)
	}
	c.indicator.CueCancel(ctx)
	c.indicator.Hide(ctx)
	return c.snapshot("recording discarded")
}

func (c *Controller) preview() Outcome {
	if c.clip == nil {
		return c.failed(ErrNoRecording)
	}
	path := c.View().UserAudio
	if path == "" {
		return c.failed(errors.New("preview file unavailable"))
	}
	c.play(path)
	return c.snapshot("playing preview")
}

func (c *Controller) replay() Outcome {
	view := c.View()
	if !view.AIAudioVisible || view.AIAudio == "" {
		return c.failed(ErrNoReplyAudio)
	}
	c.play(view.AIAudio)
	return c.snapshot("playing reply")
}

// play starts source asynchronously; failures are diagnostics only.
func (c *Controller) play(source string) {
	c.stopPlayback()

	ctx, cancel := context.WithCancel(c.runCtx)
	c.playCancel = cancel

	c.background.Add(1)
	go func() {
		defer c.background.Done()
		defer cancel()
		if err := c.player.Play(ctx, source); err != nil && ctx.Err() == nil {
			c.logger.Warn("playback failed", "source", source, "error", err.Error())
		}
	}()
}

func (c *Controller) stopPlayback() {
	if c.playCancel != nil {
		c.playCancel()
		c.playCancel = nil
	}
}

func (c *Controller) abortCapture() {
	if c.stream == nil {
		return
	}
	c.stream.Abort()
	c.stream = nil
	c.fragments = nil
	c.buffer = nil
}

// supersedeSubmission cancels any in-flight upload and releases its waiter.
func (c *Controller) supersedeSubmission() {
	if c.submitCancel == nil {
		return
	}
	c.submitCancel()
	c.submitCancel = nil
	if c.submitWaiter != nil {
		c.submitWaiter <- c.failed(ErrSuperseded)
		c.submitWaiter = nil
	}
	c.logger.Info("in-flight submission superseded", "generation", c.generation)
}

func (c *Controller) shutdown() {
	c.abortCapture()
	if c.submitCancel != nil {
		c.submitCancel()
		c.submitCancel = nil
	}
	if c.submitWaiter != nil {
		c.submitWaiter <- c.failed(ErrStopped)
		c.submitWaiter = nil
	}
	c.stopPlayback()

	hideCtx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()
	c.indicator.Hide(hideCtx)
}

// Wait blocks until background submissions and playback have returned.
func (c *Controller) Wait() {
	<-c.done
	c.background.Wait()
}

// report alerts the user for failures that warrant it.
func (c *Controller) report(ctx context.Context, err error) {
	kind := Classify(err)
	message := Describe(err)
	c.indicator.ShowError(ctx, message)
	if alertErr := c.alerter.Alert(ctx, kind, fmt.Sprintf("%s: %v", message, err)); alertErr != nil {
		c.logger.Debug("alert failed", "error", alertErr.Error())
	}
}

func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	c.view = c.view.withAffordances(next, c.clip != nil)
	return nil
}

func (c *Controller) updateView(mutate func(*View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mutate(&c.view)
	c.view = c.view.withAffordances(c.state, c.clip != nil)
}

func (c *Controller) snapshot(message string) Outcome {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Outcome{State: c.state, View: c.view, Message: message}
}

func (c *Controller) failed(err error) Outcome {
	outcome := c.snapshot("")
	outcome.Err = err
	return outcome
}
