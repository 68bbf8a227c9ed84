package session

import (
	"context"

	"github.com/rbright/sayback/internal/recording"
	"github.com/rbright/sayback/internal/speech"
)

// FragmentStream is one live capture. Fragments closes after Stop or Abort.
type FragmentStream interface {
	Fragments() <-chan []byte
	Stop() error
	Abort()
}

// Recorder opens captures and observes finalized clips.
type Recorder interface {
	Start(context.Context) (FragmentStream, error)
	Finalized(context.Context, *recording.Clip)
}

// Submitter uploads a finalized clip and returns the server reply.
type Submitter interface {
	Submit(context.Context, *recording.Clip) (speech.Reply, error)
}

// SubmitFunc adapts a function to the Submitter interface.
type SubmitFunc func(context.Context, *recording.Clip) (speech.Reply, error)

func (f SubmitFunc) Submit(ctx context.Context, clip *recording.Clip) (speech.Reply, error) {
	return f(ctx, clip)
}

// Player plays a reply URL or local preview file.
type Player interface {
	Play(ctx context.Context, source string) error
}

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowRecording(context.Context)
	ShowReady(context.Context)
	ShowSubmitting(context.Context)
	ShowReply(context.Context, string)
	ShowError(context.Context, string)
	CueStart(context.Context)
	CueStop(context.Context)
	CueComplete(context.Context)
	CueCancel(context.Context)
	Hide(context.Context)
}

// Alerter surfaces blocking user-facing failures.
type Alerter interface {
	Alert(ctx context.Context, kind ErrorKind, message string) error
}

// Display receives the view after each reply.
type Display interface {
	Render(context.Context, View) error
}

type noopIndicator struct{}

func (noopIndicator) ShowRecording(context.Context)     {}
func (noopIndicator) ShowReady(context.Context)         {}
func (noopIndicator) ShowSubmitting(context.Context)    {}
func (noopIndicator) ShowReply(context.Context, string) {}
func (noopIndicator) ShowError(context.Context, string) {}
func (noopIndicator) CueStart(context.Context)          {}
func (noopIndicator) CueStop(context.Context)           {}
func (noopIndicator) CueComplete(context.Context)       {}
func (noopIndicator) CueCancel(context.Context)         {}
func (noopIndicator) Hide(context.Context)              {}

type noopAlerter struct{}

func (noopAlerter) Alert(context.Context, ErrorKind, string) error { return nil }

type noopPlayer struct{}

func (noopPlayer) Play(context.Context, string) error { return nil }

type noopDisplay struct{}

func (noopDisplay) Render(context.Context, View) error { return nil }
