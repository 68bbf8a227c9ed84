package session

import (
	"errors"
	"fmt"

	"github.com/rbright/sayback/internal/playback"
	"github.com/rbright/sayback/internal/speech"
)

var (
	// ErrNoRecording rejects submit and preview before any recording was finalized.
	ErrNoRecording = errors.New("no recording present")
	// ErrNoCapture rejects stop and cancel while nothing is being recorded.
	ErrNoCapture = errors.New("no capture in progress")
	// ErrSubmissionPending rejects a second submit while one is in flight.
	ErrSubmissionPending = errors.New("submission already in progress")
	// ErrSuperseded is returned to a submit whose result was outdated by a new capture.
	ErrSuperseded = errors.New("submission superseded by a new recording")
	// ErrNoReplyAudio rejects replay when the last reply carried no audio.
	ErrNoReplyAudio = errors.New("no reply audio available")
	// ErrStopped is returned once the controller loop has exited.
	ErrStopped = errors.New("session controller stopped")
)

// PermissionError reports that the microphone could not be opened.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("microphone unavailable: %v", e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// ErrorKind groups failures by how they are surfaced to the user.
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindPermission ErrorKind = "permission"
	KindUser       ErrorKind = "user"
	KindNetwork    ErrorKind = "network"
	KindServer     ErrorKind = "server"
	KindPlayback   ErrorKind = "playback"
	KindInternal   ErrorKind = "internal"
)

// Classify maps an error onto the user-facing taxonomy.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var (
		permErr   *PermissionError
		netErr    *speech.NetworkError
		serverErr *speech.ServerError
		playErr   *playback.PlaybackError
	)
	switch {
	case errors.As(err, &permErr):
		return KindPermission
	case errors.Is(err, ErrNoRecording), errors.Is(err, ErrNoCapture),
		errors.Is(err, ErrSubmissionPending), errors.Is(err, ErrNoReplyAudio):
		return KindUser
	case errors.As(err, &serverErr):
		return KindServer
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.As(err, &playErr):
		return KindPlayback
	default:
		return KindInternal
	}
}

// AlertMessage renders the short message shown for a failure of the given kind.
func AlertMessage(kind ErrorKind) string {
	switch kind {
	case KindPermission:
		return "Microphone access failed"
	case KindUser:
		return "That action is not available right now"
	case KindNetwork:
		return "Could not reach the speech server"
	case KindServer:
		return "The speech server returned an error"
	case KindPlayback:
		return "Reply audio could not be played"
	default:
		return "Something went wrong"
	}
}

// Describe renders the short message for err, naming the refused action for user errors.
func Describe(err error) string {
	switch {
	case errors.Is(err, ErrNoRecording):
		return "No recording present"
	case errors.Is(err, ErrNoCapture):
		return "Nothing is being recorded"
	case errors.Is(err, ErrSubmissionPending):
		return "A submission is already in progress"
	case errors.Is(err, ErrNoReplyAudio):
		return "No reply audio to replay"
	default:
		return AlertMessage(Classify(err))
	}
}
