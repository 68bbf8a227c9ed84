package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/sayback/internal/playback"
	"github.com/rbright/sayback/internal/speech"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "nil", err: nil, want: KindNone},
		{name: "permission", err: &PermissionError{Err: errors.New("denied")}, want: KindPermission},
		{name: "wrapped permission", err: fmt.Errorf("start: %w", &PermissionError{Err: errors.New("denied")}), want: KindPermission},
		{name: "no recording", err: ErrNoRecording, want: KindUser},
		{name: "pending", err: ErrSubmissionPending, want: KindUser},
		{name: "server", err: &speech.ServerError{StatusCode: 502}, want: KindServer},
		{name: "network", err: &speech.NetworkError{URL: "http://x", Err: errors.New("refused")}, want: KindNetwork},
		{name: "playback", err: &playback.PlaybackError{Source: "a.mp3", Err: errors.New("eof")}, want: KindPlayback},
		{name: "other", err: errors.New("boom"), want: KindInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestAlertMessageCoversEveryKind(t *testing.T) {
	kinds := []ErrorKind{KindPermission, KindUser, KindNetwork, KindServer, KindPlayback, KindInternal}
	seen := map[string]bool{}
	for _, kind := range kinds {
		message := AlertMessage(kind)
		require.NotEmpty(t, message)
		seen[message] = true
	}
	require.Len(t, seen, len(kinds))
}

func TestDescribeNamesRefusedAction(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: ErrNoRecording, want: "No recording present"},
		{err: fmt.Errorf("submit: %w", ErrNoCapture), want: "Nothing is being recorded"},
		{err: ErrSubmissionPending, want: "A submission is already in progress"},
		{err: ErrNoReplyAudio, want: "No reply audio to replay"},
		{err: &speech.ServerError{StatusCode: 500}, want: AlertMessage(KindServer)},
		{err: errors.New("boom"), want: AlertMessage(KindInternal)},
	}

	seen := map[string]bool{}
	for _, tc := range tests {
		require.Equal(t, tc.want, Describe(tc.err), "%v", tc.err)
		if Classify(tc.err) == KindUser {
			require.NotEqual(t, AlertMessage(KindUser), Describe(tc.err))
			seen[Describe(tc.err)] = true
		}
	}
	require.Len(t, seen, 4)
}

func TestPermissionErrorUnwraps(t *testing.T) {
	cause := errors.New("pulse refused")
	err := &PermissionError{Err: cause}
	require.ErrorIs(t, err, cause)
	require.Equal(t, "microphone unavailable: pulse refused", err.Error())
}
