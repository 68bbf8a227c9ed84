package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "", want: nil},
		{name: "simple", input: "wl-copy --trim-newline", want: []string{"wl-copy", "--trim-newline"}},
		{name: "double quotes", input: `xclip -selection "clip board"`, want: []string{"xclip", "-selection", "clip board"}},
		{name: "single quotes", input: `mycmd 'hello world'`, want: []string{"mycmd", "hello world"}},
		{name: "escaped space", input: `mycmd hello\ world`, want: []string{"mycmd", "hello world"}},
		{name: "empty quoted arg", input: `mycmd ""`, want: []string{"mycmd", ""}},
		{name: "comment", input: `# wl-copy`, want: nil},
		{name: "unterminated quote", input: `mycmd "oops`, wantErr: "unterminated quote"},
		{name: "unterminated escape", input: `mycmd hello\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := splitCommand(tc.input)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMustSplitCommandPanicsOnInvalidInput(t *testing.T) {
	require.Panics(t, func() { _ = mustSplitCommand(`mycmd "unterminated`) })
}
