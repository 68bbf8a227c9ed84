package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOverlaysFileOntoDefaults(t *testing.T) {
	cfg, warnings, err := Parse(`
{
  // server lives on the LAN
  "server": {"url": " http://192.168.1.20:8000 ", "timeout_ms": 30000},
  "display": {"user_prefix": "You said: "},
  "playback": {"autoplay": false,},
  "indicator": {"backend": " desktop ", "desktop_app_name": "  sayback  "},
  "alert": {"backend": "dialog"},
  /* copy assistant text */
  "output": {"copy_reply": true},
  "clipboard_cmd": "wl-copy --type 'text/plain'",
}
`, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, "http://192.168.1.20:8000", cfg.Server.URL)
	require.Equal(t, "/speech-to-text", cfg.Server.Path)
	require.Equal(t, 30000, cfg.Server.TimeoutMS)
	require.Equal(t, "You said: ", cfg.Display.UserPrefix)
	require.Equal(t, "Assistant: ", cfg.Display.AssistantPrefix)
	require.True(t, cfg.Playback.Enable)
	require.False(t, cfg.Playback.Autoplay)
	require.Equal(t, "desktop", cfg.Indicator.Backend)
	require.Equal(t, "sayback", cfg.Indicator.DesktopAppName)
	require.Equal(t, "dialog", cfg.Alert.Backend)
	require.True(t, cfg.Output.CopyReply)
	require.Equal(t, []string{"wl-copy", "--type", "text/plain"}, cfg.Clipboard.Argv)
}

func TestParseEmptyContentReturnsDefaults(t *testing.T) {
	cfg, _, err := Parse("  \n", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unknown field", content: `{"asr": {"model": "x"}}`, wantErr: "unknown field"},
		{name: "not an object", content: `["server"]`, wantErr: "must be a JSON object"},
		{name: "multiple values", content: `{"output":{"copy_reply":false}}{"output":{}}`, wantErr: "multiple JSON values"},
		{name: "bad clipboard command", content: `{"clipboard_cmd": "unterminated ' quote"}`, wantErr: "invalid clipboard_cmd"},
		{name: "validation", content: `{"server": {"path": "speech"}}`, wantErr: "server.path"},
		{name: "unterminated comment", content: `{ /* open`, wantErr: "unterminated block comment"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.content, Default())
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestParseTypeErrorIncludesLocation(t *testing.T) {
	_, _, err := Parse(`{
  "server": {"timeout_ms": "soon"}
}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line")
	require.Contains(t, err.Error(), "column")
}

func TestNormalizeJSONC(t *testing.T) {
	normalized, err := normalizeJSONC(`
{
  // line comment
  "items": [
    "one", /* block comment */
    "two",
  ],
  "nested": {"enabled": true,},
}
`)
	require.NoError(t, err)
	require.NotContains(t, normalized, "//")
	require.NotContains(t, normalized, "/*")
	require.NotRegexp(t, `,\s*[}\]]`, normalized)
}

func TestNormalizeJSONCKeepsCommentMarkersInsideStrings(t *testing.T) {
	normalized, err := normalizeJSONC(`{"value":"a // b /* c */ \"d,}\"",}`)
	require.NoError(t, err)
	require.Contains(t, normalized, `a // b /* c */ \"d,}\"`)
}

func TestOffsetToLineCol(t *testing.T) {
	content := "line1\nline2\nline3"

	line, col := offsetToLineCol(content, 1)
	require.Equal(t, []int{1, 1}, []int{line, col})

	line, col = offsetToLineCol(content, 8)
	require.Equal(t, []int{2, 2}, []int{line, col})

	line, col = offsetToLineCol(content, 999)
	require.Equal(t, []int{3, 5}, []int{line, col})
}
