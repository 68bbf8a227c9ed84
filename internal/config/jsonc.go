package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
)

type fileConfig struct {
	Server       *fileServer    `json:"server"`
	Audio        *fileAudio     `json:"audio"`
	Display      *fileDisplay   `json:"display"`
	Playback     *filePlayback  `json:"playback"`
	Indicator    *fileIndicator `json:"indicator"`
	Alert        *fileAlert     `json:"alert"`
	Output       *fileOutput    `json:"output"`
	ClipboardCmd *string        `json:"clipboard_cmd"`
	Debug        *fileDebug     `json:"debug"`
}

type fileServer struct {
	URL       *string `json:"url"`
	Path      *string `json:"path"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type fileAudio struct {
	Input      *string `json:"input"`
	Fallback   *string `json:"fallback"`
	SampleRate *int    `json:"sample_rate"`
}

type fileDisplay struct {
	UserPrefix      *string `json:"user_prefix"`
	AssistantPrefix *string `json:"assistant_prefix"`
}

type filePlayback struct {
	Enable   *bool `json:"enable"`
	Autoplay *bool `json:"autoplay"`
}

type fileIndicator struct {
	Enable         *bool   `json:"enable"`
	Backend        *string `json:"backend"`
	DesktopAppName *string `json:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

type fileAlert struct {
	Backend *string `json:"backend"`
}

type fileOutput struct {
	CopyReply *bool `json:"copy_reply"`
}

type fileDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

// Parse overlays JSONC content onto base and validates the result.
func Parse(content string, base Config) (Config, []Warning, error) {
	cfg, err := overlayJSONC(content, base)
	if err != nil {
		return Config{}, nil, err
	}
	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func overlayJSONC(content string, base Config) (Config, error) {
	if strings.TrimSpace(content) == "" {
		return base, nil
	}

	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, err
	}
	if !strings.HasPrefix(strings.TrimSpace(normalized), "{") {
		return Config{}, errors.New("config must be a JSON object")
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload fileConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, locateDecodeError(normalized, err)
	}
	var extra any
	switch err := decoder.Decode(&extra); {
	case errors.Is(err, io.EOF):
	case err == nil:
		return Config{}, errors.New("multiple JSON values are not allowed")
	default:
		return Config{}, locateDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (p fileConfig) applyTo(cfg *Config) error {
	if s := p.Server; s != nil {
		setString(&cfg.Server.URL, s.URL)
		setString(&cfg.Server.Path, s.Path)
		setInt(&cfg.Server.TimeoutMS, s.TimeoutMS)
	}
	if a := p.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
		setInt(&cfg.Audio.SampleRate, a.SampleRate)
	}
	if d := p.Display; d != nil {
		// Prefixes keep their whitespace.
		if d.UserPrefix != nil {
			cfg.Display.UserPrefix = *d.UserPrefix
		}
		if d.AssistantPrefix != nil {
			cfg.Display.AssistantPrefix = *d.AssistantPrefix
		}
	}
	if pb := p.Playback; pb != nil {
		setBool(&cfg.Playback.Enable, pb.Enable)
		setBool(&cfg.Playback.Autoplay, pb.Autoplay)
	}
	if ind := p.Indicator; ind != nil {
		setBool(&cfg.Indicator.Enable, ind.Enable)
		setString(&cfg.Indicator.Backend, ind.Backend)
		setString(&cfg.Indicator.DesktopAppName, ind.DesktopAppName)
		setBool(&cfg.Indicator.SoundEnable, ind.SoundEnable)
		setInt(&cfg.Indicator.ErrorTimeoutMS, ind.ErrorTimeoutMS)
	}
	if p.Alert != nil {
		setString(&cfg.Alert.Backend, p.Alert.Backend)
	}
	if p.Output != nil {
		setBool(&cfg.Output.CopyReply, p.Output.CopyReply)
	}
	if p.ClipboardCmd != nil {
		argv, err := splitCommand(*p.ClipboardCmd)
		if err != nil {
			return fmt.Errorf("invalid clipboard_cmd: %w", err)
		}
		cfg.Clipboard = CommandConfig{Raw: *p.ClipboardCmd, Argv: argv}
	}
	if p.Debug != nil {
		setBool(&cfg.Debug.AudioDump, p.Debug.AudioDump)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// normalizeJSONC blanks out comments and drops trailing commas so the result is
// plain JSON with byte offsets preserved for comments.
func normalizeJSONC(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	const (
		code = iota
		str
		strEscape
		lineComment
		blockComment
	)
	mode := code

	for i := 0; i < len(content); i++ {
		ch := content[i]
		switch mode {
		case str:
			out.WriteByte(ch)
			if ch == '\\' {
				mode = strEscape
			} else if ch == '"' {
				mode = code
			}
		case strEscape:
			out.WriteByte(ch)
			mode = str
		case lineComment:
			if ch == '\n' || ch == '\r' {
				out.WriteByte(ch)
				mode = code
			} else {
				out.WriteByte(' ')
			}
		case blockComment:
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				out.WriteString("  ")
				i++
				mode = code
			} else if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
		default:
			switch {
			case ch == '"':
				out.WriteByte(ch)
				mode = str
			case ch == '/' && i+1 < len(content) && content[i+1] == '/':
				out.WriteString("  ")
				i++
				mode = lineComment
			case ch == '/' && i+1 < len(content) && content[i+1] == '*':
				out.WriteString("  ")
				i++
				mode = blockComment
			default:
				out.WriteByte(ch)
			}
		}
	}
	if mode == blockComment {
		return "", errors.New("unterminated block comment in JSONC")
	}
	return dropTrailingCommas(out.String()), nil
}

// dropTrailingCommas replaces commas that directly precede } or ] with spaces.
func dropTrailingCommas(content string) string {
	buf := []byte(content)
	inString, escaped := false, false
	for i, ch := range buf {
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			continue
		}
		if ch != ',' {
			continue
		}
		j := i + 1
		for j < len(buf) && strings.IndexByte(" \t\r\n", buf[j]) >= 0 {
			j++
		}
		if j < len(buf) && (buf[j] == '}' || buf[j] == ']') {
			buf[i] = ' '
		}
	}
	return string(buf)
}

func locateDecodeError(content string, err error) error {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}
	line, col := offsetToLineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}
	limit := min(int(offset), len(content))

	line, col := 1, 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
