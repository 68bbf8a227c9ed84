package session

import "github.com/rbright/sayback/internal/fsm"

// View is the display surface: two text lines, two playback surfaces, and the
// trigger affordances.
type View struct {
	UserText       string `json:"user_text,omitempty"`
	AIText         string `json:"ai_text,omitempty"`
	UserAudio      string `json:"user_audio,omitempty"`
	AIAudio        string `json:"ai_audio,omitempty"`
	AIAudioVisible bool   `json:"ai_audio_visible"`
	CanStart       bool   `json:"can_start"`
	CanStop        bool   `json:"can_stop"`
	CanSubmit      bool   `json:"can_submit"`
}

// withAffordances derives the trigger affordances from state and clip presence.
func (v View) withAffordances(state fsm.State, hasClip bool) View {
	v.CanStart = state != fsm.StateRecording
	v.CanStop = state == fsm.StateRecording
	v.CanSubmit = hasClip && fsm.CanSubmit(state)
	return v
}
