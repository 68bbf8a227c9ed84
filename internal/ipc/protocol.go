package ipc

// Request is one JSON line sent to the owner process.
type Request struct {
	Command string `json:"command"`
}

// Response is the owner's JSON line answer.
type Response struct {
	OK        bool   `json:"ok"`
	State     string `json:"state,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	UserText  string `json:"user_text,omitempty"`
	AIText    string `json:"ai_text,omitempty"`
	AudioURL  string `json:"audio_url,omitempty"`
	Recording string `json:"recording,omitempty"`
}
