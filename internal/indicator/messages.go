package indicator

type messages struct {
	recording  string
	ready      string
	submitting string
	errorText  string
}

var defaultMessages = messages{
	recording:  "Recording…",
	ready:      "Recording ready; submit to send",
	submitting: "Sending to server…",
	errorText:  "Something went wrong",
}

// Colors and icons follow hyprctl notify: 1 info, 3 error, 5 ok.
const (
	colorRecording  = "rgb(89b4fa)"
	colorReady      = "rgb(f9e2af)"
	colorSubmitting = "rgb(cba6f7)"
	colorReply      = "rgb(a6e3a1)"
	colorError      = "rgb(f38ba8)"

	iconInfo  = 1
	iconError = 3
	iconOK    = 5

	stickyTimeoutMS = 300000
	replyTimeoutMS  = 8000
)
