package session

import (
	"context"

	"github.com/rbright/sayback/internal/ipc"
)

// Handle serves IPC commands for the owner process.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	return OutcomeResponse(c.Trigger(ctx, Command(req.Command)))
}

// OutcomeResponse converts a controller outcome into its wire form.
func OutcomeResponse(outcome Outcome) ipc.Response {
	resp := ipc.Response{
		OK:        outcome.Err == nil,
		State:     string(outcome.State),
		Message:   outcome.Message,
		UserText:  outcome.View.UserText,
		AIText:    outcome.View.AIText,
		Recording: outcome.View.UserAudio,
	}
	if outcome.View.AIAudioVisible {
		resp.AudioURL = outcome.View.AIAudio
	}
	if outcome.Err != nil {
		resp.Error = outcome.Err.Error()
		resp.ErrorKind = string(Classify(outcome.Err))
	}
	return resp
}
