package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rounds/internal/entity"
)

const (
	actionMove     = "game:move"
	actionReset    = "game:reset"
	actionNewRound = "game:new-round"
	actionRender   = "game:render"
	actionError    = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type MovePayload struct {
	SquareID *int `json:"squareId"`
}

// RenderPayload - everything the page needs to redraw the board, the turn indicator,
// the scoreboard and the result modal.
type RenderPayload struct {
	Game      entity.Game  `json:"game"`
	Stats     entity.Stats `json:"stats"`
	TurnLabel string       `json:"turnLabel"`
	Message   string       `json:"message,omitempty"`
}

type ErrorPayload struct {
	Action string `json:"action"`
	Error  string `json:"error"`
}

func newRenderPayload(snapshot *entity.Snapshot) RenderPayload {
	payload := RenderPayload{
		Game:      snapshot.Game,
		Stats:     snapshot.Stats,
		TurnLabel: fmt.Sprintf("%s, you're up!", snapshot.Game.CurrentPlayer.Name),
	}

	status := snapshot.Game.Status
	switch {
	case status.Winner != nil:
		payload.Message = status.Winner.Name + " wins!"
	case status.IsComplete:
		payload.Message = "Tie!"
	}

	return payload
}

func newMessage(action string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return Message{Action: action, Payload: raw}, nil
}
