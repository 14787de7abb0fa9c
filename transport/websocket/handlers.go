package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rounds/internal/apperror"
)

// handleMove - clicks on taken squares or on a finished board change nothing and get no answer.
func (that *Server) handleMove(ctx context.Context, conn *connection, msg *Message) error {
	var payload MovePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.SquareID == nil {
		that.sendError(conn, msg.Action, "squareId is required")
		return nil
	}

	_, err := that.gameService.PlayerMove(ctx, *payload.SquareID)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperror.ErrSquareOccupied), errors.Is(err, apperror.ErrRoundComplete):
		return nil
	case errors.Is(err, apperror.ErrInvalidSquare):
		that.sendError(conn, msg.Action, err.Error())
		return nil
	default:
		that.sendError(conn, msg.Action, "failed to make move")
		return fmt.Errorf("failed to make move: %w", err)
	}
}

func (that *Server) handleReset(ctx context.Context, conn *connection, msg *Message) error {
	if _, err := that.gameService.Reset(ctx); err != nil {
		that.sendError(conn, msg.Action, "failed to reset")
		return fmt.Errorf("failed to reset: %w", err)
	}

	return nil
}

func (that *Server) handleNewRound(ctx context.Context, conn *connection, msg *Message) error {
	if _, err := that.gameService.NewRound(ctx); err != nil {
		that.sendError(conn, msg.Action, "failed to start new round")
		return fmt.Errorf("failed to start new round: %w", err)
	}

	return nil
}
