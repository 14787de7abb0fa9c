package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rounds/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/entity"
)

// WinningPatterns - rows, columns and diagonals of the board, squares are numbered 1..9 row-major.
var WinningPatterns = [8][3]int{
	{1, 2, 3},
	{4, 5, 6},
	{7, 8, 9},
	{1, 4, 7},
	{2, 5, 8},
	{3, 6, 9},
	{1, 5, 9},
	{3, 5, 7},
}

// CurrentPlayer - returns whose turn it is, player 1 moves on even move counts.
func CurrentPlayer(state *entity.State, players entity.Players) entity.Player {
	return players[len(state.Moves)%entity.PlayersCount]
}

// Evaluate - checks every pattern for every player.
// If several patterns match, the last one in iteration order decides the winner.
func Evaluate(moves []entity.Move, players entity.Players) entity.RoundStatus {
	var winner *entity.Player

	for _, player := range players {
		claimed := make(map[int]struct{}, len(moves))
		for _, move := range moves {
			if move.Player.ID == player.ID {
				claimed[move.SquareID] = struct{}{}
			}
		}

		for _, pattern := range WinningPatterns {
			if claimsPattern(claimed, pattern) {
				matched := player
				winner = &matched
			}
		}
	}

	return entity.RoundStatus{
		IsComplete: winner != nil || len(moves) == entity.BoardSize,
		Winner:     winner,
	}
}

func HasMove(state *entity.State, squareID int) bool {
	for _, move := range state.Moves {
		if move.SquareID == squareID {
			return true
		}
	}

	return false
}

// PlayerMove - places the current player's mark on the square.
// The input state is never modified; on error it is returned as is.
func PlayerMove(state *entity.State, players entity.Players, squareID int) (*entity.State, error) {
	if squareID < entity.MinSquare || squareID > entity.MaxSquare {
		return state, fmt.Errorf("%w: %d", apperror.ErrInvalidSquare, squareID)
	}

	if Evaluate(state.Moves, players).IsComplete {
		return state, apperror.ErrRoundComplete
	}

	if HasMove(state, squareID) {
		return state, fmt.Errorf("%w: %d", apperror.ErrSquareOccupied, squareID)
	}

	next := state.Clone()
	next.Moves = append(next.Moves, entity.Move{
		SquareID: squareID,
		Player:   CurrentPlayer(state, players),
	})

	return next, nil
}

// NewRound - archives a complete round into the match history and clears the board.
func NewRound(state *entity.State, players entity.Players) *entity.State {
	next := archiveRound(state, players)
	next.Moves = []entity.Move{}

	return next
}

// Reset - ends the match: the round is archived like in NewRound,
// then the match history is moved to allGames so stats start from zero.
func Reset(state *entity.State, players entity.Players) *entity.State {
	next := archiveRound(state, players)
	next.History.AllGames = append(next.History.AllGames, next.History.CurrentRoundGames...)
	next.History.CurrentRoundGames = []entity.RoundRecord{}
	next.Moves = []entity.Move{}

	return next
}

func Stats(state *entity.State, players entity.Players) entity.Stats {
	stats := entity.Stats{
		PlayerWithStats: make([]entity.PlayerStats, 0, len(players)),
	}

	for _, player := range players {
		wins := 0
		for _, record := range state.History.CurrentRoundGames {
			if player.Is(record.Status.Winner) {
				wins++
			}
		}

		stats.PlayerWithStats = append(stats.PlayerWithStats, entity.PlayerStats{Player: player, Wins: wins})
	}

	for _, record := range state.History.CurrentRoundGames {
		if record.Status.IsTie() {
			stats.Ties++
		}
	}

	return stats
}

// Game - builds the view of the round in progress.
func Game(state *entity.State, players entity.Players) entity.Game {
	return entity.Game{
		Moves:         entity.CloneMoves(state.Moves),
		CurrentPlayer: CurrentPlayer(state, players),
		Status:        Evaluate(state.Moves, players),
	}
}

func Snapshot(state *entity.State, players entity.Players) *entity.Snapshot {
	return &entity.Snapshot{
		Game:  Game(state, players),
		Stats: Stats(state, players),
	}
}

func archiveRound(state *entity.State, players entity.Players) *entity.State {
	next := state.Clone()

	if status := Evaluate(state.Moves, players); status.IsComplete {
		next.History.CurrentRoundGames = append(next.History.CurrentRoundGames, entity.RoundRecord{
			Moves:  entity.CloneMoves(state.Moves),
			Status: status,
		})
	}

	return next
}

func claimsPattern(claimed map[int]struct{}, pattern [3]int) bool {
	for _, square := range pattern {
		if _, ok := claimed[square]; !ok {
			return false
		}
	}

	return true
}
