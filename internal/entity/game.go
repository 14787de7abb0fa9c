package entity

import (
	"errors"
	"fmt"
)

const (
	SchemaVersion = 1

	BoardSize = 9
	MinSquare = 1
	MaxSquare = 9
)

var ErrInvalidState = errors.New("invalid state")

type Move struct {
	SquareID int    `json:"squareId"`
	Player   Player `json:"player"`
}

type RoundStatus struct {
	IsComplete bool    `json:"isComplete"`
	Winner     *Player `json:"winner"`
}

// RoundRecord - a finished round archived into the history.
type RoundRecord struct {
	Moves  []Move      `json:"moves"`
	Status RoundStatus `json:"status"`
}

type History struct {
	CurrentRoundGames []RoundRecord `json:"currentRoundGames"`
	AllGames          []RoundRecord `json:"allGames"`
}

// State - the persisted record of one game session.
type State struct {
	Version int     `json:"version"`
	Moves   []Move  `json:"moves"`
	History History `json:"history"`
}

// Game - read-only view of the round in progress handed to the display layer.
type Game struct {
	Moves         []Move      `json:"moves"`
	CurrentPlayer Player      `json:"currentPlayer"`
	Status        RoundStatus `json:"status"`
}

type PlayerStats struct {
	Player Player `json:"player"`
	Wins   int    `json:"wins"`
}

type Stats struct {
	PlayerWithStats []PlayerStats `json:"playerWithStats"`
	Ties            int           `json:"ties"`
}

// Snapshot - everything render needs, taken from a single state.
type Snapshot struct {
	Game  Game  `json:"game"`
	Stats Stats `json:"stats"`
}

func NewState() *State {
	return &State{
		Version: SchemaVersion,
		Moves:   []Move{},
		History: History{
			CurrentRoundGames: []RoundRecord{},
			AllGames:          []RoundRecord{},
		},
	}
}

// Clone - returns a deep copy, no slice or pointer is shared with the receiver.
func (that *State) Clone() *State {
	return &State{
		Version: that.Version,
		Moves:   CloneMoves(that.Moves),
		History: History{
			CurrentRoundGames: cloneRecords(that.History.CurrentRoundGames),
			AllGames:          cloneRecords(that.History.AllGames),
		},
	}
}

// Normalize - replaces nil slices left by decoding with empty ones.
func (that *State) Normalize() {
	if that.Moves == nil {
		that.Moves = []Move{}
	}

	if that.History.CurrentRoundGames == nil {
		that.History.CurrentRoundGames = []RoundRecord{}
	}

	if that.History.AllGames == nil {
		that.History.AllGames = []RoundRecord{}
	}

	for i := range that.History.CurrentRoundGames {
		that.History.CurrentRoundGames[i].normalize()
	}

	for i := range that.History.AllGames {
		that.History.AllGames[i].normalize()
	}
}

func (that *State) IsValidVersion() bool {
	return that.Version == SchemaVersion
}

// Validate - checks that the moves of the round in progress and of every
// archived round could have been produced by play.
func (that *State) Validate() error {
	if err := validateMoves(that.Moves); err != nil {
		return fmt.Errorf("%w: moves: %w", ErrInvalidState, err)
	}

	records := append(append([]RoundRecord{}, that.History.CurrentRoundGames...), that.History.AllGames...)
	for i, record := range records {
		if err := record.validate(); err != nil {
			return fmt.Errorf("%w: round %d: %w", ErrInvalidState, i, err)
		}
	}

	return nil
}

func (that RoundStatus) Clone() RoundStatus {
	status := RoundStatus{IsComplete: that.IsComplete}
	if that.Winner != nil {
		winner := *that.Winner
		status.Winner = &winner
	}

	return status
}

func (that RoundStatus) IsTie() bool {
	return that.IsComplete && that.Winner == nil
}

func (that *RoundRecord) normalize() {
	if that.Moves == nil {
		that.Moves = []Move{}
	}
}

func (that *RoundRecord) validate() error {
	if err := validateMoves(that.Moves); err != nil {
		return err
	}

	if that.Status.Winner != nil {
		if !that.Status.IsComplete {
			return errors.New("winner of an incomplete round")
		}

		if !isPlayerID(that.Status.Winner.ID) {
			return fmt.Errorf("unknown winner %d", that.Status.Winner.ID)
		}
	}

	return nil
}

// validateMoves - squares in range and unique, players alternate starting with player 1.
func validateMoves(moves []Move) error {
	if len(moves) > BoardSize {
		return fmt.Errorf("%d moves on a %d square board", len(moves), BoardSize)
	}

	var taken [MaxSquare + 1]bool
	for i, move := range moves {
		if move.SquareID < MinSquare || move.SquareID > MaxSquare {
			return fmt.Errorf("square %d out of range", move.SquareID)
		}

		if taken[move.SquareID] {
			return fmt.Errorf("square %d taken twice", move.SquareID)
		}
		taken[move.SquareID] = true

		if !isPlayerID(move.Player.ID) {
			return fmt.Errorf("unknown player %d", move.Player.ID)
		}

		if move.Player.ID != i%PlayersCount+1 {
			return fmt.Errorf("move %d made out of turn by player %d", i+1, move.Player.ID)
		}
	}

	return nil
}

func isPlayerID(id int) bool {
	return id >= 1 && id <= PlayersCount
}

func CloneMoves(moves []Move) []Move {
	cloned := make([]Move, len(moves))
	copy(cloned, moves)

	return cloned
}

func cloneRecords(records []RoundRecord) []RoundRecord {
	cloned := make([]RoundRecord, 0, len(records))
	for _, record := range records {
		cloned = append(cloned, RoundRecord{
			Moves:  CloneMoves(record.Moves),
			Status: record.Status.Clone(),
		})
	}

	return cloned
}
