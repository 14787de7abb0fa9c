package apperror

import "errors"

var (
	ErrSquareOccupied = errors.New("square is already occupied")
	ErrInvalidSquare  = errors.New("invalid square id")
	ErrRoundComplete  = errors.New("round is already complete")
)
