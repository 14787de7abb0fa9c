package entity

const PlayersCount = 2

type Player struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	IconClass  string `json:"iconClass"`
	ColorClass string `json:"colorClass"`
}

// Players - the fixed pair of participants, player 1 always moves first.
type Players [PlayersCount]Player

func DefaultPlayers() Players {
	return Players{
		{ID: 1, Name: "Player 1", IconClass: "fa-x", ColorClass: "turquoise"},
		{ID: 2, Name: "Player 2", IconClass: "fa-o", ColorClass: "yellow"},
	}
}

func (that Player) Is(other *Player) bool {
	return other != nil && other.ID == that.ID
}
