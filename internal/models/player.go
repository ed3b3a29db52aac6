package models

// Seat numbers. Seat 1 is always the match creator, seat 2 the joiner
// that triggered activation.
const (
	SeatOne = 1
	SeatTwo = 2
)

// Player is one participant of a match. The unique index on
// (match_id, player_number) is what arbitrates concurrent joins.
type Player struct {
	ID           string `json:"id" db:"id"`
	MatchID      string `json:"match_id" db:"match_id"`
	UserID       string `json:"user_id" db:"user_id"`
	PlayerNumber int    `json:"player_number" db:"player_number"`
	Score        int    `json:"score" db:"score"`
}
