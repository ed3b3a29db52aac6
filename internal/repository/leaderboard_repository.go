package repository

import (
	"fmt"

	"github.com/sedefy/sedetok-backend/pkg/database"
)

type LeaderboardRepository struct {
	db *database.DB
}

func NewLeaderboardRepository(db *database.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// LeaderboardEntry is one row of the trivia leaderboard
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Wins     int    `json:"wins"`
	XP       int    `json:"xp"`
}

// Top returns users ranked by trivia wins, XP breaking ties. When level is
// non-empty only wins at that level count.
func (r *LeaderboardRepository) Top(level string, limit int) ([]LeaderboardEntry, error) {
	query := `
		SELECT u.id, u.username, COUNT(m.id) AS wins, u.xp
		FROM users u
		JOIN matches m ON m.winner_id = u.id AND m.status = 'finished'
		WHERE ($1 = '' OR m.level = $1)
		GROUP BY u.id, u.username, u.xp
		ORDER BY wins DESC, u.xp DESC
		LIMIT $2
	`

	rows, err := r.db.Query(query, level, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	rank := 0
	for rows.Next() {
		rank++
		entry := LeaderboardEntry{Rank: rank}
		if err := rows.Scan(&entry.UserID, &entry.Username, &entry.Wins, &entry.XP); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
