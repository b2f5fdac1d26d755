package models

import "time"

const (
	MinPlayers = 1
	MaxPlayers = 8
)

// Game is one round: every player gets the common word except the one at ImposterIndex.
type Game struct {
	GameID        string    `json:"gameId" bson:"game_id"`
	PlayerCount   int       `json:"playerCount" bson:"player_count"`
	PlayerNames   []string  `json:"playerNames" bson:"player_names"`
	AssignedWords []string  `json:"assignedWords" bson:"assigned_words"`
	ImposterIndex int       `json:"imposterIndex" bson:"imposter_index"`
	Category      string    `json:"category,omitempty" bson:"category,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
}

// WordPair is what a word source hands back for one round.
type WordPair struct {
	Category string
	Common   string
	Odd      string
}
