package protocol

import "time"

// Identity is the verified user behind a connection.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// LevelSnapshot is what clients get to see of a level: the letter pool and
// the length of every target word (grid slots), never the words themselves.
type LevelSnapshot struct {
	ID         string   `json:"id"`
	Letters    []string `json:"letters"`
	Slots      []int    `json:"slots"`
	TotalWords int      `json:"total_words"`
}

type MatchFound struct {
	BattleID string        `json:"battle_id"`
	Type     string        `json:"type"` // "quick" | "friend"
	Opponent Identity      `json:"opponent"`
	Level    LevelSnapshot `json:"level"`
}

type OpponentReady struct {
	UserID string `json:"user_id"`
}

type CountdownStart struct {
	DurationMs int64 `json:"duration_ms"`
}

type BattleStart struct {
	DurationMs int64     `json:"duration_ms"`
	Letters    []string  `json:"letters"`
	StartedAt  time.Time `json:"started_at"`
}

type WordAccepted struct {
	Word  string `json:"word"`
	Delta int    `json:"delta"`
	Score int    `json:"score"`
	First bool   `json:"first"`
}

type WordRejected struct {
	Word   string `json:"word"`
	Reason string `json:"reason"` // invalid | rate_limited | invalid_word | duplicate
}

type OpponentWord struct {
	Word     string `json:"word"`
	Score    int    `json:"score"`
	WasFirst bool   `json:"was_first"`
}

type OpponentTyping struct {
	Typing bool `json:"typing"`
}

type OpponentReaction struct {
	Emoji string `json:"emoji"`
}

type OpponentDisconnected struct {
	UserID  string `json:"user_id"`
	GraceMs int64  `json:"grace_ms"`
}

type OpponentReconnected struct {
	UserID string `json:"user_id"`
}

// PlayerState is one side of a battle_state snapshot.
type PlayerState struct {
	Identity
	Words     []string `json:"words"`
	Score     int      `json:"score"`
	Ready     bool     `json:"ready"`
	Connected bool     `json:"connected"`
}

// BattleSnapshot lets a reconnecting client resume without replaying history.
type BattleSnapshot struct {
	BattleID    string        `json:"battle_id"`
	Status      string        `json:"status"`
	RemainingMs int64         `json:"remaining_ms"`
	Level       LevelSnapshot `json:"level"`
	Players     []PlayerState `json:"players"`
}

type PlayerSummary struct {
	Identity
	Words       []string   `json:"words"`
	WordCount   int        `json:"word_count"`
	Score       int        `json:"score"`
	Result      string     `json:"result"` // win | loss | draw | none
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type BattleEnd struct {
	Status     string          `json:"status"`
	WinnerID   *string         `json:"winner_id"`
	Reason     string          `json:"reason"`
	DurationMs int64           `json:"duration_ms"`
	Players    []PlayerSummary `json:"players"`
}

type QueueJoined struct {
	Position int `json:"position"`
}

type QueueLeft struct {
	Removed bool `json:"removed"`
}

type ChallengeCreated struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ChallengeSent struct {
	ChallengeID string    `json:"challenge_id"`
	To          Identity  `json:"to"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ChallengeReceived struct {
	ChallengeID string    `json:"challenge_id"`
	From        Identity  `json:"from"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ChallengeDeclined struct {
	ChallengeID string   `json:"challenge_id"`
	By          Identity `json:"by"`
}

type ChallengeExpired struct {
	Code        string `json:"code,omitempty"`
	ChallengeID string `json:"challenge_id,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
