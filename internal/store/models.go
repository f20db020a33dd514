package store

import (
	"time"

	"gorm.io/gorm"
)

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// User holds the battle counters and wallet of one player.
type User struct {
	ID       string `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Avatar   string `json:"avatar,omitempty"`

	Coins int64 `gorm:"default:0" json:"coins"`
	XP    int64 `gorm:"default:0" json:"xp"`
	Score int64 `gorm:"default:0" json:"score"`

	Battles       int     `gorm:"default:0" json:"battles"`
	Wins          int     `gorm:"default:0" json:"wins"`
	Losses        int     `gorm:"default:0" json:"losses"`
	Draws         int     `gorm:"default:0" json:"draws"`
	CurrentStreak int     `gorm:"default:0" json:"current_streak"`
	LongestStreak int     `gorm:"default:0" json:"longest_streak"`
	WinRate       float64 `gorm:"default:0" json:"win_rate"` // 0..1, two decimals

	Timestamps
}

type Level struct {
	ID          string   `gorm:"primaryKey" json:"id"`
	Letters     []string `gorm:"serializer:json;type:text;not null" json:"letters"`
	Words       []string `gorm:"serializer:json;type:text;not null" json:"words"`
	Active      bool     `gorm:"index;not null;default:true" json:"active"`
	BattlePlays int64    `gorm:"index;not null;default:0" json:"battle_plays"`

	Timestamps
}

// BattleRecord is written once per battle, keyed by the battle id.
type BattleRecord struct {
	ID         string     `gorm:"primaryKey" json:"id"`
	Type       string     `gorm:"type:varchar(16);not null" json:"type"`
	Status     string     `gorm:"type:varchar(16);not null" json:"status"`
	LevelID    string     `gorm:"index" json:"level_id"`
	Letters    []string   `gorm:"serializer:json;type:text" json:"letters"`
	WinnerID   *string    `gorm:"index" json:"winner_id"`
	Reason     string     `gorm:"type:varchar(32)" json:"reason"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	EndedAt    time.Time  `json:"ended_at"`
	DurationMs int64      `json:"duration_ms"`

	Players []BattlePlayerResult `gorm:"foreignKey:BattleID" json:"players"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type BattlePlayerResult struct {
	ID          string     `gorm:"primaryKey" json:"-"`
	BattleID    string     `gorm:"uniqueIndex:idx_battle_player;not null" json:"battle_id"`
	UserID      string     `gorm:"uniqueIndex:idx_battle_player;index;not null" json:"user_id"`
	Username    string     `json:"username"`
	Words       []string   `gorm:"serializer:json;type:text" json:"words"`
	WordCount   int        `json:"word_count"`
	Score       int        `json:"score"`
	Result      string     `gorm:"type:varchar(8)" json:"result"` // win | loss | draw | none
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CoinsEarned int64      `json:"coins_earned"`
	XPEarned    int64      `json:"xp_earned"`
}

// AuthSession maps an opaque bearer token to a user.
type AuthSession struct {
	Token     string    `gorm:"primaryKey"`
	UserID    string    `gorm:"index;not null"`
	User      User      `gorm:"foreignKey:UserID"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
