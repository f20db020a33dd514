package engine

import (
	"slices"
	"time"

	"github.com/DoyleJ11/wordbattle-backend/pkg/protocol"
)

type Standing string

const (
	StandingWin  Standing = "win"
	StandingLoss Standing = "loss"
	StandingDraw Standing = "draw"
	StandingNone Standing = "none" // cancelled battles
)

// ResolveWinner compares two finished players: more words, then higher
// score, then earlier completion when both completed. Nil means a draw.
func ResolveWinner(a, b *Player) *Player {
	if len(a.Found) != len(b.Found) {
		if len(a.Found) > len(b.Found) {
			return a
		}
		return b
	}
	if a.Score != b.Score {
		if a.Score > b.Score {
			return a
		}
		return b
	}
	if a.CompletedAt != nil && b.CompletedAt != nil && !a.CompletedAt.Equal(*b.CompletedAt) {
		if a.CompletedAt.Before(*b.CompletedAt) {
			return a
		}
		return b
	}
	return nil
}

type PlayerResult struct {
	protocol.Identity
	Words       []string
	Score       int
	Standing    Standing
	CompletedAt *time.Time
}

// Result is the durable outcome of a finished battle.
type Result struct {
	BattleID  string
	Type      BattleType
	Status    Status
	LevelID   string
	Letters   []string
	Winner    string
	Reason    EndReason
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
	Players   [2]PlayerResult
}

func (r Result) Draw() bool {
	return r.Status == StatusCompleted && r.Winner == ""
}

// Summarize builds the Result of a finished battle.
func Summarize(s *State) Result {
	res := Result{
		BattleID:  s.ID,
		Type:      s.Type,
		Status:    s.Status,
		LevelID:   s.Level.ID,
		Letters:   slices.Clone(s.Level.Letters),
		Winner:    s.Winner,
		Reason:    s.EndReason,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
	}
	if !s.StartedAt.IsZero() && !s.EndedAt.IsZero() {
		res.Duration = s.EndedAt.Sub(s.StartedAt)
	}

	for i, p := range s.Players {
		res.Players[i] = PlayerResult{
			Identity:    p.Identity,
			Words:       slices.Clone(p.Found),
			Score:       p.Score,
			Standing:    standing(s, p),
			CompletedAt: p.CompletedAt,
		}
	}
	return res
}

func standing(s *State, p *Player) Standing {
	switch {
	case s.Status != StatusCompleted:
		return StandingNone
	case s.Winner == "":
		return StandingDraw
	case s.Winner == p.UserID:
		return StandingWin
	default:
		return StandingLoss
	}
}
