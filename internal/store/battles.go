package store

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DoyleJ11/wordbattle-backend/internal/engine"
)

type Reward struct {
	Coins int64 `json:"coins"`
	XP    int64 `json:"xp"`
}

// Rewards are the per-tier payouts of a completed battle.
type Rewards struct {
	Win  Reward
	Draw Reward
	Loss Reward
}

func DefaultRewards() Rewards {
	return Rewards{
		Win:  Reward{Coins: 50, XP: 100},
		Draw: Reward{Coins: 25, XP: 50},
		Loss: Reward{Coins: 10, XP: 25},
	}
}

func (r Rewards) For(s engine.Standing) Reward {
	switch s {
	case engine.StandingWin:
		return r.Win
	case engine.StandingDraw:
		return r.Draw
	case engine.StandingLoss:
		return r.Loss
	default:
		return Reward{}
	}
}

// ApplyOutcome folds one battle into u's counters and returns the payout.
func ApplyOutcome(u *User, standing engine.Standing, score int, rewards Rewards) Reward {
	switch standing {
	case engine.StandingWin:
		u.Wins++
		u.CurrentStreak++
		if u.CurrentStreak > u.LongestStreak {
			u.LongestStreak = u.CurrentStreak
		}
	case engine.StandingLoss:
		u.Losses++
		u.CurrentStreak = 0
	case engine.StandingDraw:
		u.Draws++
		u.CurrentStreak = 0
	default:
		return Reward{}
	}

	u.Battles++
	rw := rewards.For(standing)
	u.Coins += rw.Coins
	u.XP += rw.XP
	u.Score += int64(score)
	u.WinRate = math.Round(float64(u.Wins)/float64(u.Battles)*100) / 100
	return rw
}

// RecordBattle persists a finished battle in one transaction. Completed
// battles also update both players' stats; cancelled ones are recorded only.
// A second call for the same battle returns ErrAlreadyRecorded and changes
// nothing.
func (s *Store) RecordBattle(ctx context.Context, res engine.Result) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&BattleRecord{}).Where("id = ?", res.BattleID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyRecorded
		}

		rec := recordFromResult(res)
		if err := tx.Omit(clause.Associations).Create(&rec).Error; err != nil {
			return err
		}

		completed := res.Status == engine.StatusCompleted
		rows := make([]BattlePlayerResult, 0, len(res.Players))
		for _, p := range res.Players {
			row := BattlePlayerResult{
				ID:          uuid.NewString(),
				BattleID:    res.BattleID,
				UserID:      p.UserID,
				Username:    p.Username,
				Words:       append([]string{}, p.Words...),
				WordCount:   len(p.Words),
				Score:       p.Score,
				Result:      string(p.Standing),
				CompletedAt: p.CompletedAt,
			}
			if completed {
				rw, err := s.applyStats(tx, p)
				if err != nil {
					return err
				}
				row.CoinsEarned = rw.Coins
				row.XPEarned = rw.XP
			}
			rows = append(rows, row)
		}
		return tx.Create(&rows).Error
	})

	switch {
	case err == nil:
		s.log.Info("battle recorded",
			zap.String("battle_id", res.BattleID),
			zap.String("status", string(res.Status)),
			zap.String("reason", string(res.Reason)),
			zap.String("winner", res.Winner))
		return nil
	case errors.Is(err, ErrAlreadyRecorded) || isDuplicate(err):
		return ErrAlreadyRecorded
	default:
		return fmt.Errorf("record battle %s: %w", res.BattleID, err)
	}
}

func (s *Store) applyStats(tx *gorm.DB, p engine.PlayerResult) (Reward, error) {
	var u User
	err := tx.Where(User{ID: p.UserID}).
		Attrs(User{Username: p.Username, Avatar: p.Avatar}).
		FirstOrCreate(&u).Error
	if err != nil {
		return Reward{}, fmt.Errorf("load user %s: %w", p.UserID, err)
	}
	rw := ApplyOutcome(&u, p.Standing, p.Score, s.rewards)
	if err := tx.Save(&u).Error; err != nil {
		return Reward{}, fmt.Errorf("save user %s: %w", p.UserID, err)
	}
	return rw, nil
}

func recordFromResult(res engine.Result) BattleRecord {
	rec := BattleRecord{
		ID:         res.BattleID,
		Type:       string(res.Type),
		Status:     string(res.Status),
		LevelID:    res.LevelID,
		Letters:    append([]string{}, res.Letters...),
		Reason:     string(res.Reason),
		EndedAt:    res.EndedAt,
		DurationMs: res.Duration.Milliseconds(),
	}
	if res.Winner != "" {
		w := res.Winner
		rec.WinnerID = &w
	}
	if !res.StartedAt.IsZero() {
		started := res.StartedAt
		rec.StartedAt = &started
	}
	return rec
}
