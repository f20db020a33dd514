package store

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DoyleJ11/wordbattle-backend/internal/catalog"
	"github.com/DoyleJ11/wordbattle-backend/internal/engine"
)

// PickLevel returns one of the least played active levels, chosen at random
// among ties, and counts the play.
func (s *Store) PickLevel(ctx context.Context) (engine.Level, error) {
	var lvl Level
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("active = ?", true).
			Order("battle_plays ASC").
			Order("RANDOM()").
			First(&lvl).Error
		if err != nil {
			return err
		}
		return tx.Model(&Level{}).
			Where("id = ?", lvl.ID).
			UpdateColumn("battle_plays", gorm.Expr("battle_plays + ?", 1)).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return engine.Level{}, catalog.ErrNoEligibleLevel
	}
	if err != nil {
		return engine.Level{}, fmt.Errorf("pick level: %w", err)
	}
	return lvl.toEngine(), nil
}

// SeedLevels inserts levels that do not exist yet.
func (s *Store) SeedLevels(ctx context.Context, levels []engine.Level) error {
	if len(levels) == 0 {
		return nil
	}
	rows := make([]Level, 0, len(levels))
	for _, l := range levels {
		rows = append(rows, levelFromEngine(l))
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&rows).Error
}

func (s *Store) SetLevelActive(ctx context.Context, id string, active bool) error {
	res := s.db.WithContext(ctx).Model(&Level{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (l Level) toEngine() engine.Level {
	out := engine.Level{ID: l.ID, Letters: append([]string(nil), l.Letters...)}
	for _, w := range l.Words {
		out.Words = append(out.Words, engine.Word{Text: w, Length: utf8.RuneCountInString(w)})
	}
	return out
}

func levelFromEngine(l engine.Level) Level {
	row := Level{ID: l.ID, Letters: append([]string(nil), l.Letters...), Active: true}
	for _, w := range l.Words {
		row.Words = append(row.Words, w.Text)
	}
	return row
}
