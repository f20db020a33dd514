package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("record not found")
var ErrAlreadyRecorded = errors.New("battle already recorded")
var ErrUnknownDriver = errors.New("unknown database driver")

// Open connects to postgres or sqlite. Driver errors are translated so
// duplicate keys surface as gorm.ErrDuplicatedKey.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// sqlite serializes writers anyway; one connection avoids "database is locked".
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

type Store struct {
	db      *gorm.DB
	log     *zap.Logger
	rewards Rewards
}

func New(db *gorm.DB, log *zap.Logger, rewards Rewards) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log, rewards: rewards}
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&User{},
		&Level{},
		&BattleRecord{},
		&BattlePlayerResult{},
		&AuthSession{},
	)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) User(ctx context.Context, id string) (User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return User{}, notFound(err)
	}
	return u, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, "username = ?", username).Error; err != nil {
		return User{}, notFound(err)
	}
	return u, nil
}

// UpsertUser creates u or refreshes its profile fields. Counters are left alone.
func (s *Store) UpsertUser(ctx context.Context, u User) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "avatar", "updated_at"}),
	}).Create(&u).Error
}

func (s *Store) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	return s.db.WithContext(ctx).Create(&AuthSession{Token: token, UserID: userID, ExpiresAt: expiresAt}).Error
}

func (s *Store) SessionByToken(ctx context.Context, token string) (AuthSession, error) {
	var sess AuthSession
	err := s.db.WithContext(ctx).Preload("User").First(&sess, "token = ?", token).Error
	if err != nil {
		return AuthSession{}, notFound(err)
	}
	return sess, nil
}

// DeleteExpiredSessions removes sessions that expired before now.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&AuthSession{})
	return res.RowsAffected, res.Error
}

func (s *Store) Battle(ctx context.Context, id string) (BattleRecord, error) {
	var rec BattleRecord
	err := s.db.WithContext(ctx).Preload("Players").First(&rec, "id = ?", id).Error
	if err != nil {
		return BattleRecord{}, notFound(err)
	}
	return rec, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
