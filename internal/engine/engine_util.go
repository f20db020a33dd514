package engine

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/DoyleJ11/wordbattle-backend/pkg/protocol"
)

func DefaultRules() Rules {
	return Rules{
		Countdown:         3 * time.Second,
		Duration:          120 * time.Second,
		Grace:             10 * time.Second,
		ReadyTimeout:      30 * time.Second,
		MinSubmitInterval: 100 * time.Millisecond,
		SuspiciousBelow:   300 * time.Millisecond,
		ReactionCooldown:  10 * time.Second,
		MaxReactions:      20,
		BasePoints:        10,
		LongWordLength:    6,
		LongWordBonus:     10,
		FirstFinderBonus:  5,
	}
}

// NewState builds a waiting battle between a and b on level.
func NewState(id string, typ BattleType, a, b protocol.Identity, level Level, rules Rules, now time.Time) (*State, error) {
	if id == "" || a.UserID == "" || b.UserID == "" {
		return nil, ErrInvalidInput
	}
	if a.UserID == b.UserID {
		return nil, fmt.Errorf("%w: a battle needs two distinct players", ErrInvalidInput)
	}

	targets := make(map[string]Word, len(level.Words))
	words := make([]Word, 0, len(level.Words))
	for _, w := range level.Words {
		text := Normalize(w.Text)
		if text == "" {
			continue
		}
		if _, dup := targets[text]; dup {
			continue
		}
		w := Word{Text: text, Length: utf8.RuneCountInString(text)}
		targets[text] = w
		words = append(words, w)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: level %q has no words", ErrInvalidInput, level.ID)
	}

	letters := make([]string, len(level.Letters))
	copy(letters, level.Letters)

	return &State{
		ID:         id,
		Type:       typ,
		Players:    [2]*Player{newPlayer(a), newPlayer(b)},
		Level:      Level{ID: level.ID, Letters: letters, Words: words},
		Status:     StatusWaiting,
		Rules:      rules,
		CreatedAt:  now,
		WordOwners: map[string]string{},
		targets:    targets,
	}, nil
}

func newPlayer(id protocol.Identity) *Player {
	return &Player{Identity: id, Found: []string{}, found: map[string]struct{}{}}
}

func (s *State) Player(userID string) *Player {
	for _, p := range s.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (s *State) Opponent(userID string) *Player {
	switch userID {
	case s.Players[0].UserID:
		return s.Players[1]
	case s.Players[1].UserID:
		return s.Players[0]
	}
	return nil
}

func (s *State) TotalWords() int {
	return len(s.targets)
}

// Remaining is the time left in an active battle.
func (s *State) Remaining(now time.Time) time.Duration {
	if s.Status != StatusActive {
		if s.Status == StatusWaiting || s.Status == StatusCountdown {
			return s.Rules.Duration
		}
		return 0
	}
	left := s.StartedAt.Add(s.Rules.Duration).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

func (s *State) LevelSnapshot() protocol.LevelSnapshot {
	slots := make([]int, len(s.Level.Words))
	for i, w := range s.Level.Words {
		slots[i] = w.Length
	}
	return protocol.LevelSnapshot{
		ID:         s.Level.ID,
		Letters:    s.Level.Letters,
		Slots:      slots,
		TotalWords: len(s.Level.Words),
	}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// ErrorCode maps engine errors onto the codes sent to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotParticipant):
		return "not_participant"
	case errors.Is(err, ErrBattleNotActive):
		return "battle_not_active"
	case errors.Is(err, ErrBattleOver):
		return "battle_over"
	case errors.Is(err, ErrAlreadyReady):
		return "already_ready"
	case errors.Is(err, ErrReactionThrottled):
		return "reaction_throttled"
	case errors.Is(err, ErrUnsupportedCommand):
		return "unsupported_command"
	default:
		return "internal"
	}
}
