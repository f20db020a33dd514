package engine

import (
	"errors"
	"time"

	"github.com/DoyleJ11/wordbattle-backend/pkg/protocol"
)

var ErrInvalidInput = errors.New("invalid input")
var ErrNotParticipant = errors.New("not a participant in this battle")
var ErrBattleNotActive = errors.New("battle is not active")
var ErrBattleOver = errors.New("battle already finished")
var ErrAlreadyReady = errors.New("player already ready")
var ErrReactionThrottled = errors.New("reaction throttled")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusCountdown Status = "countdown"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type BattleType string

const (
	TypeQuick  BattleType = "quick"
	TypeFriend BattleType = "friend"
)

type EndReason string

const (
	ReasonAllWordsFound EndReason = "all_words_found"
	ReasonTimeUp        EndReason = "time_up"
	ReasonForfeit       EndReason = "forfeit"
	ReasonDisconnect    EndReason = "disconnect"
	ReasonAbandoned     EndReason = "abandoned"
	ReasonCancelled     EndReason = "cancelled"
	ReasonReadyTimeout  EndReason = "ready_timeout"
)

type Word struct {
	Text   string
	Length int
}

// Level is the immutable snapshot a battle is played on.
type Level struct {
	ID      string
	Letters []string
	Words   []Word
}

type Player struct {
	protocol.Identity
	Ready          bool
	Found          []string
	Score          int
	FirstWordAt    *time.Time
	CompletedAt    *time.Time
	DisconnectedAt *time.Time
	ReconnectedAt  *time.Time
	LastSubmitAt   time.Time
	Reactions      int
	LastReactionAt time.Time

	found map[string]struct{}
}

func (p *Player) HasFound(word string) bool {
	_, ok := p.found[word]
	return ok
}

func (p *Player) Connected() bool {
	return p.DisconnectedAt == nil
}

type Rules struct {
	Countdown         time.Duration
	Duration          time.Duration
	Grace             time.Duration
	ReadyTimeout      time.Duration
	MinSubmitInterval time.Duration
	// Client-reported solve times below this are logged, never rejected.
	SuspiciousBelow  time.Duration
	ReactionCooldown time.Duration
	MaxReactions     int
	BasePoints       int
	LongWordLength   int
	LongWordBonus    int
	FirstFinderBonus int
}

type State struct {
	ID         string
	Type       BattleType
	Players    [2]*Player
	Level      Level
	Status     Status
	Rules      Rules
	CreatedAt  time.Time
	StartedAt  time.Time
	EndedAt    time.Time
	WordOwners map[string]string
	Winner     string
	EndReason  EndReason

	targets map[string]Word
}

type CommandType string

const (
	CmdReady            CommandType = "Ready"
	CmdCountdownExpired CommandType = "CountdownExpired"
	CmdSubmitWord       CommandType = "SubmitWord"
	CmdTyping           CommandType = "Typing"
	CmdReaction         CommandType = "Reaction"
	CmdDisconnect       CommandType = "Disconnect"
	CmdReconnect        CommandType = "Reconnect"
	CmdLeave            CommandType = "Leave"
	CmdDurationExpired  CommandType = "DurationExpired"
	CmdGraceExpired     CommandType = "GraceExpired"
	CmdReadyTimeout     CommandType = "ReadyTimeout"
)

/*
	CmdReady           -> EvtPlayerReady -> EvtCountdownStarted (once both are ready)
	CmdCountdownExpired -> EvtBattleStarted
	CmdSubmitWord      -> EvtWordAccepted | EvtWordRejected -> EvtBattleEnded (all words found)
	CmdDisconnect      -> EvtPlayerDisconnected, or EvtBattleEnded before the battle started
	CmdReconnect       -> EvtPlayerReconnected -> EvtBattleEnded (opponent still away past grace)
	CmdLeave           -> EvtBattleEnded (forfeit when active, cancelled before)
	CmdTyping, CmdReaction -> EvtTyping, EvtReaction (active only)
	CmdDurationExpired -> EvtBattleEnded
	CmdGraceExpired    -> EvtBattleEnded (forfeit or abandoned) or nothing if already back
	CmdReadyTimeout    -> EvtBattleEnded (cancelled)
*/

type Command struct {
	Type      CommandType
	UserID    string
	Word      string
	Typing    bool
	Emoji     string
	TimeTaken time.Duration // as reported by the client
	At        time.Time
}

type EventType string

const (
	EvtPlayerReady        EventType = "PlayerReady"
	EvtCountdownStarted   EventType = "CountdownStarted"
	EvtBattleStarted      EventType = "BattleStarted"
	EvtWordAccepted       EventType = "WordAccepted"
	EvtWordRejected       EventType = "WordRejected"
	EvtTyping             EventType = "Typing"
	EvtReaction           EventType = "Reaction"
	EvtPlayerDisconnected EventType = "PlayerDisconnected"
	EvtPlayerReconnected  EventType = "PlayerReconnected"
	EvtBattleEnded        EventType = "BattleEnded"
)

type Event struct {
	Type       EventType
	UserID     string
	Word       string
	Delta      int
	Score      int
	First      bool
	Outcome    Outcome
	Suspicious bool
	Typing     bool
	Emoji      string
}

// Apply runs cmd against s, mutating it in place. Callers must serialize
// calls for the same state.
func Apply(s *State, cmd Command) ([]Event, error) {
	if s.Status.Terminal() {
		return nil, ErrBattleOver
	}

	switch cmd.Type {
	case CmdReady:
		p := s.Player(cmd.UserID)
		if p == nil {
			return nil, ErrNotParticipant
		}
		if s.Status != StatusWaiting {
			return nil, ErrBattleNotActive
		}
		if p.Ready {
			return nil, ErrAlreadyReady
		}
		p.Ready = true
		events := []Event{{Type: EvtPlayerReady, UserID: p.UserID}}

		if s.Players[0].Ready && s.Players[1].Ready {
			s.Status = StatusCountdown
			events = append(events, Event{Type: EvtCountdownStarted})
		}
		return events, nil

	case CmdCountdownExpired:
		if s.Status != StatusCountdown {
			return nil, nil
		}
		s.Status = StatusActive
		s.StartedAt = cmd.At
		return []Event{{Type: EvtBattleStarted}}, nil

	case CmdSubmitWord:
		sub, err := SubmitWord(s, cmd.UserID, cmd.Word, cmd.At)
		if err != nil {
			return nil, err
		}
		suspicious := cmd.TimeTaken > 0 && cmd.TimeTaken < s.Rules.SuspiciousBelow

		if sub.Outcome != OutcomeAccepted {
			return []Event{{
				Type:       EvtWordRejected,
				UserID:     cmd.UserID,
				Word:       sub.Word,
				Outcome:    sub.Outcome,
				Suspicious: suspicious,
			}}, nil
		}

		events := []Event{{
			Type:       EvtWordAccepted,
			UserID:     cmd.UserID,
			Word:       sub.Word,
			Delta:      sub.Delta,
			Score:      s.Player(cmd.UserID).Score,
			First:      sub.First,
			Outcome:    sub.Outcome,
			Suspicious: suspicious,
		}}
		if sub.Finalize {
			events = append(events, finish(s, StatusCompleted, resolvedWinner(s), ReasonAllWordsFound, cmd.At)...)
		}
		return events, nil

	case CmdTyping:
		if s.Player(cmd.UserID) == nil {
			return nil, ErrNotParticipant
		}
		if s.Status != StatusActive {
			return nil, ErrBattleNotActive
		}
		return []Event{{Type: EvtTyping, UserID: cmd.UserID, Typing: cmd.Typing}}, nil

	case CmdReaction:
		p := s.Player(cmd.UserID)
		if p == nil {
			return nil, ErrNotParticipant
		}
		if s.Status != StatusActive {
			return nil, ErrBattleNotActive
		}
		if cmd.Emoji == "" {
			return nil, ErrInvalidInput
		}
		if p.Reactions >= s.Rules.MaxReactions {
			return nil, ErrReactionThrottled
		}
		if !p.LastReactionAt.IsZero() && cmd.At.Sub(p.LastReactionAt) < s.Rules.ReactionCooldown {
			return nil, ErrReactionThrottled
		}
		p.Reactions++
		p.LastReactionAt = cmd.At
		return []Event{{Type: EvtReaction, UserID: p.UserID, Emoji: cmd.Emoji}}, nil

	case CmdDisconnect:
		p := s.Player(cmd.UserID)
		if p == nil {
			return nil, ErrNotParticipant
		}
		if s.Status != StatusActive {
			return finish(s, StatusCancelled, "", ReasonCancelled, cmd.At), nil
		}
		if p.DisconnectedAt != nil {
			return nil, nil
		}
		at := cmd.At
		p.DisconnectedAt = &at
		return []Event{{Type: EvtPlayerDisconnected, UserID: p.UserID}}, nil

	case CmdReconnect:
		p := s.Player(cmd.UserID)
		if p == nil {
			return nil, ErrNotParticipant
		}
		if p.DisconnectedAt == nil {
			return nil, nil
		}
		at := cmd.At
		p.DisconnectedAt = nil
		p.ReconnectedAt = &at
		events := []Event{{Type: EvtPlayerReconnected, UserID: p.UserID}}

		// The opponent's grace timer may already have fired while this player
		// was away too, so their forfeit is settled here.
		if opp := s.Opponent(p.UserID); s.Status == StatusActive && graceElapsed(s, opp, cmd.At) {
			events = append(events, finish(s, StatusCompleted, p.UserID, ReasonDisconnect, cmd.At)...)
		}
		return events, nil

	case CmdLeave:
		p := s.Player(cmd.UserID)
		if p == nil {
			return nil, ErrNotParticipant
		}
		if s.Status != StatusActive {
			return finish(s, StatusCancelled, "", ReasonCancelled, cmd.At), nil
		}
		return finish(s, StatusCompleted, s.Opponent(p.UserID).UserID, ReasonForfeit, cmd.At), nil

	case CmdDurationExpired:
		if s.Status != StatusActive {
			return nil, nil
		}
		return finish(s, StatusCompleted, resolvedWinner(s), ReasonTimeUp, cmd.At), nil

	case CmdGraceExpired:
		p := s.Player(cmd.UserID)
		if p == nil {
			return nil, ErrNotParticipant
		}
		if s.Status != StatusActive || !graceElapsed(s, p, cmd.At) {
			return nil, nil
		}

		opp := s.Opponent(p.UserID)
		if opp.DisconnectedAt == nil {
			return finish(s, StatusCompleted, opp.UserID, ReasonDisconnect, cmd.At), nil
		}
		// Both gone: only end once the opponent's grace has run out too.
		if !graceElapsed(s, opp, cmd.At) {
			return nil, nil
		}
		return finish(s, StatusCompleted, "", ReasonAbandoned, cmd.At), nil

	case CmdReadyTimeout:
		if s.Status != StatusWaiting {
			return nil, nil
		}
		return finish(s, StatusCancelled, "", ReasonReadyTimeout, cmd.At), nil

	default:
		return nil, ErrUnsupportedCommand
	}
}

// finish is the single terminal transition. It is a no-op once the battle
// has ended, so racing end conditions produce exactly one EvtBattleEnded.
func finish(s *State, status Status, winner string, reason EndReason, at time.Time) []Event {
	if s.Status.Terminal() {
		return nil
	}
	s.Status = status
	s.Winner = winner
	s.EndReason = reason
	s.EndedAt = at
	return []Event{{Type: EvtBattleEnded, UserID: winner}}
}

func graceElapsed(s *State, p *Player, now time.Time) bool {
	return p.DisconnectedAt != nil && now.Sub(*p.DisconnectedAt) >= s.Rules.Grace
}

func resolvedWinner(s *State) string {
	if w := ResolveWinner(s.Players[0], s.Players[1]); w != nil {
		return w.UserID
	}
	return ""
}
