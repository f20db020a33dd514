package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/wordbattle-backend/pkg/protocol"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var (
	alice = protocol.Identity{UserID: "u-alice", Username: "alice"}
	bob   = protocol.Identity{UserID: "u-bob", Username: "bob"}
)

func testLevel() Level {
	return Level{
		ID:      "lvl-1",
		Letters: []string{"S", "T", "A", "R", "E", "D"},
		Words:   []Word{{Text: "star"}, {Text: "rate"}, {Text: "stared"}, {Text: "dare"}},
	}
}

func newWaitingState(t *testing.T) *State {
	t.Helper()
	s, err := NewState("b-1", TypeQuick, alice, bob, testLevel(), DefaultRules(), t0)
	require.NoError(t, err)
	return s
}

// newActiveState returns a battle that went active at t0.
func newActiveState(t *testing.T) *State {
	t.Helper()
	s := newWaitingState(t)
	mustApply(t, s, Command{Type: CmdReady, UserID: alice.UserID, At: t0})
	mustApply(t, s, Command{Type: CmdReady, UserID: bob.UserID, At: t0})
	mustApply(t, s, Command{Type: CmdCountdownExpired, At: t0})
	require.Equal(t, StatusActive, s.Status)
	return s
}

func mustApply(t *testing.T, s *State, cmd Command) []Event {
	t.Helper()
	events, err := Apply(s, cmd)
	require.NoError(t, err)
	return events
}

func at(d time.Duration) time.Time { return t0.Add(d) }

func TestNewState_Validation(t *testing.T) {
	cases := []struct {
		name  string
		a, b  protocol.Identity
		level Level
	}{
		{name: "same player twice", a: alice, b: alice, level: testLevel()},
		{name: "missing player", a: alice, b: protocol.Identity{}, level: testLevel()},
		{name: "level without words", a: alice, b: bob, level: Level{ID: "empty", Words: []Word{{Text: "  "}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewState("b-1", TypeQuick, tc.a, tc.b, tc.level, DefaultRules(), t0)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestNewState_DedupesAndNormalizesWords(t *testing.T) {
	level := testLevel()
	level.Words = append(level.Words, Word{Text: " Star "})

	s, err := NewState("b-1", TypeQuick, alice, bob, level, DefaultRules(), t0)
	require.NoError(t, err)
	assert.Equal(t, 4, s.TotalWords())
	assert.Equal(t, []int{4, 4, 6, 4}, s.LevelSnapshot().Slots)
}

func TestLifecycle_ReadyCountdownActive(t *testing.T) {
	s := newWaitingState(t)

	events := mustApply(t, s, Command{Type: CmdReady, UserID: alice.UserID, At: t0})
	assert.True(t, ContainsEvent(events, EvtPlayerReady))
	assert.False(t, ContainsEvent(events, EvtCountdownStarted))
	assert.Equal(t, StatusWaiting, s.Status)

	_, err := Apply(s, Command{Type: CmdReady, UserID: alice.UserID, At: t0})
	assert.ErrorIs(t, err, ErrAlreadyReady)

	events = mustApply(t, s, Command{Type: CmdReady, UserID: bob.UserID, At: t0})
	assert.True(t, ContainsEvent(events, EvtCountdownStarted))
	assert.Equal(t, StatusCountdown, s.Status)

	_, err = Apply(s, Command{Type: CmdReady, UserID: bob.UserID, At: t0})
	assert.ErrorIs(t, err, ErrBattleNotActive)

	events = mustApply(t, s, Command{Type: CmdCountdownExpired, At: at(3 * time.Second)})
	assert.True(t, ContainsEvent(events, EvtBattleStarted))
	assert.Equal(t, StatusActive, s.Status)
	assert.Equal(t, at(3*time.Second), s.StartedAt)
	assert.Equal(t, 120*time.Second, s.Remaining(at(3*time.Second)))
	assert.Equal(t, 20*time.Second, s.Remaining(at(103*time.Second)))

	// A second countdown fire is stale and changes nothing.
	events = mustApply(t, s, Command{Type: CmdCountdownExpired, At: at(4 * time.Second)})
	assert.Empty(t, events)
	assert.Equal(t, at(3*time.Second), s.StartedAt)
}

func TestSubmitWord_Scoring(t *testing.T) {
	s := newActiveState(t)

	sub, err := SubmitWord(s, alice.UserID, "star", at(time.Second))
	require.NoError(t, err)
	assert.Equal(t, Submission{Outcome: OutcomeAccepted, Word: "STAR", Delta: 15, First: true}, sub)

	sub, err = SubmitWord(s, bob.UserID, "STAR", at(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, sub.Outcome)
	assert.Equal(t, 10, sub.Delta)
	assert.False(t, sub.First)

	sub, err = SubmitWord(s, alice.UserID, "stared", at(3*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 25, sub.Delta, "base + long word + first finder")

	assert.Equal(t, 40, s.Player(alice.UserID).Score)
	assert.Equal(t, 10, s.Player(bob.UserID).Score)
	assert.Equal(t, alice.UserID, s.WordOwners["STAR"])
	assert.Equal(t, alice.UserID, s.WordOwners["STARED"])
	require.NotNil(t, s.Player(alice.UserID).FirstWordAt)
	assert.Equal(t, at(time.Second), *s.Player(alice.UserID).FirstWordAt)
}

func TestSubmitWord_NormalizesInput(t *testing.T) {
	s := newActiveState(t)

	sub, err := SubmitWord(s, alice.UserID, "  sTaR\t", at(time.Second))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, sub.Outcome)
	assert.Equal(t, "STAR", sub.Word)
}

func TestSubmitWord_RejectsBadInput(t *testing.T) {
	s := newActiveState(t)

	_, err := SubmitWord(s, alice.UserID, "   ", at(time.Second))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = SubmitWord(s, "u-mallory", "star", at(time.Second))
	assert.ErrorIs(t, err, ErrNotParticipant)
	assert.Empty(t, s.WordOwners)
}

func TestSubmitWord_DuplicateRejectedAfterAcceptance(t *testing.T) {
	s := newActiveState(t)

	sub, err := SubmitWord(s, alice.UserID, "rate", at(time.Second))
	require.NoError(t, err)
	require.Equal(t, OutcomeAccepted, sub.Outcome)

	for i := 2; i < 5; i++ {
		sub, err = SubmitWord(s, alice.UserID, "RATE", at(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.Equal(t, OutcomeDuplicate, sub.Outcome)
	}
	assert.Equal(t, []string{"RATE"}, s.Player(alice.UserID).Found)
	assert.Equal(t, 15, s.Player(alice.UserID).Score)
}

func TestSubmitWord_NonTargetIsInvalidWordInEveryStatus(t *testing.T) {
	setups := map[Status]func(t *testing.T) *State{
		StatusWaiting: newWaitingState,
		StatusCountdown: func(t *testing.T) *State {
			s := newWaitingState(t)
			mustApply(t, s, Command{Type: CmdReady, UserID: alice.UserID, At: t0})
			mustApply(t, s, Command{Type: CmdReady, UserID: bob.UserID, At: t0})
			return s
		},
		StatusActive: newActiveState,
		StatusCompleted: func(t *testing.T) *State {
			s := newActiveState(t)
			mustApply(t, s, Command{Type: CmdDurationExpired, At: at(2 * time.Minute)})
			return s
		},
	}

	for status, setup := range setups {
		t.Run(string(status), func(t *testing.T) {
			s := setup(t)
			require.Equal(t, status, s.Status)

			sub, err := SubmitWord(s, alice.UserID, "zebra", at(5*time.Second))
			require.NoError(t, err)
			assert.Equal(t, OutcomeInvalidWord, sub.Outcome)
		})
	}
}

func TestSubmitWord_TargetWordOutsideActiveIsInvalid(t *testing.T) {
	s := newWaitingState(t)

	sub, err := SubmitWord(s, alice.UserID, "star", at(time.Second))
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, sub.Outcome)
	assert.Empty(t, s.Player(alice.UserID).Found)
}

func TestSubmitWord_RateLimited(t *testing.T) {
	s := newActiveState(t)

	sub, _ := SubmitWord(s, alice.UserID, "star", at(0))
	require.Equal(t, OutcomeAccepted, sub.Outcome)

	sub, _ = SubmitWord(s, alice.UserID, "rate", at(50*time.Millisecond))
	assert.Equal(t, OutcomeRateLimited, sub.Outcome, "valid unfound word inside the interval")

	// The rejected attempt moved the window: 70ms after it is still too soon.
	sub, _ = SubmitWord(s, alice.UserID, "rate", at(120*time.Millisecond))
	assert.Equal(t, OutcomeRateLimited, sub.Outcome)

	// Other players are throttled independently.
	sub, _ = SubmitWord(s, bob.UserID, "rate", at(130*time.Millisecond))
	assert.Equal(t, OutcomeAccepted, sub.Outcome)

	sub, _ = SubmitWord(s, alice.UserID, "rate", at(220*time.Millisecond))
	assert.Equal(t, OutcomeAccepted, sub.Outcome)
	assert.False(t, sub.First)
}

func TestApply_AllWordsFoundCompletesBattle(t *testing.T) {
	s := newActiveState(t)

	var events []Event
	for i, w := range []string{"star", "rate", "stared", "dare"} {
		events = mustApply(t, s, Command{Type: CmdSubmitWord, UserID: alice.UserID, Word: w, At: at(time.Duration(i+1) * time.Second)})
	}

	require.True(t, ContainsEvent(events, EvtBattleEnded))
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, alice.UserID, s.Winner)
	assert.Equal(t, ReasonAllWordsFound, s.EndReason)
	require.NotNil(t, s.Player(alice.UserID).CompletedAt)
	assert.Equal(t, at(4*time.Second), *s.Player(alice.UserID).CompletedAt)
}

func TestApply_SuspiciousSolveTimeIsFlaggedNotRejected(t *testing.T) {
	s := newActiveState(t)

	events := mustApply(t, s, Command{Type: CmdSubmitWord, UserID: alice.UserID, Word: "star", TimeTaken: 20 * time.Millisecond, At: at(time.Second)})
	require.Len(t, events, 1)
	assert.Equal(t, EvtWordAccepted, events[0].Type)
	assert.True(t, events[0].Suspicious)
}

func TestApply_FinishIsOnlyAppliedOnce(t *testing.T) {
	s := newActiveState(t)
	mustApply(t, s, Command{Type: CmdSubmitWord, UserID: bob.UserID, Word: "star", At: at(time.Second)})

	events := mustApply(t, s, Command{Type: CmdDurationExpired, At: at(120 * time.Second)})
	require.True(t, ContainsEvent(events, EvtBattleEnded))
	assert.Equal(t, bob.UserID, s.Winner)

	for _, cmd := range []Command{
		{Type: CmdDurationExpired, At: at(121 * time.Second)},
		{Type: CmdLeave, UserID: bob.UserID, At: at(121 * time.Second)},
		{Type: CmdGraceExpired, UserID: alice.UserID, At: at(121 * time.Second)},
	} {
		events, err := Apply(s, cmd)
		assert.ErrorIs(t, err, ErrBattleOver)
		assert.Empty(t, events)
	}
	assert.Equal(t, bob.UserID, s.Winner)
	assert.Equal(t, at(120*time.Second), s.EndedAt)
}

func TestApply_LeaveWhileActiveForfeits(t *testing.T) {
	s := newActiveState(t)
	mustApply(t, s, Command{Type: CmdSubmitWord, UserID: alice.UserID, Word: "stared", At: at(time.Second)})

	events := mustApply(t, s, Command{Type: CmdLeave, UserID: alice.UserID, At: at(2 * time.Second)})
	require.True(t, ContainsEvent(events, EvtBattleEnded))
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, bob.UserID, s.Winner, "forfeit bypasses the comparator")
	assert.Equal(t, ReasonForfeit, s.EndReason)
}

func TestApply_LeaveBeforeStartCancels(t *testing.T) {
	s := newWaitingState(t)

	events := mustApply(t, s, Command{Type: CmdLeave, UserID: bob.UserID, At: at(time.Second)})
	require.True(t, ContainsEvent(events, EvtBattleEnded))
	assert.Equal(t, StatusCancelled, s.Status)
	assert.Empty(t, s.Winner)

	res := Summarize(s)
	assert.Equal(t, StandingNone, res.Players[0].Standing)
	assert.Equal(t, StandingNone, res.Players[1].Standing)
	assert.Zero(t, res.Duration)
}

func TestApply_ReadyTimeout(t *testing.T) {
	s := newWaitingState(t)
	mustApply(t, s, Command{Type: CmdReady, UserID: alice.UserID, At: t0})

	events := mustApply(t, s, Command{Type: CmdReadyTimeout, At: at(30 * time.Second)})
	require.True(t, ContainsEvent(events, EvtBattleEnded))
	assert.Equal(t, StatusCancelled, s.Status)
	assert.Equal(t, ReasonReadyTimeout, s.EndReason)

	active := newActiveState(t)
	events = mustApply(t, active, Command{Type: CmdReadyTimeout, At: at(30 * time.Second)})
	assert.Empty(t, events)
	assert.Equal(t, StatusActive, active.Status)
}

func TestApply_DisconnectAndReconnectWithinGrace(t *testing.T) {
	s := newActiveState(t)

	events := mustApply(t, s, Command{Type: CmdDisconnect, UserID: alice.UserID, At: at(time.Second)})
	require.True(t, ContainsEvent(events, EvtPlayerDisconnected))
	assert.False(t, s.Player(alice.UserID).Connected())

	events = mustApply(t, s, Command{Type: CmdDisconnect, UserID: alice.UserID, At: at(2 * time.Second)})
	assert.Empty(t, events, "already disconnected")

	events = mustApply(t, s, Command{Type: CmdGraceExpired, UserID: alice.UserID, At: at(5 * time.Second)})
	assert.Empty(t, events, "grace not yet elapsed")

	events = mustApply(t, s, Command{Type: CmdReconnect, UserID: alice.UserID, At: at(8 * time.Second)})
	require.True(t, ContainsEvent(events, EvtPlayerReconnected))
	require.NotNil(t, s.Player(alice.UserID).ReconnectedAt)
	assert.True(t, s.Player(alice.UserID).Connected())

	events = mustApply(t, s, Command{Type: CmdGraceExpired, UserID: alice.UserID, At: at(11 * time.Second)})
	assert.Empty(t, events)
	assert.Equal(t, StatusActive, s.Status)
}

func TestApply_GraceExpiryForfeits(t *testing.T) {
	s := newActiveState(t)
	// Alice is ahead but never comes back.
	mustApply(t, s, Command{Type: CmdSubmitWord, UserID: alice.UserID, Word: "stared", At: at(time.Second)})
	mustApply(t, s, Command{Type: CmdDisconnect, UserID: alice.UserID, At: at(2 * time.Second)})

	events := mustApply(t, s, Command{Type: CmdGraceExpired, UserID: alice.UserID, At: at(12 * time.Second)})
	require.True(t, ContainsEvent(events, EvtBattleEnded))
	assert.Equal(t, bob.UserID, s.Winner)
	assert.Equal(t, ReasonDisconnect, s.EndReason)
}

func TestApply_BothDisconnectedEndsAsDraw(t *testing.T) {
	s := newActiveState(t)
	mustApply(t, s, Command{Type: CmdSubmitWord, UserID: alice.UserID, Word: "star", At: at(time.Second)})
	mustApply(t, s, Command{Type: CmdDisconnect, UserID: alice.UserID, At: at(2 * time.Second)})
	mustApply(t, s, Command{Type: CmdDisconnect, UserID: bob.UserID, At: at(5 * time.Second)})

	events := mustApply(t, s, Command{Type: CmdGraceExpired, UserID: alice.UserID, At: at(12 * time.Second)})
	assert.Empty(t, events, "waits for bob's grace to run out")
	assert.Equal(t, StatusActive, s.Status)

	events = mustApply(t, s, Command{Type: CmdGraceExpired, UserID: bob.UserID, At: at(15 * time.Second)})
	require.True(t, ContainsEvent(events, EvtBattleEnded))
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Empty(t, s.Winner)
	assert.Equal(t, ReasonAbandoned, s.EndReason)
	assert.True(t, Summarize(s).Draw())
}

func TestApply_StaggeredDisconnectStillForfeits(t *testing.T) {
	s := newActiveState(t)
	mustApply(t, s, Command{Type: CmdSubmitWord, UserID: alice.UserID, Word: "stared", At: at(time.Second)})
	mustApply(t, s, Command{Type: CmdDisconnect, UserID: alice.UserID, At: at(3 * time.Second)})
	mustApply(t, s, Command{Type: CmdDisconnect, UserID: bob.UserID, At: at(8 * time.Second)})

	events := mustApply(t, s, Command{Type: CmdGraceExpired, UserID: alice.UserID, At: at(13 * time.Second)})
	assert.Empty(t, events, "bob is still inside his grace window")

	events = mustApply(t, s, Command{Type: CmdReconnect, UserID: bob.UserID, At: at(14 * time.Second)})
	require.True(t, ContainsEvent(events, EvtPlayerReconnected))
	require.True(t, ContainsEvent(events, EvtBattleEnded))
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, bob.UserID, s.Winner, "alice never came back")
	assert.Equal(t, ReasonDisconnect, s.EndReason)
}

func TestApply_ReconnectWhileOpponentInsideGraceKeepsPlaying(t *testing.T) {
	s := newActiveState(t)
	mustApply(t, s, Command{Type: CmdDisconnect, UserID: alice.UserID, At: at(3 * time.Second)})
	mustApply(t, s, Command{Type: CmdDisconnect, UserID: bob.UserID, At: at(4 * time.Second)})

	events := mustApply(t, s, Command{Type: CmdReconnect, UserID: bob.UserID, At: at(6 * time.Second)})
	assert.False(t, ContainsEvent(events, EvtBattleEnded))
	assert.Equal(t, StatusActive, s.Status)

	events = mustApply(t, s, Command{Type: CmdGraceExpired, UserID: alice.UserID, At: at(13 * time.Second)})
	require.True(t, ContainsEvent(events, EvtBattleEnded))
	assert.Equal(t, bob.UserID, s.Winner)
}

func TestApply_DisconnectBeforeStartCancels(t *testing.T) {
	s := newWaitingState(t)

	events := mustApply(t, s, Command{Type: CmdDisconnect, UserID: alice.UserID, At: at(time.Second)})
	require.True(t, ContainsEvent(events, EvtBattleEnded))
	assert.Equal(t, StatusCancelled, s.Status)
}

func TestApply_ReactionsAreThrottledAndCapped(t *testing.T) {
	s := newActiveState(t)
	s.Rules.MaxReactions = 2

	mustApply(t, s, Command{Type: CmdReaction, UserID: alice.UserID, Emoji: "🔥", At: at(0)})

	_, err := Apply(s, Command{Type: CmdReaction, UserID: alice.UserID, Emoji: "🔥", At: at(5 * time.Second)})
	assert.ErrorIs(t, err, ErrReactionThrottled, "inside cooldown")

	mustApply(t, s, Command{Type: CmdReaction, UserID: alice.UserID, Emoji: "😂", At: at(10 * time.Second)})

	_, err = Apply(s, Command{Type: CmdReaction, UserID: alice.UserID, Emoji: "😂", At: at(time.Minute)})
	assert.ErrorIs(t, err, ErrReactionThrottled, "over the per-battle cap")

	_, err = Apply(s, Command{Type: CmdReaction, UserID: bob.UserID, At: at(time.Minute)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestApply_ReactionsOnlyWhileActive(t *testing.T) {
	s := newWaitingState(t)
	_, err := Apply(s, Command{Type: CmdReaction, UserID: alice.UserID, Emoji: "🔥", At: at(0)})
	assert.ErrorIs(t, err, ErrBattleNotActive)

	mustApply(t, s, Command{Type: CmdReady, UserID: alice.UserID, At: t0})
	mustApply(t, s, Command{Type: CmdReady, UserID: bob.UserID, At: t0})
	require.Equal(t, StatusCountdown, s.Status)
	_, err = Apply(s, Command{Type: CmdReaction, UserID: alice.UserID, Emoji: "🔥", At: at(time.Second)})
	assert.ErrorIs(t, err, ErrBattleNotActive)
	assert.Zero(t, s.Player(alice.UserID).Reactions, "rejected reactions do not count toward the cap")
}

func TestApply_UnsupportedCommand(t *testing.T) {
	s := newActiveState(t)
	_, err := Apply(s, Command{Type: "Teleport", UserID: alice.UserID})
	assert.True(t, errors.Is(err, ErrUnsupportedCommand))
	assert.Equal(t, "unsupported_command", ErrorCode(err))
}

func TestFirstFinderIsUniqueAndChronological(t *testing.T) {
	s := newActiveState(t)
	type attempt struct {
		user string
		word string
	}
	attempts := []attempt{
		{bob.UserID, "dare"}, {alice.UserID, "dare"}, {alice.UserID, "star"},
		{bob.UserID, "star"}, {bob.UserID, "rate"}, {alice.UserID, "rate"},
		{alice.UserID, "nope"}, {bob.UserID, "dare"}, {alice.UserID, "stared"},
	}

	firstAccepted := map[string]string{}
	for i, a := range attempts {
		sub, err := SubmitWord(s, a.user, a.word, at(time.Duration(i+1)*time.Second))
		require.NoError(t, err)
		if sub.Outcome == OutcomeAccepted {
			if _, seen := firstAccepted[sub.Word]; !seen {
				firstAccepted[sub.Word] = a.user
			}
		}
	}

	total := 0
	for _, p := range s.Players {
		total += len(p.Found)
	}
	assert.LessOrEqual(t, total, 2*s.TotalWords())
	assert.Equal(t, firstAccepted, s.WordOwners)
}

func TestResolveWinner(t *testing.T) {
	t1 := at(time.Second)
	t2 := at(2 * time.Second)

	player := func(id string, words, score int, completed *time.Time) *Player {
		p := newPlayer(protocol.Identity{UserID: id})
		for i := 0; i < words; i++ {
			p.Found = append(p.Found, fmt.Sprintf("W%d", i))
		}
		p.Score = score
		p.CompletedAt = completed
		return p
	}

	cases := []struct {
		name string
		a, b *Player
		want string
	}{
		{"more words wins", player("a", 5, 40, nil), player("b", 3, 90, nil), "a"},
		{"more words wins (b)", player("a", 3, 90, nil), player("b", 5, 40, nil), "b"},
		{"higher score breaks word tie", player("a", 4, 50, nil), player("b", 4, 60, nil), "b"},
		{"earlier completion breaks score tie", player("a", 4, 50, &t1), player("b", 4, 50, &t2), "a"},
		{"later completion loses", player("a", 4, 50, &t2), player("b", 4, 50, &t1), "b"},
		{"equal completion is a draw", player("a", 4, 50, &t1), player("b", 4, 50, &t1), ""},
		{"one missing completion is a draw", player("a", 4, 50, &t1), player("b", 4, 50, nil), ""},
		{"both missing completion is a draw", player("a", 4, 50, nil), player("b", 4, 50, nil), ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveWinner(tc.a, tc.b)
			if tc.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got.UserID)
		})
	}
}

func TestSummarize(t *testing.T) {
	s := newActiveState(t)
	mustApply(t, s, Command{Type: CmdSubmitWord, UserID: alice.UserID, Word: "star", At: at(time.Second)})
	mustApply(t, s, Command{Type: CmdSubmitWord, UserID: bob.UserID, Word: "stared", At: at(2 * time.Second)})
	mustApply(t, s, Command{Type: CmdSubmitWord, UserID: bob.UserID, Word: "rate", At: at(3 * time.Second)})
	mustApply(t, s, Command{Type: CmdDurationExpired, At: at(120 * time.Second)})

	res := Summarize(s)
	assert.Equal(t, "b-1", res.BattleID)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, bob.UserID, res.Winner)
	assert.Equal(t, ReasonTimeUp, res.Reason)
	assert.Equal(t, 120*time.Second, res.Duration)
	assert.Equal(t, StandingLoss, res.Players[0].Standing)
	assert.Equal(t, StandingWin, res.Players[1].Standing)
	assert.Equal(t, []string{"STARED", "RATE"}, res.Players[1].Words)
	assert.Equal(t, 40, res.Players[1].Score)
	assert.False(t, res.Draw())
}
