package session

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/wordbattle-backend/internal/engine"
	"github.com/DoyleJ11/wordbattle-backend/internal/types"
	"github.com/DoyleJ11/wordbattle-backend/pkg/protocol"
)

const (
	timerReady     = "ready"
	timerCountdown = "countdown"
	timerDuration  = "duration"
	timerGrace     = "grace:"
)

func (s *Session) emit(ev engine.Event) {
	st := s.state
	switch ev.Type {
	case engine.EvtPlayerReady:
		s.sendToOpponent(ev.UserID, protocol.OutOpponentReady, protocol.OpponentReady{UserID: ev.UserID})

	case engine.EvtCountdownStarted:
		s.stop(timerReady)
		s.arm(timerCountdown, st.Rules.Countdown, engine.Command{Type: engine.CmdCountdownExpired})
		s.broadcastData(protocol.OutCountdownStart, protocol.CountdownStart{DurationMs: st.Rules.Countdown.Milliseconds()})

	case engine.EvtBattleStarted:
		s.arm(timerDuration, st.Rules.Duration, engine.Command{Type: engine.CmdDurationExpired})
		s.broadcastData(protocol.OutBattleStart, protocol.BattleStart{
			DurationMs: st.Rules.Duration.Milliseconds(),
			Letters:    st.Level.Letters,
			StartedAt:  st.StartedAt,
		})

	case engine.EvtWordAccepted:
		if ev.Suspicious {
			s.flagSuspicious(ev)
		}
		s.sendTo(ev.UserID, protocol.OutWordAccepted, protocol.WordAccepted{
			Word:  ev.Word,
			Delta: ev.Delta,
			Score: ev.Score,
			First: ev.First,
		})
		s.sendToOpponent(ev.UserID, protocol.OutOpponentWord, protocol.OpponentWord{
			Word:     ev.Word,
			Score:    ev.Score,
			WasFirst: ev.First,
		})

	case engine.EvtWordRejected:
		if ev.Suspicious {
			s.flagSuspicious(ev)
		}
		s.sendTo(ev.UserID, protocol.OutWordRejected, protocol.WordRejected{Word: ev.Word, Reason: string(ev.Outcome)})

	case engine.EvtTyping:
		s.sendToOpponent(ev.UserID, protocol.OutOpponentTyping, protocol.OpponentTyping{Typing: ev.Typing})

	case engine.EvtReaction:
		s.sendToOpponent(ev.UserID, protocol.OutOpponentReaction, protocol.OpponentReaction{Emoji: ev.Emoji})

	case engine.EvtPlayerDisconnected:
		s.log.Info("player disconnected", zap.String("user_id", ev.UserID))
		s.arm(timerGrace+ev.UserID, st.Rules.Grace, engine.Command{Type: engine.CmdGraceExpired, UserID: ev.UserID})
		s.sendToOpponent(ev.UserID, protocol.OutOpponentDisconnected, protocol.OpponentDisconnected{
			UserID:  ev.UserID,
			GraceMs: st.Rules.Grace.Milliseconds(),
		})

	case engine.EvtPlayerReconnected:
		s.log.Info("player reconnected", zap.String("user_id", ev.UserID))
		s.stop(timerGrace + ev.UserID)
		s.sendToOpponent(ev.UserID, protocol.OutOpponentReconnected, protocol.OpponentReconnected{UserID: ev.UserID})
		s.sendTo(ev.UserID, protocol.OutBattleState, s.snapshot())

	case engine.EvtBattleEnded:
		// finalize reads the terminal state directly
	}
}

func (s *Session) flagSuspicious(ev engine.Event) {
	s.log.Warn("suspiciously fast submission",
		zap.String("user_id", ev.UserID),
		zap.String("word", ev.Word),
		zap.String("outcome", string(ev.Outcome)))
}

// finalize runs once per session, right after the engine reports a terminal
// state.
func (s *Session) finalize() {
	if s.finalized {
		return
	}
	s.finalized = true
	s.stopTimers()

	res := engine.Summarize(s.state)
	s.result = &res
	s.broadcastData(protocol.OutBattleEnd, endPayload(res))

	s.log.Info("battle finished",
		zap.String("status", string(res.Status)),
		zap.String("reason", string(res.Reason)),
		zap.String("winner", res.Winner),
		zap.Duration("duration", res.Duration))

	if s.cfg.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), s.cfg.PersistTimeout)
	defer cancel()
	if err := s.cfg.Recorder.RecordBattle(ctx, res); err != nil {
		s.log.Error("record battle", zap.Error(err))
	}
}

func (s *Session) arm(key string, d time.Duration, cmd engine.Command) {
	s.stop(key)
	s.gen++
	gen := s.gen
	t := s.clock.AfterFunc(d, func() {
		s.Send(timerFired{key: key, gen: gen, cmd: cmd})
	})
	s.timers[key] = timer{gen: gen, t: t}
}

func (s *Session) stop(key string) {
	if t, ok := s.timers[key]; ok {
		t.t.Stop()
		delete(s.timers, key)
	}
}

func (s *Session) stopTimers() {
	for key := range s.timers {
		s.stop(key)
	}
}

func (s *Session) snapshot() protocol.BattleSnapshot {
	st := s.state
	snap := protocol.BattleSnapshot{
		BattleID:    st.ID,
		Status:      string(st.Status),
		RemainingMs: st.Remaining(s.clock.Now()).Milliseconds(),
		Level:       st.LevelSnapshot(),
		Players:     make([]protocol.PlayerState, 0, len(st.Players)),
	}
	for _, p := range st.Players {
		snap.Players = append(snap.Players, protocol.PlayerState{
			Identity:  p.Identity,
			Words:     slices.Clone(p.Found),
			Score:     p.Score,
			Ready:     p.Ready,
			Connected: p.Connected(),
		})
	}
	return snap
}

func (s *Session) announce() {
	st := s.state
	level := st.LevelSnapshot()
	for _, p := range st.Players {
		s.sendTo(p.UserID, protocol.OutMatchFound, protocol.MatchFound{
			BattleID: st.ID,
			Type:     string(st.Type),
			Opponent: st.Opponent(p.UserID).Identity,
			Level:    level,
		})
	}
}

func endPayload(res engine.Result) protocol.BattleEnd {
	end := protocol.BattleEnd{
		Status:     string(res.Status),
		Reason:     string(res.Reason),
		DurationMs: res.Duration.Milliseconds(),
		Players:    make([]protocol.PlayerSummary, 0, len(res.Players)),
	}
	if res.Winner != "" {
		w := res.Winner
		end.WinnerID = &w
	}
	for _, p := range res.Players {
		end.Players = append(end.Players, protocol.PlayerSummary{
			Identity:    p.Identity,
			Words:       p.Words,
			WordCount:   len(p.Words),
			Score:       p.Score,
			Result:      string(p.Standing),
			CompletedAt: p.CompletedAt,
		})
	}
	return end
}

func (s *Session) sendTo(userID, typ string, data any) {
	c, ok := s.conns[userID]
	if !ok {
		return
	}
	if !c.Send(types.ServerMessage{Type: typ, BattleID: s.state.ID, Data: data}) {
		s.log.Debug("dropped message for slow client", zap.String("user_id", userID), zap.String("type", typ))
	}
}

func (s *Session) sendToOpponent(userID, typ string, data any) {
	if opp := s.state.Opponent(userID); opp != nil {
		s.sendTo(opp.UserID, typ, data)
	}
}

func (s *Session) broadcastData(typ string, data any) {
	s.broadcast(types.ServerMessage{Type: typ, BattleID: s.state.ID, Data: data})
}

func (s *Session) broadcast(m types.ServerMessage) {
	for id, c := range s.conns {
		if !c.Send(m) {
			s.log.Debug("dropped message for slow client", zap.String("user_id", id), zap.String("type", m.Type))
		}
	}
}
