package session

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/DoyleJ11/wordbattle-backend/internal/engine"
	"github.com/DoyleJ11/wordbattle-backend/internal/types"
	"github.com/DoyleJ11/wordbattle-backend/pkg/protocol"
)

type Msg interface{ isSessionMsg() }

// FromClient carries a command from a connected player. Conn receives any
// error reply.
type FromClient struct {
	Cmd  engine.Command
	Conn types.Sender
}

func (FromClient) isSessionMsg() {}

// Attach binds a (new) connection for a player and resumes them.
type Attach struct {
	UserID string
	Conn   types.Sender
}

func (Attach) isSessionMsg() {}

// Detach reports a dropped connection. It is ignored unless Conn is still the
// one bound for the player.
type Detach struct {
	UserID string
	Conn   types.Sender
}

func (Detach) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type timerFired struct {
	key string
	gen uint64
	cmd engine.Command
}

func (timerFired) isSessionMsg() {}

type View struct {
	Status    engine.Status
	Winner    string
	Reason    engine.EndReason
	Bound     []string // players with a live connection
	Timers    []string
	Snapshot  protocol.BattleSnapshot
	Finalized bool
}

// Recorder persists finished battles.
type Recorder interface {
	RecordBattle(ctx context.Context, res engine.Result) error
}

type Config struct {
	Clock    clockwork.Clock
	Recorder Recorder
	// OnEnd runs once after the session has stopped accepting messages.
	OnEnd          func(engine.Result)
	Logger         *zap.Logger
	PersistTimeout time.Duration
}

type timer struct {
	gen uint64
	t   clockwork.Timer
}

// Session owns one battle. Every engine call happens on its loop goroutine.
type Session struct {
	inbox  chan Msg
	done   chan struct{}
	state  *engine.State
	conns  map[string]types.Sender
	timers map[string]timer
	gen    uint64
	clock  clockwork.Clock
	cfg    Config
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc

	finalized bool
	result    *engine.Result
}

func New(parent context.Context, state *engine.State, conns map[string]types.Sender, cfg Config) *Session {
	ctx, cancel := context.WithCancel(parent)
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 5 * time.Second
	}

	s := &Session{
		inbox:  make(chan Msg, 64),
		done:   make(chan struct{}),
		state:  state,
		conns:  make(map[string]types.Sender, 2),
		timers: make(map[string]timer),
		clock:  cfg.Clock,
		cfg:    cfg,
		log:    cfg.Logger.With(zap.String("battle_id", state.ID)),
		ctx:    ctx,
		cancel: cancel,
	}
	for id, c := range conns {
		if c != nil {
			s.conns[id] = c
		}
	}

	go s.run()
	return s
}

func (s *Session) ID() string { return s.state.ID }

// Done is closed once the session has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Send queues m for the session. It never blocks once the session has
// stopped and reports whether m was accepted.
func (s *Session) Send(m Msg) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.inbox <- m:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) run() {
	s.loop()
	s.stopTimers()
	s.cancel()
	close(s.done)

	if s.result != nil && s.cfg.OnEnd != nil {
		s.cfg.OnEnd(*s.result)
	}
}

func (s *Session) loop() {
	s.announce()
	s.arm(timerReady, s.state.Rules.ReadyTimeout, engine.Command{Type: engine.CmdReadyTimeout})

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info("session stopped by parent context")
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case FromClient:
				cmd := msg.Cmd
				cmd.At = s.clock.Now()
				s.apply(cmd, msg.Conn)

			case Attach:
				s.attach(msg)

			case Detach:
				if cur, ok := s.conns[msg.UserID]; !ok || cur != msg.Conn {
					break
				}
				delete(s.conns, msg.UserID)
				s.apply(engine.Command{Type: engine.CmdDisconnect, UserID: msg.UserID, At: s.clock.Now()}, nil)

			case timerFired:
				t, ok := s.timers[msg.key]
				if !ok || t.gen != msg.gen {
					break // superseded
				}
				delete(s.timers, msg.key)
				cmd := msg.cmd
				cmd.At = s.clock.Now()
				s.apply(cmd, nil)

			case GetState:
				msg.Reply <- s.view()

			case Shutdown:
				s.broadcast(types.ServerMessage{
					Type:     protocol.OutBattleError,
					BattleID: s.state.ID,
					Error:    &protocol.Error{Code: "server_shutdown", Message: "server is shutting down"},
				})
				return
			}

			if s.finalized {
				return
			}
		}
	}
}

func (s *Session) apply(cmd engine.Command, from types.Sender) {
	events, err := engine.Apply(s.state, cmd)
	if err != nil {
		if errors.Is(err, engine.ErrNotParticipant) {
			s.log.Warn("command from non-participant",
				zap.String("user_id", cmd.UserID),
				zap.String("command", string(cmd.Type)))
		}
		if from != nil {
			from.Send(types.ServerMessage{
				Type:     protocol.OutError,
				BattleID: s.state.ID,
				Error:    &protocol.Error{Code: engine.ErrorCode(err), Message: err.Error()},
			})
		}
		return
	}

	for _, ev := range events {
		s.emit(ev)
	}
	if s.state.Status.Terminal() {
		s.finalize()
	}
}

func (s *Session) attach(msg Attach) {
	if s.state.Player(msg.UserID) == nil || msg.Conn == nil {
		return
	}
	s.conns[msg.UserID] = msg.Conn

	events, err := engine.Apply(s.state, engine.Command{Type: engine.CmdReconnect, UserID: msg.UserID, At: s.clock.Now()})
	if err == nil && engine.ContainsEvent(events, engine.EvtPlayerReconnected) {
		for _, ev := range events {
			s.emit(ev)
		}
		if s.state.Status.Terminal() {
			s.finalize()
		}
		return
	}
	// Not flagged disconnected (e.g. a reload beat the old socket's close):
	// still give the new connection the current state.
	s.sendTo(msg.UserID, protocol.OutBattleState, s.snapshot())
}

func (s *Session) view() View {
	v := View{
		Status:    s.state.Status,
		Winner:    s.state.Winner,
		Reason:    s.state.EndReason,
		Snapshot:  s.snapshot(),
		Finalized: s.finalized,
	}
	for id := range s.conns {
		v.Bound = append(v.Bound, id)
	}
	for key := range s.timers {
		v.Timers = append(v.Timers, key)
	}
	slices.Sort(v.Bound)
	slices.Sort(v.Timers)
	return v
}
