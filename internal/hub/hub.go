package hub

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/DoyleJ11/wordbattle-backend/internal/catalog"
	"github.com/DoyleJ11/wordbattle-backend/internal/engine"
	"github.com/DoyleJ11/wordbattle-backend/internal/matchmaking"
	"github.com/DoyleJ11/wordbattle-backend/internal/session"
	"github.com/DoyleJ11/wordbattle-backend/internal/types"
	"github.com/DoyleJ11/wordbattle-backend/pkg/protocol"
)

var ErrSessionNotFound = errors.New("battle session not found")
var ErrAlreadyInBattle = errors.New("user is already in a battle")
var ErrUserOffline = errors.New("user is offline")
var ErrBattleStarting = errors.New("battle is still being set up")

type Config struct {
	Clock          clockwork.Clock
	Catalog        catalog.Catalog
	Recorder       session.Recorder
	Rules          engine.Rules
	ChallengeTTL   time.Duration
	PickTimeout    time.Duration
	PersistTimeout time.Duration
	Logger         *zap.Logger
}

type client struct {
	protocol.Identity
	conn types.Sender
}

type Hub struct {
	inbox chan HubMsg
	done  chan struct{}
	cfg   Config
	clock clockwork.Clock
	log   *zap.Logger

	queue      *matchmaking.Queue
	challenges *matchmaking.Challenges

	online     map[string]client
	usernames  map[string]string // lower-cased username -> user id
	userBattle map[string]string // user id -> battle id, pending or live
	sessions   map[string]*session.Session
	pending    map[string][2]protocol.Identity

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, cfg Config) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Rules == (engine.Rules{}) {
		cfg.Rules = engine.DefaultRules()
	}
	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = 5 * time.Minute
	}
	if cfg.PickTimeout <= 0 {
		cfg.PickTimeout = 5 * time.Second
	}

	h := &Hub{
		inbox:      make(chan HubMsg, 256),
		done:       make(chan struct{}),
		cfg:        cfg,
		clock:      cfg.Clock,
		log:        cfg.Logger.Named("hub"),
		queue:      matchmaking.NewQueue(cfg.Clock),
		challenges: matchmaking.NewChallenges(cfg.Clock, cfg.ChallengeTTL),
		online:     make(map[string]client),
		usernames:  make(map[string]string),
		userBattle: make(map[string]string),
		sessions:   make(map[string]*session.Session),
		pending:    make(map[string][2]protocol.Identity),
		ctx:        ctx,
		cancel:     cancel,
	}
	go h.loop()
	return h
}

// Send queues m for the hub. It reports false once the hub has stopped.
func (h *Hub) Send(m HubMsg) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.inbox <- m:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Connect:
				h.connect(msg)

			case Disconnect:
				h.disconnect(msg)

			case JoinQueue:
				h.joinQueue(msg.UserID)

			case LeaveQueue:
				if c, ok := h.online[msg.UserID]; ok {
					removed := h.queue.Leave(msg.UserID)
					send(c.conn, protocol.OutQueueLeft, protocol.QueueLeft{Removed: removed})
				}

			case CreateChallenge:
				h.createChallenge(msg.UserID)

			case JoinChallenge:
				h.joinChallenge(msg)

			case ChallengeUser:
				h.challengeUser(msg)

			case AcceptChallenge:
				h.acceptChallenge(msg)

			case DeclineChallenge:
				h.declineChallenge(msg)

			case ToBattle:
				h.toBattle(msg)

			case GetSession:
				msg.Reply <- h.sessions[msg.BattleID] // May be nil

			case SessionEnded:
				h.sessionEnded(msg.Result)

			case PruneChallenges:
				h.pruneChallenges()

			case GetStats:
				msg.Reply <- Stats{
					Online:     len(h.online),
					Queued:     h.queue.Len(),
					Sessions:   len(h.sessions),
					Pending:    len(h.pending),
					Challenges: h.challenges.Len(),
				}

			case battleReady:
				h.battleReady(msg)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// shutdown stops every session before cancelling their parent context, so
// players are told the server is going away.
func (h *Hub) shutdown() {
	for _, s := range h.sessions {
		s.Send(session.Shutdown{})
	}
	deadline := time.After(time.Second)
	for id, s := range h.sessions {
		select {
		case <-s.Done():
		case <-deadline:
			h.log.Warn("session did not stop in time", zap.String("battle_id", id))
		}
	}
	clear(h.sessions)
	h.cancel()
}

func (h *Hub) connect(msg Connect) {
	id := msg.Identity
	if prev, ok := h.online[id.UserID]; ok && prev.conn != msg.Conn {
		h.log.Info("connection replaced", zap.String("user_id", id.UserID))
		delete(h.usernames, strings.ToLower(prev.Username))
		if c, ok := prev.conn.(types.Closer); ok {
			c.Close()
		}
	}
	h.online[id.UserID] = client{Identity: id, conn: msg.Conn}
	if id.Username != "" {
		h.usernames[strings.ToLower(id.Username)] = id.UserID
	}

	if battleID, ok := h.userBattle[id.UserID]; ok {
		if s := h.sessions[battleID]; s != nil {
			s.Send(session.Attach{UserID: id.UserID, Conn: msg.Conn})
		}
	}
}

func (h *Hub) disconnect(msg Disconnect) {
	c, ok := h.online[msg.UserID]
	if !ok || c.conn != msg.Conn {
		return // superseded by a newer connection
	}
	delete(h.online, msg.UserID)
	delete(h.usernames, strings.ToLower(c.Username))
	h.queue.Leave(msg.UserID)

	if battleID, ok := h.userBattle[msg.UserID]; ok {
		if s := h.sessions[battleID]; s != nil {
			s.Send(session.Detach{UserID: msg.UserID, Conn: msg.Conn})
		}
	}
}

func (h *Hub) joinQueue(userID string) {
	c, ok := h.online[userID]
	if !ok {
		return
	}
	if _, busy := h.userBattle[userID]; busy {
		h.sendErr(c.conn, ErrAlreadyInBattle)
		return
	}

	pair, matched := h.queue.Enqueue(matchmaking.Entry{Identity: c.Identity, Conn: c.conn})
	if !matched {
		send(c.conn, protocol.OutQueueJoined, protocol.QueueJoined{Position: h.queue.Len()})
		return
	}
	h.startBattle(engine.TypeQuick, pair[0].Identity, pair[1].Identity)
}

func (h *Hub) createChallenge(userID string) {
	c, ok := h.online[userID]
	if !ok {
		return
	}
	if _, busy := h.userBattle[userID]; busy {
		h.sendErr(c.conn, ErrAlreadyInBattle)
		return
	}
	ch, err := h.challenges.Create(c.Identity)
	if err != nil {
		h.log.Error("create challenge", zap.Error(err))
		h.sendErr(c.conn, err)
		return
	}
	send(c.conn, protocol.OutChallengeCreated, protocol.ChallengeCreated{Code: ch.Code, ExpiresAt: ch.ExpiresAt})
}

func (h *Hub) joinChallenge(msg JoinChallenge) {
	c, ok := h.online[msg.UserID]
	if !ok {
		return
	}
	if _, busy := h.userBattle[msg.UserID]; busy {
		h.sendErr(c.conn, ErrAlreadyInBattle)
		return
	}
	ch, err := h.challenges.Consume(msg.Code, msg.UserID)
	if err != nil {
		h.sendErr(c.conn, err)
		return
	}
	if err := h.available(ch.Host.UserID); err != nil {
		h.sendErr(c.conn, err)
		return
	}
	h.startBattle(engine.TypeFriend, ch.Host, c.Identity)
}

func (h *Hub) challengeUser(msg ChallengeUser) {
	c, ok := h.online[msg.UserID]
	if !ok {
		return
	}
	if _, busy := h.userBattle[msg.UserID]; busy {
		h.sendErr(c.conn, ErrAlreadyInBattle)
		return
	}
	targetID, ok := h.usernames[strings.ToLower(strings.TrimSpace(msg.Username))]
	if !ok {
		h.sendErr(c.conn, ErrUserOffline)
		return
	}
	if targetID == msg.UserID {
		h.sendErr(c.conn, matchmaking.ErrSelfChallenge)
		return
	}
	target := h.online[targetID]

	ch, err := h.challenges.Invite(c.Identity, target.Identity)
	if err != nil {
		h.sendErr(c.conn, err)
		return
	}
	send(c.conn, protocol.OutChallengeSent, protocol.ChallengeSent{ChallengeID: ch.Code, To: target.Identity, ExpiresAt: ch.ExpiresAt})
	send(target.conn, protocol.OutChallengeReceived, protocol.ChallengeReceived{ChallengeID: ch.Code, From: c.Identity, ExpiresAt: ch.ExpiresAt})
}

func (h *Hub) acceptChallenge(msg AcceptChallenge) {
	c, ok := h.online[msg.UserID]
	if !ok {
		return
	}
	if _, busy := h.userBattle[msg.UserID]; busy {
		h.sendErr(c.conn, ErrAlreadyInBattle)
		return
	}
	ch, err := h.challenges.Take(msg.ChallengeID, msg.UserID)
	if err != nil {
		h.sendErr(c.conn, err)
		return
	}
	if err := h.available(ch.Host.UserID); err != nil {
		h.sendErr(c.conn, err)
		return
	}
	h.startBattle(engine.TypeFriend, ch.Host, c.Identity)
}

func (h *Hub) declineChallenge(msg DeclineChallenge) {
	c, ok := h.online[msg.UserID]
	if !ok {
		return
	}
	ch, err := h.challenges.Take(msg.ChallengeID, msg.UserID)
	if err != nil {
		h.sendErr(c.conn, err)
		return
	}
	if host, ok := h.online[ch.Host.UserID]; ok {
		send(host.conn, protocol.OutChallengeDeclined, protocol.ChallengeDeclined{ChallengeID: ch.Code, By: c.Identity})
	}
}

func (h *Hub) pruneChallenges() {
	for _, ch := range h.challenges.Prune() {
		payload := protocol.ChallengeExpired{Code: ch.Code}
		if ch.Direct() {
			payload = protocol.ChallengeExpired{ChallengeID: ch.Code}
			if target, ok := h.online[ch.Target.UserID]; ok {
				send(target.conn, protocol.OutChallengeExpired, payload)
			}
		}
		if host, ok := h.online[ch.Host.UserID]; ok {
			send(host.conn, protocol.OutChallengeExpired, payload)
		}
	}
}

func (h *Hub) toBattle(msg ToBattle) {
	c, ok := h.online[msg.UserID]
	if !ok {
		return
	}
	battleID, ok := h.userBattle[msg.UserID]
	if !ok || (msg.BattleID != "" && msg.BattleID != battleID) {
		h.sendErr(c.conn, ErrSessionNotFound)
		return
	}
	s := h.sessions[battleID]
	if s == nil {
		h.sendErr(c.conn, ErrBattleStarting)
		return
	}
	cmd := msg.Cmd
	cmd.UserID = msg.UserID
	if !s.Send(session.FromClient{Cmd: cmd, Conn: c.conn}) {
		h.sendErr(c.conn, ErrSessionNotFound)
	}
}

// available reports whether userID can be pulled into a new battle.
func (h *Hub) available(userID string) error {
	if _, ok := h.online[userID]; !ok {
		return ErrUserOffline
	}
	if _, busy := h.userBattle[userID]; busy {
		return ErrAlreadyInBattle
	}
	return nil
}

// startBattle reserves both players and picks the level off the hub loop.
func (h *Hub) startBattle(typ engine.BattleType, a, b protocol.Identity) {
	id := uuid.NewString()
	players := [2]protocol.Identity{a, b}
	h.pending[id] = players
	for _, p := range players {
		h.userBattle[p.UserID] = id
		h.queue.Leave(p.UserID)
		h.challenges.CancelHostedBy(p.UserID)
	}

	go func() {
		ctx, cancel := context.WithTimeout(h.ctx, h.cfg.PickTimeout)
		defer cancel()
		level, err := h.cfg.Catalog.PickLevel(ctx)
		h.Send(battleReady{id: id, typ: typ, players: players, level: level, err: err})
	}()
}

func (h *Hub) battleReady(msg battleReady) {
	delete(h.pending, msg.id)

	abort := func(code string, err error) {
		h.log.Warn("battle not created", zap.String("battle_id", msg.id), zap.Error(err))
		for _, p := range msg.players {
			if h.userBattle[p.UserID] == msg.id {
				delete(h.userBattle, p.UserID)
			}
			if c, ok := h.online[p.UserID]; ok {
				c.conn.Send(types.ServerMessage{
					Type:     protocol.OutBattleError,
					BattleID: msg.id,
					Error:    &protocol.Error{Code: code, Message: err.Error()},
				})
			}
		}
	}

	if msg.err != nil {
		abort("level_unavailable", msg.err)
		return
	}

	conns := make(map[string]types.Sender, 2)
	for _, p := range msg.players {
		c, ok := h.online[p.UserID]
		if !ok {
			abort("opponent_offline", ErrUserOffline)
			return
		}
		conns[p.UserID] = c.conn
	}

	state, err := engine.NewState(msg.id, msg.typ, msg.players[0], msg.players[1], msg.level, h.cfg.Rules, h.clock.Now())
	if err != nil {
		abort("level_unavailable", err)
		return
	}

	h.sessions[msg.id] = session.New(h.ctx, state, conns, session.Config{
		Clock:    h.clock,
		Recorder: h.cfg.Recorder,
		OnEnd: func(res engine.Result) {
			h.Send(SessionEnded{Result: res})
		},
		Logger:         h.cfg.Logger,
		PersistTimeout: h.cfg.PersistTimeout,
	})
	h.log.Info("battle created",
		zap.String("battle_id", msg.id),
		zap.String("type", string(msg.typ)),
		zap.String("level_id", msg.level.ID),
		zap.String("player_a", msg.players[0].UserID),
		zap.String("player_b", msg.players[1].UserID))
}

func (h *Hub) sessionEnded(res engine.Result) {
	delete(h.sessions, res.BattleID)
	for _, p := range res.Players {
		if h.userBattle[p.UserID] == res.BattleID {
			delete(h.userBattle, p.UserID)
		}
	}
}

// ScheduleMaintenance registers the periodic challenge sweep on s.
func (h *Hub) ScheduleMaintenance(s gocron.Scheduler, every time.Duration) (gocron.Job, error) {
	return s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() { h.Send(PruneChallenges{}) }),
		gocron.WithName("prune-challenges"),
	)
}

// Session returns the live session for battleID.
func (h *Hub) Session(ctx context.Context, battleID string) (*session.Session, error) {
	reply := make(chan *session.Session, 1)
	if !h.Send(GetSession{BattleID: battleID, Reply: reply}) {
		return nil, ErrSessionNotFound
	}
	select {
	case s := <-reply:
		if s == nil {
			return nil, ErrSessionNotFound
		}
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Snapshot returns the live view of a running battle.
func (h *Hub) Snapshot(ctx context.Context, battleID string) (protocol.BattleSnapshot, error) {
	s, err := h.Session(ctx, battleID)
	if err != nil {
		return protocol.BattleSnapshot{}, err
	}
	reply := make(chan session.View, 1)
	if !s.Send(session.GetState{Reply: reply}) {
		return protocol.BattleSnapshot{}, ErrSessionNotFound
	}
	select {
	case v := <-reply:
		return v.Snapshot, nil
	case <-s.Done():
		return protocol.BattleSnapshot{}, ErrSessionNotFound
	case <-ctx.Done():
		return protocol.BattleSnapshot{}, ctx.Err()
	}
}

func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	if !h.Send(GetStats{Reply: reply}) {
		return Stats{}, context.Canceled
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

func send(c types.Sender, typ string, data any) {
	c.Send(types.ServerMessage{Type: typ, Data: data})
}

func (h *Hub) sendErr(c types.Sender, err error) {
	c.Send(types.ErrorMessage(ErrorCode(err), err.Error()))
}

// ErrorCode maps hub and matchmaking errors onto client error codes.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrAlreadyInBattle):
		return "already_in_battle"
	case errors.Is(err, ErrUserOffline):
		return "user_offline"
	case errors.Is(err, ErrBattleStarting):
		return "battle_starting"
	case errors.Is(err, matchmaking.ErrChallengeNotFound):
		return "challenge_not_found"
	case errors.Is(err, matchmaking.ErrChallengeExpired):
		return "challenge_expired"
	case errors.Is(err, matchmaking.ErrNotChallengeTarget):
		return "not_challenge_target"
	case errors.Is(err, matchmaking.ErrSelfChallenge):
		return "self_challenge"
	default:
		return "internal"
	}
}
