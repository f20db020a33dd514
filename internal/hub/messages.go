package hub

import (
	"github.com/DoyleJ11/wordbattle-backend/internal/engine"
	"github.com/DoyleJ11/wordbattle-backend/internal/session"
	"github.com/DoyleJ11/wordbattle-backend/internal/types"
	"github.com/DoyleJ11/wordbattle-backend/pkg/protocol"
)

type HubMsg interface{ isHubMsg() }

// Connect registers a verified connection. A newer connection for the same
// user replaces the older one and resumes any battle in progress.
type Connect struct {
	Identity protocol.Identity
	Conn     types.Sender
}

type Disconnect struct {
	UserID string
	Conn   types.Sender
}

type JoinQueue struct{ UserID string }

type LeaveQueue struct{ UserID string }

type CreateChallenge struct{ UserID string }

type JoinChallenge struct {
	UserID string
	Code   string
}

type ChallengeUser struct {
	UserID   string
	Username string
}

type AcceptChallenge struct {
	UserID      string
	ChallengeID string
}

type DeclineChallenge struct {
	UserID      string
	ChallengeID string
}

// ToBattle routes a battle command to the session the user is playing in.
type ToBattle struct {
	UserID   string
	BattleID string
	Cmd      engine.Command
}

type GetSession struct {
	BattleID string
	Reply    chan *session.Session // nil when no live session
}

type SessionEnded struct {
	Result engine.Result
}

type PruneChallenges struct{}

type GetStats struct {
	Reply chan Stats
}

type ShutdownHub struct{}

type battleReady struct {
	id      string
	typ     engine.BattleType
	players [2]protocol.Identity
	level   engine.Level
	err     error
}

type Stats struct {
	Online     int `json:"online"`
	Queued     int `json:"queued"`
	Sessions   int `json:"sessions"`
	Pending    int `json:"pending"`
	Challenges int `json:"challenges"`
}

func (Connect) isHubMsg()          {}
func (Disconnect) isHubMsg()       {}
func (JoinQueue) isHubMsg()        {}
func (LeaveQueue) isHubMsg()       {}
func (CreateChallenge) isHubMsg()  {}
func (JoinChallenge) isHubMsg()    {}
func (ChallengeUser) isHubMsg()    {}
func (AcceptChallenge) isHubMsg()  {}
func (DeclineChallenge) isHubMsg() {}
func (ToBattle) isHubMsg()         {}
func (GetSession) isHubMsg()       {}
func (SessionEnded) isHubMsg()     {}
func (PruneChallenges) isHubMsg()  {}
func (GetStats) isHubMsg()         {}
func (ShutdownHub) isHubMsg()      {}
func (battleReady) isHubMsg()      {}
