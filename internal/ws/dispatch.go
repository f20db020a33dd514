package ws

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DoyleJ11/wordbattle-backend/internal/engine"
	"github.com/DoyleJ11/wordbattle-backend/internal/hub"
	"github.com/DoyleJ11/wordbattle-backend/internal/types"
	"github.com/DoyleJ11/wordbattle-backend/pkg/protocol"
)

var ErrUnknownType = errors.New("unknown message type")
var ErrHubStopped = errors.New("server is shutting down")

func dispatch(h *hub.Hub, userID string, c types.Sender, m types.ClientMessage) error {
	var msg hub.HubMsg

	switch m.Type {
	case protocol.InPing:
		c.Send(types.ServerMessage{Type: protocol.OutPong})
		return nil
	case protocol.InJoinQueue:
		msg = hub.JoinQueue{UserID: userID}
	case protocol.InLeaveQueue:
		msg = hub.LeaveQueue{UserID: userID}
	case protocol.InCreateChallenge:
		msg = hub.CreateChallenge{UserID: userID}
	case protocol.InJoinChallenge:
		if strings.TrimSpace(m.Code) == "" {
			return fmt.Errorf("%w: code is required", engine.ErrInvalidInput)
		}
		msg = hub.JoinChallenge{UserID: userID, Code: m.Code}
	case protocol.InChallengeUser:
		if strings.TrimSpace(m.Username) == "" {
			return fmt.Errorf("%w: username is required", engine.ErrInvalidInput)
		}
		msg = hub.ChallengeUser{UserID: userID, Username: m.Username}
	case protocol.InAcceptChallenge:
		msg = hub.AcceptChallenge{UserID: userID, ChallengeID: m.ChallengeID}
	case protocol.InDeclineChallenge:
		msg = hub.DeclineChallenge{UserID: userID, ChallengeID: m.ChallengeID}
	default:
		cmd, ok := toEngineCommand(m)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
		}
		msg = hub.ToBattle{UserID: userID, BattleID: m.BattleID, Cmd: cmd}
	}

	if !h.Send(msg) {
		return ErrHubStopped
	}
	return nil
}

func toEngineCommand(m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case protocol.InBattleReady:
		return engine.Command{Type: engine.CmdReady}, true
	case protocol.InWordFound:
		return engine.Command{
			Type:      engine.CmdSubmitWord,
			Word:      m.Word,
			TimeTaken: time.Duration(m.TimeTakenMs) * time.Millisecond,
		}, true
	case protocol.InTyping:
		return engine.Command{Type: engine.CmdTyping, Typing: m.Typing}, true
	case protocol.InReaction:
		return engine.Command{Type: engine.CmdReaction, Emoji: m.Emoji}, true
	case protocol.InLeaveBattle:
		return engine.Command{Type: engine.CmdLeave}, true
	default:
		return engine.Command{}, false
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, ErrHubStopped):
		return "unavailable"
	default:
		return engine.ErrorCode(err)
	}
}
