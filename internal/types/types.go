package types

import "github.com/DoyleJ11/wordbattle-backend/pkg/protocol"

type ClientMessage struct {
	Type        string `json:"type"`
	BattleID    string `json:"battle_id,omitempty"`
	Word        string `json:"word,omitempty"`
	TimeTakenMs int64  `json:"time_taken_ms,omitempty"`
	Code        string `json:"code,omitempty"`
	Username    string `json:"username,omitempty"`
	ChallengeID string `json:"challenge_id,omitempty"`
	Typing      bool   `json:"typing,omitempty"`
	Emoji       string `json:"emoji,omitempty"`
}

type ServerMessage struct {
	Type     string          `json:"type"`
	BattleID string          `json:"battle_id,omitempty"`
	Data     any             `json:"data,omitempty"`
	Error    *protocol.Error `json:"error,omitempty"`
}

// Sender delivers messages to one client without blocking. It reports false
// when the message was dropped.
type Sender interface {
	Send(ServerMessage) bool
}

// Closer is implemented by senders backed by a live socket, so a connection
// superseded by a newer one for the same user can be shut.
type Closer interface {
	Close()
}

func ErrorMessage(code, message string) ServerMessage {
	return ServerMessage{Type: protocol.OutError, Error: &protocol.Error{Code: code, Message: message}}
}
