package protocol

// Client -> Server
//
// join_queue: {}
// leave_queue: {}
// create_challenge: {}
// join_challenge: code
// challenge_user: username
// accept_challenge: challenge_id
// decline_challenge: challenge_id
// battle_ready: battle_id
// word_found: battle_id, word, time_taken_ms (optional, informational)
// typing: battle_id, typing
// reaction: battle_id, emoji
// leave_battle: battle_id
// ping: {}
const (
	InJoinQueue        = "join_queue"
	InLeaveQueue       = "leave_queue"
	InCreateChallenge  = "create_challenge"
	InJoinChallenge    = "join_challenge"
	InChallengeUser    = "challenge_user"
	InAcceptChallenge  = "accept_challenge"
	InDeclineChallenge = "decline_challenge"
	InBattleReady      = "battle_ready"
	InWordFound        = "word_found"
	InTyping           = "typing"
	InReaction         = "reaction"
	InLeaveBattle      = "leave_battle"
	InPing             = "ping"
)

// Server -> Client
const (
	OutMatchFound           = "match_found"
	OutOpponentReady        = "opponent_ready"
	OutCountdownStart       = "countdown_start"
	OutBattleStart          = "battle_start"
	OutWordAccepted         = "word_accepted"
	OutWordRejected         = "word_rejected"
	OutOpponentWord         = "opponent_word"
	OutOpponentTyping       = "opponent_typing"
	OutOpponentReaction     = "opponent_reaction"
	OutOpponentDisconnected = "opponent_disconnected"
	OutOpponentReconnected  = "opponent_reconnected"
	OutBattleState          = "battle_state"
	OutBattleEnd            = "battle_end"
	OutBattleError          = "battle_error"
	OutQueueJoined          = "queue_joined"
	OutQueueLeft            = "queue_left"
	OutChallengeCreated     = "challenge_created"
	OutChallengeSent        = "challenge_sent"
	OutChallengeReceived    = "challenge_received"
	OutChallengeDeclined    = "challenge_declined"
	OutChallengeExpired     = "challenge_expired"
	OutError                = "error"
	OutPong                 = "pong"
)
