package matchmaking

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/DoyleJ11/wordbattle-backend/pkg/protocol"
)

var ErrChallengeNotFound = errors.New("challenge not found")
var ErrChallengeExpired = errors.New("challenge expired")
var ErrNotChallengeTarget = errors.New("challenge is addressed to another user")
var ErrSelfChallenge = errors.New("cannot accept your own challenge")

const (
	CodeLength  = 6
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func GenerateCode() (string, error) {
	code := make([]byte, CodeLength)
	for i := 0; i < CodeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[num.Int64()]
	}
	return string(code), nil
}

// Challenge is either a shareable code (Target nil) or a direct invite to
// one user (Target set, keyed by a uuid).
type Challenge struct {
	Code      string
	Host      protocol.Identity
	Target    *protocol.Identity
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (c Challenge) Direct() bool { return c.Target != nil }

// Challenges stores pending challenges. Reading and deleting a record happen
// under one lock, so of two concurrent consumers only one gets it.
type Challenges struct {
	mu      sync.Mutex
	records map[string]Challenge
	ttl     time.Duration
	clock   clockwork.Clock
	gen     func() (string, error)
}

func NewChallenges(clock clockwork.Clock, ttl time.Duration) *Challenges {
	return &Challenges{
		records: make(map[string]Challenge),
		ttl:     ttl,
		clock:   clock,
		gen:     GenerateCode,
	}
}

// Create stores a new shareable code for host.
func (c *Challenges) Create(host protocol.Identity) (Challenge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var code string
	for {
		candidate, err := c.gen()
		if err != nil {
			return Challenge{}, err
		}
		if _, taken := c.records[candidate]; !taken {
			code = candidate
			break
		}
	}

	now := c.clock.Now()
	ch := Challenge{Code: code, Host: host, CreatedAt: now, ExpiresAt: now.Add(c.ttl)}
	c.records[code] = ch
	return ch, nil
}

// Invite stores a direct challenge from host to target.
func (c *Challenges) Invite(host, target protocol.Identity) (Challenge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	ch := Challenge{
		Code:      uuid.NewString(),
		Host:      host,
		Target:    &target,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.records[ch.Code] = ch
	return ch, nil
}

// Consume claims a shareable code on behalf of claimantID. A valid code is
// returned and deleted; an expired one is deleted and reported expired. The
// host's own claim is refused without burning the code.
func (c *Challenges) Consume(code, claimantID string) (Challenge, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.records[code]
	if !ok || ch.Direct() {
		return Challenge{}, ErrChallengeNotFound
	}
	if c.expired(ch) {
		delete(c.records, code)
		return Challenge{}, ErrChallengeExpired
	}
	if ch.Host.UserID == claimantID {
		return Challenge{}, ErrSelfChallenge
	}
	delete(c.records, code)
	return ch, nil
}

// Take claims a direct invite. Only its target may take it, either to
// accept or to decline.
func (c *Challenges) Take(id, targetID string) (Challenge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.records[id]
	if !ok || !ch.Direct() {
		return Challenge{}, ErrChallengeNotFound
	}
	if c.expired(ch) {
		delete(c.records, id)
		return Challenge{}, ErrChallengeExpired
	}
	if ch.Target.UserID != targetID {
		return Challenge{}, ErrNotChallengeTarget
	}
	delete(c.records, id)
	return ch, nil
}

// Prune deletes and returns every expired challenge.
func (c *Challenges) Prune() []Challenge {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expired []Challenge
	for key, ch := range c.records {
		if c.expired(ch) {
			expired = append(expired, ch)
			delete(c.records, key)
		}
	}
	return expired
}

// CancelHostedBy drops every challenge userID is hosting, e.g. once they
// are matched elsewhere.
func (c *Challenges) CancelHostedBy(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, ch := range c.records {
		if ch.Host.UserID == userID {
			delete(c.records, key)
			n++
		}
	}
	return n
}

func (c *Challenges) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func (c *Challenges) expired(ch Challenge) bool {
	return !c.clock.Now().Before(ch.ExpiresAt)
}
