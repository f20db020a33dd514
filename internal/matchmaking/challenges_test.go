package matchmaking

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/wordbattle-backend/pkg/protocol"
)

var (
	host  = protocol.Identity{UserID: "host", Username: "Host"}
	guest = protocol.Identity{UserID: "guest", Username: "Guest"}
)

func TestGenerateCode_Charset(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(codeCharset, r), "unexpected rune %q", r)
		}
	}
}

func TestChallenges_ConsumeOnce(t *testing.T) {
	c := NewChallenges(clockwork.NewFakeClock(), 5*time.Minute)

	ch, err := c.Create(host)
	require.NoError(t, err)
	assert.False(t, ch.Direct())

	got, err := c.Consume(strings.ToLower(ch.Code), guest.UserID)
	require.NoError(t, err)
	assert.Equal(t, host, got.Host)

	_, err = c.Consume(ch.Code, guest.UserID)
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestChallenges_RegeneratesOnCollision(t *testing.T) {
	c := NewChallenges(clockwork.NewFakeClock(), time.Minute)
	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	c.gen = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	first, err := c.Create(host)
	require.NoError(t, err)
	second, err := c.Create(guest)
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.Code)
	assert.Equal(t, "BBBBBB", second.Code)
}

func TestChallenges_ExpiredCodeIsDeleted(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewChallenges(clock, 5*time.Minute)

	ch, err := c.Create(host)
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	_, err = c.Consume(ch.Code, guest.UserID)
	assert.ErrorIs(t, err, ErrChallengeExpired)

	_, err = c.Consume(ch.Code, guest.UserID)
	assert.ErrorIs(t, err, ErrChallengeNotFound)
	assert.Equal(t, 0, c.Len())
}

func TestChallenges_HostCannotConsumeOwnCode(t *testing.T) {
	c := NewChallenges(clockwork.NewFakeClock(), time.Minute)
	ch, err := c.Create(host)
	require.NoError(t, err)

	_, err = c.Consume(ch.Code, host.UserID)
	assert.ErrorIs(t, err, ErrSelfChallenge)

	_, err = c.Consume(ch.Code, guest.UserID)
	assert.NoError(t, err, "a refused self-claim must not burn the code")
}

func TestChallenges_ConcurrentConsumeHasOneWinner(t *testing.T) {
	c := NewChallenges(clockwork.NewRealClock(), time.Minute)
	ch, err := c.Create(host)
	require.NoError(t, err)

	const claimants = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Consume(ch.Code, guest.UserID); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestChallenges_DirectInvite(t *testing.T) {
	c := NewChallenges(clockwork.NewFakeClock(), time.Minute)

	ch, err := c.Invite(host, guest)
	require.NoError(t, err)
	require.True(t, ch.Direct())

	_, err = c.Consume(ch.Code, guest.UserID)
	assert.ErrorIs(t, err, ErrChallengeNotFound, "invites are not shareable codes")

	_, err = c.Take(ch.Code, "stranger")
	assert.ErrorIs(t, err, ErrNotChallengeTarget)

	got, err := c.Take(ch.Code, guest.UserID)
	require.NoError(t, err)
	assert.Equal(t, host, got.Host)

	_, err = c.Take(ch.Code, guest.UserID)
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestChallenges_PruneReturnsExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewChallenges(clock, time.Minute)

	old, err := c.Create(host)
	require.NoError(t, err)
	clock.Advance(30 * time.Second)
	fresh, err := c.Invite(guest, host)
	require.NoError(t, err)
	clock.Advance(30 * time.Second)

	expired := c.Prune()
	require.Len(t, expired, 1)
	assert.Equal(t, old.Code, expired[0].Code)
	assert.Equal(t, 1, c.Len())

	_, err = c.Take(fresh.Code, host.UserID)
	assert.NoError(t, err)
}

func TestChallenges_CancelHostedBy(t *testing.T) {
	c := NewChallenges(clockwork.NewFakeClock(), time.Minute)
	_, err := c.Create(host)
	require.NoError(t, err)
	_, err = c.Invite(host, guest)
	require.NoError(t, err)
	_, err = c.Create(guest)
	require.NoError(t, err)

	assert.Equal(t, 2, c.CancelHostedBy(host.UserID))
	assert.Equal(t, 1, c.Len())
}
