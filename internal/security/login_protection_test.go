package security

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestProtection() (*LoginProtection, *time.Time) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewLoginProtection(LoginProtectionConfig{
		MaxAttemptsPerAccount: 3,
		MaxAttemptsPerIP:      5,
		Window:                30 * time.Minute,
		Lockout:               15 * time.Minute,
	})
	p.now = func() time.Time { return now }
	return p, &now
}

func TestAccountLockout(t *testing.T) {
	p, now := newTestProtection()
	account := "test@example.com"

	for i := 0; i < 2; i++ {
		p.RecordFailure(account, "10.0.0.1")
		blocked, _ := p.Blocked(account, "10.0.0.9")
		assert.False(t, blocked, "blocked after %d attempts", i+1)
	}

	p.RecordFailure(account, "10.0.0.2")
	blocked, until := p.Blocked(account, "10.0.0.9")
	assert.True(t, blocked)
	assert.Equal(t, now.Add(15*time.Minute), until)

	blocked, _ = p.Blocked("other@example.com", "10.0.0.9")
	assert.False(t, blocked)

	*now = now.Add(16 * time.Minute)
	blocked, _ = p.Blocked(account, "10.0.0.9")
	assert.False(t, blocked, "lockout should end")
}

func TestIPLockout(t *testing.T) {
	p, _ := newTestProtection()
	ip := "192.168.1.1"

	for i := 0; i < 4; i++ {
		p.RecordFailure("", ip)
	}
	blocked, _ := p.Blocked("", ip)
	assert.False(t, blocked)

	p.RecordFailure("", ip)
	blocked, _ = p.Blocked("anyone@example.com", ip)
	assert.True(t, blocked)
}

func TestAttemptsOutsideWindowDoNotCount(t *testing.T) {
	p, now := newTestProtection()
	account := "slow@example.com"

	p.RecordFailure(account, "")
	p.RecordFailure(account, "")
	*now = now.Add(31 * time.Minute)
	p.RecordFailure(account, "")

	blocked, _ := p.Blocked(account, "")
	assert.False(t, blocked)
}

func TestResetClearsAccount(t *testing.T) {
	p, _ := newTestProtection()
	account := "test@example.com"

	for i := 0; i < 3; i++ {
		p.RecordFailure(account, "")
	}
	p.Reset(account)

	blocked, _ := p.Blocked(account, "")
	assert.False(t, blocked)
}

func TestLoginProtectionConcurrentAccess(t *testing.T) {
	p := NewLoginProtection(DefaultLoginProtectionConfig())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.RecordFailure("busy@example.com", "10.0.0.1")
			p.Blocked("busy@example.com", "10.0.0.1")
		}()
	}
	wg.Wait()

	blocked, _ := p.Blocked("busy@example.com", "")
	assert.True(t, blocked)
}
