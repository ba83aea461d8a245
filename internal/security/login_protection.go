package security

import (
	"sync"
	"time"
)

// LoginProtectionConfig holds the lockout thresholds
type LoginProtectionConfig struct {
	// Failed attempts per account within Window before it is locked
	MaxAttemptsPerAccount int
	// Failed attempts per client IP within Window before it is locked
	MaxAttemptsPerIP int
	Window           time.Duration
	Lockout          time.Duration
}

// DefaultLoginProtectionConfig returns the default configuration
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		MaxAttemptsPerAccount: 5,
		MaxAttemptsPerIP:      20,
		Window:                15 * time.Minute,
		Lockout:               15 * time.Minute,
	}
}

// LoginProtection locks out accounts and IPs after repeated failed logins.
// State is kept in memory, so each instance of the service counts separately.
type LoginProtection struct {
	mu       sync.Mutex
	accounts map[string][]time.Time
	ips      map[string][]time.Time
	config   LoginProtectionConfig
	now      func() time.Time
}

// NewLoginProtection creates a login protection instance
func NewLoginProtection(config LoginProtectionConfig) *LoginProtection {
	return &LoginProtection{
		accounts: make(map[string][]time.Time),
		ips:      make(map[string][]time.Time),
		config:   config,
		now:      time.Now,
	}
}

// RecordFailure counts a failed login for account from ip
func (p *LoginProtection) RecordFailure(account, ip string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if account != "" {
		p.accounts[account] = append(prune(p.accounts[account], now.Add(-p.config.Window)), now)
	}
	if ip != "" {
		p.ips[ip] = append(prune(p.ips[ip], now.Add(-p.config.Window)), now)
	}
}

// Reset forgets the failures of account after a successful login
func (p *LoginProtection) Reset(account string) {
	p.mu.Lock()
	delete(p.accounts, account)
	p.mu.Unlock()
}

// Blocked reports whether account or ip is locked out and until when
func (p *LoginProtection) Blocked(account, ip string) (bool, time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if until, ok := p.lockedUntil(p.accounts[account], p.config.MaxAttemptsPerAccount, now); ok {
		return true, until
	}
	if until, ok := p.lockedUntil(p.ips[ip], p.config.MaxAttemptsPerIP, now); ok {
		return true, until
	}
	return false, time.Time{}
}

func (p *LoginProtection) lockedUntil(attempts []time.Time, max int, now time.Time) (time.Time, bool) {
	if max <= 0 || len(attempts) == 0 {
		return time.Time{}, false
	}

	windowStart := now.Add(-p.config.Window)
	recent := 0
	for _, at := range attempts {
		if at.After(windowStart) {
			recent++
		}
	}
	if recent < max {
		return time.Time{}, false
	}

	until := attempts[len(attempts)-1].Add(p.config.Lockout)
	return until, now.Before(until)
}

// prune drops attempts at or before cutoff
func prune(attempts []time.Time, cutoff time.Time) []time.Time {
	kept := attempts[:0]
	for _, at := range attempts {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	return kept
}
