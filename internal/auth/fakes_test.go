package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
)

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
	seq     int
}

func newMemUsers() *memUsers { return &memUsers{byEmail: map[string]*domain.User{}} }

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return domain.ErrEmailTaken
	}
	m.seq++
	u.ID = fmt.Sprintf("u-%d", m.seq)
	cp := *u
	m.byEmail[u.Email] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, u := range m.byEmail {
		if u.ID == id {
			delete(m.byEmail, k)
		}
	}
	return nil
}

func (m *memUsers) MarkEmailVerified(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			u.EmailVerified = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memUsers) UpdatePassword(_ context.Context, email, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

type memOTPs struct {
	mu   sync.Mutex
	rows []*domain.OTP
	seq  int
}

func (m *memOTPs) Replace(_ context.Context, email, hash string, exp time.Time) (*domain.OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	for _, o := range m.rows {
		if o.Email != email {
			kept = append(kept, o)
		}
	}
	m.seq++
	o := &domain.OTP{ID: fmt.Sprintf("otp-%d", m.seq), Email: email, CodeHash: hash, ExpiresAt: exp}
	m.rows = append(kept, o)
	return o, nil
}

func (m *memOTPs) LatestActive(_ context.Context, email string, now time.Time) (*domain.OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.rows) - 1; i >= 0; i-- {
		if o := m.rows[i]; o.Email == email && o.Active(now) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOTPs) Consume(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.rows {
		if o.ID == id && o.ConsumedAt == nil {
			now := time.Now()
			o.ConsumedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (m *memOTPs) DeleteByEmail(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	for _, o := range m.rows {
		if o.Email != email {
			kept = append(kept, o)
		}
	}
	m.rows = kept
	return nil
}

type memResets struct {
	mu   sync.Mutex
	rows map[string]*domain.PasswordResetToken
	seq  int
}

func newMemResets() *memResets { return &memResets{rows: map[string]*domain.PasswordResetToken{}} }

func (m *memResets) Replace(_ context.Context, email, hash string, exp time.Time) (*domain.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.rows {
		if t.Email == email {
			delete(m.rows, id)
		}
	}
	m.seq++
	t := &domain.PasswordResetToken{ID: fmt.Sprintf("rt-%d", m.seq), Email: email, TokenHash: hash, ExpiresAt: exp}
	m.rows[t.ID] = t
	return t, nil
}

func (m *memResets) Consume(_ context.Context, hash string, now time.Time) (*domain.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.rows {
		if t.TokenHash == hash && t.ConsumedAt == nil && now.Before(t.ExpiresAt) {
			t.ConsumedAt = &now
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrInvalidToken
}

func (m *memResets) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

type captureMailer struct {
	mu        sync.Mutex
	codes     map[string]string
	links     map[string]string
	failOTP   bool
	failReset bool
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{codes: map[string]string{}, links: map[string]string{}}
}

func (c *captureMailer) SendOTPEmail(_ context.Context, to, _, code string) error {
	if c.failOTP {
		return errors.New("smtp unavailable")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[to] = code
	return nil
}

func (c *captureMailer) SendPasswordResetEmail(_ context.Context, to, _, link string) error {
	if c.failReset {
		return errors.New("smtp unavailable")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.links[to] = link
	return nil
}
