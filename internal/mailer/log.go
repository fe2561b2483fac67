package mailer

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
)

// LogMailer logs rendered messages instead of sending them. It keeps the last
// messages so development setups and tests can read codes back.
type LogMailer struct {
	logger zerolog.Logger

	mu   sync.Mutex
	sent []Message
}

func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendOTPEmail(_ context.Context, to, name, code string) error {
	msg, err := otpMessage(to, name, code)
	if err != nil {
		return err
	}
	m.record(msg, zerolog.Dict().Str("code", code))
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(_ context.Context, to, name, link string) error {
	msg, err := resetMessage(to, name, link)
	if err != nil {
		return err
	}
	m.record(msg, zerolog.Dict().Str("link", link))
	return nil
}

func (m *LogMailer) SendDonationReceipt(_ context.Context, d domain.Donation, s *domain.Student) error {
	msg, err := receiptMessage(d, s)
	if err != nil {
		return err
	}
	m.record(msg, zerolog.Dict().Str("donation_id", d.ID).Int64("amount", d.Amount))
	return nil
}

func (m *LogMailer) record(msg Message, detail *zerolog.Event) {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	m.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Dict("detail", detail).Msg("email (not sent)")
}

// Sent returns a copy of the recorded messages.
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
