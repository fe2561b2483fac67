package push

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
)

// SendResult reports a single delivery. Expired means the push service no
// longer knows the subscription and it should be deleted.
type SendResult struct {
	Success bool
	Expired bool
}

// Sender delivers one encrypted payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub domain.PushSubscription, payload []byte) (SendResult, error)
}

type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	// Subject is a mailto: or https: contact for the push service operator.
	Subject string
	TTL     int
}

// WebPushSender signs requests with VAPID and encrypts payloads per RFC 8291.
type WebPushSender struct {
	cfg    VAPIDConfig
	client *http.Client
}

func NewWebPushSender(cfg VAPIDConfig, client *http.Client) *WebPushSender {
	if cfg.TTL == 0 {
		cfg.TTL = 60 * 60
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &WebPushSender{cfg: cfg, client: client}
}

func (s *WebPushSender) Send(ctx context.Context, sub domain.PushSubscription, payload []byte) (SendResult, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      strings.TrimPrefix(s.cfg.Subject, "mailto:"),
		VAPIDPublicKey:  s.cfg.PublicKey,
		VAPIDPrivateKey: s.cfg.PrivateKey,
		TTL:             s.cfg.TTL,
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return SendResult{}, fmt.Errorf("web push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return SendResult{Expired: true}, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return SendResult{Success: true}, nil
	default:
		return SendResult{}, fmt.Errorf("web push: %s returned %d", endpointHost(sub.Endpoint), resp.StatusCode)
	}
}

func endpointHost(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	host, _, _ := strings.Cut(endpoint, "/")
	return host
}
