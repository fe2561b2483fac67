// Package push manages browser web-push subscriptions and broadcasts.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
)

// ErrDisabled is returned by Broadcast when VAPID keys are not configured.
var ErrDisabled = errors.New("push notifications are not configured")

const defaultConcurrency = 8

// BroadcastResult counts delivery outcomes.
type BroadcastResult struct {
	Sent    int64 `json:"sent"`
	Expired int64 `json:"expired"`
	Failed  int64 `json:"failed"`
}

type Service struct {
	subs        domain.PushSubscriptionRepository
	sender      Sender
	logger      zerolog.Logger
	concurrency int
	appURL      string
}

// NewService builds the push service. sender may be nil, which disables
// delivery but keeps subscription management working.
func NewService(subs domain.PushSubscriptionRepository, sender Sender, appURL string, logger zerolog.Logger) *Service {
	return &Service{
		subs:        subs,
		sender:      sender,
		logger:      logger,
		concurrency: defaultConcurrency,
		appURL:      strings.TrimRight(appURL, "/"),
	}
}

type SubscribeInput struct {
	UserID   string
	Endpoint string
	P256dh   string
	Auth     string
}

func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (*domain.PushSubscription, error) {
	endpoint := strings.TrimSpace(in.Endpoint)
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return nil, domain.NewValidationError("endpoint", "endpoint must be an https URL")
	}
	if strings.TrimSpace(in.P256dh) == "" || strings.TrimSpace(in.Auth) == "" {
		return nil, domain.NewValidationError("keys", "p256dh and auth keys are required")
	}
	sub := &domain.PushSubscription{
		Endpoint: endpoint,
		P256dh:   strings.TrimSpace(in.P256dh),
		Auth:     strings.TrimSpace(in.Auth),
	}
	if in.UserID != "" {
		uid := in.UserID
		sub.UserID = &uid
	}
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Service) Unsubscribe(ctx context.Context, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return domain.NewValidationError("endpoint", "endpoint is required")
	}
	return s.subs.DeleteByEndpoint(ctx, endpoint)
}

// Broadcast sends payload to every subscription concurrently. Expired
// subscriptions are deleted; other failures are counted and logged.
func (s *Service) Broadcast(ctx context.Context, payload domain.PushPayload) (BroadcastResult, error) {
	var res BroadcastResult
	if s.sender == nil {
		return res, ErrDisabled
	}
	if strings.TrimSpace(payload.Title) == "" {
		return res, domain.NewValidationError("title", "title is required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return res, fmt.Errorf("encode push payload: %w", err)
	}
	subs, err := s.subs.List(ctx)
	if err != nil {
		return res, err
	}

	var sent, expired, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, sub := range subs {
		g.Go(func() error {
			out, err := s.sender.Send(gctx, sub, body)
			switch {
			case err != nil:
				failed.Add(1)
				s.logger.Warn().Err(err).Str("subscription_id", sub.ID).Msg("push delivery failed")
			case out.Expired:
				expired.Add(1)
				if err := s.subs.DeleteByEndpoint(gctx, sub.Endpoint); err != nil {
					s.logger.Error().Err(err).Str("subscription_id", sub.ID).Msg("delete expired subscription failed")
				}
			default:
				sent.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	res = BroadcastResult{Sent: sent.Load(), Expired: expired.Load(), Failed: failed.Load()}
	s.logger.Info().
		Int64("sent", res.Sent).
		Int64("expired", res.Expired).
		Int64("failed", res.Failed).
		Msg("push broadcast")
	return res, nil
}

// NotifyDonation announces a donation to a student. Errors are only logged.
func (s *Service) NotifyDonation(ctx context.Context, d domain.Donation, st domain.Student) {
	if s.sender == nil {
		return
	}
	payload := domain.PushPayload{
		Title: "New donation for " + st.Name,
		Body:  fmt.Sprintf("%s is now %d%% funded. Thank you, supporters!", st.Name, st.ProgressPercentage),
	}
	if s.appURL != "" {
		payload.URL = s.appURL + "/students/" + st.ID
	}
	if _, err := s.Broadcast(ctx, payload); err != nil {
		s.logger.Warn().Err(err).Str("donation_id", d.ID).Msg("donation push failed")
	}
}
