package repo

import (
	"context"
	"fmt"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
	"github.com/bhos1242/seva-samarpan-sub001/internal/infra"
	"github.com/bhos1242/seva-samarpan-sub001/internal/sqlinline"
)

// PushSubscriptionRepositoryPG implements domain.PushSubscriptionRepository.
type PushSubscriptionRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewPushSubscriptionRepository(sql infra.SQLExecutor) *PushSubscriptionRepositoryPG {
	return &PushSubscriptionRepositoryPG{sql: sql}
}

// Upsert registers sub, refreshing keys when the endpoint is already known.
func (r *PushSubscriptionRepositoryPG) Upsert(ctx context.Context, sub *domain.PushSubscription) error {
	row := r.sql.QueryRow(ctx, sqlinline.QUpsertPushSubscription, deref(sub.UserID), sub.Endpoint, sub.P256dh, sub.Auth)
	if err := row.Scan(&sub.ID, &sub.CreatedAt); err != nil {
		return fmt.Errorf("upsert push subscription: %w", err)
	}
	return nil
}

func (r *PushSubscriptionRepositoryPG) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QDeletePushSubscription, endpoint); err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

func (r *PushSubscriptionRepositoryPG) List(ctx context.Context) ([]domain.PushSubscription, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListPushSubscriptions)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var items []domain.PushSubscription
	for rows.Next() {
		var s domain.PushSubscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Endpoint, &s.P256dh, &s.Auth, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

var _ domain.PushSubscriptionRepository = (*PushSubscriptionRepositoryPG)(nil)
