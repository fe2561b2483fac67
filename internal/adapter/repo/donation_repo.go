package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
	"github.com/bhos1242/seva-samarpan-sub001/internal/infra"
	"github.com/bhos1242/seva-samarpan-sub001/internal/sqlinline"
)

// DonationRepositoryPG implements domain.DonationRepository using PostgreSQL.
type DonationRepositoryPG struct {
	sql infra.TxExecutor
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(sql infra.TxExecutor) *DonationRepositoryPG {
	return &DonationRepositoryPG{sql: sql}
}

// WithinTx runs fn inside one database transaction.
func (r *DonationRepositoryPG) WithinTx(ctx context.Context, fn func(tx domain.DonationTx) error) error {
	return r.sql.InTx(ctx, func(q infra.SQLExecutor) error {
		return fn(donationTx{sql: q})
	})
}

// ListRecent returns the latest completed donations.
func (r *DonationRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.Donation, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListRecentDonations, limit)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return collectDonations(rows)
}

// ListByStudent returns the latest completed donations to one student.
func (r *DonationRepositoryPG) ListByStudent(ctx context.Context, studentID string, limit int) ([]domain.Donation, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListDonationsByStudent, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list student donations: %w", err)
	}
	return collectDonations(rows)
}

func (r *DonationRepositoryPG) Stats(ctx context.Context) (*domain.DonationStats, error) {
	var s domain.DonationStats
	row := r.sql.QueryRow(ctx, sqlinline.QDonationStats)
	if err := row.Scan(&s.TotalAmount, &s.DonationCount, &s.UniqueDonors, &s.StudentsFunded); err != nil {
		return nil, fmt.Errorf("donation stats: %w", err)
	}
	return &s, nil
}

const donationStudentFK = "donations_student_id_fkey"

type donationTx struct {
	sql infra.SQLExecutor
}

// InsertDonation stores a donation. A replayed (order_id, payment_id) pair
// returns domain.ErrDuplicateOperation and an unknown student returns
// domain.ErrNotFound.
func (t donationTx) InsertDonation(ctx context.Context, d *domain.Donation) error {
	row := t.sql.QueryRow(ctx, sqlinline.QInsertDonation,
		d.Name,
		d.Email,
		d.Phone,
		d.Amount,
		d.PaymentID,
		d.OrderID,
		string(d.Status),
		deref(d.StudentID),
		d.Require80G,
		deref(d.PANNumber),
		d.DonorCountry,
	)
	if err := row.Scan(&d.ID, &d.CreatedAt); err != nil {
		if infra.IsUniqueViolation(err) {
			return domain.ErrDuplicateOperation
		}
		if infra.IsForeignKeyViolation(err, donationStudentFK) {
			return fmt.Errorf("student %s: %w", deref(d.StudentID), domain.ErrNotFound)
		}
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

func (t donationTx) CreditStudent(ctx context.Context, studentID string, amount int64) (*domain.Student, error) {
	s, err := scanStudent(t.sql.QueryRow(ctx, sqlinline.QCreditStudent, studentID, amount))
	if err != nil {
		return nil, fmt.Errorf("credit student %s: %w", studentID, err)
	}
	return s, nil
}

func collectDonations(rows pgx.Rows) ([]domain.Donation, error) {
	defer rows.Close()
	var items []domain.Donation
	for rows.Next() {
		var d domain.Donation
		var status string
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.Amount, &d.PaymentID, &d.OrderID, &status,
			&d.StudentID, &d.Require80G, &d.PANNumber, &d.DonorCountry, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		d.Status = domain.DonationStatus(status)
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ domain.DonationRepository = (*DonationRepositoryPG)(nil)
