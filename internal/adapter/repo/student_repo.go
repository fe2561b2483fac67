package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
	"github.com/bhos1242/seva-samarpan-sub001/internal/infra"
	"github.com/bhos1242/seva-samarpan-sub001/internal/sqlinline"
)

// StudentRepositoryPG implements domain.StudentRepository.
type StudentRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewStudentRepository(sql infra.SQLExecutor) *StudentRepositoryPG {
	return &StudentRepositoryPG{sql: sql}
}

func (r *StudentRepositoryPG) Create(ctx context.Context, s *domain.Student) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertStudent, s.Name, s.Class, s.School, s.Story, s.RequiredAmount)
	if err := row.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	s.CollectedAmount, s.DonorCount, s.ProgressPercentage = 0, 0, 0
	return nil
}

func (r *StudentRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	return scanStudent(r.sql.QueryRow(ctx, sqlinline.QSelectStudentByID, id))
}

func (r *StudentRepositoryPG) List(ctx context.Context) ([]domain.Student, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListStudents)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var items []domain.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *StudentRepositoryPG) UpdatePhotoURL(ctx context.Context, id, url string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateStudentPhoto, id, url)
	if err != nil {
		return fmt.Errorf("update student photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanStudent(row pgx.Row) (*domain.Student, error) {
	var s domain.Student
	if err := row.Scan(&s.ID, &s.Name, &s.Class, &s.School, &s.Story, &s.PhotoURL,
		&s.RequiredAmount, &s.CollectedAmount, &s.DonorCount, &s.ProgressPercentage,
		&s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan student: %w", err)
	}
	return &s, nil
}

var _ domain.StudentRepository = (*StudentRepositoryPG)(nil)
