package repository

import (
	"context"
	"errors"
	"time"

	"approvalflow/internal/core/ports"
	"approvalflow/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type instanceRepository struct {
	db *gorm.DB
}

// NewInstanceRepository creates a Postgres-backed InstanceRepository.
func NewInstanceRepository(db *gorm.DB) ports.InstanceRepository {
	return &instanceRepository{db: db}
}

const pgUniqueViolation = "23505"

func (r *instanceRepository) CreateInstance(ctx context.Context, instance *domain.WorkflowInstance) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Stages").Create(instance).Error; err != nil {
			return err
		}
		if len(instance.Stages) > 0 {
			if err := tx.Create(&instance.Stages).Error; err != nil {
				return err
			}
		}
		return nil
	})

	// The partial unique index on (request_ref) WHERE status = 'RUNNING'
	// closes the check-then-create race between concurrent submissions.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.ErrDuplicateActiveWorkflow
	}
	return err
}

func (r *instanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowInstance, error) {
	var instance domain.WorkflowInstance
	err := r.db.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&instance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInstanceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *instanceRepository) HasActiveForRequest(ctx context.Context, requestRef string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.WorkflowInstance{}).
		Where("request_ref = ? AND status = ?", requestRef, domain.InstanceRunning).
		Count(&count).Error
	return count > 0, err
}

// SaveResolution commits one stage transition. The version check on the
// instance row makes the whole read-validate-write cycle atomic per instance:
// if another resolution landed first, RowsAffected is 0 and nothing in the
// transaction is applied.
func (r *instanceRepository) SaveResolution(ctx context.Context, instance *domain.WorkflowInstance, result *domain.ResolutionResult, expectedVersion int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.WorkflowInstance{}).
			Where("id = ? AND version = ?", instance.ID, expectedVersion).
			Updates(map[string]interface{}{
				"status":  instance.Status,
				"version": expectedVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ports.ErrVersionConflict
		}

		resolved := result.Resolved
		if err := tx.Model(&domain.StageState{}).
			Where("id = ?", resolved.ID).
			Updates(map[string]interface{}{
				"status":       resolved.Status,
				"completed_by": resolved.CompletedBy,
				"completed_at": resolved.CompletedAt,
				"comment":      resolved.Comment,
			}).Error; err != nil {
			return err
		}

		if result.Activated != nil {
			if err := tx.Model(&domain.StageState{}).
				Where("id = ?", result.Activated.ID).
				Update("status", domain.StageInProgress).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *instanceRepository) FindOverdueStages(ctx context.Context, cutoff time.Time) ([]domain.OverdueStage, error) {
	query := `
		SELECT w.id, w.request_ref, s.name, s.assignee_role, s.updated_at
		FROM stage_states s
		JOIN workflow_instances w ON w.id = s.instance_id
		WHERE s.status = 'IN_PROGRESS'
		  AND s.updated_at < ?
		ORDER BY s.updated_at ASC
	`

	rows, err := r.db.WithContext(ctx).Raw(query, cutoff).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overdue []domain.OverdueStage
	for rows.Next() {
		var o domain.OverdueStage
		if err := rows.Scan(&o.InstanceID, &o.RequestRef, &o.Stage, &o.AssigneeRole, &o.Since); err != nil {
			return nil, err
		}
		overdue = append(overdue, o)
	}

	return overdue, rows.Err()
}
