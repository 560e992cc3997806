package repository

import (
	"context"
	"sync"

	"AudioEditor/model"

	"gorm.io/gorm"
)

const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 500
)

// OperationRepository keeps the history of engine-backed operations.
type OperationRepository interface {
	Record(ctx context.Context, op *model.Operation) error
	// Recent returns the newest operations first.
	Recent(ctx context.Context, limit int) ([]*model.Operation, error)
}

// ClampLimit applies the default and the upper bound to a requested page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}

// gormOperationRepository GORM implementation
type gormOperationRepository struct {
	db *gorm.DB
}

func NewGormOperationRepository(db *gorm.DB) OperationRepository {
	return &gormOperationRepository{db: db}
}

func (r *gormOperationRepository) Record(ctx context.Context, op *model.Operation) error {
	return r.db.WithContext(ctx).Create(op).Error
}

func (r *gormOperationRepository) Recent(ctx context.Context, limit int) ([]*model.Operation, error) {
	var ops []*model.Operation
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(ClampLimit(limit)).
		Find(&ops).Error
	return ops, err
}

// memoryOperationRepository keeps the last MaxRecentLimit operations in process.
type memoryOperationRepository struct {
	mutex  sync.Mutex
	nextID uint
	ops    []*model.Operation
}

func NewMemoryOperationRepository() OperationRepository {
	return &memoryOperationRepository{}
}

func (r *memoryOperationRepository) Record(_ context.Context, op *model.Operation) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.nextID++
	op.ID = r.nextID
	stored := *op
	r.ops = append(r.ops, &stored)
	if len(r.ops) > MaxRecentLimit {
		r.ops = r.ops[len(r.ops)-MaxRecentLimit:]
	}
	return nil
}

func (r *memoryOperationRepository) Recent(_ context.Context, limit int) ([]*model.Operation, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	limit = ClampLimit(limit)
	out := make([]*model.Operation, 0, limit)
	for i := len(r.ops) - 1; i >= 0 && len(out) < limit; i-- {
		op := *r.ops[i]
		out = append(out, &op)
	}
	return out, nil
}
