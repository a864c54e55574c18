package address

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists addresses. Rows are never updated.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Insert stores the address and returns it with its id and timestamp.
func (r *Repository) Insert(ctx context.Context, a Address) (Address, error) {
	row := a.toModel()
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return Address{}, err
	}
	return FromModel(row), nil
}

// FindForUser loads the address only when it belongs to userID.
func (r *Repository) FindForUser(ctx context.Context, userID, id int64) (Address, error) {
	var row models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&row).Error
	if err != nil {
		return Address{}, err
	}
	return FromModel(row), nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Address, error) {
	var rows []models.Address
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Address, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}
