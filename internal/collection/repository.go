package collection

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/projection"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Kind names a user container. Each kind lives in its own table with the same
// (id, user_id, product_id) layout.
type Kind string

const (
	Cart     Kind = "cart"
	Wishlist Kind = "wishlist"
)

func (k Kind) String() string {
	return string(k)
}

func (k Kind) IsValid() bool {
	return k == Cart || k == Wishlist
}

func (k Kind) table() string {
	return string(k)
}

// Repository encapsulates container persistence for one kind.
type Repository struct {
	db   *gorm.DB
	kind Kind
}

// NewRepository constructs a container repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB, kind Kind) (*Repository, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("unknown collection kind %q", kind)
	}
	return &Repository{db: db, kind: kind}, nil
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx, kind: r.kind}
}

// ProductCategoryCode returns the stored category code of the product.
func (r *Repository) ProductCategoryCode(ctx context.Context, productID int64) (int, bool, error) {
	var codes []int
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Limit(1).
		Pluck("category_id", &codes).Error
	if err != nil || len(codes) == 0 {
		return 0, false, err
	}
	return codes[0], true, nil
}

// AddItem inserts the pair and ignores duplicates; false means it was already present.
func (r *Repository) AddItem(ctx context.Context, userID, productID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Exec(fmt.Sprintf(`INSERT INTO %s (user_id, product_id, created_at) VALUES (?, ?, CURRENT_TIMESTAMP) ON CONFLICT (user_id, product_id) DO NOTHING`, r.kind.table()), userID, productID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RemoveItem deletes the user-product pair if it exists.
func (r *Repository) RemoveItem(ctx context.Context, userID, productID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Exec(fmt.Sprintf(`DELETE FROM %s WHERE user_id = ? AND product_id = ?`, r.kind.table()), userID, productID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) ItemExists(ctx context.Context, userID, productID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table(r.kind.table()).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

// ListItems returns one page of the user's products in insertion order.
func (r *Repository) ListItems(ctx context.Context, userID int64, page pagination.Page) ([]catalog.Product, error) {
	var rows []projection.ProductRow
	q := r.db.WithContext(ctx).
		Table(r.kind.table() + " c").
		Select(strings.Join(projection.ProductColumns("p"), ", ")).
		Joins("JOIN product p ON p.id = c.product_id")
	err := projection.JoinAttributes(q, "p").
		Where("c.user_id = ?", userID).
		Order("c.id ASC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return projection.Products(rows)
}
