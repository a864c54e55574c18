package inventory

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/projection"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository persists catalog entries across product and the attribute tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindMatching(ctx context.Context, p catalog.Product) (int64, bool, error)
	Insert(ctx context.Context, p catalog.Product) (int64, error)
	Delete(ctx context.Context, id int64) (bool, error)
	CountOrders(ctx context.Context, id int64) (int64, error)
	Find(ctx context.Context, id int64) (catalog.Product, error)
	Exists(ctx context.Context, id int64) (bool, error)
	ListByCategory(ctx context.Context, category enums.ProductCategory, page pagination.Page) ([]catalog.Product, error)
	DecrementStock(ctx context.Context, id int64, qty int) (bool, error)
	IncrementStock(ctx context.Context, id int64, qty int) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindMatching looks up an existing entry describing the same catalog item.
func (r *repository) FindMatching(ctx context.Context, p catalog.Product) (int64, bool, error) {
	var ids []int64
	q := r.db.WithContext(ctx).Table("product p").Select("p.id").Where("p.category_id = ?", p.Category().Code())

	switch attrs := p.Attributes.(type) {
	case catalog.Clothes:
		q = q.Joins("JOIN clothes_inventory ci ON ci.product_id = p.id").
			Where("ci.brand = ? AND ci.clothes_type = ? AND ci.gender = ? AND ci.size = ?",
				p.BrandName, attrs.ClothesType, attrs.Gender, attrs.Size)
	default:
		q = q.Joins("JOIN electronics_inventory ei ON ei.product_id = p.id").
			Where("ei.brand = ? AND ei.model = ?", p.BrandName, p.Model())
	}

	if err := q.Order("p.id ASC").Limit(1).Pluck("p.id", &ids).Error; err != nil {
		return 0, false, err
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

// Insert writes the catalog row then its attribute row. Callers run it inside
// a transaction.
func (r *repository) Insert(ctx context.Context, p catalog.Product) (int64, error) {
	if p.Attributes == nil {
		return 0, errors.New("product attributes required")
	}
	db := r.db.WithContext(ctx)

	row := models.Product{
		CategoryID: p.Category().Code(),
		Price:      p.Price,
		Quantity:   p.Quantity,
	}
	if err := db.Create(&row).Error; err != nil {
		return 0, err
	}

	var attrs any
	switch a := p.Attributes.(type) {
	case catalog.Clothes:
		attrs = &models.ClothesInventory{
			ProductID:   row.ID,
			Brand:       p.BrandName,
			ClothesType: a.ClothesType,
			Gender:      a.Gender,
			Size:        a.Size,
		}
	default:
		attrs = &models.ElectronicsInventory{
			ProductID: row.ID,
			Brand:     p.BrandName,
			Model:     p.Model(),
		}
	}
	if err := db.Create(attrs).Error; err != nil {
		return 0, err
	}
	return row.ID, nil
}

// Delete removes the attribute rows, container rows and finally the product.
func (r *repository) Delete(ctx context.Context, id int64) (bool, error) {
	db := r.db.WithContext(ctx)
	for _, model := range []any{
		&models.ElectronicsInventory{},
		&models.ClothesInventory{},
		&models.CartItem{},
		&models.WishlistItem{},
	} {
		if err := db.Where("product_id = ?", id).Delete(model).Error; err != nil {
			return false, err
		}
	}
	res := db.Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CountOrders(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("product_id = ?", id).Count(&count).Error
	return count, err
}

func (r *repository) Find(ctx context.Context, id int64) (catalog.Product, error) {
	var rows []projection.ProductRow
	q := r.db.WithContext(ctx).Table("product p").Select(strings.Join(projection.ProductColumns("p"), ", "))
	if err := projection.JoinAttributes(q, "p").Where("p.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return catalog.Product{}, err
	}
	if len(rows) == 0 {
		return catalog.Product{}, gorm.ErrRecordNotFound
	}
	return rows[0].Product()
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ListByCategory returns one page of the category ordered by ascending id.
func (r *repository) ListByCategory(ctx context.Context, category enums.ProductCategory, page pagination.Page) ([]catalog.Product, error) {
	var rows []projection.ProductRow
	q := r.db.WithContext(ctx).Table("product p").Select(strings.Join(projection.ProductColumns("p"), ", "))
	err := projection.JoinAttributes(q, "p").
		Where("p.category_id = ?", category.Code()).
		Order("p.id ASC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return projection.Products(rows)
}

// DecrementStock takes qty units only when at least qty are available; false
// means the guard failed and nothing changed.
func (r *repository) DecrementStock(ctx context.Context, id int64, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Exec(`UPDATE product SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND quantity >= ?`, qty, id, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) IncrementStock(ctx context.Context, id int64, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Exec(`UPDATE product SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, qty, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
