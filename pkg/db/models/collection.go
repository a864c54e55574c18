package models

import "time"

// CartItem links a user to a product held in their cart.
type CartItem struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:ux_cart_user_product"`
	ProductID int64     `gorm:"column:product_id;not null;uniqueIndex:ux_cart_user_product;index:idx_cart_product_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (CartItem) TableName() string { return "cart" }

// WishlistItem links a user to a liked product.
type WishlistItem struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:ux_wishlist_user_product"`
	ProductID int64     `gorm:"column:product_id;not null;uniqueIndex:ux_wishlist_user_product;index:idx_wishlist_product_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (WishlistItem) TableName() string { return "wishlist" }
