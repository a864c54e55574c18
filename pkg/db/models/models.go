package models

// All lists every model for AutoMigrate in tests and dev bootstrap.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&ElectronicsInventory{},
		&ClothesInventory{},
		&CartItem{},
		&WishlistItem{},
		&Address{},
		&Order{},
		&OutboxEvent{},
	}
}
