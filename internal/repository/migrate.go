package repository

import "gorm.io/gorm"

// AutoMigrate creates the billing schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&deviceModel{},
		&sessionModel{},
		&orderModel{},
		&billModel{},
		&paymentModel{},
		&partialPaymentModel{},
	)
}
