package database

import (
	"time"

	"gorm.io/gorm"
)

// Paginate limits a query to one page. Pages start at 1; a non-positive
// page or size leaves the query unbounded.
func Paginate(page, size int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 || size < 1 {
			return db
		}
		return db.Offset((page - 1) * size).Limit(size)
	}
}

// SoftDeleted lifts gorm's default deleted_at scope and keeps only the rows
// that are soft-deleted.
func SoftDeleted(db *gorm.DB) *gorm.DB {
	return db.Unscoped().Where("deleted_at IS NOT NULL")
}

// RestorableAt keeps rows whose recovery window is still open at now.
func RestorableAt(now time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("expires_at > ?", now)
	}
}

// ExpiredAt keeps rows whose recovery window closed at or before now.
func ExpiredAt(now time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("expires_at <= ?", now)
	}
}
