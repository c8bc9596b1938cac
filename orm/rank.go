package orm

import "gorm.io/gorm"

// Ranking orders article listings. It is a plain gorm scope so an
// alternative strategy (weighted by comment count, pinned-first, ...) can be
// swapped in without touching query code.
type Ranking func(*gorm.DB) *gorm.DB

// BumpRecency ranks by most recent activity. The id is a secondary key so
// listings stay stable when bump times collide.
func BumpRecency(db *gorm.DB) *gorm.DB {
	return db.Order("bump_time DESC, id DESC")
}
