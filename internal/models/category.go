package models

import "time"

// Category is one entry of the category taxonomy. Global categories have
// a nil OwnerID; user-created ones carry the owning user's id.
// CategoryName is unique across the directory so the name->id lookup used
// during extraction is unambiguous.
type Category struct {
	CategoryID   int64     `db:"category_id"   json:"category_id"`
	CategoryName string    `db:"category_name" json:"category_name"`
	Icon         string    `db:"icon"          json:"icon"`
	OwnerID      *int64    `db:"owner_id"      json:"owner_id"`
	CreatedAt    time.Time `db:"created_at"    json:"-"`
}
