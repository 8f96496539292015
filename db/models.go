package db

import (
	"time"

	"github.com/google/uuid"
)

// Mod is one catalog entry mirrored from the registry. ID is the registry's
// uuid4 and never changes; every other column is replaced on re-import.
type Mod struct {
	ID          uuid.UUID `gorm:"column:id;type:text;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description;not null"`
	IconURL     string    `gorm:"column:icon_url;not null"`
	FullName    string    `gorm:"column:full_name;not null"`
	Owner       string    `gorm:"column:owner;not null"`
	PackageURL  string    `gorm:"column:package_url;not null"`
	UpdatedDate time.Time `gorm:"column:updated_date;not null;index"`
	Rating      int64     `gorm:"column:rating;not null"`
	Deprecated  bool      `gorm:"column:deprecated;not null"`
	NSFW        bool      `gorm:"column:nsfw;not null"`
}

// Category is created lazily the first time an import sees its name.
type Category struct {
	ID   uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Name string `gorm:"column:name;not null;uniqueIndex"`
}

// ModCategory links a mod to a category.
type ModCategory struct {
	ModID      uuid.UUID `gorm:"column:mod_id;type:text;primaryKey"`
	CategoryID uint      `gorm:"column:category_id;primaryKey;index"`

	Mod      Mod      `gorm:"foreignKey:ModID;references:ID;constraint:OnDelete:CASCADE"`
	Category Category `gorm:"foreignKey:CategoryID;references:ID;constraint:OnDelete:CASCADE"`
}

// User owns ratings. PasswordHash is written by the registration flow.
type User struct {
	ID           uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Username     string `gorm:"column:username;not null;uniqueIndex"`
	PasswordHash string `gorm:"column:password_hash;not null"`
}

// RatingType is the lookup table behind Rating.RatingTypeID.
type RatingType struct {
	ID   uint   `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name;not null;uniqueIndex"`
}

// Rating is one user's verdict on one mod.
type Rating struct {
	ModID        uuid.UUID `gorm:"column:mod_id;type:text;primaryKey"`
	UserID       uint      `gorm:"column:user_id;primaryKey"`
	RatingTypeID *uint     `gorm:"column:rating_type_id"`

	Mod        Mod         `gorm:"foreignKey:ModID;references:ID;constraint:OnDelete:CASCADE"`
	User       User        `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	RatingType *RatingType `gorm:"foreignKey:RatingTypeID;references:ID;constraint:OnDelete:SET NULL"`
}

// ModImport records one committed refresh cycle.
type ModImport struct {
	ID                uint      `gorm:"column:id;primaryKey;autoIncrement"`
	StartedAt         time.Time `gorm:"column:started_at;not null"`
	FinishedAt        time.Time `gorm:"column:finished_at;not null;index"`
	Source            string    `gorm:"column:source;not null"`
	ModsInserted      int       `gorm:"column:mods_inserted"`
	ModsUpdated       int       `gorm:"column:mods_updated"`
	CategoriesCreated int       `gorm:"column:categories_created"`
	RecordsSkipped    int       `gorm:"column:records_skipped"`
}
