package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ModQueryOptions filters the browsing query.
type ModQueryOptions struct {
	ExcludedCategories []string
	IncludeDeprecated  bool
	IncludeNSFW        bool
	Limit              int
	UnratedBy          uint // when set, hide mods this user already rated
}

func DefaultModQueryOptions() ModQueryOptions {
	return ModQueryOptions{Limit: 20}
}

// QueryMods returns mods matching opts, most recently updated first.
func QueryMods(ctx context.Context, gdb *gorm.DB, opts ModQueryOptions) ([]Mod, error) {
	q := gdb.WithContext(ctx).Model(&Mod{})

	if len(opts.ExcludedCategories) > 0 {
		excluded := gdb.Model(&ModCategory{}).
			Select("mod_categories.mod_id").
			Joins("JOIN categories ON categories.id = mod_categories.category_id").
			Where("categories.name IN ?", opts.ExcludedCategories)
		q = q.Where("mods.id NOT IN (?)", excluded)
	}
	if !opts.IncludeDeprecated {
		q = q.Where("mods.deprecated = ?", false)
	}
	if !opts.IncludeNSFW {
		q = q.Where("mods.nsfw = ?", false)
	}
	if opts.UnratedBy != 0 {
		rated := gdb.Table("ratings").Select("mod_id").Where("user_id = ?", opts.UnratedBy)
		q = q.Where("mods.id NOT IN (?)", rated)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultModQueryOptions().Limit
	}

	var mods []Mod
	err := q.Order("mods.updated_date DESC").Limit(limit).Find(&mods).Error
	return mods, err
}

// CategoryNames returns every stored category name.
func CategoryNames(ctx context.Context, gdb *gorm.DB) ([]string, error) {
	var names []string
	err := gdb.WithContext(ctx).Model(&Category{}).Order("name").Pluck("name", &names).Error
	return names, err
}

// ModCategoryNames maps each of ids to its category names.
func ModCategoryNames(ctx context.Context, gdb *gorm.DB, ids []uuid.UUID) (map[uuid.UUID][]string, error) {
	out := make(map[uuid.UUID][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ModID uuid.UUID
		Name  string
	}
	err := gdb.WithContext(ctx).Model(&ModCategory{}).
		Select("mod_categories.mod_id AS mod_id, categories.name AS name").
		Joins("JOIN categories ON categories.id = mod_categories.category_id").
		Where("mod_categories.mod_id IN ?", ids).
		Order("categories.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ModID] = append(out[r.ModID], r.Name)
	}
	return out, nil
}

// LatestImport returns the most recent committed import, or nil if the
// catalog was never imported.
func LatestImport(ctx context.Context, gdb *gorm.DB) (*ModImport, error) {
	var imp ModImport
	err := gdb.WithContext(ctx).Order("finished_at DESC").First(&imp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &imp, nil
}
