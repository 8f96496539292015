package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RatingValue is the rating as the application sees it, independent of how
// the live schema stores it.
type RatingValue int

const (
	RatingUnknown RatingValue = iota
	Like
	Dislike
)

func (r RatingValue) String() string {
	switch r {
	case Like:
		return "Like"
	case Dislike:
		return "Dislike"
	default:
		return "Unknown"
	}
}

// ParseRatingValue accepts "like"/"dislike" in any case.
func ParseRatingValue(s string) (RatingValue, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "like":
		return Like, nil
	case "dislike":
		return Dislike, nil
	default:
		return RatingUnknown, fmt.Errorf("unknown rating %q", s)
	}
}

// lookupID is the fixed rating_types id of a value.
func (r RatingValue) lookupID() (uint, bool) {
	switch r {
	case Like:
		return 1, true
	case Dislike:
		return 2, true
	default:
		return 0, false
	}
}

// RatingGeneration identifies how ratings are stored.
type RatingGeneration int

const (
	// RatingsModKeyed: one enum per mod, no user.
	RatingsModKeyed RatingGeneration = iota + 1
	// RatingsUserKeyed: one enum per (mod, user).
	RatingsUserKeyed
	// RatingsLookupTable: (mod, user) with a nullable FK into rating_types.
	RatingsLookupTable
)

const CurrentRatingGeneration = RatingsLookupTable

var ErrRatingNeedsUser = errors.New("rating generation requires a user")

// RatingsTable returns the ratings contract of a generation.
func RatingsTable(gen RatingGeneration) Table {
	switch gen {
	case RatingsModKeyed:
		return Table{Name: "ratings", Key: []string{"mod_id"}, Columns: []string{"mod_id", "rating"}}
	case RatingsUserKeyed:
		return Table{Name: "ratings", Key: []string{"mod_id", "user_id"}, Columns: []string{"mod_id", "user_id", "rating"}}
	default:
		return Table{Name: "ratings", Key: []string{"mod_id", "user_id"}, Columns: []string{"mod_id", "user_id", "rating_type_id"}}
	}
}

// EncodeRating translates a rating into the column values of gen.
func EncodeRating(gen RatingGeneration, modID uuid.UUID, userID uint, value RatingValue) (map[string]any, error) {
	if value != Like && value != Dislike {
		return nil, fmt.Errorf("cannot store rating %s", value)
	}
	switch gen {
	case RatingsModKeyed:
		return map[string]any{"mod_id": modID, "rating": value.String()}, nil
	case RatingsUserKeyed:
		if userID == 0 {
			return nil, ErrRatingNeedsUser
		}
		return map[string]any{"mod_id": modID, "user_id": userID, "rating": value.String()}, nil
	case RatingsLookupTable:
		if userID == 0 {
			return nil, ErrRatingNeedsUser
		}
		id, _ := value.lookupID()
		return map[string]any{"mod_id": modID, "user_id": userID, "rating_type_id": id}, nil
	default:
		return nil, fmt.Errorf("unknown rating generation %d", gen)
	}
}

// DecodeRating is the inverse of EncodeRating. A NULL lookup reference
// decodes to RatingUnknown.
func DecodeRating(gen RatingGeneration, row map[string]any) (RatingValue, error) {
	switch gen {
	case RatingsModKeyed, RatingsUserKeyed:
		s, ok := row["rating"].(string)
		if !ok {
			return RatingUnknown, fmt.Errorf("rating column missing")
		}
		return ParseRatingValue(s)
	case RatingsLookupTable:
		var id uint
		switch v := row["rating_type_id"].(type) {
		case nil:
			return RatingUnknown, nil
		case uint:
			id = v
		case *uint:
			if v == nil {
				return RatingUnknown, nil
			}
			id = *v
		case int64:
			id = uint(v)
		case int:
			id = uint(v)
		default:
			return RatingUnknown, fmt.Errorf("unexpected rating_type_id type %T", v)
		}
		for _, r := range []RatingValue{Like, Dislike} {
			if lid, _ := r.lookupID(); lid == id {
				return r, nil
			}
		}
		return RatingUnknown, fmt.Errorf("unknown rating_type_id %d", id)
	default:
		return RatingUnknown, fmt.Errorf("unknown rating generation %d", gen)
	}
}

// seedRatingTypes makes sure the lookup rows exist.
func seedRatingTypes(gdb *gorm.DB) error {
	rows := make([]RatingType, 0, 2)
	for _, r := range []RatingValue{Like, Dislike} {
		id, _ := r.lookupID()
		rows = append(rows, RatingType{ID: id, Name: r.String()})
	}
	return gdb.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// RateMod stores or replaces userID's rating of modID.
func RateMod(ctx context.Context, gdb *gorm.DB, modID uuid.UUID, userID uint, value RatingValue) error {
	row, err := EncodeRating(CurrentRatingGeneration, modID, userID, value)
	if err != nil {
		return err
	}
	table := RatingsTable(CurrentRatingGeneration)
	keys := make([]clause.Column, 0, len(table.Key))
	for _, k := range table.Key {
		keys = append(keys, clause.Column{Name: k})
	}
	err = gdb.WithContext(ctx).Table(table.Name).Clauses(clause.OnConflict{
		Columns:   keys,
		DoUpdates: clause.AssignmentColumns(table.NonKey()),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to save rating for mod %s: %w", modID, err)
	}
	return nil
}

// UserRating returns userID's rating of modID, RatingUnknown if none.
func UserRating(ctx context.Context, gdb *gorm.DB, modID uuid.UUID, userID uint) (RatingValue, error) {
	table := RatingsTable(CurrentRatingGeneration)
	var rows []map[string]any
	err := gdb.WithContext(ctx).Table(table.Name).
		Select(table.Columns).
		Where("mod_id = ? AND user_id = ?", modID, userID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return RatingUnknown, err
	}
	if len(rows) == 0 {
		return RatingUnknown, nil
	}
	return DecodeRating(CurrentRatingGeneration, rows[0])
}

// RatedMods returns the mods userID rated with value, newest first.
func RatedMods(ctx context.Context, gdb *gorm.DB, userID uint, value RatingValue, limit int) ([]Mod, error) {
	id, ok := value.lookupID()
	if !ok {
		return nil, fmt.Errorf("cannot query rating %s", value)
	}
	var mods []Mod
	err := gdb.WithContext(ctx).
		Joins("JOIN ratings ON ratings.mod_id = mods.id").
		Where("ratings.user_id = ? AND ratings.rating_type_id = ?", userID, id).
		Order("mods.updated_date DESC").
		Limit(limit).
		Find(&mods).Error
	return mods, err
}
