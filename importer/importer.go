package importer

import (
	"context"
	"fmt"
	"time"

	"mod-catalog-mirror/catalog"
	"mod-catalog-mirror/config"
	"mod-catalog-mirror/db"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Result summarizes one import.
type Result struct {
	ModsInserted      int
	ModsUpdated       int
	CategoriesCreated int
	LinksWritten      int
	RecordsSkipped    int
	ModBatches        int // upsert statements issued for mods
}

// Importer writes normalized catalogs into the store.
type Importer struct {
	DB            *gorm.DB
	ChunkSize     int // rows per statement, before the parameter bound
	MaxParameters int // bound parameters per statement
	Log           *zap.SugaredLogger
	Now           func() time.Time
}

// New returns an Importer configured from cfg.
func New(gdb *gorm.DB, cfg config.Config, log *zap.SugaredLogger) *Importer {
	return &Importer{
		DB:            gdb,
		ChunkSize:     cfg.SQLChunkSize,
		MaxParameters: cfg.SQLMaxParameters,
		Log:           log,
		Now:           time.Now,
	}
}

// BatchSize is the number of rows per statement such that
// rows*columns never exceeds maxParams. Never less than one.
func BatchSize(chunkSize, columns, maxParams int) int {
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	if maxParams <= 0 {
		maxParams = config.DefaultMaxParameters
	}
	if columns <= 0 {
		columns = 1
	}
	size := chunkSize
	if bound := maxParams / columns; bound < size {
		size = bound
	}
	if size < 1 {
		size = 1
	}
	return size
}

// chunks splits n items into [start, end) ranges of at most size.
func chunks(n, size int) [][2]int {
	if n == 0 {
		return nil
	}
	out := make([][2]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

func (im *Importer) batch(table db.Table) int {
	return BatchSize(im.ChunkSize, table.Width(), im.MaxParameters)
}

// Import writes snapshot in one transaction: categories, then mods, then
// the mod-category links. Any error rolls the whole import back.
func (im *Importer) Import(ctx context.Context, snapshot catalog.Normalized, source string) (Result, error) {
	started := im.now()
	res := Result{RecordsSkipped: snapshot.Skipped}

	err := im.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := im.insertCategories(tx, snapshot.NewCategories)
		if err != nil {
			return err
		}
		res.CategoriesCreated = created

		categoryIDs, err := loadCategoryIDs(tx)
		if err != nil {
			return err
		}

		ids := make([]uuid.UUID, len(snapshot.Entries))
		for i, e := range snapshot.Entries {
			ids[i] = e.Mod.ID
		}
		existing, err := im.existingModIDs(tx, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, ok := existing[id]; ok {
				res.ModsUpdated++
			} else {
				res.ModsInserted++
			}
		}

		batches, err := im.upsertMods(tx, snapshot.Entries)
		if err != nil {
			return err
		}
		res.ModBatches = batches

		if err := im.deleteLinks(tx, ids); err != nil {
			return err
		}
		links, err := im.insertLinks(tx, snapshot.Entries, categoryIDs)
		if err != nil {
			return err
		}
		res.LinksWritten = links

		record := db.ModImport{
			StartedAt:         started,
			FinishedAt:        im.now(),
			Source:            source,
			ModsInserted:      res.ModsInserted,
			ModsUpdated:       res.ModsUpdated,
			CategoriesCreated: res.CategoriesCreated,
			RecordsSkipped:    res.RecordsSkipped,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record import: %w", err)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	im.log().Infow("Catalog import committed",
		"source", source,
		"mods_inserted", res.ModsInserted,
		"mods_updated", res.ModsUpdated,
		"categories_created", res.CategoriesCreated,
		"links", res.LinksWritten,
		"skipped", res.RecordsSkipped,
		"mod_batches", res.ModBatches,
	)
	return res, nil
}

func (im *Importer) insertCategories(tx *gorm.DB, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}
	rows := make([]db.Category, len(names))
	for i, name := range names {
		rows[i] = db.Category{Name: name}
	}

	created := 0
	for _, r := range chunks(len(rows), im.batch(db.CategoryInsert)) {
		batch := rows[r[0]:r[1]]
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&batch)
		if result.Error != nil {
			return 0, fmt.Errorf("failed to insert categories: %w", result.Error)
		}
		created += int(result.RowsAffected)
	}
	im.log().Debugw("Categories inserted", "created", created, "requested", len(names))
	return created, nil
}

func loadCategoryIDs(tx *gorm.DB) (map[string]uint, error) {
	var categories []db.Category
	if err := tx.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	out := make(map[string]uint, len(categories))
	for _, c := range categories {
		out[c.Name] = c.ID
	}
	return out, nil
}

func (im *Importer) existingModIDs(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	out := make(map[uuid.UUID]struct{}, len(ids))
	for _, r := range chunks(len(ids), BatchSize(im.MaxParameters, 1, im.MaxParameters)) {
		var found []uuid.UUID
		if err := tx.Model(&db.Mod{}).Where("id IN ?", ids[r[0]:r[1]]).Pluck("id", &found).Error; err != nil {
			return nil, fmt.Errorf("failed to look up existing mods: %w", err)
		}
		for _, id := range found {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (im *Importer) upsertMods(tx *gorm.DB, entries []catalog.Entry) (int, error) {
	mods := make([]db.Mod, len(entries))
	for i, e := range entries {
		mods[i] = e.Mod
	}

	ranges := chunks(len(mods), im.batch(db.ModsTable))
	for i, r := range ranges {
		batch := mods[r[0]:r[1]]
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(db.ModsTable.NonKey()),
		}).Create(&batch).Error
		if err != nil {
			return i, fmt.Errorf("failed to upsert mods batch %d/%d: %w", i+1, len(ranges), err)
		}
		im.log().Debugw("Mods batch written", "batch", i+1, "of", len(ranges), "rows", len(batch))
	}
	return len(ranges), nil
}

// deleteLinks drops the current links of ids so they can be rewritten from
// the snapshot without accumulating stale ones.
func (im *Importer) deleteLinks(tx *gorm.DB, ids []uuid.UUID) error {
	for _, r := range chunks(len(ids), BatchSize(im.MaxParameters, 1, im.MaxParameters)) {
		err := tx.Where("mod_id IN ?", ids[r[0]:r[1]]).Delete(&db.ModCategory{}).Error
		if err != nil {
			return fmt.Errorf("failed to clear mod categories: %w", err)
		}
	}
	return nil
}

func (im *Importer) insertLinks(tx *gorm.DB, entries []catalog.Entry, categoryIDs map[string]uint) (int, error) {
	var links []db.ModCategory
	for _, e := range entries {
		for _, name := range e.Categories {
			id, ok := categoryIDs[name]
			if !ok {
				// Normalize and insertCategories together guarantee every name exists.
				return 0, fmt.Errorf("category %q of mod %s was not stored", name, e.Mod.ID)
			}
			links = append(links, db.ModCategory{ModID: e.Mod.ID, CategoryID: id})
		}
	}

	for _, r := range chunks(len(links), im.batch(db.ModCategoriesTable)) {
		batch := links[r[0]:r[1]]
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&batch).Error
		if err != nil {
			return 0, fmt.Errorf("failed to insert mod categories: %w", err)
		}
	}
	return len(links), nil
}

func (im *Importer) now() time.Time {
	if im.Now != nil {
		return im.Now().UTC()
	}
	return time.Now().UTC()
}

func (im *Importer) log() *zap.SugaredLogger {
	if im.Log != nil {
		return im.Log
	}
	return zap.NewNop().Sugar()
}
