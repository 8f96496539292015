package db

// Table describes the shape of one table as the import pipeline sees it. The
// pipeline never inspects the live database; when a migration changes a
// table, the matching Table here changes with it.
type Table struct {
	Name    string
	Key     []string
	Columns []string // insert order, key columns included
}

// Width is the number of bound parameters one row needs.
func (t Table) Width() int {
	return len(t.Columns)
}

// NonKey returns the columns an upsert overwrites.
func (t Table) NonKey() []string {
	key := make(map[string]struct{}, len(t.Key))
	for _, k := range t.Key {
		key[k] = struct{}{}
	}
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if _, ok := key[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

var (
	ModsTable = Table{
		Name: "mods",
		Key:  []string{"id"},
		Columns: []string{
			"id",
			"name",
			"description",
			"icon_url",
			"full_name",
			"owner",
			"package_url",
			"updated_date",
			"rating",
			"deprecated",
			"nsfw",
		},
	}

	CategoriesTable = Table{
		Name:    "categories",
		Key:     []string{"id"},
		Columns: []string{"id", "name"},
	}

	// CategoryInsert is the category row as written by the importer; the
	// store assigns id.
	CategoryInsert = Table{
		Name:    "categories",
		Key:     []string{"name"},
		Columns: []string{"name"},
	}

	ModCategoriesTable = Table{
		Name:    "mod_categories",
		Key:     []string{"mod_id", "category_id"},
		Columns: []string{"mod_id", "category_id"},
	}

	RatingTypesTable = Table{
		Name:    "rating_types",
		Key:     []string{"id"},
		Columns: []string{"id", "name"},
	}

	UsersTable = Table{
		Name:    "users",
		Key:     []string{"id"},
		Columns: []string{"id", "username", "password_hash"},
	}
)

// Schema is the full contract for the current migration level.
var Schema = []Table{
	ModsTable,
	CategoriesTable,
	ModCategoriesTable,
	RatingsTable(CurrentRatingGeneration),
	RatingTypesTable,
	UsersTable,
}
