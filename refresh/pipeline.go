package refresh

import (
	"context"
	"time"

	"mod-catalog-mirror/cache"
	"mod-catalog-mirror/catalog"
	"mod-catalog-mirror/config"
	"mod-catalog-mirror/db"
	"mod-catalog-mirror/importer"
	"mod-catalog-mirror/thunderstore"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	SourceRemote = "remote"
	SourceCache  = "cache"
)

// Fetcher retrieves the raw catalog.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Stage names a step of the cycle, reported through Pipeline.Progress.
type Stage string

const (
	StageDecide    Stage = "decide"
	StageFetch     Stage = "fetch"
	StageCache     Stage = "cache"
	StageNormalize Stage = "normalize"
	StageImport    Stage = "import"
	StageDone      Stage = "done"
)

// Event is one progress notification.
type Event struct {
	Stage   Stage
	Message string
}

// Report is the outcome of a successful cycle.
type Report struct {
	Decision     Decision
	Source       string
	Result       importer.Result
	RecordErrors []*catalog.RecordError
	Duration     time.Duration
}

// Pipeline runs refresh cycles. It keeps no state between runs.
type Pipeline struct {
	Mode     config.RefreshMode
	Interval time.Duration
	Cache    cache.Store
	Fetcher  Fetcher
	DB       *gorm.DB
	Importer *importer.Importer
	Log      *zap.SugaredLogger
	Now      func() time.Time
	Progress func(Event)
}

// New wires a Pipeline from configuration.
func New(cfg config.Config, store cache.Store, fetcher Fetcher, gdb *gorm.DB, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		Mode:     cfg.RefreshMode,
		Interval: cfg.RefreshInterval,
		Cache:    store,
		Fetcher:  fetcher,
		DB:       gdb,
		Importer: importer.New(gdb, cfg, log),
		Log:      log,
		Now:      time.Now,
	}
}

// Run executes one cycle: decide, obtain a snapshot, normalize, import. It
// either commits a complete import or returns an error with the store left as
// it was. Malformed records are not errors; they are counted in the report.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := p.now()
	log := p.log()

	p.emit(StageDecide, "checking cache")
	info, err := p.Cache.Stat()
	if err != nil {
		return Report{}, &ConfigurationError{Msg: "cache file is unusable", Err: err}
	}

	decision, err := Decide(p.Mode, p.Interval, info, start)
	if err != nil {
		return Report{}, err
	}
	log.Infow("Refresh decision",
		"mode", p.Mode.String(),
		"decision", decision.String(),
		"cache_exists", info.Exists,
		"cache_age", cacheAge(info, start),
	)

	report := Report{Decision: decision}
	if decision == Skip {
		p.emit(StageDone, "refresh disabled")
		return report, nil
	}

	payload, err := p.snapshot(ctx, decision)
	if err != nil {
		return Report{}, err
	}
	report.Source = SourceCache
	if decision == FetchRemote {
		report.Source = SourceRemote
	}

	p.emit(StageNormalize, "normalizing catalog")
	existing, err := db.CategoryNames(ctx, p.DB)
	if err != nil {
		return Report{}, &StoreError{Op: "load categories", Err: err}
	}
	normalized, err := catalog.Normalize(payload, existing, log)
	if err != nil {
		if decision == FetchRemote {
			return Report{}, &TransportError{Err: err}
		}
		return Report{}, &ConfigurationError{Msg: "cached snapshot is unreadable", Err: err}
	}
	report.RecordErrors = normalized.Errors
	log.Infow("Catalog normalized",
		"mods", len(normalized.Entries),
		"new_categories", len(normalized.NewCategories),
		"skipped", normalized.Skipped,
	)

	p.emit(StageImport, "importing mods")
	result, err := p.Importer.Import(ctx, normalized, report.Source)
	if err != nil {
		log.Errorw("Import rolled back", zap.Error(err))
		return Report{}, &StoreError{Op: "import", Err: err}
	}
	report.Result = result
	report.Duration = p.now().Sub(start)

	p.emit(StageDone, "refresh complete")
	return report, nil
}

// snapshot returns the payload to import. A fetched payload replaces the
// cache before it is returned, so a later failure does not force a
// re-download.
func (p *Pipeline) snapshot(ctx context.Context, decision Decision) ([]byte, error) {
	if decision == UseCache {
		p.emit(StageCache, "reading cached catalog")
		payload, err := p.Cache.Read()
		if err != nil {
			return nil, &ConfigurationError{Msg: "cache file is unusable", Err: err}
		}
		return payload, nil
	}

	p.emit(StageFetch, "downloading catalog")
	p.log().Info("Starting catalog download")
	payload, err := p.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if err := thunderstore.ValidateEnvelope(payload); err != nil {
		return nil, &TransportError{Err: err}
	}

	p.emit(StageCache, "saving catalog to cache")
	if err := p.Cache.Write(payload); err != nil {
		return nil, &ConfigurationError{Msg: "cannot write cache file", Err: err}
	}
	p.log().Infow("Catalog cached", "bytes", len(payload))
	return payload, nil
}

func (p *Pipeline) emit(stage Stage, msg string) {
	if p.Progress != nil {
		p.Progress(Event{Stage: stage, Message: msg})
	}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) log() *zap.SugaredLogger {
	if p.Log != nil {
		return p.Log
	}
	return zap.NewNop().Sugar()
}

func cacheAge(info cache.Info, now time.Time) string {
	if !info.Exists {
		return "none"
	}
	return now.Sub(info.ModTime).Truncate(time.Second).String()
}
