package refresh

import (
	"fmt"
	"time"

	"mod-catalog-mirror/cache"
	"mod-catalog-mirror/config"
)

// Decision is what a refresh cycle does with the catalog.
type Decision int

const (
	Skip Decision = iota
	UseCache
	FetchRemote
)

func (d Decision) String() string {
	switch d {
	case Skip:
		return "skip"
	case UseCache:
		return "use-cache"
	case FetchRemote:
		return "fetch-remote"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Decide picks the action for one cycle. A non-positive interval means the
// cache is always expired.
func Decide(mode config.RefreshMode, interval time.Duration, info cache.Info, now time.Time) (Decision, error) {
	switch mode {
	case config.RefreshNone:
		return Skip, nil
	case config.RefreshCacheOnly:
		if !info.Exists {
			return Skip, &ConfigurationError{Msg: "MOD_REFRESH=cache-only requires an existing cache file"}
		}
		return UseCache, nil
	case config.RefreshExpiration:
		if !info.Exists || interval <= 0 {
			return FetchRemote, nil
		}
		elapsed := now.Sub(info.ModTime)
		if elapsed < 0 {
			elapsed = 0
		}
		if elapsed >= interval {
			return FetchRemote, nil
		}
		return UseCache, nil
	case config.RefreshAlwaysDownload:
		return FetchRemote, nil
	default:
		return Skip, &ConfigurationError{Msg: fmt.Sprintf("unknown refresh mode %s", mode)}
	}
}
