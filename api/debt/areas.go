package debt

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"sync"
	"time"
)

// AreaDirectory maps normalized requester names (uppercase, trimmed) to area
// names. Built once per run; read-only afterwards. An empty directory means
// "no area data", never an error.
type AreaDirectory map[string]string

// Lookup resolves a requester to an area; empty string and false on a miss.
func (d AreaDirectory) Lookup(solicitante string) (string, bool) {
	if len(d) == 0 {
		return "", false
	}
	area, ok := d[strings.ToUpper(strings.TrimSpace(solicitante))]
	return area, ok
}

// LoadAreaDirectory reads the SOLICITANTE→AREA mapping from the master table.
// Any failure degrades to an empty directory: the AREA column goes all-null
// rather than failing the run.
func LoadAreaDirectory(ctx context.Context, db *sql.DB) AreaDirectory {
	dir := AreaDirectory{}
	if db == nil {
		log.Printf("[DEBT-AREAS] no database handle, area directory unavailable")
		return dir
	}
	rows, err := db.QueryContext(ctx, `SELECT solicitante, area FROM vzla_area_solicitante WHERE is_deleted = false`)
	if err != nil {
		log.Printf("[DEBT-AREAS] failed to load area directory: %v", err)
		return dir
	}
	defer rows.Close()
	for rows.Next() {
		var solicitante, area string
		if err := rows.Scan(&solicitante, &area); err != nil {
			continue
		}
		solicitante = strings.ToUpper(strings.TrimSpace(solicitante))
		area = strings.TrimSpace(area)
		if solicitante != "" && area != "" {
			dir[solicitante] = area
		}
	}
	if err := rows.Err(); err != nil {
		log.Printf("[DEBT-AREAS] area directory read incomplete: %v", err)
	}
	log.Printf("[DEBT-AREAS] area directory loaded, %d entries", len(dir))
	return dir
}

// areaCache holds the cron-refreshed snapshot. Readers always get an immutable
// map; the refresher swaps the whole snapshot under the write lock.
var areaCache = struct {
	mu        sync.RWMutex
	dir       AreaDirectory
	refreshed time.Time
}{}

// CachedAreaDirectory returns the last refreshed snapshot, or nil when the
// refresher has not run yet.
func CachedAreaDirectory() AreaDirectory {
	areaCache.mu.RLock()
	defer areaCache.mu.RUnlock()
	return areaCache.dir
}

// RefreshAreaCache reloads the directory from the master table and swaps the
// cached snapshot. Used by the scheduled refresher and at service start.
func RefreshAreaCache(ctx context.Context, db *sql.DB) int {
	dir := LoadAreaDirectory(ctx, db)
	areaCache.mu.Lock()
	areaCache.dir = dir
	areaCache.refreshed = time.Now()
	areaCache.mu.Unlock()
	return len(dir)
}

// areaDirectoryForRun prefers the cached snapshot and falls back to a direct
// load so ad-hoc runs work before the first scheduled refresh.
func areaDirectoryForRun(ctx context.Context, db *sql.DB) AreaDirectory {
	if dir := CachedAreaDirectory(); len(dir) > 0 {
		return dir
	}
	return LoadAreaDirectory(ctx, db)
}
