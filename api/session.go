package api

import (
	"errors"
	"sync"

	"hermannm.dev/devlog/log"
	"hermannm.dev/pivot/config"
	"hermannm.dev/pivot/db"
	"hermannm.dev/pivot/layout"
	"hermannm.dev/pivot/pivot"
)

var (
	errNoPivotLoaded = errors.New("no pivot table has been loaded yet")
	errPivotReplaced = errors.New("pivot table was replaced by another load while reloading")
)

// pivotSession is the single pivot table served by the API. The grid is not safe for concurrent
// use, so every access goes through the lock.
type pivotSession struct {
	lock          sync.Mutex
	grid          *pivot.Grid[db.Row]
	schema        db.TableSchema
	layout        layout.Layout
	loaded        bool
	defaultLayout *layout.Layout

	// Incremented by every load, so that a reload can tell whether the rows it fetched still
	// belong to the loaded table.
	loadCount uint64
}

func newPivotSession(config config.Pivot, defaultLayout *layout.Layout) *pivotSession {
	pathKeyStyle := pivot.PathKeyStructural
	if config.LegacyPathKeys {
		pathKeyStyle = pivot.PathKeyLegacy
	}

	return &pivotSession{
		grid: pivot.NewGrid[db.Row](pivot.Options{
			AllowDrillDown: config.AllowDrillDown,
			PathKeyStyle:   pathKeyStyle,
			OnChange: func() {
				log.Debug("pivot drill-down state changed")
			},
		}),
		defaultLayout: defaultLayout,
	}
}

// resolveLayout picks the requested layout, or the default layout if the request has none.
func (session *pivotSession) resolveLayout(requested *layout.Layout) (layout.Layout, error) {
	if requested != nil {
		return *requested, nil
	}
	if session.defaultLayout != nil {
		return *session.defaultLayout, nil
	}
	return layout.Layout{}, errors.New("request has no pivot layout, and no default layout is configured")
}

func (session *pivotSession) load(
	schema db.TableSchema,
	pivotLayout layout.Layout,
	pivotConfig pivot.Configuration[db.Row],
	rows []db.Row,
) PivotResult {
	session.lock.Lock()
	defer session.lock.Unlock()

	session.grid.Configure(pivotConfig.RowFields, pivotConfig.ColumnFields, pivotConfig.Measures)
	session.grid.SetItems(rows)
	session.schema = schema
	session.layout = pivotLayout
	session.loaded = true
	session.loadCount++

	return newPivotResult(session.grid)
}

func (session *pivotSession) loadedSchema() (schema db.TableSchema, loadCount uint64, err error) {
	session.lock.Lock()
	defer session.lock.Unlock()

	if !session.loaded {
		return db.TableSchema{}, 0, errNoPivotLoaded
	}
	return session.schema, session.loadCount, nil
}

// reload replaces the rows of the grid, unless another load has happened since loadCount was
// read with loadedSchema.
func (session *pivotSession) reload(rows []db.Row, loadCount uint64) (PivotResult, error) {
	session.lock.Lock()
	defer session.lock.Unlock()

	if !session.loaded {
		return PivotResult{}, errNoPivotLoaded
	}
	if session.loadCount != loadCount {
		return PivotResult{}, errPivotReplaced
	}

	session.grid.SetItems(rows)
	session.grid.Reload()
	return newPivotResult(session.grid), nil
}

func (session *pivotSession) toggle(axis pivot.Axis, pathKey pivot.PathKey) (PivotResult, error) {
	session.lock.Lock()
	defer session.lock.Unlock()

	if !session.loaded {
		return PivotResult{}, errNoPivotLoaded
	}

	session.grid.Toggle(axis, pathKey)
	return newPivotResult(session.grid), nil
}

func (session *pivotSession) result() (PivotResult, error) {
	session.lock.Lock()
	defer session.lock.Unlock()

	if !session.loaded {
		return PivotResult{}, errNoPivotLoaded
	}
	return newPivotResult(session.grid), nil
}
