package api

import (
	"fmt"
	"net/http"

	"hermannm.dev/pivot/config"
	"hermannm.dev/pivot/db"
	"hermannm.dev/pivot/layout"
)

type PivotAPI struct {
	db      db.AnalysisDB
	router  *http.ServeMux
	config  config.Config
	session *pivotSession
}

// NewPivotAPI registers the API's routes on the given router. The default layout is used by
// load requests that do not include one, and may be nil.
func NewPivotAPI(
	db db.AnalysisDB,
	router *http.ServeMux,
	config config.Config,
	defaultLayout *layout.Layout,
) *PivotAPI {
	api := &PivotAPI{
		db:      db,
		router:  router,
		config:  config,
		session: newPivotSession(config.Pivot, defaultLayout),
	}

	api.router.HandleFunc("POST /csv/deduce-data-types", api.DeduceCSVDataTypes)
	api.router.HandleFunc("POST /tables/create-from-csv", api.CreateTableFromCSV)
	api.router.HandleFunc("POST /pivot/load", api.LoadPivot)
	api.router.HandleFunc("GET /pivot", api.GetPivot)
	api.router.HandleFunc("POST /pivot/toggle", api.TogglePivotGroup)
	api.router.HandleFunc("POST /pivot/reload", api.ReloadPivot)

	return api
}

func (api *PivotAPI) ListenAndServe() error {
	return http.ListenAndServe(fmt.Sprintf(":%s", api.config.API.Port), api.router)
}
