package api

import (
	"encoding/json"
	"net/http"

	"hermannm.dev/devlog/log"
	"hermannm.dev/pivot/db"
	"hermannm.dev/pivot/layout"
	"hermannm.dev/pivot/pivot"
	"hermannm.dev/wrap"
)

type loadPivotRequest struct {
	Schema db.TableSchema `json:"schema"`
	// Falls back to the configured default layout if omitted.
	Layout *layout.Layout `json:"layout"`
}

// Expects:
//   - query parameter 'table': name of table to load rows from
//   - JSON body with 'schema' (db.TableSchema of the table) and optional 'layout'
//
// Returns:
//   - JSON-encoded PivotResult
func (api *PivotAPI) LoadPivot(res http.ResponseWriter, req *http.Request) {
	table := req.URL.Query().Get("table")
	if table == "" {
		sendClientError(res, nil, "missing 'table' query parameter in request")
		return
	}

	var request loadPivotRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		sendClientError(res, err, "failed to parse pivot load request")
		return
	}

	schema := request.Schema
	schema.TableName = table
	if errs := schema.Validate(); len(errs) != 0 {
		sendClientError(res, wrap.Errors("invalid table schema", errs...), "")
		return
	}

	pivotLayout, err := api.session.resolveLayout(request.Layout)
	if err != nil {
		sendClientError(res, err, "")
		return
	}

	pivotConfig, err := pivotLayout.Build(schema)
	if err != nil {
		sendClientError(res, err, "")
		return
	}

	rows, err := api.loadRows(req, schema)
	if err != nil {
		sendServerError(res, err, "failed to load rows for pivot table")
		return
	}

	sendJSON(res, api.session.load(schema, pivotLayout, pivotConfig, rows))
}

// Returns:
//   - JSON-encoded PivotResult of the loaded pivot table
func (api *PivotAPI) GetPivot(res http.ResponseWriter, req *http.Request) {
	result, err := api.session.result()
	if err != nil {
		sendClientError(res, err, "")
		return
	}

	sendJSON(res, result)
}

// Expects:
//   - query parameter 'axis': ROWS or COLUMNS
//   - query parameter 'pathKey': path key of the group to collapse or expand
//
// Returns:
//   - JSON-encoded PivotResult after the toggle
func (api *PivotAPI) TogglePivotGroup(res http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()

	axis, ok := pivot.ParseAxis(query.Get("axis"))
	if !ok {
		sendClientError(res, nil, "query parameter 'axis' must be ROWS or COLUMNS")
		return
	}

	pathKey := query.Get("pathKey")
	if pathKey == "" {
		sendClientError(res, nil, "missing 'pathKey' query parameter in request")
		return
	}

	result, err := api.session.toggle(axis, pivot.PathKey(pathKey))
	if err != nil {
		sendClientError(res, err, "")
		return
	}

	sendJSON(res, result)
}

// Reloads the rows of the loaded pivot table from the database, keeping its layout and
// drill-down state.
//
// Returns:
//   - JSON-encoded PivotResult with the new rows
func (api *PivotAPI) ReloadPivot(res http.ResponseWriter, req *http.Request) {
	schema, loadCount, err := api.session.loadedSchema()
	if err != nil {
		sendClientError(res, err, "")
		return
	}

	rows, err := api.loadRows(req, schema)
	if err != nil {
		sendServerError(res, err, "failed to reload rows for pivot table")
		return
	}

	result, err := api.session.reload(rows, loadCount)
	if err != nil {
		sendClientError(res, err, "")
		return
	}

	sendJSON(res, result)
}

func (api *PivotAPI) loadRows(req *http.Request, schema db.TableSchema) ([]db.Row, error) {
	maxRows := api.config.Pivot.MaxRows

	rows, err := api.db.LoadRows(req.Context(), schema, maxRows)
	if err != nil {
		return nil, err
	}

	if maxRows > 0 && len(rows) >= maxRows {
		log.Infof(
			"loaded %d rows from table '%s', which is the configured maximum; later rows are left out",
			len(rows),
			schema.TableName,
		)
	} else {
		log.Debugf("loaded %d rows from table '%s'", len(rows), schema.TableName)
	}

	return rows, nil
}
