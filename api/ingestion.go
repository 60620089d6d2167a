package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"hermannm.dev/pivot/csv"
	"hermannm.dev/pivot/db"
	"hermannm.dev/wrap"
)

const maxRowsToCheckForCSVSchemaDeduction = 100

// Expects:
//   - query parameter 'table' (optional): table name to put in the returned schema
//   - multipart form field 'csvFile': CSV file to deduce types from
//
// Returns:
//   - JSON-encoded db.TableSchema
func (api *PivotAPI) DeduceCSVDataTypes(res http.ResponseWriter, req *http.Request) {
	csvFile, _, err := req.FormFile("csvFile")
	if err != nil {
		sendClientError(res, err, "failed to get file upload from request")
		return
	}
	defer csvFile.Close()

	csvReader, err := csv.NewReader(csvFile, false)
	if err != nil {
		sendClientError(res, err, "failed to read uploaded CSV file")
		return
	}

	table := req.URL.Query().Get("table")
	schema, err := csvReader.DeduceDataTypes(table, maxRowsToCheckForCSVSchemaDeduction)
	if err != nil {
		sendClientError(res, err, "failed to deduce data types from uploaded CSV")
		return
	}

	sendJSON(res, schema)
}

// Expects:
//   - query parameter 'table': name of table to create
//   - multipart form field 'schema': JSON-encoded db.TableSchema
//   - multipart form field 'csvFile': CSV file to read data from
func (api *PivotAPI) CreateTableFromCSV(res http.ResponseWriter, req *http.Request) {
	table := req.URL.Query().Get("table")
	if table == "" {
		sendClientError(res, nil, "missing 'table' query parameter in request")
		return
	}

	schema, err := getSchemaFromRequest(req, table)
	if err != nil {
		sendClientError(res, err, "")
		return
	}

	csvFile, _, err := req.FormFile("csvFile")
	if err != nil {
		sendClientError(res, err, "failed to get CSV file from request")
		return
	}
	defer csvFile.Close()

	csvReader, err := csv.NewReader(csvFile, true)
	if err != nil {
		sendClientError(res, err, "failed to read uploaded CSV file")
		return
	}

	if err := api.db.CreateTable(req.Context(), schema); err != nil {
		sendServerError(res, err, "failed to create table from uploaded CSV")
		return
	}

	if err := api.db.IngestData(req.Context(), csvReader, schema); err != nil {
		// Leaves no half-filled table behind.
		if _, dropErr := api.db.DropTable(req.Context(), table); dropErr != nil {
			sendServerError(res, wrap.Errors(
				"failed to insert CSV data AND failed to drop the created table afterwards",
				err,
				dropErr,
			), "")
			return
		}

		sendServerError(res, err, "failed to insert CSV data after creating table")
		return
	}

	sendJSON(res, schema)
}

func getSchemaFromRequest(req *http.Request, table string) (db.TableSchema, error) {
	var schema db.TableSchema

	schemaInput := req.FormValue("schema")
	if schemaInput == "" {
		return db.TableSchema{}, errors.New("missing 'schema' field in request")
	}
	if err := json.Unmarshal([]byte(schemaInput), &schema); err != nil {
		return db.TableSchema{}, wrap.Error(err, "failed to parse table schema from request")
	}

	schema.TableName = table
	if errs := schema.Validate(); len(errs) != 0 {
		return db.TableSchema{}, wrap.Errors("invalid table schema", errs...)
	}

	return schema, nil
}
