package csv

import (
	"hermannm.dev/devlog/log"
	"hermannm.dev/pivot/db"
	"hermannm.dev/wrap"
)

// DeduceDataTypes builds a schema for the given table from the header row and the first
// maxRowsToCheck data rows. Afterwards, the reader is positioned just after the header row, so
// the data can be ingested with the returned schema.
func (reader *Reader) DeduceDataTypes(
	table string,
	maxRowsToCheck int,
) (schema db.TableSchema, err error) {
	if err := reader.ResetReadPosition(false); err != nil {
		return db.TableSchema{}, wrap.Error(err, "failed to rewind CSV file before deducing data types")
	}

	defer func() {
		if resetErr := reader.ResetReadPosition(true); resetErr != nil && err == nil {
			err = wrap.Error(resetErr, "failed to rewind CSV file after deducing data types")
		}
	}()

	columnNames, err := reader.ReadHeaderRow()
	if err != nil {
		return db.TableSchema{}, wrap.Error(err, "failed to read CSV column names from header row")
	}

	schema = db.NewTableSchema(table, columnNames)

	rowsChecked := 0
	for rowsChecked < maxRowsToCheck {
		row, rowNumber, done, err := reader.ReadRow()
		if done {
			break
		}
		if err != nil {
			return db.TableSchema{}, wrap.Error(err, "failed to read CSV file")
		}

		if err := schema.DeduceDataTypesFromRow(row); err != nil {
			return db.TableSchema{}, wrap.Errorf(
				err,
				"failed to deduce CSV data types from row %d",
				rowNumber,
			)
		}
		rowsChecked++
	}

	if errs := schema.ValidateColumns(); len(errs) > 0 {
		return db.TableSchema{}, wrap.Errors(
			"failed to deduce data types for all given CSV columns",
			errs...,
		)
	}

	log.Debugf("deduced data types for %d CSV columns from %d rows", len(schema.Columns), rowsChecked)
	return schema, nil
}
