package db

import (
	"context"

	"hermannm.dev/wrap"
)

type DataSource interface {
	ReadRow() (row []string, rowNumber int, done bool, err error)
}

// AnalysisDB stores analysis tables, and loads them back as rows for pivoting.
type AnalysisDB interface {
	CreateTable(ctx context.Context, schema TableSchema) error
	IngestData(ctx context.Context, data DataSource, schema TableSchema) error
	LoadRows(ctx context.Context, schema TableSchema, limit int) ([]Row, error)
	DropTable(ctx context.Context, table string) (alreadyDropped bool, err error)
}

// ReadRows reads and converts rows from the data source until it is done, or until maxRows rows
// have been read. A maxRows of 0 or less reads everything.
func ReadRows(data DataSource, schema TableSchema, maxRows int) ([]Row, error) {
	var rows []Row

	for maxRows <= 0 || len(rows) < maxRows {
		rawRow, rowNumber, done, err := data.ReadRow()
		if done {
			break
		}
		if err != nil {
			return nil, wrap.Error(err, "failed to read row")
		}

		row, err := schema.ConvertRow(rawRow)
		if err != nil {
			return nil, wrap.Errorf(
				err,
				"failed to convert row %d to data types expected by table schema",
				rowNumber,
			)
		}

		rows = append(rows, row)
	}

	return rows, nil
}
