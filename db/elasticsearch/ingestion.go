package elasticsearch

import (
	"context"
	"errors"

	"github.com/elastic/go-elasticsearch/v8/typedapi/core/bulk"
	elastictypes "github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/google/uuid"
	"hermannm.dev/devlog/log"
	"hermannm.dev/pivot/db"
	"hermannm.dev/wrap"
)

func (elastic ElasticsearchDB) CreateTable(ctx context.Context, schema db.TableSchema) error {
	mappings, err := schemaToElasticMappings(schema)
	if err != nil {
		return wrap.Error(err, "failed to translate table schema to elastic mappings")
	}

	if _, err = elastic.client.Indices.Create(schema.TableName).Mappings(mappings).Do(ctx); err != nil {
		return wrapElasticErrorf(
			err,
			"Elasticsearch index creation request failed for table '%s'",
			schema.TableName,
		)
	}

	return nil
}

const BulkInsertSize = 1000

func (elastic ElasticsearchDB) IngestData(
	ctx context.Context,
	data db.DataSource,
	schema db.TableSchema,
) error {
	table := schema.TableName
	rowCount := 0

	allRowsSent := false
	for !allRowsSent {
		request := elastic.client.Bulk()

		batchSize := 0
		for batchSize < BulkInsertSize {
			rawRow, rowNumber, done, err := data.ReadRow()
			if done {
				allRowsSent = true
				break
			}
			if err != nil {
				return wrap.Error(err, "failed to read row")
			}

			id, err := uuid.NewUUID()
			if err != nil {
				return wrap.Errorf(err, "failed to generate unique ID for row %d", rowNumber)
			}
			idString := id.String()

			operation := elastictypes.CreateOperation{
				Id_:    &idString,
				Index_: &table,
			}

			row, err := schema.ConvertRow(rawRow)
			if err != nil {
				return wrap.Errorf(
					err,
					"failed to convert row %d to data types expected by table schema",
					rowNumber,
				)
			}

			document, err := rowToDocument(row)
			if err != nil {
				return wrap.Errorf(
					err,
					"failed to encode row %d to JSON for sending to Elasticsearch",
					rowNumber,
				)
			}

			if err := request.CreateOp(operation, document); err != nil {
				return wrap.Errorf(
					err,
					"failed to add create operation for row %d to bulk insert",
					rowNumber,
				)
			}
			batchSize++
		}

		if batchSize == 0 {
			break
		}

		response, err := request.Do(ctx)
		if err != nil {
			return wrapElasticError(err, "bulk insert request failed")
		}
		if err := bulkResponseError(response); err != nil {
			return wrap.Error(err, "bulk insert failed for some rows")
		}
		rowCount += batchSize
	}

	// Makes the new documents visible to the next search.
	if _, err := elastic.client.Indices.Refresh().Index(table).Do(ctx); err != nil {
		return wrapElasticErrorf(err, "failed to refresh index '%s' after insert", table)
	}

	log.Infof("inserted %d documents into Elasticsearch index '%s'", rowCount, table)
	return nil
}

// bulkResponseError collects the item errors of a bulk response, which Elasticsearch reports
// with a successful status.
func bulkResponseError(response *bulk.Response) error {
	if !response.Errors {
		return nil
	}

	var errs []error
	for _, item := range response.Items {
		for _, result := range item {
			if result.Error != nil {
				errs = append(errs, errors.New(formatErrorCause(*result.Error)))
			}
		}
	}

	if len(errs) == 0 {
		return errors.New("Elasticsearch reported errors without details")
	}
	return wrap.Errors("Elasticsearch rejected documents", errs...)
}
