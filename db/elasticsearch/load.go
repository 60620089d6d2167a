package elasticsearch

import (
	"context"

	"github.com/elastic/go-elasticsearch/v8/typedapi/core/search"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"hermannm.dev/pivot/db"
	"hermannm.dev/wrap"
)

const searchPageSize = 1000

// LoadRows pages through every document in the table's index, in index order. A limit of 0 or
// less loads every document.
func (elastic ElasticsearchDB) LoadRows(
	ctx context.Context,
	schema db.TableSchema,
	limit int,
) ([]db.Row, error) {
	var rows []db.Row
	var searchAfter []types.FieldValue

	for {
		request := newSearchPageRequest(searchPageSize, searchAfter)
		if limit > 0 && limit-len(rows) < searchPageSize {
			*request.Size = limit - len(rows)
		}

		response, err := elastic.client.Search().Index(schema.TableName).Request(request).Do(ctx)
		if err != nil {
			return nil, wrapElasticErrorf(
				err,
				"search request failed for index '%s'",
				schema.TableName,
			)
		}

		hits := response.Hits.Hits
		for _, hit := range hits {
			row, err := documentToRow(hit.Source_, schema)
			if err != nil {
				return nil, wrap.Errorf(err, "failed to convert document %v", hit.Id_)
			}
			rows = append(rows, row)
		}

		if len(hits) < *request.Size || (limit > 0 && len(rows) >= limit) {
			return rows, nil
		}
		searchAfter = hits[len(hits)-1].Sort
	}
}

// newSearchPageRequest matches all documents sorted by index order, which is the cheapest order
// to page through with search_after.
func newSearchPageRequest(size int, searchAfter []types.FieldValue) *search.Request {
	return &search.Request{
		Query:       &types.Query{MatchAll: types.NewMatchAllQuery()},
		Size:        &size,
		Sort:        []types.SortCombinations{"_doc"},
		SearchAfter: searchAfter,
	}
}
