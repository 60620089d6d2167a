package elasticsearch

import (
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"hermannm.dev/wrap"
)

func wrapElasticError(wrapped error, message string) error {
	return wrap.Error(formatElasticError(wrapped), message)
}

func wrapElasticErrorf(wrapped error, format string, args ...any) error {
	return wrap.Errorf(formatElasticError(wrapped), format, args...)
}

// formatElasticError flattens Elasticsearch's error cause tree into a readable error, since the
// client's own error message only includes the status.
func formatElasticError(err error) error {
	elasticErr, ok := err.(*types.ElasticsearchError)
	if !ok {
		return err
	}

	errMessage := formatErrorCause(elasticErr.ErrorCause)
	errMessage = fmt.Sprintf("%s, status %d", errMessage, elasticErr.Status)

	rootCause := make([]error, len(elasticErr.ErrorCause.RootCause))
	for i, cause := range elasticErr.ErrorCause.RootCause {
		rootCause[i] = errors.New(formatErrorCause(cause))
	}

	if len(rootCause) == 0 {
		return errors.New(errMessage)
	} else {
		return wrap.Errors(errMessage, rootCause...)
	}
}

func formatErrorCause(cause types.ErrorCause) string {
	if cause.Reason == nil {
		return cause.Type
	}
	return fmt.Sprintf("%s (%s)", *cause.Reason, cause.Type)
}
