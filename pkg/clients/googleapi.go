package clients

import (
	stderrors "errors"

	"github.com/ajitpratap0/adreader/pkg/errors"
	"google.golang.org/api/googleapi"
)

// WrapGoogleAPI wraps an error returned by a google.golang.org/api client,
// typing it from the HTTP status so that only transient failures are
// retried. Errors without a status are treated as connection failures.
func WrapGoogleAPI(err error, message string) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !stderrors.As(err, &apiErr) {
		return errors.Wrap(err, errors.ErrorTypeConnection, message)
	}
	typed := ClassifyStatus(apiErr.Code, []byte(apiErr.Message)).(*errors.Error)
	return errors.Wrap(err, typed.Type, message)
}
