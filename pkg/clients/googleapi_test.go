package clients

import (
	"fmt"
	"testing"

	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestWrapGoogleAPI(t *testing.T) {
	assert.NoError(t, WrapGoogleAPI(nil, "x"))

	err := WrapGoogleAPI(&googleapi.Error{Code: 429, Message: "quota"}, "create task")
	assert.True(t, errors.IsRetryable(err))
	assert.Contains(t, err.Error(), "create task")

	err = WrapGoogleAPI(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 403}), "get")
	assert.True(t, errors.IsType(err, errors.ErrorTypePermission))
	assert.True(t, errors.IsPermanent(err))

	err = WrapGoogleAPI(fmt.Errorf("dial tcp: refused"), "get")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
}
