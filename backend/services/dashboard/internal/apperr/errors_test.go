package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"equipviz/backend/services/dashboard/internal/apperr"
)

func TestKindsMatchThroughWrapping(t *testing.T) {
	cause := apperr.ServerRejected(http.StatusNotFound, "Dataset not found")
	err := fmt.Errorf("load: %w", apperr.PartialLoad(cause))

	require.ErrorIs(t, err, apperr.ErrPartialLoad)
	require.ErrorIs(t, err, apperr.ErrServerRejected)
	require.NotErrorIs(t, err, apperr.ErrExportFailed)
	require.Equal(t, "Dataset not found", apperr.MessageOf(err, "fallback"))
}

func TestMessageOfFallback(t *testing.T) {
	err := apperr.BackendUnavailable(errors.New("dial tcp: refused"))
	require.Equal(t, "fallback", apperr.MessageOf(err, "fallback"))
	require.Equal(t, "fallback", apperr.MessageOf(errors.New("plain"), "fallback"))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"invalid format", apperr.InvalidFormat("Please upload a CSV file"), http.StatusBadRequest},
		{"rejected 4xx", apperr.ServerRejected(http.StatusBadRequest, "Missing required columns"), http.StatusBadRequest},
		{"rejected 5xx", apperr.ServerRejected(http.StatusInternalServerError, ""), http.StatusBadGateway},
		{"unavailable", apperr.BackendUnavailable(errors.New("eof")), http.StatusBadGateway},
		{"export", apperr.ExportFailed(apperr.BackendUnavailable(errors.New("eof"))), http.StatusBadGateway},
		{"partial load of missing dataset", apperr.PartialLoad(apperr.ServerRejected(http.StatusNotFound, "Dataset not found")), http.StatusBadGateway},
		{"export rejected", apperr.ExportFailed(apperr.ServerRejected(http.StatusNotFound, "")), http.StatusBadGateway},
		{"list rejected", apperr.FetchFailed(apperr.ServerRejected(http.StatusUnauthorized, "")), http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, apperr.HTTPStatus(tc.err))
		})
	}
}

func TestErrorStringIncludesKind(t *testing.T) {
	err := apperr.ExportFailed(errors.New("timeout"))
	require.Equal(t, "export failed: timeout", err.Error())
	require.Equal(t, "invalid format: bad", apperr.InvalidFormat("bad").Error())
}
