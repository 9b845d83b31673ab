package muxhandlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSizeLimitConfigLimit(t *testing.T) {
	tests := []struct {
		name    string
		config  RequestSizeLimitConfig
		want    int64
		wantErr bool
	}{
		{name: "bytes", config: RequestSizeLimitConfig{MaxBytes: 10}, want: 10},
		{name: "bytes win over size", config: RequestSizeLimitConfig{MaxBytes: 10, MaxSize: "1MB"}, want: 10},
		{name: "human size", config: RequestSizeLimitConfig{MaxSize: "1MB"}, want: 1000000},
		{name: "binary size", config: RequestSizeLimitConfig{MaxSize: "2 KiB"}, want: 2048},
		{name: "zero", config: RequestSizeLimitConfig{}, wantErr: true},
		{name: "negative", config: RequestSizeLimitConfig{MaxBytes: -1}, wantErr: true},
		{name: "unparsable", config: RequestSizeLimitConfig{MaxSize: "lots"}, wantErr: true},
		{name: "zero size", config: RequestSizeLimitConfig{MaxSize: "0B"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.config.Limit()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMaxSize)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	mw, err := RequestSizeLimitMiddleware(RequestSizeLimitConfig{MaxSize: "8B"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "within limit", body: "12345678"},
		{name: "over limit", body: "123456789", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var readErr error
			mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				_, readErr = io.ReadAll(r.Body)
			})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))

			if tt.wantErr {
				var maxErr *http.MaxBytesError
				assert.ErrorAs(t, readErr, &maxErr)
			} else {
				assert.NoError(t, readErr)
			}
		})
	}

	t.Run("invalid config", func(t *testing.T) {
		_, err := RequestSizeLimitMiddleware(RequestSizeLimitConfig{})
		assert.ErrorIs(t, err, ErrInvalidMaxSize)
	})
}
