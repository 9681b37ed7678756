package helpers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
	assert.NoError(t, Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
}

func TestUpstreamError(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusUnauthorized,
		Body:       io.NopCloser(strings.NewReader(`{"detail":"invalid api key"}`)),
	}
	err := NewUpstreamError("elevenlabs", resp)

	assert.Equal(t, 401, err.StatusCode)
	assert.Equal(t, `{"detail":"invalid api key"}`, err.Body)
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.Equal(t, `upstream error: elevenlabs returned status 401: {"detail":"invalid api key"}`, err.Error())

	large := strings.Repeat("x", 100*1024)
	err = NewUpstreamError("suno", &http.Response{
		StatusCode: http.StatusBadGateway,
		Body:       io.NopCloser(strings.NewReader(large)),
	})
	assert.Equal(t, large, err.Body)

	var nilErr *UpstreamError
	assert.Equal(t, "upstream error", nilErr.Error())
}

func TestIsSuccess(t *testing.T) {
	assert.True(t, IsSuccess(200))
	assert.True(t, IsSuccess(204))
	assert.False(t, IsSuccess(199))
	assert.False(t, IsSuccess(301))
	assert.False(t, IsSuccess(429))
}
