package utils

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type coords struct {
	Lat float64 `form:"lat" validate:"latitude"`
	Lon float64 `form:"lon" validate:"longitude"`
}

func TestValidateStruct(t *testing.T) {
	assert.Empty(t, ValidateStruct(coords{Lat: 22.57, Lon: 88.36}))
	assert.Empty(t, ValidateStruct(coords{Lat: -90, Lon: 180}))

	errs := ValidateStruct(coords{Lat: 91, Lon: -181})
	require.Len(t, errs, 2)
	assert.Equal(t, "lat", errs[0].Field)
	assert.Equal(t, "latitude", errs[0].Tag)
	assert.Contains(t, errs[0].Message, "between -90 and 90")
	assert.Equal(t, "lon", errs[1].Field)
	assert.Contains(t, errs[1].Message, "between -180 and 180")
}

func TestContextHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)

	assert.Equal(t, c.Request.Context(), GetContextFromGinContext(c))
	assert.Empty(t, GetRequestIDFromGinContext(c))

	traced := context.WithValue(context.Background(), struct{}{}, "traced")
	c.Set(SpanContextKey, traced)
	c.Set(RequestIDKey, "req-1")

	assert.Equal(t, traced, GetContextFromGinContext(c))
	assert.Equal(t, "req-1", GetRequestIDFromGinContext(c))
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)

	RequestLogger(c, base).Info("untagged")
	c.Set(RequestIDKey, "req-2")
	RequestLogger(c, base).Info("tagged")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].ContextMap())
	assert.Equal(t, "req-2", entries[1].ContextMap()["request_id"])
}
