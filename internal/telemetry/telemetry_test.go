package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "manabi", Version: "test"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestMeterAndTracerAreUsableWithoutInit(t *testing.T) {
	hist, err := Meter("manabi/test").Float64Histogram("manabi.test.duration")
	require.NoError(t, err)
	hist.Record(context.Background(), 1.5)

	_, span := Tracer("manabi/test").Start(context.Background(), "noop")
	span.End()
}
