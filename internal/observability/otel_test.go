package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetup_EmptyEndpointIsNoop(t *testing.T) {
	tp, err := Setup(context.Background(), "  ")
	require.NoError(t, err)
	require.Nil(t, tp)
}

func TestSetup_InstallsProvider(t *testing.T) {
	tp, err := Setup(context.Background(), "http://localhost:4318")
	require.NoError(t, err)
	require.NotNil(t, tp)
	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestExporterOptions(t *testing.T) {
	require.Len(t, exporterOptions("collector:4318"), 1)
	require.Len(t, exporterOptions("https://collector:4318"), 1)
	require.Len(t, exporterOptions("http://collector:4318"), 2)
	require.Len(t, exporterOptions("http://collector:4318/custom/v1/traces"), 3)
}
