package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/infra"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

func TestComputeRetryBackoff_DoublesAndCaps(t *testing.T) {
	assert.Equal(t, time.Minute, computeRetryBackoff(1))
	assert.Equal(t, 2*time.Minute, computeRetryBackoff(2))
	assert.Equal(t, 4*time.Minute, computeRetryBackoff(3))
	assert.Equal(t, 16*time.Minute, computeRetryBackoff(5))
	assert.Equal(t, 30*time.Minute, computeRetryBackoff(6))
	assert.Equal(t, 30*time.Minute, computeRetryBackoff(12))
}

func TestWithRetry_FirstAttemptSucceeds(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, func(int) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ReturnsLastError(t *testing.T) {
	boom := errors.New("sidecar caído")
	calls := 0
	err := withRetry(context.Background(), 1, func(int) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_HonorsContextBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withRetry(ctx, 3, func(int) error {
		return errors.New("siempre falla")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDteTipoFor(t *testing.T) {
	assert.Equal(t, infra.DTETipoBoleta, dteTipoFor(model.DocTypeBoleta))
	assert.Equal(t, infra.DTETipoFactura, dteTipoFor(model.DocTypeFactura))
	assert.Equal(t, infra.DTETipoNotaCredito, dteTipoFor(model.DocTypeNotaCredito))
	assert.Equal(t, infra.DTETipoBoleta, dteTipoFor("algo-desconocido"))
}
