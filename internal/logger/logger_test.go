package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", "PRODUCTION", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		require.NotNil(t, l.SugaredLogger)
	}
}

func TestWith_CarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).With("run_id", "r1")

	l.Info("stage complete", "stage", "features", "customers", 3)
	l.Warn("join dropped rows", "dropped", 1)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "stage complete", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "r1", fields["run_id"])
	assert.Equal(t, "features", fields["stage"])
	assert.Equal(t, int64(3), fields["customers"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("discarded")
	l.Sync()
}
