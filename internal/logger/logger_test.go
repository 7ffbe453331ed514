package logger

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	l, err := Setup("debug", FormatConsole)
	require.NoError(t, err)
	assert.True(t, l.V(1).Enabled(), "debug level enables V(1)")

	l, err = Setup("info", FormatJSON)
	require.NoError(t, err)
	assert.False(t, l.V(1).Enabled())
	assert.True(t, l.Enabled())
	Sync()
}

func TestSetup_Errors(t *testing.T) {
	_, err := Setup("loud", FormatJSON)
	assert.Error(t, err)

	_, err = Setup("info", "xml")
	assert.Error(t, err)
}

func TestContext(t *testing.T) {
	l := logr.Discard().WithName("ctx")
	ctx := WithLogger(context.Background(), l)
	assert.Equal(t, l, FromContext(ctx))

	_ = FromContext(context.Background())
}
