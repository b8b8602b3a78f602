package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	l, err := New(Config{})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestGetAndWithContext(t *testing.T) {
	require.NotNil(t, Get())
	require.NoError(t, Init(Config{Level: "debug", Encoding: "console"}))
	ctx := context.WithValue(context.Background(), StreamKey, "events")
	assert.NotNil(t, WithContext(ctx))
	assert.NotNil(t, Named("ipc"))
	_ = Sync()
}
