package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCallbackData(t *testing.T) {
	action, arg := SplitCallbackData("rekod_kelas|4 Amber")
	assert.Equal(t, "rekod_kelas", action)
	assert.Equal(t, "4 Amber", arg)

	action, arg = SplitCallbackData("simpan")
	assert.Equal(t, "simpan", action)
	assert.Empty(t, arg)

	// Only the first separator splits; names never contain pipes but class
	// arguments must pass through untouched.
	action, arg = SplitCallbackData("toggle|Nur|Aisyah")
	assert.Equal(t, "toggle", action)
	assert.Equal(t, "Nur|Aisyah", arg)
}

func TestRouterRoutesCommands(t *testing.T) {
	r := NewRouter(RouterConfig{})

	var handled string
	r.RegisterCommand("rekod", func(ctx context.Context, cmd CommandContext) error {
		handled = cmd.Args
		return nil
	})

	err := r.HandleCommand(context.Background(), "rekod", CommandContext{Args: "4 Amber"})
	require.NoError(t, err)
	assert.Equal(t, "4 Amber", handled)
}

func TestRouterUnknownCommandFallback(t *testing.T) {
	r := NewRouter(RouterConfig{})

	fallbackCalled := false
	r.SetUnknownCommand(func(ctx context.Context, cmd CommandContext) error {
		fallbackCalled = true
		return nil
	})

	require.NoError(t, r.HandleCommand(context.Background(), "tiada", CommandContext{}))
	assert.True(t, fallbackCalled)
}

func TestRouterRoutesCallbacksByAction(t *testing.T) {
	r := NewRouter(RouterConfig{})

	var gotAction, gotArg string
	r.RegisterCallback("rekod_kelas", func(ctx context.Context, cb CallbackContext) error {
		gotAction, gotArg = cb.Action, cb.Arg
		return nil
	})

	err := r.HandleCallback(context.Background(), "rekod_kelas|5 Biru", CallbackContext{ActorID: 7001})
	require.NoError(t, err)
	assert.Equal(t, "rekod_kelas", gotAction)
	assert.Equal(t, "5 Biru", gotArg)
}

func TestRouterUnknownCallbackFallback(t *testing.T) {
	r := NewRouter(RouterConfig{})

	var fallbackAction string
	r.SetUnknownCallback(func(ctx context.Context, cb CallbackContext) error {
		fallbackAction = cb.Action
		return nil
	})

	require.NoError(t, r.HandleCallback(context.Background(), "lama|x", CallbackContext{}))
	assert.Equal(t, "lama", fallbackAction)
}
