package bot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/botboard/internal/bot"
)

func TestServiceLifecycle(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// Stopping a bot that never started is a no-op.
	require.NoError(t, svc.Stop())
	assert.False(t, svc.Status().Running)

	require.NoError(t, svc.Start(ctx, "123:test-token", ""))
	status := svc.Status()
	assert.True(t, status.Running)
	assert.GreaterOrEqual(t, status.Uptime.Nanoseconds(), int64(0))

	// Start while running restarts instead of failing.
	require.NoError(t, svc.Start(ctx, "123:other-token", ""))
	assert.True(t, svc.Status().Running)

	require.NoError(t, svc.Stop())
	assert.False(t, svc.Status().Running)

	require.NoError(t, svc.Stop())
}

func TestStart_EmptyToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	err := svc.Start(context.Background(), "", "")
	require.ErrorIs(t, err, bot.ErrNoToken)
	assert.False(t, svc.Status().Running)
}

func TestStartFromSettings(t *testing.T) {
	t.Parallel()

	svc, _, store := newTestService(t)
	ctx := context.Background()

	err := svc.StartFromSettings(ctx)
	require.ErrorIs(t, err, bot.ErrNoToken)

	require.NoError(t, store.SetSetting(ctx, bot.SettingBotToken, "123:stored-token"))
	require.NoError(t, svc.StartFromSettings(ctx))
	t.Cleanup(func() { _ = svc.Stop() })

	assert.True(t, svc.Status().Running)
}

func TestBroadcast(t *testing.T) {
	t.Parallel()

	svc, client, _ := newTestService(t)
	startService(t, svc)
	ctx := context.Background()

	// Register three users through the normal ingest path.
	for _, id := range []int64{101, 102, 103} {
		svc.HandleUpdate(ctx, textUpdate(id, id, "hi"))
	}
	client.failChats["102"] = true

	result, err := svc.Broadcast(ctx, "announcement", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailCount, "a failing recipient must not abort the run")

	delivered := 0
	for _, m := range client.messages() {
		if m.Text == "announcement" {
			delivered++
		}
	}
	assert.Equal(t, 2, delivered)
}

func TestBroadcast_ExplicitRecipients(t *testing.T) {
	t.Parallel()

	svc, client, _ := newTestService(t)
	startService(t, svc)

	result, err := svc.Broadcast(context.Background(), "targeted", []string{"501", "502"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.FailCount)

	messages := client.messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "501", messages[0].ChatID)
	assert.Equal(t, "502", messages[1].ChatID)
}

func TestBroadcast_NotRunning(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.Broadcast(context.Background(), "nope", []string{"1"})
	require.ErrorIs(t, err, bot.ErrNotRunning)
}
