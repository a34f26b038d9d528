package bot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/botboard/internal/bot"
	"github.com/edgard/botboard/internal/database"
	"github.com/edgard/botboard/internal/telegram"
)

func TestPostToChannel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mediaURL  string
		mediaType string
		wantKind  string
	}{
		{name: "plain text", wantKind: database.MessageTypeText},
		{name: "photo", mediaURL: "https://example.com/a.jpg", mediaType: "photo", wantKind: database.MessageTypePhoto},
		{name: "video", mediaURL: "https://example.com/a.mp4", mediaType: "video", wantKind: database.MessageTypeVideo},
		{name: "document", mediaURL: "https://example.com/a.pdf", mediaType: "document", wantKind: database.MessageTypeDocument},
		{name: "unknown media type falls back to text", mediaURL: "https://example.com/a.bin", mediaType: "weird", wantKind: database.MessageTypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, client, _ := newTestService(t)
			startService(t, svc)

			messageID, err := svc.PostToChannel(context.Background(), "@news", "the content", tt.mediaURL, tt.mediaType)
			require.NoError(t, err)
			assert.Positive(t, messageID)

			messages := client.messages()
			require.Len(t, messages, 1)
			assert.Equal(t, tt.wantKind, messages[0].Kind)
			assert.Equal(t, "@news", messages[0].ChatID)
			assert.Equal(t, "the content", messages[0].Text)
			if tt.wantKind != database.MessageTypeText {
				assert.Equal(t, tt.mediaURL, messages[0].MediaURL)
			}
		})
	}
}

func TestPostToChannel_NotRunning(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.PostToChannel(context.Background(), "@news", "content", "", "")
	require.ErrorIs(t, err, bot.ErrNotRunning)
}

func TestAddChannel(t *testing.T) {
	t.Parallel()

	svc, client, store := newTestService(t)
	startService(t, svc)
	ctx := context.Background()

	client.chats["@news"] = telegram.ChatInfo{ID: -100123, Type: "channel", Title: "Daily News"}
	client.chats["-100456"] = telegram.ChatInfo{ID: -100456, Type: "supergroup", Title: "Ops Group"}

	// Public channel, name resolved from the chat title.
	channel, err := svc.AddChannel(ctx, "@news", "")
	require.NoError(t, err)
	assert.Equal(t, database.ChannelTypePublic, channel.ChannelType)
	assert.Equal(t, "Daily News", channel.ChannelName)

	// Any non-channel chat type is recorded as private; explicit names win.
	channel, err = svc.AddChannel(ctx, "-100456", "Internal")
	require.NoError(t, err)
	assert.Equal(t, database.ChannelTypePrivate, channel.ChannelType)
	assert.Equal(t, "Internal", channel.ChannelName)

	// Unreachable chats are rejected before anything is stored.
	_, err = svc.AddChannel(ctx, "@unknown", "")
	require.Error(t, err)

	channels, err := store.ListChannels(ctx)
	require.NoError(t, err)
	assert.Len(t, channels, 2)

	// Re-adding is a no-op.
	_, err = svc.AddChannel(ctx, "@news", "Renamed")
	require.NoError(t, err)

	channels, err = store.ListChannels(ctx)
	require.NoError(t, err)
	assert.Len(t, channels, 2)
}

func TestAddChannel_NotRunning(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.AddChannel(context.Background(), "@news", "")
	require.ErrorIs(t, err, bot.ErrNotRunning)
}
