package bot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/botboard/internal/bot"
	"github.com/edgard/botboard/internal/database"
)

func createRule(t *testing.T, store database.Store, keyword, response, matchType string, active bool) *database.AutoReplyRule {
	t.Helper()
	rule := &database.AutoReplyRule{Keyword: keyword, Response: response, MatchType: matchType, IsActive: active}
	require.NoError(t, store.CreateAutoReply(context.Background(), rule))
	return rule
}

func TestAutoReplyMatching(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		keyword   string
		matchType string
		text      string
		wantMatch bool
	}{
		{name: "exact match", keyword: "hello", matchType: database.MatchTypeExact, text: "hello", wantMatch: true},
		{name: "exact is case insensitive", keyword: "Hello", matchType: database.MatchTypeExact, text: "HELLO", wantMatch: true},
		{name: "exact rejects superstring", keyword: "hello", matchType: database.MatchTypeExact, text: "hello there", wantMatch: false},
		{name: "contains", keyword: "price", matchType: database.MatchTypeContains, text: "what is the PRICE today", wantMatch: true},
		{name: "contains misses", keyword: "price", matchType: database.MatchTypeContains, text: "how much", wantMatch: false},
		{name: "starts with", keyword: "order", matchType: database.MatchTypeStartsWith, text: "Order #42 status", wantMatch: true},
		{name: "starts with misses mid-text", keyword: "order", matchType: database.MatchTypeStartsWith, text: "my order is late", wantMatch: false},
		{name: "regex", keyword: "^ref-[0-9]+$", matchType: database.MatchTypeRegex, text: "REF-1234", wantMatch: true},
		{name: "regex misses", keyword: "^ref-[0-9]+$", matchType: database.MatchTypeRegex, text: "ref-abc", wantMatch: false},
		{name: "invalid regex never matches", keyword: "(", matchType: database.MatchTypeRegex, text: "(", wantMatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, client, store := newTestService(t)
			startService(t, svc)
			ctx := context.Background()

			createRule(t, store, tt.keyword, "canned reply", tt.matchType, true)

			svc.HandleUpdate(ctx, textUpdate(21, 21, tt.text))

			messages := client.messages()
			if !tt.wantMatch {
				assert.Empty(t, messages)
				return
			}
			require.Len(t, messages, 1)
			assert.Equal(t, "canned reply", messages[0].Text)
		})
	}
}

func TestAutoReply_FirstMatchWins(t *testing.T) {
	t.Parallel()

	svc, client, store := newTestService(t)
	startService(t, svc)
	ctx := context.Background()

	createRule(t, store, "hello", "older reply", database.MatchTypeContains, true)
	createRule(t, store, "hello", "newer reply", database.MatchTypeContains, true)

	svc.HandleUpdate(ctx, textUpdate(22, 22, "hello bot"))

	messages := client.messages()
	require.Len(t, messages, 1, "at most one rule fires per message")
	assert.Equal(t, "newer reply", messages[0].Text, "most recently created rule wins")
}

func TestAutoReply_InactiveRuleSkipped(t *testing.T) {
	t.Parallel()

	svc, client, store := newTestService(t)
	startService(t, svc)
	ctx := context.Background()

	createRule(t, store, "hello", "disabled reply", database.MatchTypeContains, false)
	createRule(t, store, "hello", "active reply", database.MatchTypeExact, true)

	svc.HandleUpdate(ctx, textUpdate(23, 23, "hello bot"))

	// The inactive contains-rule would match, but only the active exact
	// rule is considered and it does not.
	assert.Empty(t, client.messages())
}

func TestAutoReply_PersistsBotReply(t *testing.T) {
	t.Parallel()

	svc, _, store := newTestService(t)
	startService(t, svc)
	ctx := context.Background()

	createRule(t, store, "ping", "pong", database.MatchTypeExact, true)

	svc.HandleUpdate(ctx, textUpdate(24, 24, "ping"))

	messages, err := store.ListRecentMessages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "pong", messages[0].Content)
	assert.True(t, messages[0].IsFromBot)
	assert.Equal(t, "ping", messages[1].Content)
	assert.False(t, messages[1].IsFromBot)
}

func TestAutoReply_CommandsAreExempt(t *testing.T) {
	t.Parallel()

	svc, client, store := newTestService(t)
	startService(t, svc)
	ctx := context.Background()

	createRule(t, store, "/start", "hijacked", database.MatchTypeContains, true)

	svc.HandleUpdate(ctx, textUpdate(25, 25, "/start"))

	messages := client.messages()
	require.Len(t, messages, 1)
	assert.Equal(t, testConfig().Bot.Messages.Welcome, messages[0].Text, "commands route past auto-replies")
}

func TestValidatePattern(t *testing.T) {
	t.Parallel()

	require.NoError(t, bot.ValidatePattern(database.MatchTypeRegex, "^ok[0-9]*$"))
	require.Error(t, bot.ValidatePattern(database.MatchTypeRegex, "("))
	// Non-regex keywords are free-form.
	require.NoError(t, bot.ValidatePattern(database.MatchTypeContains, "("))
}
