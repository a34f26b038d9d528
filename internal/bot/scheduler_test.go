package bot_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/botboard/internal/database"
)

func createPost(t *testing.T, store database.Store, channelID, content string, when time.Time) *database.ScheduledPost {
	t.Helper()
	post := &database.ScheduledPost{ChannelID: channelID, Content: content, ScheduledTime: when}
	require.NoError(t, store.CreateScheduledPost(context.Background(), post))
	return post
}

func postStatus(t *testing.T, store database.Store, id int64) database.ScheduledPost {
	t.Helper()
	posts, err := store.ListScheduledPosts(context.Background())
	require.NoError(t, err)
	for _, p := range posts {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("post %d not found", id)
	return database.ScheduledPost{}
}

func TestProcessDuePosts(t *testing.T) {
	t.Parallel()

	svc, client, store := newTestService(t)
	startService(t, svc)
	ctx := context.Background()
	now := time.Now().UTC()

	due := createPost(t, store, "@news", "due post", now.Add(-time.Minute))
	failing := createPost(t, store, "@broken", "failing post", now.Add(-time.Minute))
	future := createPost(t, store, "@news", "future post", now.Add(time.Hour))

	client.failChats["@broken"] = true

	require.NoError(t, svc.ProcessDuePosts(ctx))

	assert.Equal(t, database.StatusSent, postStatus(t, store, due.ID).Status)
	assert.True(t, postStatus(t, store, due.ID).SentAt.Valid)
	assert.Equal(t, database.StatusFailed, postStatus(t, store, failing.ID).Status, "one failing post must not block the batch")
	assert.Equal(t, database.StatusPending, postStatus(t, store, future.ID).Status)

	sent := client.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "due post", sent[0].Text)

	// A second pass finds nothing left to send.
	require.NoError(t, svc.ProcessDuePosts(ctx))
	assert.Len(t, client.messages(), 1, "sent posts are never re-sent")
}

func TestProcessDuePosts_NotRunning(t *testing.T) {
	t.Parallel()

	svc, _, store := newTestService(t)
	ctx := context.Background()

	post := createPost(t, store, "@news", "orphan", time.Now().UTC().Add(-time.Minute))

	// With the transport down each due post fails rather than staying
	// pending forever.
	require.NoError(t, svc.ProcessDuePosts(ctx))
	assert.Equal(t, database.StatusFailed, postStatus(t, store, post.ID).Status)
}
