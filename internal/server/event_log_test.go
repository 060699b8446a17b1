package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"guildkeeper/internal/models"
	"guildkeeper/internal/notifications"
	"guildkeeper/internal/observability"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartEventLog_CountsPublishedEvents(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.seed("admin@guildkeeper.test", models.RoleAdmin)

	require.NoError(t, env.srv.StartEventLog(context.Background()))
	t.Cleanup(env.srv.stopEvents)
	// A second start keeps the running subscription.
	require.NoError(t, env.srv.StartEventLog(context.Background()))

	published := observability.EventsReceived.WithLabelValues(notifications.PostPublished, "broadcast")
	invalid := observability.EventsReceived.WithLabelValues("invalid", "broadcast")
	publishedBefore := promtest.ToFloat64(published)
	invalidBefore := promtest.ToFloat64(invalid)

	status, body := env.do(http.MethodPost, "/api/posts", adminToken, map[string]any{
		"title": "Session zero", "body": "Bring dice",
	})
	require.Equal(t, http.StatusCreated, status, "%v", body)
	require.NoError(t, env.srv.redis.Publish(context.Background(), notifications.BroadcastChannel(), "not json").Err())

	assert.Eventually(t, func() bool {
		return promtest.ToFloat64(published) == publishedBefore+1 &&
			promtest.ToFloat64(invalid) == invalidBefore+1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartEventLog_WithoutRedis(t *testing.T) {
	srv, err := NewServerWithDeps(testConfig(t), newTestEnv(t).store, nil)
	require.NoError(t, err)
	require.NoError(t, srv.StartEventLog(context.Background()))
}
