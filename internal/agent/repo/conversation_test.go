package repo

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog/catalogtest"
	errx "github.com/MobiAdvisor-core/server/internal/core/error"
)

func newMiniRepo(t *testing.T, ttl time.Duration) (*RedisConversationRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisConversationRepository(rdb, ttl), mr
}

func TestConversationRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, mr := newMiniRepo(t, 30*time.Minute)

	turns := []model.ConversationTurn{
		{Role: model.RoleUser, Content: "best camera phone under 20000"},
		{Role: model.RoleAssistant, Content: "Try the Redmi Note 13 (ID: 4).", Phones: []model.Phone{catalogtest.ByID(4)}},
	}
	require.NoError(t, r.AddTurns(ctx, "c1", turns...))
	require.NoError(t, r.AddTurns(ctx, "c1", model.ConversationTurn{Role: model.RoleUser, Content: "tell me more"}))
	require.NoError(t, r.AddTurns(ctx, "c1"))

	h, err := r.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", h.ConversationID)
	require.Len(t, h.Turns, 3)
	assert.Equal(t, turns[1], h.Turns[1])
	assert.Equal(t, []int64{4}, model.PhoneIDs(model.ContextPhones(h.Turns)))

	n, err := r.GetTurnCount(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 30*time.Minute, mr.TTL("conversation:c1:turns"))

	require.NoError(t, r.ClearHistory(ctx, "c1"))
	h, err = r.LoadHistory(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, h.Turns)
}

func TestConversationExpires(t *testing.T) {
	ctx := context.Background()
	r, mr := newMiniRepo(t, time.Minute)

	require.NoError(t, r.AddTurns(ctx, "c2", model.ConversationTurn{Role: model.RoleUser, Content: "hi"}))
	mr.FastForward(2 * time.Minute)

	n, err := r.GetTurnCount(ctx, "c2")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConversationSkipsCorruptRows(t *testing.T) {
	ctx := context.Background()
	r, mr := newMiniRepo(t, 0)

	good, err := json.Marshal(model.ConversationTurn{Role: model.RoleUser, Content: "hi"})
	require.NoError(t, err)
	_, err = mr.RPush("conversation:c3:turns", "{not json", string(good))
	require.NoError(t, err)

	h, err := r.LoadHistory(ctx, "c3")
	require.NoError(t, err)
	require.Len(t, h.Turns, 1)
	assert.Equal(t, "hi", h.Turns[0].Content)
}

func TestConversationRedisErrors(t *testing.T) {
	ctx := context.Background()
	down := errors.New("connection refused")

	rdb, mock := redismock.NewClientMock()
	r := NewRedisConversationRepository(rdb, time.Minute)

	mock.ExpectLRange("conversation:c4:turns", 0, -1).SetErr(down)
	_, err := r.LoadHistory(ctx, "c4")
	require.Error(t, err)
	assert.Equal(t, errx.KindUpstreamUnavailable, errx.KindOf(err))

	mock.ExpectLLen("conversation:c4:turns").SetErr(down)
	_, err = r.GetTurnCount(ctx, "c4")
	assert.Error(t, err)

	mock.ExpectDel("conversation:c4:turns").SetErr(down)
	assert.Error(t, r.ClearHistory(ctx, "c4"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationExpireFailure(t *testing.T) {
	ctx := context.Background()
	rdb, mock := redismock.NewClientMock()
	r := NewRedisConversationRepository(rdb, time.Minute)

	turn := model.ConversationTurn{Role: model.RoleUser, Content: "hi"}
	b, err := json.Marshal(turn)
	require.NoError(t, err)

	mock.ExpectRPush("conversation:c5:turns", b).SetVal(1)
	mock.ExpectExpire("conversation:c5:turns", time.Minute).SetErr(errors.New("timeout"))

	assert.Error(t, r.AddTurns(ctx, "c5", turn))
	assert.NoError(t, mock.ExpectationsWereMet())
}
