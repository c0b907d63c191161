package results_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lguibr/arcade/results"
	resultsmock "github.com/lguibr/arcade/results/mock"
)

func newRedisSink(t *testing.T, keep int64) *results.RedisSink {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sink, err := results.NewRedisSink(client, "test", keep)
	require.NoError(t, err)
	return sink
}

func TestRedisSinkRecentIsCapped(t *testing.T) {
	sink := newRedisSink(t, 2)
	ctx := context.Background()

	for i, score := range []int{10, 30, 20} {
		require.NoError(t, sink.Record(ctx, results.RoundResult{
			SessionID:  string(rune('a' + i)),
			Mode:       "shooter",
			Outcome:    results.OutcomeGameOver,
			Score:      score,
			FinishedAt: time.Unix(int64(i), 0).UTC(),
		}))
	}

	recent, err := sink.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 20, recent[0].Score)
	assert.Equal(t, 30, recent[1].Score)
}

func TestRedisSinkLeaderboardKeepsBest(t *testing.T) {
	sink := newRedisSink(t, 10)
	ctx := context.Background()

	require.NoError(t, sink.Record(ctx, results.RoundResult{SessionID: "s1", Mode: "falling", Score: 300}))
	require.NoError(t, sink.Record(ctx, results.RoundResult{SessionID: "s1", Mode: "falling", Score: 100}))
	require.NoError(t, sink.Record(ctx, results.RoundResult{SessionID: "s2", Mode: "falling", Score: 200}))

	top, err := sink.Top(ctx, "falling", 5)
	require.NoError(t, err)
	assert.Equal(t, []results.Entry{{SessionID: "s1", Score: 300}, {SessionID: "s2", Score: 200}}, top)
}

func TestFanoutJoinsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	ok := resultsmock.NewMockSink(ctrl)
	failing := resultsmock.NewMockSink(ctrl)
	ctx := context.Background()
	r := results.RoundResult{SessionID: "x", Outcome: results.OutcomeComplete}

	boom := errors.New("boom")
	ok.EXPECT().Record(ctx, r).Return(nil)
	failing.EXPECT().Record(ctx, r).Return(boom)

	err := results.Fanout{ok, failing, results.LogSink{}}.Record(ctx, r)
	assert.ErrorIs(t, err, boom)
	assert.True(t, r.Completed())
}
