package rtclient

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKeysFor(t *testing.T) {
	testCases := []struct {
		name      string
		eventType string
		expected  []string
	}{
		{"голос трогает голоса и рекомендации", "vote_cast",
			[]string{VotesKey(3), RecommendationsKey(3)}},
		{"участник трогает список и сводку", "member_added",
			[]string{ClubMembersKey(7), ClubSummaryKey(7)}},
		{"смена стадии трогает раунд и сводку", "round_status_changed",
			[]string{ActiveRoundKey(7), ClubSummaryKey(7)}},
		{"рекомендация трогает только рекомендации", "recommendation_added",
			[]string{RecommendationsKey(3)}},
		{"неизвестное событие сбрасывает только сводку", "something_new",
			[]string{ClubSummaryKey(7)}},
		{"присутствие не трогает кэш", "user_online", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, keysFor(tc.eventType, 7, 3))
		})
	}
}

// Серия событий по одному ключу схлопывается в один refetch.
func TestInvalidator_DebounceCollapsesBurst(t *testing.T) {
	inv := NewInvalidator(20*time.Millisecond, zap.NewNop())

	var refetches int64
	inv.RegisterKey(VotesKey(3), func(ctx context.Context) {
		atomic.AddInt64(&refetches, 1)
	})
	inv.RegisterKey(RecommendationsKey(3), func(ctx context.Context) {})

	payload := json.RawMessage(`{"clubId":7,"roundId":3}`)
	for i := 0; i < 10; i++ {
		inv.HandleEvent("vote_cast", payload)
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&refetches) == 1
	}, time.Second, 5*time.Millisecond)

	// Выждать ещё одно окно: второго срабатывания быть не должно.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(&refetches))
}

// Окно скользящее: событие внутри окна откладывает срабатывание.
func TestInvalidator_TrailingWindowSlides(t *testing.T) {
	inv := NewInvalidator(40*time.Millisecond, zap.NewNop())

	var fired atomic.Int64
	inv.RegisterKey(ClubSummaryKey(7), func(ctx context.Context) {
		fired.Add(1)
	})

	payload := json.RawMessage(`{"clubId":7}`)
	inv.HandleEvent("club_updated", payload)
	time.Sleep(25 * time.Millisecond)
	// Первое окно ещё не истекло, событие сдвигает его дальше.
	inv.HandleEvent("club_updated", payload)
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, int64(0), fired.Load())

	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestInvalidator_SeparateKeysFireIndependently(t *testing.T) {
	inv := NewInvalidator(10*time.Millisecond, zap.NewNop())

	var members, summary atomic.Int64
	inv.RegisterKey(ClubMembersKey(7), func(ctx context.Context) { members.Add(1) })
	inv.RegisterKey(ClubSummaryKey(7), func(ctx context.Context) { summary.Add(1) })

	inv.HandleEvent("member_added", json.RawMessage(`{"clubId":7}`))

	require.Eventually(t, func() bool {
		return members.Load() == 1 && summary.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestInvalidator_Flush(t *testing.T) {
	inv := NewInvalidator(time.Hour, zap.NewNop())

	var fired atomic.Int64
	inv.RegisterKey(ClubSummaryKey(7), func(ctx context.Context) { fired.Add(1) })

	inv.HandleEvent("club_updated", json.RawMessage(`{"clubId":7}`))
	assert.Equal(t, int64(0), fired.Load())

	inv.Flush()
	assert.Equal(t, int64(1), fired.Load())
}
