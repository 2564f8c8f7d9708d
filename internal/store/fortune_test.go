package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adam936936/bagua-ai/internal/backend"
	"github.com/adam936936/bagua-ai/internal/storage"
)

func calculateOK(result backend.FortuneResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, "", result)
	}
}

func TestFortune_CalculateWithoutEntitlementSkipsBackend(t *testing.T) {
	e := newEnv(t, nil)
	e.session.state.RemainingAnalysisCount = 0

	e.fortune.SetInput("张三", "1990-05-20", "午时", 1)
	_, err := e.fortune.Calculate(context.Background())

	require.ErrorIs(t, err, ErrNoAnalysisLeft)
	assert.Zero(t, e.totalCalls(), "guard must fire before any backend call")
	assert.Nil(t, e.fortune.Result())
	assert.Equal(t, []string{toastNoAnalysisLeft}, e.toasts.all())
}

func TestFortune_CalculateValidation(t *testing.T) {
	e := newEnv(t, nil)

	e.fortune.SetInput("张三", "", "午时", 1)
	_, err := e.fortune.Calculate(context.Background())

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "birthDate", valErr.Field)
	assert.Zero(t, e.totalCalls())
}

func TestFortune_CalculateSuccess(t *testing.T) {
	want := backend.FortuneResult{
		Lunar:      "庚午年四月廿六",
		GanZhi:     "庚午 辛巳 壬申 丙午",
		WuXing:     "金火土水",
		WuXingLack: "木",
		ShengXiao:  "马",
		AiAnalysis: "命中略缺木",
	}
	e := newEnv(t, map[string]http.HandlerFunc{
		"/fortune/calculate": calculateOK(want),
		"/fortune/history": func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, 200, "", map[string]any{
				"list":       []backend.FortuneResult{want},
				"total":      1,
				"page":       1,
				"size":       10,
				"totalPages": 1,
			})
		},
	})

	e.fortune.SetInput("张三", "1990-05-20", "午时", 1)
	result, err := e.fortune.Calculate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, *result)

	state := e.session.State()
	assert.Equal(t, defaultAnalysisCount-1, state.RemainingAnalysisCount)
	assert.Equal(t, 1, state.TotalAnalysisCount)

	assert.Equal(t, 1, e.callCount("/fortune/history"), "success triggers a page-1 history refresh")
	assert.Len(t, e.fortune.State().History.List, 1)
}

func TestFortune_CalculateBusinessFailureClearsResult(t *testing.T) {
	e := newEnv(t, map[string]http.HandlerFunc{
		"/fortune/calculate": func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, 500, "信息不足", nil)
		},
	})
	// a stale result from an earlier run
	e.fortune.state.Result = &backend.FortuneResult{GanZhi: "stale"}

	e.fortune.SetInput("张三", "1990-05-20", "午时", 1)
	_, err := e.fortune.Calculate(context.Background())

	var bizErr *backend.BusinessError
	require.ErrorAs(t, err, &bizErr)
	assert.Equal(t, "信息不足", bizErr.Message)

	assert.Nil(t, e.fortune.Result(), "failed calculate clears the result")
	state := e.session.State()
	assert.Equal(t, defaultAnalysisCount, state.RemainingAnalysisCount, "no entitlement consumed on failure")
	assert.Zero(t, state.TotalAnalysisCount)
	assert.Zero(t, e.callCount("/fortune/history"))
}

func TestFortune_TodayFortuneCachedPerDay(t *testing.T) {
	e := newEnv(t, map[string]http.HandlerFunc{
		"/fortune/today-fortune": func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, 200, "", "今日大吉")
		},
	})
	day := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	e.fortune.clock = func() time.Time { return day }

	first := e.fortune.TodayFortune(context.Background())
	second := e.fortune.TodayFortune(context.Background())

	assert.Equal(t, "今日大吉", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, e.callCount("/fortune/today-fortune"), "same-day repeat must hit the cache")
}

func TestFortune_TodayFortuneRefetchesNextDay(t *testing.T) {
	e := newEnv(t, map[string]http.HandlerFunc{
		"/fortune/today-fortune": func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, 200, "", "运势")
		},
	})
	day := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	e.fortune.clock = func() time.Time { return day }

	e.fortune.TodayFortune(context.Background())
	day = day.Add(24 * time.Hour)
	e.fortune.TodayFortune(context.Background())

	assert.Equal(t, 2, e.callCount("/fortune/today-fortune"))
}

func TestFortune_TodayFortuneFailureCachesDefault(t *testing.T) {
	e := newEnv(t, map[string]http.HandlerFunc{
		"/fortune/today-fortune": func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, 500, "服务器内部错误", nil)
		},
	})
	day := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	e.fortune.clock = func() time.Time { return day }

	first := e.fortune.TodayFortune(context.Background())
	second := e.fortune.TodayFortune(context.Background())

	assert.Equal(t, defaultTodayFortune, first)
	assert.Equal(t, defaultTodayFortune, second)
	assert.Equal(t, 1, e.callCount("/fortune/today-fortune"), "the fallback is cached for the day like a success")
}

func TestFortune_LoadHistoryReplacesByPage(t *testing.T) {
	e := newEnv(t, map[string]http.HandlerFunc{
		"/fortune/history": func(w http.ResponseWriter, r *http.Request) {
			page := r.URL.Query().Get("page")
			if page == "1" {
				writeEnvelope(w, 200, "", map[string]any{
					"list":       []backend.FortuneResult{{GanZhi: "甲子"}, {GanZhi: "乙丑"}},
					"total":      3,
					"page":       1,
					"size":       2,
					"totalPages": 2,
				})
				return
			}
			writeEnvelope(w, 200, "", map[string]any{
				"list":       []backend.FortuneResult{{GanZhi: "丙寅"}},
				"total":      3,
				"page":       2,
				"size":       2,
				"totalPages": 2,
			})
		},
	})

	require.NoError(t, e.fortune.LoadHistory(context.Background(), 1, 2))
	require.NoError(t, e.fortune.LoadHistory(context.Background(), 2, 2))

	history := e.fortune.State().History
	assert.Len(t, history.List, 1, "page 2 replaces page 1 wholesale, no append")
	assert.Equal(t, "丙寅", history.List[0].GanZhi)
	assert.Equal(t, 2, history.Page)
}

func TestFortune_ConcurrentCalculatesSerialized(t *testing.T) {
	var inFlight, maxInFlight, served int32
	e := newEnv(t, map[string]http.HandlerFunc{
		"/fortune/calculate": func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				max := atomic.LoadInt32(&maxInFlight)
				if n <= max || atomic.CompareAndSwapInt32(&maxInFlight, max, n) {
					break
				}
			}
			time.Sleep(30 * time.Millisecond)
			seq := atomic.AddInt32(&served, 1)
			writeEnvelope(w, 200, "", backend.FortuneResult{
				GanZhi:     fmt.Sprintf("干支-%d", seq),
				AiAnalysis: fmt.Sprintf("分析-%d", seq),
			})
			atomic.AddInt32(&inFlight, -1)
		},
	})

	e.fortune.SetInput("张三", "1990-05-20", "午时", 1)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.fortune.Calculate(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight), "overlapping calculates must reach the backend one at a time")
	assert.Equal(t, 2, e.callCount("/fortune/calculate"))

	// whichever call finished last, the stored result is one complete
	// response, never a blend of two
	result := e.fortune.Result()
	require.NotNil(t, result)
	switch result.GanZhi {
	case "干支-1":
		assert.Equal(t, "分析-1", result.AiAnalysis)
	case "干支-2":
		assert.Equal(t, "分析-2", result.AiAnalysis)
	default:
		t.Fatalf("stored result does not match any backend response: %q", result.GanZhi)
	}

	state := e.session.State()
	assert.Equal(t, defaultAnalysisCount-2, state.RemainingAnalysisCount)
	assert.Equal(t, 2, state.TotalAnalysisCount)
}

func TestFortune_ReturnedResultIsCallerOwned(t *testing.T) {
	e := newEnv(t, map[string]http.HandlerFunc{
		"/fortune/calculate": calculateOK(backend.FortuneResult{GanZhi: "甲子", WuXingLack: "金"}),
	})

	e.fortune.SetInput("张三", "1990-05-20", "午时", 1)
	result, err := e.fortune.Calculate(context.Background())
	require.NoError(t, err)

	// decorating the returned value for display must not leak into store
	// state or the persisted snapshot
	result.NameRecommendations = []backend.NameRecommendation{{Name: "张金泽"}}
	assert.Nil(t, e.fortune.Result().NameRecommendations)
	assert.Nil(t, e.fortune.State().Result.NameRecommendations)

	raw, ok := e.store.Get(storage.SnapshotKey("fortune"))
	require.True(t, ok)
	var snapshot FortuneState
	require.NoError(t, json.Unmarshal([]byte(raw), &snapshot))
	assert.Nil(t, snapshot.Result.NameRecommendations)

	// copies handed out by Result are caller-owned too
	e.fortune.Result().GanZhi = "changed"
	assert.Equal(t, "甲子", e.fortune.Result().GanZhi)
}

func TestFortune_RecommendNamesWithoutResultIsNoop(t *testing.T) {
	e := newEnv(t, nil)

	names := e.fortune.RecommendNames(context.Background())
	assert.Nil(t, names)
	assert.Zero(t, e.totalCalls())
}

func TestFortune_RecommendNamesSuccess(t *testing.T) {
	e := newEnv(t, map[string]http.HandlerFunc{
		"/fortune/recommend-names": func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, 200, "", []backend.NameRecommendation{
				{Name: "张沐宸", Reason: "补水"},
			})
		},
	})
	e.fortune.state.UserName = "张三"
	e.fortune.state.Result = &backend.FortuneResult{WuXingLack: "水", GanZhi: "甲子"}

	names := e.fortune.RecommendNames(context.Background())
	require.Len(t, names, 1)
	assert.Equal(t, "张沐宸", names[0].Name)
}

func TestFortune_RecommendNamesFailureStoresEmptyList(t *testing.T) {
	e := newEnv(t, map[string]http.HandlerFunc{
		"/fortune/recommend-names": func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, 500, "模型超时", nil)
		},
	})
	e.fortune.state.UserName = "张三"
	e.fortune.state.Result = &backend.FortuneResult{WuXingLack: "水", GanZhi: "甲子"}

	names := e.fortune.RecommendNames(context.Background())
	assert.NotNil(t, names)
	assert.Empty(t, names, "recommendation failure yields an empty list, not an error")
	assert.Empty(t, e.fortune.State().RecommendedNames)
}
