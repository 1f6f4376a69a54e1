package typeahead

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAdd(t *testing.T, e *Engine, itemType, id string, score float64, tokens ...string) {
	t.Helper()
	require.NoError(t, e.Add(itemType, id, score, tokens))
}

func mustQuery(t *testing.T, e *Engine, n int, tokens ...string) []string {
	t.Helper()
	got, err := e.Query(n, tokens)
	require.NoError(t, err)
	return got
}

func TestEngineScenario(t *testing.T) {
	e := NewEngine()
	mustAdd(t, e, "user", "alice", 10, "alice", "al")
	mustAdd(t, e, "user", "bob", 5, "bob", "al")

	assert.Equal(t, []string{"alice", "bob"}, mustQuery(t, e, 2, "al"))

	got, err := e.WeightedQuery(2, []string{"al"}, []Boost{{Key: "user", Multiplier: 1.0}})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, got)

	assert.True(t, e.Delete("alice"))
	assert.Equal(t, []string{"bob"}, mustQuery(t, e, 2, "al"))
}

func TestEnginePrefixCorrectness(t *testing.T) {
	e := NewEngine()
	mustAdd(t, e, "topic", "t1", 1, "golang")

	for i := 1; i <= len("golang"); i++ {
		prefix := "golang"[:i]
		t.Run(prefix, func(t *testing.T) {
			assert.Equal(t, []string{"t1"}, mustQuery(t, e, 10, prefix))
		})
	}
	assert.Empty(t, mustQuery(t, e, 10, "golangs"))
	assert.Empty(t, mustQuery(t, e, 10, "lang"))
}

func TestEngineMultiTokenAnd(t *testing.T) {
	e := NewEngine()
	mustAdd(t, e, "question", "both", 1, "foo", "bar")
	mustAdd(t, e, "question", "onlyfoo", 2, "foo")
	mustAdd(t, e, "question", "onlybar", 3, "bar")
	mustAdd(t, e, "question", "single", 4, "fbar")

	assert.Equal(t, []string{"both"}, mustQuery(t, e, 10, "f", "b"))
	assert.Equal(t, []string{"both"}, mustQuery(t, e, 10, "ba", "fo"))
	// both query tokens may be satisfied by the same item token
	assert.Equal(t, []string{"single", "onlyfoo", "both"}, mustQuery(t, e, 10, "f", "f"))
	assert.Empty(t, mustQuery(t, e, 10, "foo", "zzz"))
}

func TestEngineIntersectionDoesNotCorruptIndex(t *testing.T) {
	e := NewEngine()
	mustAdd(t, e, "user", "a", 1, "apple", "pie")
	mustAdd(t, e, "user", "b", 2, "apple")

	first := mustQuery(t, e, 10, "apple", "pie")
	second := mustQuery(t, e, 10, "apple", "pie")
	assert.Equal(t, []string{"a"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"b", "a"}, mustQuery(t, e, 10, "apple"))
}

func TestEngineDeletionCompleteness(t *testing.T) {
	e := NewEngine()
	mustAdd(t, e, "board", "x", 1, "abc", "abd")
	assert.True(t, e.Delete("x"))

	assert.Empty(t, mustQuery(t, e, 10, "a"))
	assert.Empty(t, mustQuery(t, e, 10, "abc"))

	mustAdd(t, e, "board", "x", 1, "xyz")
	assert.Empty(t, mustQuery(t, e, 10, "a"))
	assert.Equal(t, []string{"x"}, mustQuery(t, e, 10, "x"))

	assert.False(t, e.Delete("missing"))
}

func TestEngineUpdateReplaces(t *testing.T) {
	e := NewEngine()
	mustAdd(t, e, "user", "u", 1, "old", "shared")
	mustAdd(t, e, "user", "u", 1, "new", "shared")

	assert.Empty(t, mustQuery(t, e, 10, "old"))
	assert.Equal(t, []string{"u"}, mustQuery(t, e, 10, "new"))
	assert.Equal(t, []string{"u"}, mustQuery(t, e, 10, "shared"))
	assert.Equal(t, 1, e.Stats().Items)
	assert.Empty(t, e.Terms("old", 0))
}

func TestEngineTieBreakByRecency(t *testing.T) {
	e := NewEngine()
	mustAdd(t, e, "user", "first", 5, "tie")
	mustAdd(t, e, "user", "second", 5, "tie")
	mustAdd(t, e, "user", "third", 5, "tie")

	assert.Equal(t, []string{"third", "second", "first"}, mustQuery(t, e, 10, "tie"))

	// re-adding makes the item the most recent one
	mustAdd(t, e, "user", "first", 5, "tie")
	assert.Equal(t, []string{"first", "third", "second"}, mustQuery(t, e, 10, "tie"))
}

func TestEngineRankingDeterministic(t *testing.T) {
	e := NewEngine()
	for i := 0; i < 50; i++ {
		mustAdd(t, e, "topic", fmt.Sprintf("t%02d", i), float64(i%7), "term")
	}
	boosts := []Boost{{Key: "t03", Multiplier: 10}}

	first, err := e.WeightedQuery(50, []string{"te"}, boosts)
	require.NoError(t, err)
	second, err := e.WeightedQuery(50, []string{"te"}, boosts)
	require.NoError(t, err)

	require.Len(t, first, 50)
	assert.Equal(t, first, second)
	assert.Equal(t, "t03", first[0])
}

func TestEngineOverflowedScoresRankLast(t *testing.T) {
	want := []string{"u11", "u10", "u08", "u07", "u05", "u04", "u02", "u01", "u09", "u06", "u03", "u00"}
	// 1e308 * 10 overflows to Inf, and Inf * 0 is NaN.
	boosts := []Boost{{"user", 10}, {"user", 0}}

	for run := 0; run < 20; run++ {
		e := NewEngine()
		for i := 0; i < 12; i++ {
			score := float64(i)
			if i%3 == 0 {
				score = 1e308
			}
			mustAdd(t, e, "user", fmt.Sprintf("u%02d", i), score, "x")
		}

		got, err := e.WeightedQuery(12, []string{"x"}, boosts)
		require.NoError(t, err)
		require.Equal(t, want, got, "run %d", run)
	}
}

func TestBoostCompounding(t *testing.T) {
	item := &Item{ID: "x", Type: "t", RawScore: 1.0}

	tests := []struct {
		name   string
		boosts []Boost
		want   float64
	}{
		{"no boosts", nil, 1.0},
		{"type and id compound", []Boost{{"t", 2.0}, {"x", 3.0}}, 6.0},
		{"id before type still compounds", []Boost{{"x", 3.0}, {"t", 2.0}}, 6.0},
		{"repeated rule applies twice", []Boost{{"t", 2.0}, {"t", 2.0}}, 4.0},
		{"non matching ignored", []Boost{{"user", 9.0}, {"y", 9.0}}, 1.0},
		{"zero multiplier", []Boost{{"t", 0}}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, BoostedScore(item, tc.boosts), 1e-9)
		})
	}
}

func TestEngineWeightedQueryReorders(t *testing.T) {
	e := NewEngine()
	mustAdd(t, e, "user", "u1", 10, "data")
	mustAdd(t, e, "topic", "t1", 4, "data")
	mustAdd(t, e, "question", "q1", 3, "data")

	results, err := e.ScoredQuery(3, []string{"d"}, []Boost{{"topic", 2.0}, {"q1", 5.0}})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "q1", results[0].ID)
	assert.InDelta(t, 15.0, results[0].Score, 1e-9)
	assert.Equal(t, "u1", results[1].ID)
	assert.Equal(t, "t1", results[2].ID)
	assert.InDelta(t, 8.0, results[2].Score, 1e-9)
}

func TestEngineTruncation(t *testing.T) {
	e := NewEngine()
	for i := 1; i <= 5; i++ {
		mustAdd(t, e, "user", fmt.Sprintf("u%d", i), float64(i), "name")
	}

	assert.Equal(t, []string{"u5", "u4"}, mustQuery(t, e, 2, "n"))
	assert.Empty(t, mustQuery(t, e, 0, "n"))
	assert.Len(t, mustQuery(t, e, 100, "n"), 5)
}

func TestEngineInputContract(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name string
		err  error
	}{
		{"negative count", func() error { _, err := e.Query(-1, []string{"a"}); return err }()},
		{"empty query token", func() error { _, err := e.Query(1, []string{"a", ""}); return err }()},
		{"empty id", e.Add("user", "", 1, []string{"a"})},
		{"empty item token", e.Add("user", "x", 1, []string{"a", ""})},
		{"negative score", e.Add("user", "x", -1, []string{"a"})},
		{"infinite score", e.Add("user", "x", math.Inf(1), []string{"a"})},
		{"NaN multiplier", func() error {
			_, err := e.WeightedQuery(1, []string{"a"}, []Boost{{"user", math.NaN()}})
			return err
		}()},
		{"infinite multiplier", func() error {
			_, err := e.WeightedQuery(1, []string{"a"}, []Boost{{"user", math.Inf(-1)}})
			return err
		}()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.err, ErrInvalidArgument)
		})
	}

	assert.Equal(t, 0, e.Stats().Items, "rejected adds must not touch the index")

	got, err := e.Query(5, nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEngineTermsAndStats(t *testing.T) {
	e := NewEngine()
	mustAdd(t, e, "user", "a", 1, "apple", "pie")
	mustAdd(t, e, "user", "b", 1, "apple", "apricot")

	assert.Equal(t, []Term{{"apple", 2}, {"apricot", 1}}, e.Terms("ap", 5))

	stats := e.Stats()
	assert.Equal(t, 2, stats.Items)
	assert.Equal(t, uint64(2), stats.Created)
	assert.Equal(t, 3, stats.Terms)
	assert.Greater(t, stats.Nodes, 1)
}

func TestEngineCallerSliceNotRetained(t *testing.T) {
	e := NewEngine()
	tokens := []string{"alpha"}
	mustAdd(t, e, "user", "a", 1, tokens...)
	require.NoError(t, e.Add("user", "b", 1, tokens))
	tokens[0] = "omega"

	assert.True(t, e.Delete("b"))
	assert.Equal(t, []string{"a"}, mustQuery(t, e, 10, "alpha"))
	assert.Equal(t, []Term{{"alpha", 1}}, e.Terms("alpha", 0))
}

type recordingObserver struct {
	mu      sync.Mutex
	ops     map[string]int
	errs    int
	queries int
	items   int
}

func (r *recordingObserver) ObserveOp(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[op]++
	if err != nil {
		r.errs++
	}
}

func (r *recordingObserver) ObserveQuery(time.Duration, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
}

func (r *recordingObserver) ObserveSize(items, nodes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = items
}

func TestEngineObserver(t *testing.T) {
	obs := &recordingObserver{ops: make(map[string]int)}
	e := NewEngine(WithObserver(obs))

	mustAdd(t, e, "user", "a", 1, "x")
	mustAdd(t, e, "user", "b", 1, "x")
	e.Delete("a")
	mustQuery(t, e, 1, "x")
	_, _ = e.WeightedQuery(1, []string{"x"}, []Boost{{"user", 2}})
	_, _ = e.Query(-1, []string{"x"})

	assert.Equal(t, 2, obs.ops["add"])
	assert.Equal(t, 1, obs.ops["delete"])
	assert.Equal(t, 2, obs.ops["query"])
	assert.Equal(t, 1, obs.ops["wquery"])
	assert.Equal(t, 1, obs.errs)
	assert.Equal(t, 2, obs.queries)
	assert.Equal(t, 1, obs.items)
}

// unlockedOpObserver records whether the engine lock was free whenever an
// operation was reported.
type unlockedOpObserver struct {
	engine *Engine
	locked []string
}

func (o *unlockedOpObserver) ObserveOp(op string, _ error) {
	if !o.engine.mu.TryLock() {
		o.locked = append(o.locked, op)
		return
	}
	o.engine.mu.Unlock()
}

func (o *unlockedOpObserver) ObserveQuery(time.Duration, int, int) {}
func (o *unlockedOpObserver) ObserveSize(int, int)                 {}

func TestEngineReportsOpsOutsideLock(t *testing.T) {
	obs := &unlockedOpObserver{}
	e := NewEngine(WithObserver(obs))
	obs.engine = e

	mustAdd(t, e, "user", "a", 1, "x")
	e.Delete("a")
	e.Delete("missing")
	mustQuery(t, e, 1, "x")
	_, _ = e.WeightedQuery(1, []string{"x"}, []Boost{{"user", 2}})

	assert.Empty(t, obs.locked)
}

func TestEngineConcurrentAccess(t *testing.T) {
	e := NewEngine()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := fmt.Sprintf("w%d-%d", w, i%10)
				_ = e.Add("user", id, float64(i), []string{"shared", id})
				_, _ = e.Query(5, []string{"sh"})
				if i%3 == 0 {
					e.Delete(id)
				}
			}
		}(w)
	}
	wg.Wait()

	got := mustQuery(t, e, 1000, "shared")
	assert.Len(t, got, e.Stats().Items)
}

func BenchmarkEngineQuery(b *testing.B) {
	e := NewEngine()
	for i := 0; i < 10000; i++ {
		_ = e.Add("user", fmt.Sprintf("id%d", i), float64(i%100), []string{fmt.Sprintf("word%d", i), "common"})
	}
	inputs := [][]string{{"word1"}, {"common", "word2"}, {"w"}, {"co", "word99"}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Query(10, inputs[i%len(inputs)])
	}
}
