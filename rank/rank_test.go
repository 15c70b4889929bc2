package rank_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hotpath.dev/hotpath/collect"
	"go.hotpath.dev/hotpath/rank"
)

func stat(file string, line int, name string, calls int64, cum, self time.Duration) collect.FuncStat {
	return collect.FuncStat{
		File:  file,
		Line:  line,
		Name:  name,
		Calls: calls,
		Cum:   cum,
		Self:  self,
	}
}

func TestAggregate_InvalidDepth(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		topN int
	}{
		"zero":     {topN: 0},
		"negative": {topN: -5},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			report, err := rank.Aggregate(collect.Raw{}, tc.topN)
			require.ErrorIs(t, err, rank.ErrInvalidDepth)
			assert.Nil(t, report)
		})
	}
}

func TestAggregate_Rankings(t *testing.T) {
	t.Parallel()

	raw := collect.Raw{
		Funcs: []collect.FuncStat{
			stat("a.py", 1, "slow", 2, 300*time.Millisecond, 100*time.Millisecond),
			stat("b.py", 5, "busy", 100, 50*time.Millisecond, 50*time.Millisecond),
			stat("c.py", 9, "mid", 10, 100*time.Millisecond, 80*time.Millisecond),
		},
		Wall: 500 * time.Millisecond,
	}

	report, err := rank.Aggregate(raw, 10)
	require.NoError(t, err)

	// By cumulative time: slow, mid, busy.
	require.Len(t, report.ByCumTime, 3)
	assert.Equal(t, "slow", report.ByCumTime[0].Name)
	assert.Equal(t, "mid", report.ByCumTime[1].Name)
	assert.Equal(t, "busy", report.ByCumTime[2].Name)

	// By call count: busy, mid, slow.
	require.Len(t, report.ByCalls, 3)
	assert.Equal(t, "busy", report.ByCalls[0].Name)
	assert.Equal(t, "mid", report.ByCalls[1].Name)
	assert.Equal(t, "slow", report.ByCalls[2].Name)

	// By self time: slow, mid, busy.
	require.Len(t, report.BySelfTime, 3)
	assert.Equal(t, "slow", report.BySelfTime[0].Name)
	assert.Equal(t, "mid", report.BySelfTime[1].Name)
	assert.Equal(t, "busy", report.BySelfTime[2].Name)

	assert.Equal(t, raw.Wall, report.Wall)
	assert.Equal(t, 10, report.TopN)
}

func TestAggregate_Monotonic(t *testing.T) {
	t.Parallel()

	raw := collect.Raw{
		Funcs: []collect.FuncStat{
			stat("a.py", 1, "f1", 7, 10*time.Millisecond, 5*time.Millisecond),
			stat("a.py", 9, "f2", 3, 80*time.Millisecond, 60*time.Millisecond),
			stat("b.py", 2, "f3", 40, 20*time.Millisecond, 20*time.Millisecond),
			stat("b.py", 7, "f4", 1, 80*time.Millisecond, 10*time.Millisecond),
			stat("c.py", 4, "f5", 40, 5*time.Millisecond, 5*time.Millisecond),
		},
	}

	report, err := rank.Aggregate(raw, 5)
	require.NoError(t, err)

	for i := 1; i < len(report.ByCumTime); i++ {
		assert.GreaterOrEqual(t, report.ByCumTime[i-1].Cum, report.ByCumTime[i].Cum)
	}

	for i := 1; i < len(report.ByCalls); i++ {
		assert.GreaterOrEqual(t, report.ByCalls[i-1].Calls, report.ByCalls[i].Calls)
	}

	for i := 1; i < len(report.BySelfTime); i++ {
		assert.GreaterOrEqual(t, report.BySelfTime[i-1].Self, report.BySelfTime[i].Self)
	}

	// Self <= Cum holds for every entry of the report.
	for _, e := range append(report.ByCumTime, report.ByCalls...) {
		assert.LessOrEqual(t, e.Self, e.Cum)
	}
}

func TestAggregate_TieBreaks(t *testing.T) {
	t.Parallel()

	// Equal cumulative time: higher call count ranks first, then call-site
	// identity ascending.
	raw := collect.Raw{
		Funcs: []collect.FuncStat{
			stat("z.py", 1, "zf", 5, 100*time.Millisecond, 10*time.Millisecond),
			stat("a.py", 2, "af", 5, 100*time.Millisecond, 10*time.Millisecond),
			stat("m.py", 3, "mf", 9, 100*time.Millisecond, 10*time.Millisecond),
		},
	}

	report, err := rank.Aggregate(raw, 3)
	require.NoError(t, err)

	assert.Equal(t, "mf", report.ByCumTime[0].Name)
	assert.Equal(t, "af", report.ByCumTime[1].Name)
	assert.Equal(t, "zf", report.ByCumTime[2].Name)
}

func TestAggregate_Deterministic(t *testing.T) {
	t.Parallel()

	raw := collect.Raw{
		Funcs: []collect.FuncStat{
			stat("a.py", 1, "f1", 5, 100*time.Millisecond, 10*time.Millisecond),
			stat("a.py", 1, "f2", 5, 100*time.Millisecond, 10*time.Millisecond),
			stat("b.py", 1, "f3", 5, 100*time.Millisecond, 10*time.Millisecond),
		},
	}

	first, err := rank.Aggregate(raw, 3)
	require.NoError(t, err)

	second, err := rank.Aggregate(raw, 3)
	require.NoError(t, err)

	assert.Equal(t, first.ByCumTime, second.ByCumTime)
	assert.Equal(t, first.ByCalls, second.ByCalls)
	assert.Equal(t, first.BySelfTime, second.BySelfTime)
}

func TestAggregate_SelfTimeTieBreaks(t *testing.T) {
	t.Parallel()

	// Equal self time: higher cumulative time ranks first, then call-site
	// identity ascending.
	raw := collect.Raw{
		Funcs: []collect.FuncStat{
			stat("z.py", 1, "zf", 5, 50*time.Millisecond, 20*time.Millisecond),
			stat("a.py", 2, "af", 5, 50*time.Millisecond, 20*time.Millisecond),
			stat("m.py", 3, "mf", 5, 90*time.Millisecond, 20*time.Millisecond),
		},
	}

	report, err := rank.Aggregate(raw, 3)
	require.NoError(t, err)

	assert.Equal(t, "mf", report.BySelfTime[0].Name)
	assert.Equal(t, "af", report.BySelfTime[1].Name)
	assert.Equal(t, "zf", report.BySelfTime[2].Name)
}

func TestAggregate_Truncation(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		funcs   int
		topN    int
		wantLen int
	}{
		"more functions than depth": {
			funcs:   10,
			topN:    3,
			wantLen: 3,
		},
		"fewer functions than depth": {
			funcs:   2,
			topN:    15,
			wantLen: 2,
		},
		"exact": {
			funcs:   4,
			topN:    4,
			wantLen: 4,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			raw := collect.Raw{}
			for i := range tc.funcs {
				raw.Funcs = append(raw.Funcs,
					stat("a.py", i+1, "f", int64(i+1), time.Duration(i+1)*time.Millisecond, time.Millisecond))
			}

			report, err := rank.Aggregate(raw, tc.topN)
			require.NoError(t, err)

			assert.Len(t, report.ByCumTime, tc.wantLen)
			assert.Len(t, report.ByCalls, tc.wantLen)
			assert.Len(t, report.BySelfTime, tc.wantLen)
		})
	}
}

func TestAggregate_Average(t *testing.T) {
	t.Parallel()

	raw := collect.Raw{
		Funcs: []collect.FuncStat{
			stat("example.py", 12, "work", 3, 30*time.Millisecond, 30*time.Millisecond),
		},
	}

	report, err := rank.Aggregate(raw, 1)
	require.NoError(t, err)

	require.Len(t, report.ByCumTime, 1)
	assert.Equal(t, 10*time.Millisecond, report.ByCumTime[0].Avg)
}

func TestAggregate_EmptyRaw(t *testing.T) {
	t.Parallel()

	report, err := rank.Aggregate(collect.Raw{Wall: time.Second}, 15)
	require.NoError(t, err)

	assert.Empty(t, report.ByCumTime)
	assert.Empty(t, report.ByCalls)
	assert.Equal(t, time.Second, report.Wall)
}
