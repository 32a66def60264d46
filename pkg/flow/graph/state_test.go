package graph

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/flowgraph/pkg/flow"
)

type arrival struct {
	k   int
	seq uint64
}

func TestJoinState_ShuffledArrivalsProduceEveryCombinationOnce(t *testing.T) {
	t.Parallel()
	sizes := []uint64{2, 3, 2}

	var arrivals []arrival
	for k, n := range sizes {
		for s := range n {
			arrivals = append(arrivals, arrival{k, s})
		}
	}

	for round := range 50 {
		rng := rand.New(rand.NewPCG(uint64(round), 7))
		rng.Shuffle(len(arrivals), func(i, j int) { arrivals[i], arrivals[j] = arrivals[j], arrivals[i] })

		st := newJoinState(sizes)
		got := make(map[uint64][]any)
		for _, a := range arrivals {
			jobs, err := st.accept(a.k, flow.Tag(a.seq, flow.Success[any](a.k*100+int(a.seq))))
			require.NoError(t, err)
			for _, j := range jobs {
				_, dup := got[j.seq]
				require.False(t, dup, "round %d: seq %d dispatched twice", round, j.seq)
				got[j.seq] = []any{j.args[0].Result(), j.args[1].Result(), j.args[2].Result()}
			}
		}

		require.Len(t, got, 12, "round %d", round)
		for a := range uint64(2) {
			for b := range uint64(3) {
				for c := range uint64(2) {
					seq := a*6 + b*2 + c
					assert.Equal(t, []any{int(a), 100 + int(b), 200 + int(c)}, got[seq])
				}
			}
		}
	}
}

func TestJoinState_DuplicateIgnored(t *testing.T) {
	t.Parallel()
	st := newJoinState([]uint64{1, 1})

	jobs, err := st.accept(0, flow.Tag(0, flow.Success[any](1)))
	require.NoError(t, err)
	assert.Empty(t, jobs)

	jobs, err = st.accept(1, flow.Tag(0, flow.Success[any](2)))
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	jobs, err = st.accept(1, flow.Tag(0, flow.Success[any](2)))
	require.NoError(t, err)
	assert.Empty(t, jobs)

	_, err = st.accept(0, flow.Tag(5, flow.Success[any](1)))
	assert.ErrorIs(t, err, ErrBadSequence)
}

func TestJoinSize(t *testing.T) {
	t.Parallel()

	n, err := joinSize([]uint64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, uint64(6), n)

	n, err = joinSize([]uint64{4, 0, 7})
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = joinSize([]uint64{math.MaxUint64, 2})
	assert.ErrorIs(t, err, ErrSizeOverflow)
}

func TestZipState_ConstantArrivesLast(t *testing.T) {
	t.Parallel()
	st := newZipState([]bool{false, true})

	for seq := range uint64(3) {
		jobs, err := st.accept(0, flow.Tag(seq, flow.Success[any](int(seq))))
		require.NoError(t, err)
		assert.Empty(t, jobs)
	}

	jobs, err := st.accept(1, flow.Tag(0, flow.Success[any]("c")))
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	for _, j := range jobs {
		assert.Equal(t, int(j.seq), j.args[0].Result())
		assert.Equal(t, "c", j.args[1].Result())
	}

	jobs, err = st.accept(0, flow.Tag(3, flow.Success[any](3)))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, uint64(3), jobs[0].seq)
}

func TestZipState_OutOfOrderPositions(t *testing.T) {
	t.Parallel()
	st := newZipState([]bool{false, false})

	jobs, _ := st.accept(1, flow.Tag(1, flow.Success[any]("b1")))
	assert.Empty(t, jobs)
	jobs, _ = st.accept(0, flow.Tag(0, flow.Success[any]("a0")))
	assert.Empty(t, jobs)
	jobs, _ = st.accept(0, flow.Tag(1, flow.Success[any]("a1")))
	require.Len(t, jobs, 1)
	assert.Equal(t, uint64(1), jobs[0].seq)
	assert.Equal(t, "a1", jobs[0].args[0].Result())
	assert.Equal(t, "b1", jobs[0].args[1].Result())
}

func TestBatchState_CollectsInOrder(t *testing.T) {
	t.Parallel()
	st := newBatchState(3, 1, false)

	for _, seq := range []uint64{2, 0, 1} {
		jobs, err := st.accept(0, flow.Tag(seq, flow.Success[any](int(seq)*10)))
		require.NoError(t, err)
		assert.Empty(t, jobs)
	}
	jobs, err := st.accept(1, flow.Tag(0, flow.Success[any]("k")))
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	require.True(t, jobs[0].args[0].IsList())
	assert.Equal(t, []any{0, 10, 20}, jobs[0].args[0].Items())
	assert.Equal(t, "k", jobs[0].args[1].Result())
	assert.Empty(t, st.finish())
}

func TestBatchState_FailurePoisons(t *testing.T) {
	t.Parallel()
	st := newBatchState(2, 0, true)

	_, _ = st.accept(0, flow.Tag(0, flow.Success[any](1)))
	jobs, _ := st.accept(0, flow.Tag(1, flow.Fail[any](assert.AnError)))
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].args[0].IsFailure())
}

func TestBatchState_EmptyFullStreamSkipped(t *testing.T) {
	t.Parallel()
	assert.Empty(t, newBatchState(0, 0, true).finish())
	assert.Len(t, newBatchState(0, 0, false).finish(), 1)
}
