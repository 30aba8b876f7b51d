package square

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBounded_OrderPreservation(t *testing.T) {
	items := make([]int, 200)
	for i := range items {
		items[i] = i
	}

	results := runBounded(items, 8, func(v int) (string, error) {
		return fmt.Sprintf("r%d", v), nil
	})

	var collected []string
	err := orderedCollect(results, func(r taskResult[int, string]) error {
		require.NoError(t, r.Err)
		collected = append(collected, r.Out)
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, collected, 200)
	for i, got := range collected {
		assert.Equal(t, fmt.Sprintf("r%d", i), got, "result %d out of order", i)
	}
}

func TestRunBounded_SingleWorker(t *testing.T) {
	items := []int{4, 5, 6}
	results := runBounded(items, 1, func(v int) (int, error) { return v * 2, nil })

	var collected []int
	err := orderedCollect(results, func(r taskResult[int, int]) error {
		collected = append(collected, r.Out)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{8, 10, 12}, collected)
}

func TestOrderedCollect_StopsOnError(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}
	boom := errors.New("boom")

	results := runBounded(items, 4, func(v int) (int, error) {
		if v == 2 {
			return 0, boom
		}
		return v, nil
	})

	var seen []int
	err := orderedCollect(results, func(r taskResult[int, int]) error {
		if r.Err != nil {
			return r.Err
		}
		seen = append(seen, r.Out)
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{0, 1}, seen, "results before the failing sequence are delivered in order")
}

func TestRunBounded_NoItems(t *testing.T) {
	results := runBounded(nil, 4, func(v int) (int, error) { return v, nil })
	err := orderedCollect(results, func(r taskResult[int, int]) error { return r.Err })
	assert.NoError(t, err)
}
