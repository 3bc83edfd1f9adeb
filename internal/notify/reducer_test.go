package notify

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/recruit-inbox/internal/model"
)

func items(read ...bool) []model.Notification {
	out := make([]model.Notification, len(read))
	for i, r := range read {
		out[i] = model.Notification{ID: fmt.Sprintf("%d", i+1), IsRead: r}
	}
	return out
}

func TestReduceMarkRead(t *testing.T) {
	before := items(false, false, true)

	after := Reduce(before, MarkRead{ID: "2"})

	assert.Equal(t, []bool{false, true, true}, readFlags(after))
	assert.Equal(t, []bool{false, false, true}, readFlags(before), "input must not change")
}

func TestReduceRevertRead(t *testing.T) {
	before := items(true, true)

	after := Reduce(before, RevertRead{ID: "1"})

	assert.Equal(t, []bool{false, true}, readFlags(after))
	assert.Equal(t, []bool{true, true}, readFlags(before))
}

func TestReduceMarkReadUnknownID(t *testing.T) {
	before := items(false)
	after := Reduce(before, MarkRead{ID: "missing"})
	assert.Equal(t, before, after)
}

func TestReduceMarkAllRead(t *testing.T) {
	before := items(false, true, false)

	after := Reduce(before, MarkAllRead{})

	assert.Equal(t, []bool{true, true, true}, readFlags(after))
	assert.Equal(t, 0, UnreadCount(after))
	assert.Equal(t, 2, UnreadCount(before))
}

func TestReduceReplaceAll(t *testing.T) {
	fetched := items(false, false)

	after := Reduce(items(true), ReplaceAll{Items: fetched})
	require.Len(t, after, 2)

	fetched[0].IsRead = true
	assert.False(t, after[0].IsRead, "result must not alias the fetched slice")
}

func TestReduceReplaceAllNil(t *testing.T) {
	after := Reduce(items(false), ReplaceAll{})
	assert.NotNil(t, after)
	assert.Empty(t, after)
}

func TestReducePreservesOrder(t *testing.T) {
	before := items(false, false, false, false)
	after := Reduce(Reduce(before, MarkRead{ID: "3"}), MarkAllRead{})

	ids := make([]string, len(after))
	for i, n := range after {
		ids[i] = n.ID
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		n    int
		size int
		want int
	}{
		{name: "empty", n: 0, size: 7, want: 0},
		{name: "fewer than size", n: 3, size: 7, want: 3},
		{name: "exactly size", n: 7, size: 7, want: 7},
		{name: "more than size", n: 20, size: 7, want: 7},
		{name: "zero size", n: 5, size: 0, want: 0},
		{name: "negative size", n: 5, size: -1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := items(make([]bool, tt.n)...)
			got := Preview(all, tt.size)
			require.Len(t, got, tt.want)
			assert.Equal(t, all[:tt.want], got)
		})
	}
}

// TestDerivedInvariants applies random action sequences and checks that
// the derived views always agree with the list they were computed from.
func TestDerivedInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		all := items(randomFlags(rng, rng.Intn(15))...)

		for step := 0; step < 30; step++ {
			all = Reduce(all, randomAction(rng, len(all)))

			unread := 0
			for _, n := range all {
				if !n.IsRead {
					unread++
				}
			}
			require.Equal(t, unread, UnreadCount(all))

			want := len(all)
			if want > DefaultPreviewSize {
				want = DefaultPreviewSize
			}
			require.Equal(t, all[:want], Preview(all, DefaultPreviewSize))
		}
	}
}

func randomFlags(rng *rand.Rand, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = rng.Intn(2) == 0
	}
	return out
}

func randomAction(rng *rand.Rand, n int) Action {
	id := fmt.Sprintf("%d", rng.Intn(n+2))
	switch rng.Intn(4) {
	case 0:
		return MarkRead{ID: id}
	case 1:
		return RevertRead{ID: id}
	case 2:
		return MarkAllRead{}
	default:
		return ReplaceAll{Items: items(randomFlags(rng, rng.Intn(15))...)}
	}
}

func readFlags(all []model.Notification) []bool {
	out := make([]bool, len(all))
	for i, n := range all {
		out[i] = n.IsRead
	}
	return out
}
