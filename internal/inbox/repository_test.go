package inbox

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSortedIDsOrderInsensitive(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	canonical := sortedIDs([]uuid.UUID{a, b, c})
	assert.Equal(t, canonical, sortedIDs([]uuid.UUID{c, a, b}))
	assert.Equal(t, canonical, sortedIDs([]uuid.UUID{b, c, a}))
	assert.Len(t, canonical, 3)

	// Byte-wise ascending, so the array comparison in FindByParticipants
	// sees one canonical form per participant set.
	for i := 1; i < len(canonical); i++ {
		assert.LessOrEqual(t, canonical[i-1].String(), canonical[i].String())
	}
}

func TestSortedIDsSupersetDiffers(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	pair := sortedIDs([]uuid.UUID{b, a})
	trio := sortedIDs([]uuid.UUID{c, b, a})

	// A group thread's array never equals a direct thread's array, even
	// though the pair is a subset of the trio.
	assert.NotEqual(t, pair, trio)
	assert.Subset(t, trio, pair)
}

func TestSortedIDsDoesNotMutateInput(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	input := []uuid.UUID{b, a}

	_ = sortedIDs(input)
	assert.Equal(t, []uuid.UUID{b, a}, input)
}
