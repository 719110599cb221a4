package algo

import (
	"testing"

	"github.com/huangsam/annoq/schema"
	"github.com/stretchr/testify/assert"
)

// TestContentiousLevel tests the disagreement score.
func TestContentiousLevel(t *testing.T) {
	assert.Equal(t, 1.0, ContentiousLevel(2, 2, 4))
	assert.InDelta(t, 0.5, ContentiousLevel(2, 1, 3), 1e-9)
	assert.InDelta(t, 0.25, ContentiousLevel(3, 0, 3), 1e-9)
	assert.InDelta(t, 1.0/3, ContentiousLevel(0, 0, 2), 1e-9)
}

// TestRankContentious tests ordering and the comparison table.
func TestRankContentious(t *testing.T) {
	records := []schema.AnnotationRecord{
		record("u1", "A", 1), record("u2", "A", 1), record("u3", "A", 1),
		record("u1", "B", 1), record("u2", "B", -1), record("u3", "B", 0),
		record("u1", "C", 1), record("u2", "C", -1), record("u3", "C", -1),
		record("u1", "D", -1),
	}
	for i := range records {
		records[i].ID = int64(i + 1)
	}

	ranked, table := RankContentious(records, "relevant", nil)

	names := make([]string, len(ranked))
	for i, c := range ranked {
		names[i] = c.Entity.Name
	}
	assert.Equal(t, []string{"B", "C", "A", "D"}, names)
	assert.Equal(t, 1.0, ranked[0].Level)
	assert.InDelta(t, 0.5, ranked[1].Level, 1e-9)
	assert.InDelta(t, 0.25, ranked[2].Level, 1e-9)
	assert.Equal(t, 2, ranked[3].Other)

	assert.Equal(t, []schema.AnnotatorID{"u1", "u2", "u3"}, table.Annotators)
	assert.Len(t, table.Rows, 4)
	assert.Equal(t, "B", table.Rows[0].Entity.Name)
	assert.Equal(t, schema.ComparisonCell{Present: true, Value: schema.Positive, AnnotationID: 4}, table.Rows[0].Cells[0])
	assert.False(t, table.Rows[3].Cells[1].Present)

	t.Run("explicit annotators", func(t *testing.T) {
		ranked, table := RankContentious(records, "relevant", []schema.AnnotatorID{"u1", "u2"})
		assert.Equal(t, []schema.AnnotatorID{"u1", "u2"}, table.Annotators)
		// B and C both split 1:1 and keep identity order.
		assert.Equal(t, "B", ranked[0].Entity.Name)
		assert.Equal(t, "C", ranked[1].Entity.Name)
	})

	t.Run("empty", func(t *testing.T) {
		ranked, table := RankContentious(nil, "relevant", nil)
		assert.Empty(t, ranked)
		assert.Empty(t, table.Rows)
	})
}
