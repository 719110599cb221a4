package core

import (
	"context"
	"errors"
	"testing"

	"github.com/huangsam/annoq/internal/store"
	"github.com/huangsam/annoq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func judgment(annotator, entityType, entity string, value schema.AnnotationValue) schema.AnnotationRecord {
	return schema.AnnotationRecord{
		TaskID:    "companies",
		Entity:    schema.EntityRef{Type: entityType, Name: entity},
		Label:     "foo",
		Annotator: schema.AnnotatorID(annotator),
		Value:     value,
	}
}

func fooRecords() []schema.AnnotationRecord {
	return []schema.AnnotationRecord{
		judgment("user_1", "Company", "X", schema.Positive),
		judgment("user_1", "Company", "Y", schema.Positive),
		judgment("user_1", "Company", "Z", schema.Negative),
		judgment("user_2", "Company", "X", schema.Positive),
		judgment("user_2", "Company", "X", schema.Negative),
		judgment("user_2", "Company", "Y", schema.Unknown),
		judgment("user_2", "Company", "Q", schema.Unknown),
	}
}

func TestComputeStatistics(t *testing.T) {
	ctx := context.Background()
	task := schema.Task{ID: "companies", EntityType: "Company", Labels: []string{"foo"}}

	t.Run("counts and agreement", func(t *testing.T) {
		ts := &store.MockTaskStore{}
		ts.On("FetchAnnotations", mock.Anything, "foo").Return(fooRecords(), nil)
		ts.On("RequestStatistics", mock.Anything, "companies").Return(schema.RequestStatistics{
			TotalOutstanding: 3,
			PerUser:          map[schema.AnnotatorID]int{"user_1": 1, "user_2": 2},
		}, nil)

		stats, err := ComputeStatistics(ctx, StatisticsOptions{Task: task, Workers: 2}, ts, ts)
		require.NoError(t, err)

		assert.Equal(t, "foo", stats.Label)
		assert.Equal(t, 7, stats.TotalAnnotations)
		assert.Equal(t, map[schema.AnnotatorID]int{"user_1": 3, "user_2": 4}, stats.AnnotationsPerUser)
		assert.Equal(t, map[schema.AnnotationValue]int{schema.Positive: 3, schema.Negative: 2, schema.Unknown: 2}, stats.AnnotationsPerValue)
		assert.Equal(t, 3, stats.DistinctAnnotatedEntities)

		assert.Equal(t, []schema.AnnotatorID{"user_1", "user_2"}, stats.Kappa.Annotators)
		require.Len(t, stats.KappaPairs, 1)
		assert.NotEmpty(t, stats.Contentious)
		assert.Equal(t, []schema.AnnotatorID{"user_1", "user_2"}, stats.Comparison.Annotators)
		assert.Equal(t, 3, stats.Requests.TotalOutstanding)
		assert.Equal(t, 2, stats.Requests.PerUser["user_2"])
	})

	t.Run("other entity types count separately", func(t *testing.T) {
		records := append(fooRecords(),
			judgment("user_1", "Person", "X", schema.Positive),
			judgment("user_1", "Person", "Y", schema.Positive),
		)
		ts := &store.MockTaskStore{}
		ts.On("FetchAnnotations", mock.Anything, "foo").Return(records, nil)

		stats, err := ComputeStatistics(ctx, StatisticsOptions{Task: task}, ts, nil)
		require.NoError(t, err)
		assert.Equal(t, 5, stats.DistinctAnnotatedEntities)
		assert.Empty(t, stats.Requests.PerUser)
	})

	t.Run("no annotations", func(t *testing.T) {
		ts := &store.MockTaskStore{}
		ts.On("FetchAnnotations", mock.Anything, "foo").Return(nil, nil)

		stats, err := ComputeStatistics(ctx, StatisticsOptions{Task: task}, ts, nil)
		require.NoError(t, err)
		assert.Zero(t, stats.TotalAnnotations)
		assert.Zero(t, stats.DistinctAnnotatedEntities)
		assert.Empty(t, stats.Kappa.Annotators)
		assert.Empty(t, stats.KappaPairs)
		assert.Empty(t, stats.Contentious)
	})

	t.Run("fetch failure", func(t *testing.T) {
		ts := &store.MockTaskStore{}
		ts.On("FetchAnnotations", mock.Anything, "foo").Return(nil, errors.New("connection refused"))

		_, err := ComputeStatistics(ctx, StatisticsOptions{Task: task}, ts, nil)
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("explicit label", func(t *testing.T) {
		ts := &store.MockTaskStore{}
		ts.On("FetchAnnotations", mock.Anything, "bar").Return(nil, nil)

		stats, err := ComputeStatistics(ctx, StatisticsOptions{Task: task, Label: "bar"}, ts, nil)
		require.NoError(t, err)
		assert.Equal(t, "bar", stats.Label)
		ts.AssertExpectations(t)
	})
}
