package payments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/models"
)

func TestStatusText(t *testing.T) {
	assert.Equal(t, "confirmed", StatusText(models.OrderConfirmed))
	assert.Equal(t, "delivered", StatusText(models.OrderDelivered))
	assert.Equal(t, "unknown", StatusText("refunded"))
}

func TestBuildTimelineConfirmed(t *testing.T) {
	created := time.Date(2025, 9, 15, 10, 0, 0, 0, time.UTC)
	steps := BuildTimeline(models.OrderConfirmed, created)

	require.Len(t, steps, 5)

	assert.True(t, steps[0].Completed)
	assert.False(t, steps[0].Current)
	require.NotNil(t, steps[0].Timestamp)
	assert.Equal(t, created, *steps[0].Timestamp)

	assert.True(t, steps[1].Completed)
	assert.True(t, steps[1].Current)
	assert.Equal(t, models.OrderConfirmed, steps[1].Key)

	for _, step := range steps[2:] {
		assert.False(t, step.Completed, step.Key)
		assert.False(t, step.Current, step.Key)
	}
}

func TestBuildTimelineDelivered(t *testing.T) {
	steps := BuildTimeline(models.OrderDelivered, time.Now())

	require.Len(t, steps, 5)
	for _, step := range steps {
		assert.True(t, step.Completed, step.Key)
	}
	assert.True(t, steps[4].Current)
}

func TestBuildTimelineCancelled(t *testing.T) {
	created := time.Now()
	steps := BuildTimeline(models.OrderCancelled, created)

	require.Len(t, steps, 1)
	assert.Equal(t, models.OrderCancelled, steps[0].Key)
	assert.True(t, steps[0].Completed)
	assert.True(t, steps[0].Current)
	require.NotNil(t, steps[0].Timestamp)
}

func TestBuildTimelineUnknownStatus(t *testing.T) {
	steps := BuildTimeline("refunded", time.Now())

	require.Len(t, steps, 5)
	for _, step := range steps {
		assert.False(t, step.Completed, step.Key)
		assert.False(t, step.Current, step.Key)
	}
}
