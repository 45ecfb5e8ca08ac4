package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapCache struct {
	data    map[string][]PrioritizedTask
	failGet bool
	failSet bool
}

func (m *mapCache) Get(_ context.Context, key string) ([]PrioritizedTask, bool, error) {
	if m.failGet {
		return nil, false, errors.New("cache down")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, key string, v []PrioritizedTask) error {
	if m.failSet {
		return errors.New("cache down")
	}
	m.data[key] = v
	return nil
}

type countingPrioritizer struct {
	calls int
	out   []PrioritizedTask
	err   error
}

func (c *countingPrioritizer) Prioritize(context.Context, PrioritizationInput) ([]PrioritizedTask, error) {
	c.calls++
	return c.out, c.err
}

func TestCachedPrioritizer_HitsCache(t *testing.T) {
	next := &countingPrioritizer{out: []PrioritizedTask{{ID: "t1", Priority: 1}}}
	cp := NewCachedPrioritizer(next, &mapCache{data: map[string][]PrioritizedTask{}}, zap.NewNop())

	for i := 0; i < 3; i++ {
		out, err := cp.Prioritize(context.Background(), sampleInput)
		require.NoError(t, err)
		assert.Equal(t, next.out, out)
	}
	assert.Equal(t, 1, next.calls)
}

func TestCachedPrioritizer_ErrorsNotCached(t *testing.T) {
	cache := &mapCache{data: map[string][]PrioritizedTask{}}
	next := &countingPrioritizer{err: ErrPrioritizationFailed}
	cp := NewCachedPrioritizer(next, cache, zap.NewNop())

	_, err := cp.Prioritize(context.Background(), sampleInput)
	assert.ErrorIs(t, err, ErrPrioritizationFailed)
	assert.Empty(t, cache.data)
}

func TestCachedPrioritizer_CacheFailureBypassed(t *testing.T) {
	next := &countingPrioritizer{out: []PrioritizedTask{{ID: "t1", Priority: 1}}}
	cp := NewCachedPrioritizer(next, &mapCache{failGet: true, failSet: true}, zap.NewNop())

	out, err := cp.Prioritize(context.Background(), sampleInput)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestCacheKey(t *testing.T) {
	swapped := PrioritizationInput{Tasks: []PrioritizationTask{sampleInput.Tasks[1], sampleInput.Tasks[0]}}

	assert.Equal(t, CacheKey(sampleInput), CacheKey(sampleInput))
	assert.NotEqual(t, CacheKey(sampleInput), CacheKey(swapped))
	assert.Contains(t, CacheKey(sampleInput), "prioritize:")
}

func TestNewRedisCache_BadURL(t *testing.T) {
	_, err := NewRedisCache("http://not-redis", time.Minute)
	assert.Error(t, err)
}
