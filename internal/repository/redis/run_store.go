package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yourusername/contest-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// runKeyPrefix namespaces run records in redis.
const runKeyPrefix = "judging:run:"

// runTTL caps how long a run record may linger if the service dies without
// cleaning up. A live run refreshes the TTL on every phase update.
const runTTL = 2 * time.Hour

// RunStore implements repository.RunStore on redis. SetNX gives the
// one-run-per-contest guarantee even with several API instances.
type RunStore struct {
	client redis.UniversalClient
	ctx    context.Context
}

// NewRunStore creates a redis-backed run store.
func NewRunStore(client redis.UniversalClient) (*RunStore, error) {
	if client == nil {
		return nil, fmt.Errorf("Redis client cannot be nil for RunStore")
	}
	return &RunStore{
		client: client,
		ctx:    context.Background(),
	}, nil
}

func runKey(contestID uint) string {
	return fmt.Sprintf("%s%d", runKeyPrefix, contestID)
}

// Put registers a run. Returns ErrConflict when a run already exists for the
// contest.
func (s *RunStore) Put(run *entity.JudgingRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(s.ctx, runKey(run.ContestID), data, runTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: judging already running for contest #%d",
			apperrors.ErrConflict, run.ContestID)
	}
	return nil
}

// Get returns the run registered for a contest, or ErrNotFound.
func (s *RunStore) Get(contestID uint) (*entity.JudgingRun, error) {
	data, err := s.client.Get(s.ctx, runKey(contestID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	var run entity.JudgingRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// UpdatePhase records run progress and refreshes the record TTL.
func (s *RunStore) UpdatePhase(contestID uint, phase string) error {
	run, err := s.Get(contestID)
	if err != nil {
		return err
	}
	run.Phase = phase
	run.UpdatedAt = time.Now()

	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return s.client.Set(s.ctx, runKey(contestID), data, runTTL).Err()
}

// Delete removes the run record once judging finishes or aborts.
func (s *RunStore) Delete(contestID uint) error {
	return s.client.Del(s.ctx, runKey(contestID)).Err()
}
