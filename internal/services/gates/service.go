package gates

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/evn/appgate/internal/models"
	"github.com/evn/appgate/internal/repositories"
)

const (
	cacheKeyPrefix = "gate:"

	// EventsChannel is the redis pub/sub channel gate changes fan out on.
	// Every server instance subscribes and pushes the events to its own
	// websocket clients.
	EventsChannel = "appgate:events"

	// DefaultCacheTTL bounds how stale a cached gate can get if an
	// invalidation is lost.
	DefaultCacheTTL = 5 * time.Minute
)

// Service wraps the gate repository with a redis read cache and change
// notifications. A nil redis client disables caching and events; reads then
// go straight to the database.
type Service struct {
	repo  *repositories.VersionGateRepository
	redis *redis.Client
	ttl   time.Duration
}

func NewService(repo *repositories.VersionGateRepository, redisClient *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		repo:  repo,
		redis: redisClient,
		ttl:   ttl,
	}
}

// GetByPlatform returns the gate for a platform, from cache when possible.
func (s *Service) GetByPlatform(ctx context.Context, platform string) (*models.VersionGate, error) {
	if s.redis != nil {
		data, err := s.redis.Get(ctx, cacheKeyPrefix+platform).Bytes()
		if err == nil {
			var gate models.VersionGate
			if err := json.Unmarshal(data, &gate); err == nil {
				return &gate, nil
			}
			log.Printf("Dropping bad cache entry for %s: %v", platform, err)
		} else if err != redis.Nil {
			log.Printf("Redis read failed for %s, falling back to database: %v", platform, err)
		}
	}

	gate, err := s.repo.GetByPlatform(platform)
	if err != nil {
		return nil, err
	}

	s.cache(ctx, gate)
	return gate, nil
}

// List returns all gates, always from the database.
func (s *Service) List(ctx context.Context) ([]models.VersionGate, error) {
	return s.repo.List()
}

// Upsert writes the gate through to the database, refreshes the cache and
// announces the change.
func (s *Service) Upsert(ctx context.Context, gate *models.VersionGate) error {
	if err := s.repo.Upsert(gate); err != nil {
		return err
	}

	s.Invalidate(ctx, gate.Platform)
	s.publish(ctx, models.GateEvent{
		Type:      models.EventGateUpdated,
		Platform:  gate.Platform,
		Gate:      gate,
		Timestamp: time.Now(),
	})
	return nil
}

// Delete removes the gate for a platform and announces the removal.
func (s *Service) Delete(ctx context.Context, platform string) error {
	if err := s.repo.Delete(platform); err != nil {
		return err
	}

	s.Invalidate(ctx, platform)
	s.publish(ctx, models.GateEvent{
		Type:      models.EventGateDeleted,
		Platform:  platform,
		Timestamp: time.Now(),
	})
	return nil
}

// ReplaceAll swaps the whole gate set in one transaction, then invalidates
// every platform that existed before or after the swap.
func (s *Service) ReplaceAll(ctx context.Context, gates []models.VersionGate) error {
	old, err := s.repo.List()
	if err != nil {
		return err
	}

	if err := s.repo.ReplaceAll(gates); err != nil {
		return err
	}

	for _, gate := range old {
		s.Invalidate(ctx, gate.Platform)
	}
	for i := range gates {
		s.Invalidate(ctx, gates[i].Platform)
		s.publish(ctx, models.GateEvent{
			Type:      models.EventGateUpdated,
			Platform:  gates[i].Platform,
			Gate:      &gates[i],
			Timestamp: time.Now(),
		})
	}
	return nil
}

// Invalidate drops the cached gate for a platform.
func (s *Service) Invalidate(ctx context.Context, platform string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, cacheKeyPrefix+platform).Err(); err != nil {
		log.Printf("Redis invalidate failed for %s: %v", platform, err)
	}
}

// Subscribe delivers gate events published by any server instance. The
// returned channel closes when ctx is cancelled. Returns nil without redis.
func (s *Service) Subscribe(ctx context.Context) <-chan models.GateEvent {
	if s.redis == nil {
		return nil
	}

	sub := s.redis.Subscribe(ctx, EventsChannel)
	events := make(chan models.GateEvent)

	go func() {
		defer close(events)
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var event models.GateEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("Dropping malformed gate event: %v", err)
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events
}

func (s *Service) cache(ctx context.Context, gate *models.VersionGate) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(gate)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKeyPrefix+gate.Platform, data, s.ttl).Err(); err != nil {
		log.Printf("Redis cache write failed for %s: %v", gate.Platform, err)
	}
}

func (s *Service) publish(ctx context.Context, event models.GateEvent) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.redis.Publish(ctx, EventsChannel, data).Err(); err != nil {
		log.Printf("Failed to publish gate event for %s: %v", event.Platform, err)
	}
}
