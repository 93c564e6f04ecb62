package isolation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	authgate "github.com/nuralyx/authgate"
)

// ErrRedisUnavailable is an exported constant or variable used by the authentication gateway.
var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultPrefix = "rs"

// Resource is an owner-scoped record. OwnerID is always taken from the
// authenticated principal on write, never from client input.
type Resource struct {
	ID        string
	OwnerID   string
	Title     string
	Notes     string
	Completed bool
	CreatedAt int64
	UpdatedAt int64
}

// Store is a Redis-backed resource store where every key embeds the
// owner identifier. A foreign resource id is structurally a key miss:
// there is no unscoped query path to reach another owner's data.
type Store struct {
	redis   redis.UniversalClient
	prefix  string
	metrics *authgate.Metrics
	now     func() time.Time
}

// NewStore creates a resource [Store] backed by the given Redis client.
// prefix sets the Redis key namespace; empty selects the default.
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

// WithMetrics attaches a gateway metrics handle so store operations
// record resource counters. Call before serving requests.
func (s *Store) WithMetrics(m *authgate.Metrics) *Store {
	s.metrics = m
	return s
}

func (s *Store) key(ownerID, resourceID string) string {
	return s.prefix + ":" + ownerID + ":" + resourceID
}

func (s *Store) indexKey(ownerID string) string {
	return s.prefix + "i:" + ownerID
}

// Create persists a new resource owned by the principal. The resource
// OwnerID is overwritten from the principal regardless of input.
func (s *Store) Create(ctx context.Context, principal *authgate.Principal, r *Resource) error {
	if principal == nil || principal.SubjectID == "" {
		return authgate.ErrUnauthorized
	}

	r.OwnerID = principal.SubjectID
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := s.now().Unix()
	r.CreatedAt = now
	r.UpdatedAt = now

	data, err := Encode(r)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(r.OwnerID, r.ID), data, 0)
		pipe.SAdd(ctx, s.indexKey(r.OwnerID), r.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	s.metrics.Inc(authgate.MetricResourceCreated)
	return nil
}

// ListOwned returns all resources owned by the principal, ordered by
// creation time then id for stable pagination.
func (s *Store) ListOwned(ctx context.Context, principal *authgate.Principal) ([]*Resource, error) {
	if principal == nil || principal.SubjectID == "" {
		return nil, authgate.ErrUnauthorized
	}

	ids, err := s.redis.SMembers(ctx, s.indexKey(principal.SubjectID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Resource{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(ids) == 0 {
		return []*Resource{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.key(principal.SubjectID, id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	resources := make([]*Resource, 0, len(ids))
	for _, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				// Index entry outlived its value; skip.
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
		}

		r, decErr := Decode(data)
		if decErr != nil {
			return nil, decErr
		}
		if r.OwnerID != principal.SubjectID {
			continue
		}

		resources = append(resources, r)
	}

	sort.Slice(resources, func(i, j int) bool {
		if resources[i].CreatedAt != resources[j].CreatedAt {
			return resources[i].CreatedAt < resources[j].CreatedAt
		}
		return resources[i].ID < resources[j].ID
	})

	s.metrics.Inc(authgate.MetricResourceListed)
	return resources, nil
}

// GetOwned fetches a single resource by id within the principal's
// scope. A missing id and a foreign id return the same error.
func (s *Store) GetOwned(ctx context.Context, principal *authgate.Principal, resourceID string) (*Resource, error) {
	if principal == nil || principal.SubjectID == "" {
		return nil, authgate.ErrUnauthorized
	}

	data, err := s.redis.Get(ctx, s.key(principal.SubjectID, resourceID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.metrics.Inc(authgate.MetricResourceNotFound)
			return nil, authgate.ErrResourceNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	r, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := OwnedBy(principal, r.OwnerID); err != nil {
		s.metrics.Inc(authgate.MetricResourceNotFound)
		return nil, err
	}

	return r, nil
}

// UpdateOwned overwrites a resource within the principal's scope.
// CreatedAt is preserved from the stored record.
func (s *Store) UpdateOwned(ctx context.Context, principal *authgate.Principal, r *Resource) error {
	existing, err := s.GetOwned(ctx, principal, r.ID)
	if err != nil {
		return err
	}

	r.OwnerID = principal.SubjectID
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = s.now().Unix()

	data, err := Encode(r)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(r.OwnerID, r.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	s.metrics.Inc(authgate.MetricResourceUpdated)
	return nil
}

// DeleteOwned removes a resource within the principal's scope. Missing
// and foreign ids both report not-found.
func (s *Store) DeleteOwned(ctx context.Context, principal *authgate.Principal, resourceID string) error {
	if _, err := s.GetOwned(ctx, principal, resourceID); err != nil {
		return err
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(principal.SubjectID, resourceID))
		pipe.SRem(ctx, s.indexKey(principal.SubjectID), resourceID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	s.metrics.Inc(authgate.MetricResourceDeleted)
	return nil
}
