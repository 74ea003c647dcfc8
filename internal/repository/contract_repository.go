package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/farmgate/farmgate/pkg/domain"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type ContractRepository interface {
	Create(ctx context.Context, c domain.Contract) (*domain.Contract, error)
	Get(ctx context.Context, id string) (*domain.Contract, error)
	SetStatus(ctx context.Context, id string, status domain.ContractStatus) (*domain.Contract, error)
	ListByParty(ctx context.Context, userID string) ([]domain.Contract, error)
	Count(ctx context.Context) (int64, error)
}

type contractRedisRepo struct {
	rdb *redis.Client
	now func() time.Time
}

func NewContractRepository(rdb *redis.Client, now func() time.Time) ContractRepository {
	if now == nil {
		now = time.Now
	}
	return &contractRedisRepo{rdb: rdb, now: now}
}

func (r *contractRedisRepo) keyContracts() string { return "farmgate:contracts" }

func (r *contractRedisRepo) keyPartyIndex(userID string) string {
	return fmt.Sprintf("farmgate:contracts:party:%s", userID)
}

func (r *contractRedisRepo) Create(ctx context.Context, c domain.Contract) (*domain.Contract, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := r.now().UTC()
	c.CreatedOn = now
	if c.StartDate.IsZero() {
		c.StartDate = now
	}
	if c.Status == "" {
		c.Status = domain.ContractProposed
	}

	b, _ := json.Marshal(c)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, r.keyContracts(), c.ID, string(b))
	pipe.SAdd(ctx, r.keyPartyIndex(c.BuyerID), c.ID)
	pipe.SAdd(ctx, r.keyPartyIndex(c.FarmerID), c.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contractRedisRepo) Get(ctx context.Context, id string) (*domain.Contract, error) {
	raw, err := r.rdb.HGet(ctx, r.keyContracts(), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var c domain.Contract
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contractRedisRepo) SetStatus(ctx context.Context, id string, status domain.ContractStatus) (*domain.Contract, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Status = status

	b, _ := json.Marshal(c)
	if err := r.rdb.HSet(ctx, r.keyContracts(), id, string(b)).Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *contractRedisRepo) ListByParty(ctx context.Context, userID string) ([]domain.Contract, error) {
	ids, err := r.rdb.SMembers(ctx, r.keyPartyIndex(userID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Contract, 0, len(ids))
	for _, id := range ids {
		c, err := r.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *contractRedisRepo) Count(ctx context.Context) (int64, error) {
	return r.rdb.HLen(ctx, r.keyContracts()).Result()
}
