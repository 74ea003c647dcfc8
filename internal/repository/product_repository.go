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

type ProductRepository interface {
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	ListByFarmer(ctx context.Context, farmerID string) ([]domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Count(ctx context.Context) (int64, error)
}

type productRedisRepo struct {
	rdb *redis.Client
	now func() time.Time
}

func NewProductRepository(rdb *redis.Client, now func() time.Time) ProductRepository {
	if now == nil {
		now = time.Now
	}
	return &productRedisRepo{rdb: rdb, now: now}
}

func (r *productRedisRepo) keyProducts() string { return "farmgate:products" }

func (r *productRedisRepo) keyFarmerIndex(farmerID string) string {
	return fmt.Sprintf("farmgate:products:farmer:%s", farmerID)
}

func (r *productRedisRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedOn = r.now().UTC()
	p.InStock = p.Stock > 0

	b, _ := json.Marshal(p)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, r.keyProducts(), p.ID, string(b))
	pipe.SAdd(ctx, r.keyFarmerIndex(p.FarmerID), p.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRedisRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	raw, err := r.rdb.HGet(ctx, r.keyProducts(), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var p domain.Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRedisRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	existing, err := r.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.FarmerID = existing.FarmerID
	p.CreatedOn = existing.CreatedOn
	p.InStock = p.Stock > 0

	b, _ := json.Marshal(p)
	if err := r.rdb.HSet(ctx, r.keyProducts(), p.ID, string(b)).Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRedisRepo) Delete(ctx context.Context, id string) error {
	p, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	pipe := r.rdb.TxPipeline()
	pipe.HDel(ctx, r.keyProducts(), id)
	pipe.SRem(ctx, r.keyFarmerIndex(p.FarmerID), id)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *productRedisRepo) ListByFarmer(ctx context.Context, farmerID string) ([]domain.Product, error) {
	ids, err := r.rdb.SMembers(ctx, r.keyFarmerIndex(farmerID)).Result()
	if err != nil {
		return nil, err
	}
	return r.fetch(ctx, ids)
}

func (r *productRedisRepo) List(ctx context.Context) ([]domain.Product, error) {
	raw, err := r.rdb.HGetAll(ctx, r.keyProducts()).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(raw))
	for _, v := range raw {
		var p domain.Product
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *productRedisRepo) Count(ctx context.Context) (int64, error) {
	return r.rdb.HLen(ctx, r.keyProducts()).Result()
}

func (r *productRedisRepo) fetch(ctx context.Context, ids []string) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		p, err := r.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}
