package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/farmgate/farmgate/pkg/domain"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// UserRepository stores users and their addresses. It also backs the
// principal lookup the authentication service performs: find a user by email
// and read its id and role.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateType(ctx context.Context, id string, userType domain.Role) (*domain.User, error)
	AddAddress(ctx context.Context, addr domain.Address) (*domain.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error
	Count(ctx context.Context) (int64, error)
}

type userRedisRepo struct {
	rdb *redis.Client
	now func() time.Time
}

func NewUserRepository(rdb *redis.Client, now func() time.Time) UserRepository {
	if now == nil {
		now = time.Now
	}
	return &userRedisRepo{rdb: rdb, now: now}
}

// storedUser is the persistence shape. domain.User hides the password hash
// from API responses, so the stored record carries it under its own tag.
type storedUser struct {
	domain.User
	PasswordHash string `json:"passwordHash"`
}

func marshalUser(user domain.User) []byte {
	user.Addresses = nil
	b, _ := json.Marshal(storedUser{User: user, PasswordHash: user.PasswordHash})
	return b
}

func unmarshalUser(raw string) (*domain.User, error) {
	var s storedUser
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, err
	}
	user := s.User
	user.PasswordHash = s.PasswordHash
	return &user, nil
}

func (r *userRedisRepo) keyUsers() string { return "farmgate:users" }

func (r *userRedisRepo) keyEmailIndex() string { return "farmgate:users:email" }

func (r *userRedisRepo) keyAddresses(userID string) string {
	return fmt.Sprintf("farmgate:users:%s:addresses", userID)
}

func (r *userRedisRepo) Create(ctx context.Context, user domain.User) (*domain.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.DateJoined = r.now().UTC()

	// Claim the email first so duplicate registrations lose the race.
	ok, err := r.rdb.HSetNX(ctx, r.keyEmailIndex(), user.Email, user.ID).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("user with email %s: %w", user.Email, ErrAlreadyExists)
	}

	if err := r.rdb.HSet(ctx, r.keyUsers(), user.ID, string(marshalUser(user))).Err(); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRedisRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	raw, err := r.rdb.HGet(ctx, r.keyUsers(), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user, err := unmarshalUser(raw)
	if err != nil {
		return nil, err
	}

	addrs, err := r.listAddresses(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Addresses = addrs
	return user, nil
}

func (r *userRedisRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	id, err := r.rdb.HGet(ctx, r.keyEmailIndex(), email).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *userRedisRepo) UpdateType(ctx context.Context, id string, userType domain.Role) (*domain.User, error) {
	if !domain.ValidRole(string(userType)) {
		return nil, fmt.Errorf("invalid user type %q", userType)
	}
	user, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.UserType == userType {
		return user, nil
	}
	user.UserType = userType

	if err := r.rdb.HSet(ctx, r.keyUsers(), id, string(marshalUser(*user))).Err(); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRedisRepo) AddAddress(ctx context.Context, addr domain.Address) (*domain.Address, error) {
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	if _, err := r.Get(ctx, addr.UserID); err != nil {
		return nil, err
	}
	if addr.ID == "" {
		addr.ID = uuid.NewString()
	}
	b, _ := json.Marshal(addr)
	if err := r.rdb.HSet(ctx, r.keyAddresses(addr.UserID), addr.ID, string(b)).Err(); err != nil {
		return nil, err
	}
	return &addr, nil
}

func (r *userRedisRepo) DeleteAddress(ctx context.Context, userID, addressID string) error {
	n, err := r.rdb.HDel(ctx, r.keyAddresses(userID), addressID).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRedisRepo) Count(ctx context.Context) (int64, error) {
	return r.rdb.HLen(ctx, r.keyUsers()).Result()
}

func (r *userRedisRepo) listAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	raw, err := r.rdb.HGetAll(ctx, r.keyAddresses(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	addrs := make([]domain.Address, 0, len(raw))
	for _, v := range raw {
		var a domain.Address
		if err := json.Unmarshal([]byte(v), &a); err != nil {
			continue
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}
