package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/farmgate/farmgate/internal/repository"
	"github.com/farmgate/farmgate/pkg/domain"
	"github.com/farmgate/farmgate/pkg/hash"
	"github.com/farmgate/farmgate/pkg/token"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

type serviceEnv struct {
	ctx       context.Context
	users     repository.UserRepository
	auth      AuthService
	userSvc   UserService
	products  ProductService
	contracts ContractService
	profile   *token.Profile
}

func fastHasher() *hash.Hasher {
	// Small argon2 parameters keep the suite quick.
	return hash.NewHasher(hash.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
}

func setupServices(t *testing.T) *serviceEnv {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	profile, err := token.NewProfile(token.ProfileConfig{
		Algorithm:  "HS256",
		SigningKey: []byte("service-test-secret-0123456789ab"),
	})
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	issuer, err := token.NewIssuer(profile)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	hasher := fastHasher()
	users := repository.NewUserRepository(rdb, time.Now)
	productsRepo := repository.NewProductRepository(rdb, time.Now)
	contractsRepo := repository.NewContractRepository(rdb, time.Now)

	return &serviceEnv{
		ctx:       context.Background(),
		users:     users,
		auth:      NewAuthService(users, hasher, issuer, profile),
		userSvc:   NewUserService(users, hasher),
		products:  NewProductService(productsRepo),
		contracts: NewContractService(contractsRepo, users),
		profile:   profile,
	}
}

func registerUser(t *testing.T, env *serviceEnv, email, role string) *domain.User {
	t.Helper()
	u, err := env.userSvc.Register(env.ctx, RegisterInput{
		Email:    email,
		Password: "hunter2hunter2",
		FullName: "Test User",
		UserType: role,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupServices(t)
	u := registerUser(t, env, "alice@example.com", "buyer")
	if u.PasswordHash == "" {
		t.Fatal("expected password hash to be stored")
	}

	pair, err := env.auth.Login(env.ctx, "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	tok, err := token.Parse(token.KindAccess, pair.Access, env.profile, token.StrictDecode)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if id, _ := tok.Claims().GetString(token.ClaimUserID); id != u.ID {
		t.Fatalf("user_id claim = %q, want %q", id, u.ID)
	}
	if role, _ := tok.Claims().GetString(token.ClaimUserType); role != "buyer" {
		t.Fatalf("user_type claim = %q, want buyer", role)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	env := setupServices(t)
	registerUser(t, env, "alice@example.com", "buyer")

	if _, err := env.auth.Login(env.ctx, "alice@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := env.auth.Login(env.ctx, "nobody@example.com", "hunter2hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	env := setupServices(t)
	_, err := env.userSvc.Register(env.ctx, RegisterInput{
		Email:    "bob@example.com",
		Password: "short",
		FullName: "Bob",
		UserType: "farmer",
	})
	if err == nil {
		t.Fatal("expected short password to be rejected")
	}
}

func TestRefreshRotatesPair(t *testing.T) {
	env := setupServices(t)
	registerUser(t, env, "carol@example.com", "farmer")

	pair, err := env.auth.Login(env.ctx, "carol@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	next, err := env.auth.Refresh(env.ctx, pair.Refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := token.Parse(token.KindAccess, next.Access, env.profile, token.StrictDecode); err != nil {
		t.Fatalf("parse rotated access: %v", err)
	}
	if _, err := token.Parse(token.KindRefresh, next.Refresh, env.profile, token.StrictDecode); err != nil {
		t.Fatalf("parse rotated refresh: %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := setupServices(t)
	registerUser(t, env, "dave@example.com", "buyer")

	pair, err := env.auth.Login(env.ctx, "dave@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := env.auth.Refresh(env.ctx, pair.Access); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("refresh with access token: err = %v, want ErrInvalidRefresh", err)
	}
}

func TestRefreshRejectsDeletedPrincipal(t *testing.T) {
	env := setupServices(t)

	issuer, err := token.NewIssuer(env.profile)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	pair, err := issuer.IssuePair(token.Principal{ID: "ghost", Role: "buyer"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := env.auth.Refresh(env.ctx, pair.Refresh); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("refresh for missing user: err = %v, want ErrInvalidRefresh", err)
	}
}

func TestChangeUserType(t *testing.T) {
	env := setupServices(t)
	u := registerUser(t, env, "erin@example.com", "buyer")

	updated, err := env.userSvc.ChangeType(env.ctx, u.ID, "farmer")
	if err != nil {
		t.Fatalf("change type: %v", err)
	}
	if updated.UserType != domain.RoleFarmer {
		t.Fatalf("user type = %s, want farmer", updated.UserType)
	}

	if _, err := env.userSvc.ChangeType(env.ctx, u.ID, "admin"); err == nil {
		t.Fatal("expected invalid user type to be rejected")
	}
}

func TestAddressLifecycle(t *testing.T) {
	env := setupServices(t)
	u := registerUser(t, env, "frank@example.com", "buyer")

	addr, err := env.userSvc.AddAddress(env.ctx, u.ID, domain.Address{
		Name:          "Home",
		StreetAddress: "1 Main St",
		City:          "Springfield",
		Country:       "US",
	})
	if err != nil {
		t.Fatalf("add address: %v", err)
	}

	got, err := env.userSvc.Get(env.ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(got.Addresses) != 1 || got.Addresses[0].ID != addr.ID {
		t.Fatalf("expected one address %q, got %+v", addr.ID, got.Addresses)
	}

	if err := env.userSvc.DeleteAddress(env.ctx, u.ID, addr.ID); err != nil {
		t.Fatalf("delete address: %v", err)
	}
	got, err = env.userSvc.Get(env.ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(got.Addresses) != 0 {
		t.Fatalf("expected no addresses, got %+v", got.Addresses)
	}
}

func TestProductOwnership(t *testing.T) {
	env := setupServices(t)
	farmer := registerUser(t, env, "farmer@example.com", "farmer")
	rival := registerUser(t, env, "rival@example.com", "farmer")

	p, err := env.products.Create(env.ctx, farmer.ID, domain.Product{
		Name:        "Tomatoes",
		Category:    "vegetables",
		Price:       2.5,
		MinQuantity: 1,
		MaxQuantity: 100,
		Stock:       40,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	p.Price = 3.0
	if _, err := env.products.Update(env.ctx, rival.ID, *p); !errors.Is(err, ErrForbidden) {
		t.Fatalf("rival update: err = %v, want ErrForbidden", err)
	}
	updated, err := env.products.Update(env.ctx, farmer.ID, *p)
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Price != 3.0 {
		t.Fatalf("price = %v, want 3.0", updated.Price)
	}

	if err := env.products.Delete(env.ctx, rival.ID, p.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("rival delete: err = %v, want ErrForbidden", err)
	}
	if err := env.products.Delete(env.ctx, farmer.ID, p.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestContractLifecycle(t *testing.T) {
	env := setupServices(t)
	buyer := registerUser(t, env, "buyer@example.com", "buyer")
	farmer := registerUser(t, env, "grower@example.com", "farmer")
	outsider := registerUser(t, env, "outsider@example.com", "buyer")

	c, err := env.contracts.Propose(env.ctx, buyer.ID, domain.Contract{
		FarmerID:      farmer.ID,
		Quantity:      10,
		Price:         100,
		PaymentMethod: domain.PaymentUPI,
	})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if c.Status != domain.ContractProposed {
		t.Fatalf("status = %s, want PROPOSED", c.Status)
	}

	if _, err := env.contracts.Get(env.ctx, outsider.ID, c.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider get: err = %v, want ErrForbidden", err)
	}
	if _, err := env.contracts.Accept(env.ctx, buyer.ID, c.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("buyer accept: err = %v, want ErrForbidden", err)
	}

	accepted, err := env.contracts.Accept(env.ctx, farmer.ID, c.ID)
	if err != nil {
		t.Fatalf("farmer accept: %v", err)
	}
	if accepted.Status != domain.ContractAccepted {
		t.Fatalf("status = %s, want ACCEPTED", accepted.Status)
	}
	if _, err := env.contracts.Accept(env.ctx, farmer.ID, c.ID); !errors.Is(err, ErrContractNotActionable) {
		t.Fatalf("double accept: err = %v, want ErrContractNotActionable", err)
	}

	mine, err := env.contracts.ListMine(env.ctx, buyer.ID)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != c.ID {
		t.Fatalf("expected the contract in buyer's list, got %+v", mine)
	}
}

func TestProposeRequiresFarmerCounterparty(t *testing.T) {
	env := setupServices(t)
	buyer := registerUser(t, env, "b@example.com", "buyer")
	other := registerUser(t, env, "b2@example.com", "buyer")

	_, err := env.contracts.Propose(env.ctx, buyer.ID, domain.Contract{
		FarmerID:      other.ID,
		Quantity:      5,
		Price:         10,
		PaymentMethod: domain.PaymentCOD,
	})
	if err == nil {
		t.Fatal("expected proposing to a non-farmer to fail")
	}
}
