package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"tierimage/internal/apperrors"
	"tierimage/internal/config"
	"tierimage/internal/ids"
	"tierimage/internal/models"
	"tierimage/internal/policy"
	"tierimage/internal/queue"
	"tierimage/internal/repository"
	"tierimage/internal/security"
	"tierimage/internal/views"
)

const minPasswordLength = 5

var ErrInvalidCredentials = errors.New("invalid credentials")

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// AccountInput is the writable part of an account. AccountPlan and IsStaff
// only survive filtering for staff callers.
type AccountInput struct {
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	Name        *string `json:"name"`
	AccountPlan *string `json:"account_plan"`
	IsStaff     *bool   `json:"is_staff"`
}

type TokenResult struct {
	Token     string `json:"token"`
	AccountID string `json:"user_id"`
	Email     string `json:"email"`
}

type AccountService struct {
	store    repository.Store
	security config.SecurityConfig
	params   security.Argon2Params
	cleanup  cleanup
	log      zerolog.Logger
}

func NewAccountService(store repository.Store, cfg config.SecurityConfig, q queue.Enqueuer, log zerolog.Logger) *AccountService {
	return &AccountService{
		store:    store,
		security: cfg,
		params:   security.DefaultParams,
		cleanup:  cleanup{queue: q, log: log},
		log:      log,
	}
}

func validEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1
}

// Register creates a basic-plan account. Plans are never chosen at sign up.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (map[string]any, error) {
	email := models.NormalizeEmail(in.Email)
	p := problems{}
	if !validEmail(email) {
		p.add(views.FieldEmail, "enter a valid email address")
	}
	if len(in.Password) < minPasswordLength {
		p.add(views.FieldPassword, "ensure this field has at least %d characters", minPasswordLength)
	}
	if err := p.err(); err != nil {
		return nil, err
	}

	account, err := s.create(ctx, email, in.Password, strings.TrimSpace(in.Name), models.PlanBasic, false)
	if err != nil {
		return nil, err
	}
	return renderAccount(views.AccountSchema(false), account)
}

func (s *AccountService) create(ctx context.Context, email, password, name string, plan models.Plan, staff bool) (models.Account, error) {
	hash, err := security.HashPasswordWithParams(password, s.params)
	if err != nil {
		return models.Account{}, err
	}
	account := models.Account{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Plan:         plan,
		IsStaff:      staff,
		IsActive:     true,
	}
	if err := s.store.Accounts().Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return models.Account{}, apperrors.FieldError(string(views.FieldEmail), "account with this email already exists")
		}
		return models.Account{}, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (TokenResult, error) {
	account, err := s.store.Accounts().FindByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenResult{}, s.invalidCredentials()
		}
		return TokenResult{}, err
	}
	if !account.IsActive {
		return TokenResult{}, s.invalidCredentials()
	}
	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil || !ok {
		return TokenResult{}, s.invalidCredentials()
	}

	token, err := security.GenerateAccessToken(s.security.JWTAccessSecret, account.ID, s.security.JWTAccessTTL)
	if err != nil {
		return TokenResult{}, err
	}
	return TokenResult{Token: token, AccountID: account.ID, Email: account.Email}, nil
}

func (s *AccountService) invalidCredentials() error {
	return apperrors.Wrap(ErrInvalidCredentials, apperrors.CodeValidationFailed,
		"unable to log in with provided credentials", http.StatusBadRequest)
}

// Authenticate turns a bearer token into an identity. An empty token is
// the anonymous identity; policy decides what anonymous callers get.
func (s *AccountService) Authenticate(ctx context.Context, token string) (policy.Identity, error) {
	if token == "" {
		return policy.Anonymous(), nil
	}
	claims, err := security.ParseAccessToken(token, s.security.JWTAccessSecret)
	if err != nil {
		return policy.Anonymous(), fmt.Errorf("%w: %v", policy.ErrUnauthenticated, err)
	}
	account, err := s.store.Accounts().GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return policy.Anonymous(), fmt.Errorf("%w: account gone", policy.ErrUnauthenticated)
		}
		return policy.Anonymous(), err
	}
	if !account.IsActive {
		return policy.Anonymous(), fmt.Errorf("%w: account inactive", policy.ErrUnauthenticated)
	}
	return policy.FromAccount(account), nil
}

func (s *AccountService) load(ctx context.Context, store repository.Store, id policy.Identity, action views.Action, accountID string) (models.Account, error) {
	if err := policy.Authorize(id, action, policy.Collection(policy.KindAccount)); err != nil {
		return models.Account{}, err
	}
	account, err := store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return models.Account{}, fmt.Errorf("load account: %w", err)
	}
	if err := policy.Authorize(id, action, policy.Record(policy.KindAccount, account.ID)); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (s *AccountService) Me(ctx context.Context, id policy.Identity) (map[string]any, error) {
	account, err := s.load(ctx, s.store, id, views.ActionRetrieve, id.AccountID)
	if err != nil {
		return nil, err
	}
	return renderAccount(policy.AccountSchema(id), account)
}

// UpdateMe updates the caller's own account. Non-staff callers cannot
// change their plan: the field is dropped from their input.
func (s *AccountService) UpdateMe(ctx context.Context, id policy.Identity, action views.Action, payload views.Payload) (map[string]any, error) {
	return s.update(ctx, id, id.AccountID, action, payload)
}

func (s *AccountService) update(ctx context.Context, id policy.Identity, accountID string, action views.Action, payload views.Payload) (map[string]any, error) {
	schema := policy.AccountSchema(id)
	var in AccountInput
	if err := decode(schema, payload, &in); err != nil {
		return nil, err
	}

	p := problems{}
	if in.Email != nil {
		*in.Email = models.NormalizeEmail(*in.Email)
		if !validEmail(*in.Email) {
			p.add(views.FieldEmail, "enter a valid email address")
		}
	} else if !action.Partial() {
		p.add(views.FieldEmail, "this field is required")
	}
	if in.Password != nil && len(*in.Password) < minPasswordLength {
		p.add(views.FieldPassword, "ensure this field has at least %d characters", minPasswordLength)
	}
	if in.AccountPlan != nil && !models.Plan(*in.AccountPlan).Valid() {
		p.add(views.FieldAccountPlan, "%q is not a valid choice", *in.AccountPlan)
	}
	if err := p.err(); err != nil {
		return nil, err
	}

	var updated models.Account
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		account, err := s.load(ctx, tx, id, action, accountID)
		if err != nil {
			return err
		}
		if in.Email != nil {
			account.Email = *in.Email
		}
		if in.Name != nil {
			account.Name = strings.TrimSpace(*in.Name)
		}
		if in.Password != nil {
			account.PasswordHash, err = security.HashPasswordWithParams(*in.Password, s.params)
			if err != nil {
				return err
			}
		}
		if in.AccountPlan != nil {
			account.Plan = models.Plan(*in.AccountPlan)
		}
		if in.IsStaff != nil {
			account.IsStaff = *in.IsStaff
		}
		if err := tx.Accounts().Update(ctx, account); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return apperrors.FieldError(string(views.FieldEmail), "account with this email already exists")
			}
			return fmt.Errorf("update account: %w", err)
		}
		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The caller may have just changed their own staff flag.
	if updated.ID == id.AccountID {
		schema = policy.AccountSchema(policy.FromAccount(updated))
	}
	return renderAccount(schema, updated)
}

// DeleteMe removes the caller's account with every tier and custom image
// it owns. Stored objects are purged once the delete commits.
func (s *AccountService) DeleteMe(ctx context.Context, id policy.Identity) error {
	var images []models.CustomImage
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		account, err := s.load(ctx, tx, id, views.ActionDestroy, id.AccountID)
		if err != nil {
			return err
		}
		images, err = tx.CustomImages().List(ctx, account.ID)
		if err != nil {
			return fmt.Errorf("list custom images: %w", err)
		}
		if err := tx.Accounts().Delete(ctx, account.ID); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cleanup.removed(ctx, images...)
	s.log.Info().Str("account_id", id.AccountID).Int("custom_images", len(images)).Msg("account deleted")
	return nil
}

// EnsureSuperuser makes sure a staff account on the admin plan exists for
// email.
func (s *AccountService) EnsureSuperuser(ctx context.Context, email, password string) error {
	email = models.NormalizeEmail(email)
	if !validEmail(email) || len(password) < minPasswordLength {
		return fmt.Errorf("bootstrap admin: invalid email or password too short")
	}

	account, err := s.store.Accounts().FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		account, err = s.create(ctx, email, password, "admin", models.PlanAdmin, true)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		s.log.Info().Str("account_id", account.ID).Msg("superuser created")
		return nil
	case err != nil:
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	if account.IsStaff && account.IsActive && account.Plan == models.PlanAdmin {
		return nil
	}
	account.IsStaff, account.IsActive, account.Plan = true, true, models.PlanAdmin
	if err := s.store.Accounts().Update(ctx, account); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	s.log.Info().Str("account_id", account.ID).Msg("superuser promoted")
	return nil
}

func (s *AccountService) ListAccounts(ctx context.Context, id policy.Identity, limit, offset int) ([]map[string]any, error) {
	if err := policy.RequireStaff(id); err != nil {
		return nil, err
	}
	accounts, err := s.store.Accounts().List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	schema := views.AccountSchema(true)
	out := make([]map[string]any, 0, len(accounts))
	for _, account := range accounts {
		doc, err := renderAccount(schema, account)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// UpdateAccount is the admin console edit: plan, staff flag and profile of
// any account.
func (s *AccountService) UpdateAccount(ctx context.Context, id policy.Identity, accountID string, payload views.Payload) (map[string]any, error) {
	if err := policy.RequireStaff(id); err != nil {
		return nil, err
	}
	// Passwords of other accounts are not editable from the console.
	payload = lo.OmitByKeys(payload, []string{string(views.FieldPassword)})
	return s.update(ctx, id, accountID, views.ActionPartialUpdate, payload)
}
