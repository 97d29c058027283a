package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SOS-Tag/sos-tag-api/internal/core/domain"
	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/config"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/security"
	"github.com/SOS-Tag/sos-tag-api/internal/repository"
)

const strongTestPassword = "Str0ng!Pw"

func testJWTSettings() config.JWTSettings {
	return config.JWTSettings{
		AccessSecret:    "test-access-secret",
		RefreshSecret:   "test-refresh-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

func testIssuer() *security.TokenIssuer {
	issuer, err := security.NewTokenIssuer(testJWTSettings())
	if err != nil {
		panic(err)
	}
	return issuer
}

// memAccountRepository is an in-memory AccountRepository with the same
// normalization behavior as the Postgres implementation: emails are stored
// and matched lowercase.
type memAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account

	createErr error
}

func newMemAccountRepository() *memAccountRepository {
	return &memAccountRepository{accounts: make(map[string]*domain.Account)}
}

func (m *memAccountRepository) Create(_ context.Context, account domain.Account) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	for _, existing := range m.accounts {
		if existing.Email == account.Email {
			return repository.ErrDuplicateEmail
		}
	}
	m.accounts[account.ID] = &account
	return nil
}

func (m *memAccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *account
	return &copy, nil
}

func (m *memAccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, account := range m.accounts {
		if account.Email == email {
			copy := *account
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memAccountRepository) SetConfirmed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.Confirmed = true
	return nil
}

func (m *memAccountRepository) UpdatePassword(_ context.Context, id string, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordHash = &passwordHash
	return nil
}

func (m *memAccountRepository) UpdateProfile(_ context.Context, id string, update port.ProfileUpdate) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.Fname != nil {
		account.Fname = *update.Fname
	}
	if update.Lname != nil {
		account.Lname = *update.Lname
	}
	if update.Phone != nil {
		account.Phone = *update.Phone
	}
	if update.Street != nil || update.City != nil || update.ZipCode != nil || update.Country != nil {
		if account.Address == nil {
			account.Address = &domain.Address{}
		}
		if update.Street != nil {
			account.Address.Street = *update.Street
		}
		if update.City != nil {
			account.Address.City = *update.City
		}
		if update.ZipCode != nil {
			account.Address.ZipCode = *update.ZipCode
		}
		if update.Country != nil {
			account.Address.Country = *update.Country
		}
	}
	copy := *account
	return &copy, nil
}

func (m *memAccountRepository) UpsertGoogle(_ context.Context, profile port.GoogleUpsert) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	for _, account := range m.accounts {
		if account.Email == email {
			account.Fname = profile.Fname
			account.Lname = profile.Lname
			account.Confirmed = true
			copy := *account
			return &copy, nil
		}
	}
	account := &domain.Account{
		ID:        profile.NewID,
		Fname:     profile.Fname,
		Lname:     profile.Lname,
		Email:     email,
		Roles:     []string{domain.RoleUser},
		Confirmed: true,
		Activated: true,
		CreatedAt: time.Now().UTC(),
	}
	m.accounts[account.ID] = account
	copy := *account
	return &copy, nil
}

func (m *memAccountRepository) IncrementTokenVersion(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	account.TokenVersion++
	return account.TokenVersion, nil
}

func (m *memAccountRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *memAccountRepository) List(_ context.Context, opts port.ListOptions) ([]domain.Account, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []domain.Account
	for _, account := range m.accounts {
		if opts.Filter != "" && !strings.Contains(account.Email, strings.ToLower(opts.Filter)) {
			continue
		}
		all = append(all, *account)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })

	total := len(all)
	limit := opts.Limit
	if limit < 1 {
		limit = 20
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return []domain.Account{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// memTokenStore keeps ephemeral tokens in a map and consumes them atomically.
type memTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string

	putErr error
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[string]string)}
}

func (m *memTokenStore) Put(_ context.Context, purpose, token, accountID string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[purpose+":"+token] = accountID
	return nil
}

func (m *memTokenStore) TakeAndConsume(_ context.Context, purpose, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := purpose + ":" + token
	accountID, ok := m.tokens[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	delete(m.tokens, key)
	return accountID, nil
}

// lastToken returns the most recently stored token for a purpose, for tests
// that need to capture the token "from the email".
func (m *memTokenStore) lastToken(purpose string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last string
	for key := range m.tokens {
		if strings.HasPrefix(key, purpose+":") {
			last = strings.TrimPrefix(key, purpose+":")
		}
	}
	return last
}

type sentMail struct {
	name  string
	email string
	url   string
}

type mockMailer struct {
	mu            sync.Mutex
	confirmations []sentMail
	resets        []sentMail
	sendErr       error
}

func (m *mockMailer) SendAccountConfirmation(_ context.Context, name, email, confirmURL string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, sentMail{name, email, confirmURL})
	return nil
}

func (m *mockMailer) SendPasswordReset(_ context.Context, name, email, resetURL string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, sentMail{name, email, resetURL})
	return nil
}

type mockPublisher struct {
	mu         sync.Mutex
	registered   []domain.AccountRegisteredEvent
	confirmed    []domain.AccountConfirmedEvent
	googleLogins []domain.GoogleLoginEvent
	pwChanged    []domain.PasswordChangedEvent
	revoked      []domain.TokensRevokedEvent
	publishErr error
}

func (m *mockPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered = append(m.registered, event)
	return m.publishErr
}

func (m *mockPublisher) PublishAccountConfirmed(_ context.Context, event domain.AccountConfirmedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmed = append(m.confirmed, event)
	return m.publishErr
}

func (m *mockPublisher) PublishGoogleLogin(_ context.Context, event domain.GoogleLoginEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.googleLogins = append(m.googleLogins, event)
	return m.publishErr
}

func (m *mockPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pwChanged = append(m.pwChanged, event)
	return m.publishErr
}

func (m *mockPublisher) PublishTokensRevoked(_ context.Context, event domain.TokensRevokedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked = append(m.revoked, event)
	return m.publishErr
}

type mockGoogleOAuth struct {
	profile      *port.GoogleProfile
	userInfoErr  error
	exchangeErr  error
	tokens       *port.GoogleTokens
	userInfoCall int
}

func (m *mockGoogleOAuth) ExchangeCode(context.Context, string) (*port.GoogleTokens, error) {
	if m.exchangeErr != nil {
		return nil, m.exchangeErr
	}
	if m.tokens == nil {
		return nil, errors.New("unexpected call: ExchangeCode")
	}
	return m.tokens, nil
}

func (m *mockGoogleOAuth) UserInfo(context.Context, string, string) (*port.GoogleProfile, error) {
	m.userInfoCall++
	if m.userInfoErr != nil {
		return nil, m.userInfoErr
	}
	if m.profile == nil {
		return nil, errors.New("unexpected call: UserInfo")
	}
	copy := *m.profile
	return &copy, nil
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		App:      config.AppSettings{Name: "sos-tag-api", Env: "test"},
		JWT:      testJWTSettings(),
		Frontend: config.FrontendSettings{BaseURL: "http://localhost:3000"},
	}
}

func newTestRegistrationService(repo *memAccountRepository, tokens *memTokenStore, mail *mockMailer, events *mockPublisher) *RegistrationService {
	return NewRegistrationService(testConfig(), repo, tokens, mail, events, zap.NewNop())
}

func newTestAuthService(repo *memAccountRepository, oauth port.GoogleOAuth, events *mockPublisher) *AuthService {
	return NewAuthService(repo, testIssuer(), oauth, events, zap.NewNop())
}

func newTestPasswordResetService(repo *memAccountRepository, tokens *memTokenStore, mail *mockMailer, events *mockPublisher) *PasswordResetService {
	return NewPasswordResetService(testConfig(), repo, tokens, mail, events, zap.NewNop())
}
