// session владеет состоянием клиентской сессии: access-токен в памяти
// и кэш профиля пользователя в долговременном хранилище.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pribylovaa/dental-clinic/internal/models"
)

//go:generate mockgen -source=store.go -destination=../../mocks/profile_store.go -package=mocks

// ProfileStore: долговременный кэш профиля пользователя.
type ProfileStore interface {
	// Load возвращает кэшированный профиль или nil, если его нет.
	Load(ctx context.Context) (*models.UserProfile, error)
	// Save перезаписывает кэш профиля.
	Save(ctx context.Context, p models.UserProfile) error
	// Clear удаляет кэш; отсутствие кэша ошибкой не считается.
	Clear(ctx context.Context) error
	// Probe проверяет, что хранилище доступно на запись.
	Probe(ctx context.Context) error
}

// Store: процесс-широкий объект сессии. Создаётся явно при старте
// и передаётся зависимостям, глобального состояния нет.
//
// Access-токен живёт только в памяти и не переживает перезапуск процесса.
// Профиль может лежать в кэше без токена: тогда он только для отображения.
type Store struct {
	mu    sync.RWMutex
	token string

	profiles ProfileStore
	durable  bool
	log      *slog.Logger
}

// Options: параметры Store.
type Options struct {
	// Profiles: долговременный кэш профиля; nil означает кэш в памяти.
	Profiles ProfileStore
	// Durable: результат однократной проверки хранилища на старте.
	Durable bool
	Logger  *slog.Logger
}

func New(opts Options) *Store {
	s := &Store{
		profiles: opts.Profiles,
		durable:  opts.Durable,
		log:      opts.Logger,
	}

	if s.profiles == nil {
		s.profiles = NewMemoryProfileStore()
		s.durable = false
	}

	if s.log == nil {
		s.log = slog.Default()
	}

	return s
}

// AccessToken читает актуальный токен в момент вызова.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// SetAccessToken устанавливает токен, выданный refresh.
func (s *Store) SetAccessToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Authenticated: есть ли access-токен. Кэшированный профиль не учитывается.
func (s *Store) Authenticated() bool {
	return s.AccessToken() != ""
}

// Durable: пишется ли профиль в долговременное хранилище.
func (s *Store) Durable() bool { return s.durable }

// Install сохраняет результат login/register: токен в память, профиль в кэш.
// Ошибка кэша не отменяет вход, токен остаётся установленным.
func (s *Store) Install(ctx context.Context, token string, profile models.UserProfile) error {
	const op = "session.Install"

	s.SetAccessToken(token)

	if err := s.profiles.Save(ctx, profile); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Profile возвращает кэшированный профиль (или nil).
func (s *Store) Profile(ctx context.Context) (*models.UserProfile, error) {
	const op = "session.Profile"

	p, err := s.profiles.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// SaveProfile обновляет кэш профиля, не трогая токен.
func (s *Store) SaveProfile(ctx context.Context, p models.UserProfile) error {
	const op = "session.SaveProfile"

	if err := s.profiles.Save(ctx, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Clear стирает токен и кэш профиля. Токен стирается всегда,
// даже если хранилище профиля вернуло ошибку.
func (s *Store) Clear(ctx context.Context) {
	s.SetAccessToken("")

	if err := s.profiles.Clear(ctx); err != nil {
		s.log.Warn("session_profile_clear_failed", slog.String("err", err.Error()))
	}
}
