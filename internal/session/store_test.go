package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/dental-clinic/internal/models"
	"github.com/pribylovaa/dental-clinic/mocks"
)

var adminProfile = models.UserProfile{
	ID:        1,
	Nombre:    "Admin",
	Email:     "admin@example.com",
	Role:      models.RoleAdmin,
	CreatedAt: "2025-01-01T00:00:00.000Z",
}

func newMockStore(t *testing.T) (*Store, *mocks.MockProfileStore) {
	t.Helper()

	ctrl := gomock.NewController(t)
	ps := mocks.NewMockProfileStore(ctrl)
	st := New(Options{Profiles: ps, Durable: true, Logger: slog.New(slog.DiscardHandler)})

	return st, ps
}

func TestNew_NilProfilesFallsBackToMemory(t *testing.T) {
	t.Parallel()

	st := New(Options{Durable: true})
	require.False(t, st.Durable())

	p, err := st.Profile(context.Background())
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestInstall_SetsTokenAndProfile(t *testing.T) {
	t.Parallel()

	st, ps := newMockStore(t)
	ps.EXPECT().Save(gomock.Any(), adminProfile).Return(nil)

	require.NoError(t, st.Install(context.Background(), "T1", adminProfile))
	require.Equal(t, "T1", st.AccessToken())
	require.True(t, st.Authenticated())
	require.True(t, st.Durable())
}

func TestInstall_ProfileSaveErrorKeepsToken(t *testing.T) {
	t.Parallel()

	st, ps := newMockStore(t)
	ps.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	err := st.Install(context.Background(), "T1", adminProfile)
	require.Error(t, err)
	require.Contains(t, err.Error(), "session.Install")
	require.Equal(t, "T1", st.AccessToken())
}

func TestClear_WipesTokenEvenIfProfileClearFails(t *testing.T) {
	t.Parallel()

	st, ps := newMockStore(t)
	st.SetAccessToken("T1")
	ps.EXPECT().Clear(gomock.Any()).Return(errors.New("redis down"))

	st.Clear(context.Background())
	require.Empty(t, st.AccessToken())
	require.False(t, st.Authenticated())
}

// Профиль в кэше без токена не делает сессию аутентифицированной.
func TestProfileWithoutToken_IsDisplayOnly(t *testing.T) {
	t.Parallel()

	mem := NewMemoryProfileStore()
	require.NoError(t, mem.Save(context.Background(), adminProfile))

	st := New(Options{Profiles: mem})
	p, err := st.Profile(context.Background())
	require.NoError(t, err)
	require.Equal(t, &adminProfile, p)
	require.False(t, st.Authenticated())
}

func TestProfile_LoadErrorWrapped(t *testing.T) {
	t.Parallel()

	st, ps := newMockStore(t)
	ps.EXPECT().Load(gomock.Any()).Return(nil, errors.New("corrupt"))

	_, err := st.Profile(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "session.Profile")
}

func TestAccessToken_ConcurrentReadersSeeLatest(t *testing.T) {
	t.Parallel()

	st := New(Options{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			st.SetAccessToken("T2")
		}()
		go func() {
			defer wg.Done()
			_ = st.AccessToken()
		}()
	}
	wg.Wait()

	require.Equal(t, "T2", st.AccessToken())
}

func TestMemoryProfileStore_ReturnsCopy(t *testing.T) {
	t.Parallel()

	mem := NewMemoryProfileStore()
	require.NoError(t, mem.Save(context.Background(), adminProfile))

	p, err := mem.Load(context.Background())
	require.NoError(t, err)
	p.Nombre = "mutated"

	again, err := mem.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Admin", again.Nombre)

	require.NoError(t, mem.Clear(context.Background()))
	gone, err := mem.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, gone)
}
