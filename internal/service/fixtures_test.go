package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/helpdesk-service/internal/catalog"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

const testBcryptCost = 4

type accessFixture struct {
	kv         *persistence.MemoryKV
	state      *AccessState
	sets       *PermissionSetService
	users      *PortalUserService
	resolver   *AccessResolver
	dispatcher events.Dispatcher
}

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	kv := persistence.NewMemoryKV()
	dispatcher := events.NewInMemoryDispatcher()
	clock := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

	state := NewAccessState(AccessStateDependencies{
		PermissionSetRepo: repository.NewPermissionSetRepository(kv),
		PortalUserRepo:    repository.NewPortalUserRepository(kv),
		Logger:            logger,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})
	require.NoError(t, state.Load(context.Background()))

	cat := catalog.Default()
	return &accessFixture{
		kv:    kv,
		state: state,
		sets: NewPermissionSetService(PermissionSetDependencies{
			State: state, Catalog: cat, Logger: logger,
		}),
		users: NewPortalUserService(PortalUserDependencies{
			State: state, Dispatcher: dispatcher, Logger: logger,
			BcryptCost: testBcryptCost, MinPasswordLength: 6,
		}),
		resolver:   NewAccessResolver(state, cat),
		dispatcher: dispatcher,
	}
}
