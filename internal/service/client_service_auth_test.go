package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/internal/mock"
	"github.com/MKhiriev/go-list-keeper/internal/store"
	"github.com/MKhiriev/go-list-keeper/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

var errServerUnavailable = errors.New("server unavailable")

func newTestClientAuthSvc(t *testing.T, ctrl *gomock.Controller) (ClientAuthService, *mock.MockServerAdapter, *mock.MockEntityCache, *mock.MockPreferences) {
	t.Helper()

	mockAdapter := mock.NewMockServerAdapter(ctrl)
	mockCache := mock.NewMockEntityCache(ctrl)
	mockPrefs := mock.NewMockPreferences(ctrl)
	localStore := &store.ClientStorages{
		EntityCache: mockCache,
		Preferences: mockPrefs,
	}

	return NewClientAuthService(localStore, mockAdapter, logger.Nop()), mockAdapter, mockCache, mockPrefs
}

func TestClientAuthService_Login_HydratesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockAdapter, mockCache, mockPrefs := newTestClientAuthSvc(t, ctrl)
	ctx := context.Background()

	user := models.User{Login: "alice", Password: "secret-password"}
	entities := []models.Entity{
		{ID: models.AssignedID("list-1"), Kind: models.KindList, Name: "Groceries", Version: 3},
		{ID: models.AssignedID("item-1"), Kind: models.KindItem, Name: "Milk", Version: 1},
	}

	mockAdapter.EXPECT().Login(ctx, user).Return(user, nil)
	mockAdapter.EXPECT().Token().Return("session-token")
	mockPrefs.EXPECT().Set(ctx, "auth.token", "session-token").Return(nil)
	mockAdapter.EXPECT().ListEntities(ctx).Return(entities, nil)
	mockCache.EXPECT().PutMany(ctx, entities[0], entities[1]).Return(nil)

	assert.NoError(t, svc.Login(ctx, user))
}

func TestClientAuthService_Login_ServerRejects(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockAdapter, _, _ := newTestClientAuthSvc(t, ctrl)
	ctx := context.Background()

	user := models.User{Login: "alice", Password: "wrong-password"}
	mockAdapter.EXPECT().Login(ctx, user).Return(models.User{}, errServerUnavailable)

	err := svc.Login(ctx, user)
	assert.ErrorIs(t, err, errServerUnavailable)
}

func TestClientAuthService_Register_PersistsToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockAdapter, _, mockPrefs := newTestClientAuthSvc(t, ctrl)
	ctx := context.Background()

	user := models.User{Login: "alice", Password: "secret-password"}
	mockAdapter.EXPECT().Register(ctx, user).Return(user, nil)
	mockAdapter.EXPECT().Token().Return("session-token")
	mockPrefs.EXPECT().Set(ctx, "auth.token", "session-token").Return(nil)

	assert.NoError(t, svc.Register(ctx, user))
}

func TestClientAuthService_Restore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockAdapter, _, mockPrefs := newTestClientAuthSvc(t, ctrl)
	ctx := context.Background()

	mockPrefs.EXPECT().Get(ctx, "auth.token").Return("stored-token", nil)
	mockAdapter.EXPECT().SetToken("stored-token")

	assert.NoError(t, svc.Restore(ctx))
}

func TestClientAuthService_Restore_NoStoredSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _, _, mockPrefs := newTestClientAuthSvc(t, ctrl)
	ctx := context.Background()

	mockPrefs.EXPECT().Get(ctx, "auth.token").Return("", store.ErrPreferenceNotFound)

	assert.ErrorIs(t, svc.Restore(ctx), ErrNotAuthenticated)
}

func TestClientAuthService_Restore_EmptyStoredToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _, _, mockPrefs := newTestClientAuthSvc(t, ctrl)
	ctx := context.Background()

	mockPrefs.EXPECT().Get(ctx, "auth.token").Return("", nil)

	assert.ErrorIs(t, svc.Restore(ctx), ErrNotAuthenticated)
}

func TestClientAuthService_Logout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockAdapter, _, mockPrefs := newTestClientAuthSvc(t, ctrl)
	ctx := context.Background()

	mockAdapter.EXPECT().SetToken("")
	mockPrefs.EXPECT().Delete(ctx, "auth.token").Return(nil)

	assert.NoError(t, svc.Logout(ctx))
}

func TestClientSyncJob_TriggersDriver(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDriver := mock.NewMockSyncDriver(ctrl)
	job := NewClientSyncJob(mockDriver)

	triggered := make(chan struct{})
	var once sync.Once
	mockDriver.EXPECT().TriggerDrain().Do(func() {
		once.Do(func() { close(triggered) })
	}).AnyTimes()

	job.Start(context.Background(), 10*time.Millisecond)
	defer job.Stop()

	select {
	case <-triggered:
	case <-time.After(2 * time.Second):
		t.Fatal("sync job did not trigger the driver")
	}
}

func TestClientSyncJob_StopIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDriver := mock.NewMockSyncDriver(ctrl)
	job := NewClientSyncJob(mockDriver)

	job.Stop()

	job.Start(context.Background(), time.Hour)
	job.Stop()
	job.Stop()
}
