package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/internal/mock"
	"github.com/MKhiriev/go-list-keeper/internal/service"
	"github.com/MKhiriev/go-list-keeper/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"
)

const testUserID int64 = 7

type handlerMocks struct {
	auth    *mock.MockAuthService
	entity  *mock.MockEntityService
	appInfo *mock.MockAppInfoService
}

// newTestRouter builds a fully wired router over mocked services.
func newTestRouter(t *testing.T, ctrl *gomock.Controller) (*chi.Mux, handlerMocks) {
	t.Helper()

	mocks := handlerMocks{
		auth:    mock.NewMockAuthService(ctrl),
		entity:  mock.NewMockEntityService(ctrl),
		appInfo: mock.NewMockAppInfoService(ctrl),
	}
	services := &service.Services{
		AuthService:    mocks.auth,
		EntityService:  mocks.entity,
		AppInfoService: mocks.appInfo,
	}

	return NewHandler(services, logger.Nop()).Init(), mocks
}

// expectAuthorized arranges for bearer token "test-token" to resolve to
// testUserID.
func (m handlerMocks) expectAuthorized() {
	m.auth.EXPECT().
		ParseToken(gomock.Any(), "test-token").
		Return(models.Token{UserID: testUserID}, nil)
}

// authedRequest builds a request carrying the bearer token expectAuthorized
// accepts.
func authedRequest(method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	r.Header.Set("Authorization", "Bearer test-token")
	return r
}
