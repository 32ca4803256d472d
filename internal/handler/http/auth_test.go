package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MKhiriev/go-list-keeper/internal/service"
	"github.com/MKhiriev/go-list-keeper/internal/store"
	"github.com/MKhiriev/go-list-keeper/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func marshalJSON(t *testing.T, v any) *bytes.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	return bytes.NewReader(data)
}

func TestHandler_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, mocks := newTestRouter(t, ctrl)

	user := models.User{Login: "alice", Password: "secret-password"}
	registered := models.User{UserID: 1, Login: "alice"}

	mocks.auth.EXPECT().RegisterUser(gomock.Any(), user).Return(registered, nil)
	mocks.auth.EXPECT().CreateToken(gomock.Any(), registered).Return(models.Token{SignedString: "signed-token"}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/register", marshalJSON(t, user)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bearer signed-token", w.Header().Get("Authorization"))

	var body models.User
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "alice", body.Login)
}

func TestHandler_Register_LoginTaken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, mocks := newTestRouter(t, ctrl)

	user := models.User{Login: "alice", Password: "secret-password"}
	mocks.auth.EXPECT().RegisterUser(gomock.Any(), user).Return(models.User{}, store.ErrLoginAlreadyExists)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/register", marshalJSON(t, user)))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_Register_InvalidJSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, _ := newTestRouter(t, ctrl)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, mocks := newTestRouter(t, ctrl)

	user := models.User{Login: "alice", Password: "secret-password"}
	found := models.User{UserID: 1, Login: "alice"}

	mocks.auth.EXPECT().Login(gomock.Any(), user).Return(found, nil)
	mocks.auth.EXPECT().CreateToken(gomock.Any(), found).Return(models.Token{SignedString: "signed-token"}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", marshalJSON(t, user)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bearer signed-token", w.Header().Get("Authorization"))
}

func TestHandler_Login_WrongPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, mocks := newTestRouter(t, ctrl)

	user := models.User{Login: "alice", Password: "wrong-password"}
	mocks.auth.EXPECT().Login(gomock.Any(), user).Return(models.User{}, service.ErrWrongPassword)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", marshalJSON(t, user)))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_Login_UnknownUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router, mocks := newTestRouter(t, ctrl)

	user := models.User{Login: "nobody", Password: "secret-password"}
	mocks.auth.EXPECT().Login(gomock.Any(), user).Return(models.User{}, store.ErrNoUserWasFound)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", marshalJSON(t, user)))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
