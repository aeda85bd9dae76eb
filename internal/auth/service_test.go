package auth

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/dmoreno/shopfront/internal/session"
	pkgerrors "github.com/dmoreno/shopfront/pkg/errors"
	"github.com/dmoreno/shopfront/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	responses map[string]string
	err       error
	lastPath  string
	calls     int
}

func (f *fakeAPI) Post(ctx context.Context, path string, body, out any) error {
	f.calls++
	f.lastPath = path
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.responses[path]), out)
}

type fakeSession struct {
	starts    int
	failures  []string
	successes int
	token     string
	user      session.User
	logouts   int
}

func (f *fakeSession) LoginStart(ctx context.Context) { f.starts++ }

func (f *fakeSession) LoginSuccess(ctx context.Context, token string, user session.User) error {
	f.successes++
	f.token = token
	f.user = user
	return nil
}

func (f *fakeSession) LoginFailure(ctx context.Context, message string) {
	f.failures = append(f.failures, message)
}

func (f *fakeSession) Logout(ctx context.Context) error {
	f.logouts++
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "auth-test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func newTestService(t *testing.T, api *fakeAPI, sess *fakeSession) Service {
	t.Helper()
	svc, err := NewService(api, sess, testLogger())
	require.NoError(t, err)
	return svc
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{responses: map[string]string{
		"/api/users/login": `{"token":"tok-abc","user":{"id":"u1","name":"Ada","email":"ada@example.com"}}`,
	}}
	sess := &fakeSession{}
	svc := newTestService(t, api, sess)

	err := svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)

	assert.Equal(t, 1, sess.starts)
	assert.Equal(t, 1, sess.successes)
	assert.Equal(t, "tok-abc", sess.token)
	assert.Equal(t, "Ada", sess.user.Name)
	assert.Empty(t, sess.failures)
}

func TestLoginValidationSkipsDispatch(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	sess := &fakeSession{}
	svc := newTestService(t, api, sess)

	err := svc.Login(context.Background(), LoginInput{Email: "not-an-email", Password: "short"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Zero(t, api.calls, "invalid input never reaches the network")
	assert.Zero(t, sess.starts, "in-flight flag untouched on local validation failure")
}

func TestLoginUpstreamFailureRecordsError(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	sess := &fakeSession{}
	svc := newTestService(t, api, sess)

	err := svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "hunter2hunter2"})
	require.Error(t, err)

	assert.Equal(t, 1, sess.starts)
	assert.Zero(t, sess.successes)
	require.Len(t, sess.failures, 1)
	assert.Equal(t, "invalid credentials", sess.failures[0])
}

func TestMissingTokenIsFailure(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{responses: map[string]string{
		"/api/users/login": `{"user":{"id":"u1"}}`,
	}}
	sess := &fakeSession{}
	svc := newTestService(t, api, sess)

	err := svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "hunter2hunter2"})
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
	assert.Zero(t, sess.successes)
	assert.Len(t, sess.failures, 1)
}

func TestRegisterEndpoint(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{responses: map[string]string{
		"/api/users/register": `{"token":"tok","user":{"id":"u1"}}`,
	}}
	sess := &fakeSession{}
	svc := newTestService(t, api, sess)

	input := RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "hunter2hunter2"}
	require.NoError(t, svc.Register(context.Background(), input))
	assert.Equal(t, "/api/users/register", api.lastPath)
	assert.Equal(t, 1, sess.successes)
}

func TestVerifyOTPValidatesCodeLength(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	svc := newTestService(t, api, &fakeSession{})

	err := svc.VerifyOTP(context.Background(), VerifyOTPInput{Email: "ada@example.com", Code: "123"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Zero(t, api.calls)
}

func TestGoogleEndpoint(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{responses: map[string]string{
		"/api/users/google": `{"token":"tok","user":{"id":"u1"}}`,
	}}
	sess := &fakeSession{}
	svc := newTestService(t, api, sess)

	require.NoError(t, svc.Google(context.Background(), GoogleInput{Credential: "oauth-cred"}))
	assert.Equal(t, "/api/users/google", api.lastPath)
	assert.Equal(t, 1, sess.successes)
}

func TestLogoutDelegates(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{}
	svc := newTestService(t, &fakeAPI{}, sess)

	require.NoError(t, svc.Logout(context.Background()))
	assert.Equal(t, 1, sess.logouts)
}
