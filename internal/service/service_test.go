package service_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rryowa/taskmarket/internal/apitest"
	"github.com/rryowa/taskmarket/internal/client"
	"github.com/rryowa/taskmarket/internal/service"
	"github.com/rryowa/taskmarket/internal/session"
	"github.com/rryowa/taskmarket/internal/store/memory"
	"github.com/rryowa/taskmarket/internal/util"
)

type testEnv struct {
	srv     *apitest.Server
	store   *memory.InMemoryStore
	session *session.Manager
	auth    *service.AuthService
	tasks   *service.TaskService
	cats    *service.CategoryService
	chat    *service.ChatService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	srv := apitest.New()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	logger := zap.NewNop().Sugar()
	st := memory.New()
	sess := session.NewManager(logger)

	c := client.New(&util.APIConfig{
		BaseURL:     ts.URL,
		HTTPTimeout: 5 * time.Second,
		PageLimit:   15,
	}, st, sess, logger)

	return &testEnv{
		srv:     srv,
		store:   st,
		session: sess,
		auth:    service.NewAuthService(c, st, sess, logger),
		tasks:   service.NewTaskService(c, 15, logger),
		cats:    service.NewCategoryService(c, logger),
		chat:    service.NewChatService(c, logger),
	}
}

// newStubEnv поднимает сервер с произвольным обработчиком вместо
// полноценного фейкового API.
func newStubEnv(t *testing.T, handler http.HandlerFunc) *service.TaskService {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	logger := zap.NewNop().Sugar()
	c := client.New(&util.APIConfig{
		BaseURL:     ts.URL,
		HTTPTimeout: 5 * time.Second,
		PageLimit:   15,
	}, memory.New(), session.NewManager(logger), logger)

	return service.NewTaskService(c, 15, logger)
}

func newMalformedEnv(t *testing.T) *service.TaskService {
	return newStubEnv(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>definitely not json</html>"))
	})
}
