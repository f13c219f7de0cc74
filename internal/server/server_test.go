package server_test

import (
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/convoflow/engine/internal/assert/helpers"
	"github.com/convoflow/engine/internal/server"
)

const verifyToken = "test-verify-token"

type testServerEnv struct {
	*helpers.TestEnv
	Server *server.Server
	Router *gin.Engine
}

func withTestServerEnv(t *testing.T, fn func(env *testServerEnv)) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := helpers.NewTestEnv(t)
	t.Cleanup(env.Cleanup)

	srv := server.NewServer(env.Engine, env.Feed, verifyToken)
	fn(&testServerEnv{
		TestEnv: env,
		Server:  srv,
		Router:  srv.SetupRoutes(),
	})
}
