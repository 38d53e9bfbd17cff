package mhub

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	auth "kyri56xcaesar/taskhub/internal/authmw"
	"kyri56xcaesar/taskhub/internal/contract"
)

var (
	config Config
	engine *gin.Engine
	store  Store

	tokens *auth.TokenService
	authn  *auth.Authenticator
	kc     *auth.KeycloakService
)

func initStore() {
	var err error
	switch strings.ToLower(config.Profile) {
	case "memory":
		store = NewMemStore()
	default:
		store, err = NewPgStore(config)
		if err != nil {
			log.Fatalf("failed to init the store: %v", err)
		}
	}
}

func setCors() {
	corsconfig := cors.DefaultConfig()
	corsconfig.AllowOrigins = config.AllowedOrigins
	corsconfig.AllowMethods = config.AllowedMethods
	corsconfig.AllowHeaders = config.AllowedHeaders
	engine.Use(cors.New(corsconfig))
}

func mustInitAuth() {
	switch strings.ToLower(config.AuthProvider) {
	case "keycloak":
		var err error
		kc, err = auth.NewKeycloakService(
			config.AuthAddress,
			config.Realm,
			config.ClientID,
			config.ClientSecret,
			config.Audience,
		)
		if err != nil {
			panic(err)
		}
		authn = kc.Auth
	default:
		tokens = auth.NewTokenService(config.JWTSecret, config.Issuer)
		authn = auth.NewLocal(tokens)
	}
}

func setRoutes() {
	base := engine.Group(config.BasePath)
	{
		base.GET("/health", handleHealth)
		base.GET("/health/test-db", handleHealthDB)

		base.POST("/auth/login", handleLogin)
		base.POST("/auth/register", handleRegister)
		base.POST("/auth/refresh", handleRefresh)
	}

	secure := base.Group("/")
	secure.Use(authn.Require())
	{
		secure.POST("/auth/logout", handleLogout)
		secure.GET("/auth/profile", handleProfile)

		secure.GET("/projects", handleListProjects)
		secure.POST("/projects", handleCreateProject)
		secure.GET("/projects/:id", handleViewProject)
		secure.PUT("/projects/:id", handleUpdateProject)
		secure.DELETE("/projects/:id", handleDeleteProject)

		secure.GET("/projects/:id/members", handleListMembers)
		secure.POST("/projects/:id/members", handleAddMember)
		secure.PUT("/projects/:id/members/:userId", handleUpdateMemberRole)
		secure.DELETE("/projects/:id/members/:userId", handleRemoveMember)

		secure.GET("/tasks", handleListTasks)
		secure.POST("/tasks", handleCreateTask)
		secure.GET("/tasks/:id", handleViewTask)
		secure.PUT("/tasks/:id", handleUpdateTask)
		secure.DELETE("/tasks/:id", handleDeleteTask)

		secure.GET("/users/:id", handleGetUser)
		secure.PUT("/users/:id", handleUpdateUser)
	}

	admin := base.Group("/")
	admin.Use(authn.RequireSystemRole(contract.RoleAdmin))
	{
		admin.GET("/users", handleListUsers)
	}
}

func InitAndServe(confPath string) {
	config = loadConfig(confPath)

	engine = gin.Default()
	setGinMode(config.ApiGinMode)

	setCors()
	mustInitAuth()
	setRoutes()

	initStore()

	// serve http
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Port),
		Handler:           engine,
		ReadHeaderTimeout: time.Second * 5,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	<-ctx.Done()

	stop()
	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// close db conn
	store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(config.ShutdownGrace)*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}

func setGinMode(mode string) {
	switch strings.ToLower(mode) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "envgin":
		gin.SetMode(gin.EnvGinMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, contract.OK(gin.H{"status": "alive"}, ""))
}

func handleHealthDB(c *gin.Context) {
	if err := store.Ping(c.Request.Context()); err != nil {
		log.Printf("db ping failed: %v", err)
		respondErr(c, contract.Errorf(contract.CodeInternal, "database unreachable"))

		return
	}
	c.JSON(http.StatusOK, contract.OK(gin.H{"status": "ok"}, ""))
}
