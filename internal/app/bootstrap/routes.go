// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	accessfeature "github.com/codesync-app/codesync/internal/app/features/access"
	authgooglefeature "github.com/codesync-app/codesync/internal/app/features/authgoogle"
	filesfeature "github.com/codesync-app/codesync/internal/app/features/files"
	healthfeature "github.com/codesync-app/codesync/internal/app/features/health"
	logoutfeature "github.com/codesync-app/codesync/internal/app/features/logout"
	messagesfeature "github.com/codesync-app/codesync/internal/app/features/messages"
	realtimeauthfeature "github.com/codesync-app/codesync/internal/app/features/realtimeauth"
	roomsfeature "github.com/codesync-app/codesync/internal/app/features/rooms"
	usersfeature "github.com/codesync-app/codesync/internal/app/features/users"
	filestore "github.com/codesync-app/codesync/internal/app/store/files"
	invitationstore "github.com/codesync-app/codesync/internal/app/store/invitations"
	membershipstore "github.com/codesync-app/codesync/internal/app/store/memberships"
	messagestore "github.com/codesync-app/codesync/internal/app/store/messages"
	contentstore "github.com/codesync-app/codesync/internal/app/store/roomcontent"
	roomstore "github.com/codesync-app/codesync/internal/app/store/rooms"
	userstore "github.com/codesync-app/codesync/internal/app/store/users"
	"github.com/codesync-app/codesync/internal/app/system/auth"
	"github.com/codesync-app/codesync/internal/app/system/realtime"
	"github.com/codesync-app/codesync/internal/app/system/roomaccess"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. The wiring order mirrors the dependency order:
// stores, realtime client and projector, the access controller and lifecycle
// manager over them, then the feature handlers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Stores.
	db := deps.MongoDatabase
	rooms := roomstore.New(db)
	members := membershipstore.New(db)
	invites := invitationstore.New(db)
	users := userstore.New(db)
	content := contentstore.New(db)
	files := filestore.New(db)
	messages := messagestore.New(db)

	// Realtime backend. Without a configured endpoint the nop client keeps
	// the durable flows working; only live collaboration is missing.
	var rt realtime.Interface = realtime.NopClient{}
	if appCfg.RealtimeAPIURL != "" {
		rt = realtime.NewClient(appCfg.RealtimeAPIURL, appCfg.RealtimeSecret, logger)
	}
	projector := realtime.NewProjector(rt, logger)

	// Core access logic.
	controller := roomaccess.NewController(rooms, members, invites, projector, logger)
	lifecycle := roomaccess.NewManager(rooms, members, rt, logger, content, files, messages, invites)

	// Feature handlers.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	authHandler := authgooglefeature.NewHandler(users, sessionMgr, appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, secure, logger)
	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	usersHandler := usersfeature.NewHandler(users, logger)
	roomsHandler := roomsfeature.NewHandler(lifecycle, controller, rooms, members, content, users, logger)
	accessHandler := accessfeature.NewHandler(controller, lifecycle, invites, users, appCfg.BaseURL, appCfg.InviteTTL, logger)
	realtimeAuthHandler := realtimeauthfeature.NewHandler(lifecycle, []byte(appCfg.RealtimeJWTKey), logger)
	messagesHandler := messagesfeature.NewHandler(lifecycle, messages, logger)
	filesHandler := filesfeature.NewHandler(lifecycle, files, logger)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{appCfg.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global auth middleware: loads the session user into context if signed
	// in. Enforcement happens per route group below.
	r.Use(sessionMgr.LoadSessionUser)

	// Public endpoints.
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Mount("/auth/google", authgooglefeature.Routes(authHandler))
	r.Mount("/auth/logout", logoutfeature.Routes(logoutHandler))

	// Everything else requires a verified identity.
	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireSignedIn)

		r.Mount("/users", usersfeature.Routes(usersHandler))
		r.Mount("/realtime/auth", realtimeauthfeature.Routes(realtimeAuthHandler))
		r.Mount("/rooms", roomsfeature.Routes(roomsHandler,
			accessfeature.Attach(accessHandler),
			func(r chi.Router) {
				r.Mount("/messages", messagesfeature.Routes(messagesHandler))
				r.Mount("/files", filesfeature.Routes(filesHandler))
			},
		))
	})

	return r, nil
}
