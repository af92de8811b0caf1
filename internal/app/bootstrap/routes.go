// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	errorsfeature "github.com/dalemusser/copilot/internal/app/features/errors"
	healthfeature "github.com/dalemusser/copilot/internal/app/features/health"
	invitationsfeature "github.com/dalemusser/copilot/internal/app/features/invitations"
	loginfeature "github.com/dalemusser/copilot/internal/app/features/login"
	logoutfeature "github.com/dalemusser/copilot/internal/app/features/logout"
	participationfeature "github.com/dalemusser/copilot/internal/app/features/participation"
	reportsfeature "github.com/dalemusser/copilot/internal/app/features/reports"
	responsesfeature "github.com/dalemusser/copilot/internal/app/features/responses"
	"github.com/dalemusser/copilot/internal/app/features/shared"
	statusfeature "github.com/dalemusser/copilot/internal/app/features/status"
	teamsfeature "github.com/dalemusser/copilot/internal/app/features/teams"
	userinfofeature "github.com/dalemusser/copilot/internal/app/features/userinfo"
	"github.com/dalemusser/copilot/internal/app/selectors"
	"github.com/dalemusser/copilot/internal/app/system/auth"
	"github.com/dalemusser/copilot/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Every route answers JSON. Team data,
// responses and participation codes require a signed-in session; /status
// requires a super admin.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	return newRouter(deps, sessionMgr, logger), nil
}

func newRouter(deps DBDeps, sessionMgr *auth.SessionManager, logger *zap.Logger) chi.Router {
	sel := selectors.New()
	teams := shared.NewTeams(deps.Dispatcher, deps.Clients, logger)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// JSON answers for unmatched routes; set before mounting so subrouters
	// inherit them.
	errorsHandler := errorsfeature.NewHandler(logger)
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Cache, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(deps.Clients, deps.Tokens, deps.Cache, sessionMgr, ratelimit.NewLoginLimiter(), logger)
	loginHandler.Logins = deps.Logins
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, deps.Tokens, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	userinfoHandler := userinfofeature.NewHandler(deps.Cache, deps.Logins, logger)
	r.Mount("/userinfo", userinfofeature.Routes(userinfoHandler))

	statusHandler := statusfeature.NewHandler(deps.Dispatcher, statusfeature.Upstreams{
		Triton:  deps.Clients.TritonURL,
		Neptune: deps.Clients.NeptuneURL,
	})
	r.Mount("/status", statusfeature.Routes(statusHandler, sessionMgr))

	teamsHandler := teamsfeature.NewHandler(teams, sel, logger)
	participationHandler := participationfeature.NewHandler(teams, sel, logger)
	reportsHandler := reportsfeature.NewHandler(teams, sel, logger)
	responsesHandler := responsesfeature.NewHandler(teams, sel, logger)
	invitationsHandler := invitationsfeature.NewHandler(teams, logger)

	r.Group(func(pr chi.Router) {
		pr.Use(sessionMgr.RequireSignedIn)

		tr := teamsfeature.Routes(teamsHandler)
		tr.Mount("/participation", participationfeature.Routes(participationHandler))
		tr.Get("/participation.xlsx", participationHandler.ServeXLSX)
		tr.Mount("/reports", reportsfeature.Routes(reportsHandler))
		tr.Mount("/classrooms/{classroomID}/reports", reportsfeature.ClassroomRoutes(reportsHandler))
		tr.Mount("/cycles/{parentLabel}/modules/{moduleLabel}/responses", responsesfeature.CycleModuleRoutes(responsesHandler))
		tr.Mount("/steps/{parentLabel}/modules/{moduleLabel}/responses", responsesfeature.StepModuleRoutes(responsesHandler))
		tr.Mount("/invitations", invitationsfeature.TeamRoutes(invitationsHandler))
		pr.Mount("/teams/{teamID}", tr)

		pr.Mount("/responses", responsesfeature.Routes(responsesHandler))
		pr.Mount("/participation-codes", invitationsfeature.CodeRoutes(invitationsHandler))
	})

	return r
}
