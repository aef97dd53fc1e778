package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coreybb/timetrack/auth"
	rh "github.com/coreybb/timetrack/route-handlers"
	"github.com/coreybb/timetrack/webutil"
)

const (
	authBasePath        = "/auth"
	usersBasePath       = "/users"
	projectsBasePath    = "/projects"
	timeRecordsBasePath = "/time_records"
)

const (
	registerSubPath = "/register"
	loginSubPath    = "/login"
	membersSubPath  = "/members"
)

const requestTimeout = 60 * time.Second

// Handlers bundles everything the router dispatches to.
type Handlers struct {
	Auth        *rh.AuthHandler
	Users       *rh.UserHandler
	Projects    *rh.ProjectHandler
	TimeRecords *rh.TimeRecordHandler
}

func SetupRoutes(h Handlers, tokens auth.TokenResolver) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.StripSlashes) // "/projects/" and "/projects" are the same resource
	r.Use(SetHeader(webutil.HeaderContentType, webutil.ContentTypeJSONUTF8))

	configureAuthRoutes(r, h.Auth)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(tokens))
		configureUserRoutes(r, h.Users)
		configureProjectRoutes(r, h.Projects)
		configureTimeRecordRoutes(r, h.TimeRecords)
	})

	r.Get("/healthz", handleHealthCheck)

	return r
}

// Helper for constructing paths with a parameter
func pathWithParam(basePath string, paramName string) string {
	return basePath + "/{" + paramName + "}"
}

// --- Auth Routes (public) ---
func configureAuthRoutes(r chi.Router, handler *rh.AuthHandler) {
	r.Route(authBasePath, func(r chi.Router) {
		r.Post(registerSubPath, webutil.MakeHandler(handler.HandleRegister))
		r.Post(loginSubPath, webutil.MakeHandler(handler.HandleLogin))
	})
}

// --- User Routes ---
func configureUserRoutes(r chi.Router, handler *rh.UserHandler) {
	r.Route(usersBasePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(handler.HandleGetUsers))
		r.Post("/", webutil.MakeHandler(handler.HandleCreateUser))
		r.Route(pathWithParam("", rh.ParamID), func(r chi.Router) {
			r.Get("/", webutil.MakeHandler(handler.HandleGetUser))
			r.Put("/", webutil.MakeHandler(handler.HandleReplaceUser))
			r.Patch("/", webutil.MakeHandler(handler.HandlePatchUser))
			r.Delete("/", webutil.MakeHandler(handler.HandleDeleteUser))
		})
	})
}

// --- Project Routes ---
func configureProjectRoutes(r chi.Router, handler *rh.ProjectHandler) {
	r.Route(projectsBasePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(handler.HandleGetProjects))
		r.Post("/", webutil.MakeHandler(handler.HandleCreateProject))
		r.Route(pathWithParam("", rh.ParamID), func(r chi.Router) {
			r.Get("/", webutil.MakeHandler(handler.HandleGetProject))
			r.Put("/", webutil.MakeHandler(handler.HandleReplaceProject))
			r.Patch("/", webutil.MakeHandler(handler.HandlePatchProject))
			r.Delete("/", webutil.MakeHandler(handler.HandleDeleteProject))

			// GET /projects/{id}/members, PUT|DELETE /projects/{id}/members/{userID}
			r.Get(membersSubPath, webutil.MakeHandler(handler.HandleGetMembers))
			r.Put(pathWithParam(membersSubPath, rh.ParamUserID), webutil.MakeHandler(handler.HandleAddMember))
			r.Delete(pathWithParam(membersSubPath, rh.ParamUserID), webutil.MakeHandler(handler.HandleRemoveMember))
		})
	})
}

// --- Time Record Routes ---
func configureTimeRecordRoutes(r chi.Router, handler *rh.TimeRecordHandler) {
	r.Route(timeRecordsBasePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(handler.HandleGetTimeRecords)) // ?project=<id>
		r.Post("/", webutil.MakeHandler(handler.HandleCreateTimeRecord))
		r.Route(pathWithParam("", rh.ParamID), func(r chi.Router) {
			r.Get("/", webutil.MakeHandler(handler.HandleGetTimeRecord))
			r.Put("/", webutil.MakeHandler(handler.HandleReplaceTimeRecord))
			r.Patch("/", webutil.MakeHandler(handler.HandlePatchTimeRecord))
			r.Delete("/", webutil.MakeHandler(handler.HandleDeleteTimeRecord))
		})
	})
}

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
