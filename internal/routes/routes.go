package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/rentdesk/rentdesk/internal/app"
	"github.com/rentdesk/rentdesk/internal/handler"
	"github.com/rentdesk/rentdesk/internal/middleware"
	"github.com/rs/cors"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService)
	property := handler.NewPropertyHandler(app.PropertyService)
	category := handler.NewCategoryHandler(app.CategoryService)
	folder := handler.NewFolderHandler(app.FolderService)
	file := handler.NewFileHandler(app.FileService, app.Cfg.UploadMaxBytes)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /health", health.Health)

	// Auth (rate limited per IP)
	rateLimiter := middleware.RateLimit(10, 15*time.Minute)
	mux.HandleFunc("POST /api/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /api/login", rateLimiter(auth.Login))

	// ============================================================================
	// READ ROUTES (bearer token)
	// ============================================================================

	mux.HandleFunc("GET /api/properties", middleware.RequireToken(property.List))
	mux.HandleFunc("GET /api/properties/{id}", middleware.RequireToken(property.Get))
	mux.HandleFunc("GET /api/properties/{id}/details", middleware.RequireToken(category.Details))
	mux.HandleFunc("GET /api/properties/{id}/folders", middleware.RequireToken(folder.List))
	mux.HandleFunc("GET /api/properties/{id}/files", middleware.RequireToken(file.List))

	// ============================================================================
	// MUTATING ROUTES (body credentials or bearer token)
	// ============================================================================

	mux.HandleFunc("POST /api/properties", property.Create)

	mux.HandleFunc("POST /api/categories", category.Add)
	mux.HandleFunc("POST /api/categories/delete", category.Delete)
	mux.HandleFunc("POST /api/details", category.AddDetail)
	mux.HandleFunc("POST /api/details/update", category.UpdateDetail)
	mux.HandleFunc("POST /api/details/delete", category.DeleteDetail)

	mux.HandleFunc("POST /api/folders", folder.Create)
	mux.HandleFunc("POST /api/folders/rename", folder.Rename)
	mux.HandleFunc("POST /api/folders/delete", folder.Delete)

	mux.HandleFunc("POST /api/files", file.Upload)
	mux.HandleFunc("POST /api/files/move", file.Move)
	mux.HandleFunc("POST /api/files/delete", file.Delete)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   splitOrigins(app.Cfg.CORSOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.RequestLogging,
		middleware.Recovery,
		corsHandler.Handler,
		middleware.BearerAuth(app.AuthService),
	)
}

func splitOrigins(origins string) []string {
	var out []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
