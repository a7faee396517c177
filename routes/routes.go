package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dosada05/racket-rankings/handlers"
	"github.com/Dosada05/racket-rankings/middleware"
	"github.com/Dosada05/racket-rankings/services"
)

// SetupRoutes настраивает все маршруты API. Чтения публичны; загрузка и
// удаление турниров требуют JWT с ролью администратора.
func SetupRoutes(
	router *chi.Mux,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	rankingHandler *handlers.RankingHandler,
	playerHandler *handlers.PlayerHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret string,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/login", authHandler.Login)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.Get)
		r.Get("/{tournamentID}/rankings", rankingHandler.ByTournament)
		r.Get("/{tournamentID}/categories/{categoryID}/rankings", rankingHandler.ByTournamentCategory)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate([]byte(jwtSecret)))
			r.Use(middleware.Authorize(services.RoleAdmin))

			r.Post("/", tournamentHandler.Upload)
			r.Post("/check-file", tournamentHandler.CheckFile)
			r.Delete("/{tournamentID}", tournamentHandler.Delete)
		})
	})

	router.Route("/rankings", func(r chi.Router) {
		r.Get("/", rankingHandler.Overall)
		r.Get("/type", rankingHandler.ByType)
		r.Get("/categories/{categoryID}", rankingHandler.ByCategory)
	})

	router.Route("/players", func(r chi.Router) {
		r.Get("/search", playerHandler.Search)
		r.Get("/{playerID}", playerHandler.Breakdown)
	})

	router.Get("/ws/rankings", webSocketHandler.Subscribe)
}
