package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewReviewRouter wires the /api/reviews endpoints.
func NewReviewRouter(handler *ReviewHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(handler.LoggingMiddleware)

	reviewsRouter := router.PathPrefix("/api/reviews").Subrouter()

	// Writes require a bearer token.
	writes := reviewsRouter.NewRoute().Subrouter()
	writes.Use(handler.AuthMiddleware)
	writes.HandleFunc("", handler.CreateReview).Methods(http.MethodPost)
	writes.HandleFunc("/{reviewId}", handler.UpdateReview).Methods(http.MethodPut)
	writes.HandleFunc("/{reviewId}", handler.DeleteReview).Methods(http.MethodDelete)

	reviewsRouter.HandleFunc("", handler.ListReviews).Methods(http.MethodGet)
	reviewsRouter.HandleFunc("/search", handler.SearchReviews).Methods(http.MethodGet)
	reviewsRouter.HandleFunc("/{contentType}/{contentId}", handler.GetReviewsForContent).Methods(http.MethodGet)
	reviewsRouter.HandleFunc("/{contentType}/{contentId}/average-rating", handler.GetAverageRating).Methods(http.MethodGet)
	reviewsRouter.HandleFunc("/{contentType}/{contentId}/count", handler.GetReviewCount).Methods(http.MethodGet)
	reviewsRouter.HandleFunc("/{reviewId}", handler.GetReview).Methods(http.MethodGet)

	return router
}
