// routes/routes.go
package routes

import (
	"go-ecommerce-carts/controllers"
	"go-ecommerce-carts/middleware"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, log logrus.FieldLogger, productController *controllers.ProductController, cartController *controllers.CartController, healthController *controllers.HealthController) {
	router.Use(otelmux.Middleware("cartservice"))
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.RecoverMiddleware(log))

	router.HandleFunc("/healthz", healthController.Health).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	// Product routes
	api.HandleFunc("/products", productController.GetProducts).Methods("GET")
	api.HandleFunc("/products", productController.CreateProduct).Methods("POST")
	api.HandleFunc("/products/{pid}", productController.GetProductByID).Methods("GET")
	api.HandleFunc("/products/{pid}", productController.UpdateProduct).Methods("PUT")
	api.HandleFunc("/products/{pid}", productController.DeleteProduct).Methods("DELETE")

	// Cart routes
	api.HandleFunc("/carts", cartController.CreateCart).Methods("POST")
	api.HandleFunc("/carts", cartController.GetCarts).Methods("GET")
	api.HandleFunc("/carts/{cid}", cartController.GetCart).Methods("GET")
	api.HandleFunc("/carts/{cid}", cartController.ReplaceCart).Methods("PUT")
	api.HandleFunc("/carts/{cid}", cartController.ClearCart).Methods("DELETE")
	api.HandleFunc("/carts/{cid}/products/{pid}", cartController.AddToCart).Methods("POST")
	api.HandleFunc("/carts/{cid}/products/{pid}", cartController.UpdateQuantity).Methods("PUT")
	api.HandleFunc("/carts/{cid}/products/{pid}", cartController.RemoveFromCart).Methods("DELETE")
}
