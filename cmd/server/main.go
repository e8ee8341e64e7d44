package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/bizcard/bizcard/internal/card"
	"github.com/bizcard/bizcard/internal/config"
	"github.com/bizcard/bizcard/internal/database"
	"github.com/bizcard/bizcard/internal/user"
	"github.com/bizcard/bizcard/internal/validate"
)

func main() {
	config.LoadConfig()

	// Setup database
	db, err := database.New(context.Background())
	if err != nil {
		log.Fatalf("Error initializing database: %v\n", err)
	}

	// Setup routing
	schemas := validate.New()
	r := mux.NewRouter()
	user.SetupRoutes(r, db, schemas, config.Current.Auth)
	card.SetupRoutes(r, db, schemas, config.Current.Auth)

	cors := handlers.CORS(
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "x-auth-token"}),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		}),
	)

	addr := config.Current.Server.Addr()
	srv := http.Server{
		Addr:    addr,
		Handler: handlers.CombinedLoggingHandler(os.Stdout, cors(r)),

		ReadHeaderTimeout: 30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		log.Printf("Listening at %s\n", config.Current.Server.URL())
		log.Fatal(srv.ListenAndServe())
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	<-c

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down server: %v\n", err)
	}

	log.Println("Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Error closing database: %v\n", err)
	}
}
