package main

import (
	"context"
	"log"

	"firebase.google.com/go/v4/messaging"
	"github.com/A60874022/handmade-market/backend/internal/router"
	"github.com/A60874022/handmade-market/backend/pkg/config"
	"github.com/A60874022/handmade-market/backend/pkg/firebase"
	"github.com/A60874022/handmade-market/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	// Initialize Firebase. Push delivery is optional: without credentials the
	// API runs with in-app notifications only.
	var messagingClient *messaging.Client
	ctx := context.Background()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Printf("Firebase not initialized, push notifications disabled: %v", err)
	} else {
		messagingClient = firebaseApp.MessagingClient
	}

	// Create Echo instance
	e := echo.New()

	// Validator
	e.Validator = validators.NewValidator()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Postgres, db.Mongo, cfg.MongoDatabase, messagingClient)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
