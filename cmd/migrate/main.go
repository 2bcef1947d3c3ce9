package main

import (
	"log"
	"os"

	"paperchat-be/internal/model"
	"paperchat-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, database.Options{Debug: true})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	if err := database.Migrate(db, model.All()...); err != nil {
		log.Fatalf("Error: %v", err)
	}

	log.Println("Database migration completed.")
}
