package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Local development loads credentials from .env; deployed environments
	// set real environment variables and have no file.
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded environment from .env")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
