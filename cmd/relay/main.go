package main

import (
	"log"

	"github.com/joho/godotenv"

	"chatrelay/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[Env] No .env file found, using environment variables")
	}
	if err := server.Run(); err != nil {
		log.Fatal(err.Error())
	}
}
