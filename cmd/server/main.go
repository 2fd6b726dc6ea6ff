package main

import (
	"log"

	"github.com/joho/godotenv"

	"hostel/internal/app/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}
	server.Run()
}
