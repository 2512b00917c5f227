package main

import (
	"github.com/joho/godotenv"

	"github.com/foomo/guestbook/cmd"
)

func main() {
	// local development convenience, a missing .env file is fine
	_ = godotenv.Load()
	cmd.Execute()
}
