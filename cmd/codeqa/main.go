package main

import (
	"github.com/joho/godotenv"

	"codeqa/internal/cli"
)

func main() {
	// A missing .env is normal; real environment variables still apply.
	_ = godotenv.Load()
	cli.Execute()
}
