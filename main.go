package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/polyls/polyls/internal/cmd"
)

func main() {
	cmd.Execute()
}
