package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	server := NewMCPServer(
		getEnv("TAQVIM_API_URL", "http://localhost:8080"),
		os.Getenv("TAQVIM_API_USERNAME"),
		os.Getenv("TAQVIM_API_PASSWORD"),
	)
	if err := server.Run(os.Stdin, os.Stdout); err != nil {
		os.Stderr.WriteString("taqvim-mcp: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
