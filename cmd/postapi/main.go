package main

import (
	"fmt"
	"log"
	"os"

	"github.com/eringen/postapi"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := serve(); err != nil {
			log.Fatal(err)
		}
	case "version":
		fmt.Printf("postapi %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func serve() error {
	cfg, err := postapi.ConfigFromEnv()
	if err != nil {
		return err
	}
	app := postapi.New(cfg)
	defer app.Close()
	return app.Start()
}

func printUsage() {
	fmt.Println(`postapi - a headless blog content API built with Go, Echo and SQLite

Usage:
  postapi [command]

Commands:
  serve     Start the API server (default)
  version   Print the version
  help      Show this help

Configuration is read from environment variables:
  SITE_NAME, SITE_URL, SITE_DESCRIPTION, ADDR, DATABASE_PATH,
  ADMIN_TOKEN (required), WEBHOOK_SECRET (required), UPLOADS_DIR,
  FEED_CACHE_TTL`)
}
