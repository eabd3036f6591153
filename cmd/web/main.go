package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/resqbites/matcher/internal/config"
	"github.com/resqbites/matcher/internal/store"
	"github.com/resqbites/matcher/internal/web"
)

func main() {
	configFile := flag.String("config", "", "JSON config file (overrides environment)")
	flag.Parse()

	// Load environment configuration
	config.LoadEnv()

	fmt.Println("=== Resqbites Match Dashboard ===")

	webConfig := web.FromEnv()
	if *configFile != "" {
		var err error
		webConfig, err = web.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config %s: %v", *configFile, err)
		}
	}

	fmt.Printf("Server: http://%s\n", webConfig.Addr())
	fmt.Printf("Source: %s\n", webConfig.Source.Kind)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := store.Open(ctx, webConfig.StoreOptions(), webConfig.Debug)
	cancel()
	if err != nil {
		log.Fatalf("Failed to load match records: %v", err)
	}
	fmt.Printf("Loaded %d matches from %s\n", st.Len(), st.Source())

	server, err := web.NewServer(webConfig, st)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	fmt.Println("\nFeatures enabled:")
	fmt.Printf("  • Export: %v\n", webConfig.Features.ExportEnabled)
	fmt.Printf("  • Map style: %s (zoom %g)\n", webConfig.Map.Style, webConfig.Map.Zoom)
	fmt.Println()

	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
