package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/cognitosense/cognitosense/internal/api"
	"github.com/cognitosense/cognitosense/internal/config"
	"github.com/cognitosense/cognitosense/internal/middleware"
	"github.com/cognitosense/cognitosense/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	mux := http.NewServeMux()
	api.NewRouter(st).Register(mux)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "CognitoSense backend is running")
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
		})
	})

	handler := middleware.CORS(middleware.SecureHeaders(middleware.NoStore(middleware.WithAuth(mux))))

	log.Printf("CognitoSense server listening on %s (store=%s)", cfg.Addr, cfg.StoreDriver)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.StoreDriver == config.DriverSQLite {
		return store.NewSQLiteStore(cfg.SQLitePath)
	}
	return store.NewCSVStore(cfg.CSVPath)
}
