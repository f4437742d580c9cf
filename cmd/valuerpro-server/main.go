package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sahanw/valuerpro/internal/analysis"
	"github.com/sahanw/valuerpro/internal/httpapi"
	"github.com/sahanw/valuerpro/internal/render"
	"github.com/sahanw/valuerpro/internal/store"
)

func main() {
	dbFlag := flag.String("db", "", "path to SQLite database file (overrides DB_PATH env var)")
	uploadDir := flag.String("upload-dir", "./data/uploads", "directory for uploaded documents")
	flag.Parse()

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	dbPath := *dbFlag
	if dbPath == "" {
		dbPath = os.Getenv("DB_PATH")
	}
	if dbPath == "" {
		dbPath = "./data/valuerpro.db"
	}

	if err := os.MkdirAll(*uploadDir, 0o755); err != nil {
		log.Fatalf("create upload dir (%s): %v", *uploadDir, err)
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("create db dir (%s): %v", dir, err)
		}
	}

	st, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to initialize sqlite store (%s): %v", dbPath, err)
	}
	defer st.Close()
	log.Printf("using sqlite store at %s", dbPath)

	var analyzer httpapi.DocumentAnalyzer
	caller, err := analysis.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Printf("document analysis disabled: %v", err)
	} else {
		analyzer = analysis.NewAnalyzer(caller)
	}

	renderer := render.NewChromiumPDFRenderer()
	h := httpapi.NewServer(httpapi.Config{
		Store:      st,
		Analyzer:   analyzer,
		RenderPDF:  renderer.Render,
		AuthSecret: requiredEnv("VALUERPRO_AUTH_SECRET"),
		UploadDir:  *uploadDir,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{Addr: addr, Handler: h}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("valuerpro-server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func requiredEnv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		log.Fatalf("missing required env var %s", key)
	}
	return v
}
