package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/estat-master/estat-master/internal/mockestat"
)

func main() {
	addr := defaultString("MOCK_ESTAT_ADDR", ":8080")
	fixtureDir := defaultString("MOCK_ESTAT_FIXTURE_DIR", "")

	fs := flag.NewFlagSet("mock-estat", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address (env: MOCK_ESTAT_ADDR)")
	fs.StringVar(&fixtureDir, "fixture-dir", fixtureDir, "Directory of <type>/<revision>/master.csv and examples/<code>.html fixtures; the built-in sample is served when empty (env: MOCK_ESTAT_FIXTURE_DIR)")
	_ = fs.Parse(os.Args[1:])

	srv := mockestat.New()
	source := "built-in sample"
	if fixtureDir != "" {
		if err := srv.LoadDir(fixtureDir); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "load fixtures: %v\n", err)
			os.Exit(2)
		}
		source = fixtureDir
	} else {
		srv.LoadSample()
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	_, _ = fmt.Fprintf(os.Stdout, "mock-estat listening on %s (fixtures=%s)\n", addr, source)
	if err := httpSrv.ListenAndServe(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
