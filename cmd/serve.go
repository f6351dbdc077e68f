package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hourbook/config"
	"hourbook/storage"
	"hourbook/web"
)

var (
	servePort   int
	serveDBPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local hours upload/report API",
	Long: `Start a localhost HTTP server for uploading hours CSV files (with preview)
and downloading monthly coder/project reports as semicolon-delimited CSV.

The server is single-user and unauthenticated; bind it to localhost only.`,
	Example: `
  hourbook serve
  hourbook serve --port 9090 --db ./hourbook.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		store, err := storage.Open(resolveDBPath(serveDBPath, cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		service, err := buildService(cfg, store)
		if err != nil {
			return err
		}

		server := &http.Server{
			Addr:              fmt.Sprintf("127.0.0.1:%d", servePort),
			Handler:           web.NewServer(store, service),
			ReadHeaderTimeout: 10 * time.Second,
		}

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
		errs := make(chan error, 1)

		go func() {
			fmt.Printf("Serving on http://%s\n", server.Addr)
			errs <- server.ListenAndServe()
		}()

		select {
		case <-shutdown:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		case err := <-errs:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "SQLite database path (default from config)")
}
