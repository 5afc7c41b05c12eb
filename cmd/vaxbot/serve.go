package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/cli"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/demo"
	httpadapter "github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/adapters/http"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP transport",
	Long:  `Serves one script over HTTP. Transports POST inbound messages to /inbound and receive the replies.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		name, _ := cmd.Flags().GetString("script")
		app, err := rt.App(name)
		if err != nil {
			return err
		}
		defer app.Close()

		handler, err := httpadapter.NewHandler(app,
			httpadapter.WithLogger(rt.Logger),
			httpadapter.WithGatherer(rt.Registry),
			httpadapter.WithVersion(Version),
		)
		if err != nil {
			return err
		}

		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = rt.Config.Port
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		serverErrors := make(chan error, 1)
		go func() {
			rt.Logger.Info("serving", "addr", srv.Addr, "script", name, "store", rt.Config.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			rt.Logger.Info("shutting down", "signal", ctx.Signal())
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.Logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default VAXBOT_PORT)")
	serveCmd.Flags().StringP("script", "s", demo.VaccineScript, "Script to serve")
}
