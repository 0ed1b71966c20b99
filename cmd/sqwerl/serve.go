package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"sqwerl/internal/catalog"
	"sqwerl/internal/config"
	"sqwerl/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		flags       config.Server
		corsOrigins string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a catalog of things over HTTP",
		Example: "  sqwerl serve --synthetic-size 100000\n" +
			"  sqwerl serve --data-file ~/things.yaml --addr :9090",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.CORSOrigins = splitCSV(corsOrigins)
			sc := mergeServer(cmd, flags, opts.file.Server)
			cat, err := buildCatalog(sc)
			if err != nil {
				return err
			}
			httpapi.SetLogger(opts.log)
			httpapi.SetPageSizes(sc.DefaultPageSize, sc.MaxPageSize)
			httpapi.SetCORSOptions(sc.CORSEnabled, sc.CORSOrigins, nil, nil)
			return runServer(cmd.Context(), opts, sc.Addr, httpapi.NewMux(cat))
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.Addr, "addr", envStr("SQWERL_ADDR", ":8080"), "HTTP listen address (defaults SQWERL_ADDR or :8080)")
	f.StringVar(&flags.DataFile, "data-file", "", "Catalog file (.yaml, .yml, .json, .toml); synthetic catalog when empty")
	f.IntVar(&flags.SyntheticSize, "synthetic-size", 1000, "Children of the synthetic root")
	f.IntVar(&flags.SyntheticFanout, "synthetic-fanout", 10, "Children of each synthetic child")
	f.IntVar(&flags.DefaultPageSize, "page-size", httpapi.DefaultPageSize, "Window size when a request omits limit")
	f.IntVar(&flags.MaxPageSize, "max-page-size", httpapi.DefaultMaxPageSize, "Upper bound for requested limits")
	f.BoolVar(&flags.CORSEnabled, "cors", false, "Enable CORS")
	f.StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed origins")
	return cmd
}

// mergeServer lets explicitly set flags win over the config file and the file
// win over flag defaults.
func mergeServer(cmd *cobra.Command, flags, file config.Server) config.Server {
	out := flags
	changed := cmd.Flags().Changed
	if !changed("addr") && file.Addr != "" {
		out.Addr = file.Addr
	}
	if !changed("data-file") && file.DataFile != "" {
		out.DataFile = file.DataFile
	}
	if !changed("synthetic-size") && file.SyntheticSize > 0 {
		out.SyntheticSize = file.SyntheticSize
	}
	if !changed("synthetic-fanout") && file.SyntheticFanout > 0 {
		out.SyntheticFanout = file.SyntheticFanout
	}
	if !changed("page-size") && file.DefaultPageSize > 0 {
		out.DefaultPageSize = file.DefaultPageSize
	}
	if !changed("max-page-size") && file.MaxPageSize > 0 {
		out.MaxPageSize = file.MaxPageSize
	}
	if !changed("cors") && file.CORSEnabled {
		out.CORSEnabled = true
	}
	if !changed("cors-origins") && len(file.CORSOrigins) > 0 {
		out.CORSOrigins = file.CORSOrigins
	}
	return out
}

func buildCatalog(sc config.Server) (catalog.Catalog, error) {
	if sc.DataFile != "" {
		m, err := catalog.LoadFile(sc.DataFile)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		return m, nil
	}
	s, err := catalog.NewSynthetic(sc.SyntheticSize, sc.SyntheticFanout)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func runServer(ctx context.Context, opts *rootOptions, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		opts.log.Info().Str("addr", addr).Msg("sqwerl listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		opts.log.Warn().Err(err).Msg("graceful shutdown error")
		return err
	}
	opts.log.Info().Msg("sqwerl stopped")
	return nil
}
