package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sqwerl/internal/config"
	"sqwerl/internal/fetch"
	"sqwerl/internal/viewport"
	"sqwerl/internal/window"
)

type browseOptions struct {
	loader      config.Loader
	thing       string
	property    string
	top         int
	rows        int
	scrollSteps int
	step        int
	wait        time.Duration
}

func newBrowseCmd(opts *rootOptions) *cobra.Command {
	var bo browseOptions
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Load a window of a thing's collection and print it",
		Long: "browse opens a viewport over one collection property of a thing, scrolls it\n" +
			"--scroll-steps times in quick succession and prints the rows once loaded.\n" +
			"Only the final scroll position is fetched.",
		Example: "  sqwerl browse --thing root --property children --top 40 --rows 10\n" +
			"  sqwerl browse --url http://localhost:9090 --scroll-steps 50 --step 3",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bo.loader = mergeLoader(cmd, bo.loader, opts.file.Loader)
			return runBrowse(cmd, opts, bo)
		},
	}
	f := cmd.Flags()
	f.StringVar(&bo.loader.URL, "url", envStr("SQWERL_URL", "http://localhost:8080"), "Server base URL (defaults SQWERL_URL)")
	f.IntVar(&bo.loader.PageSize, "page-size", window.DefaultPageSize, "Items per fetch window")
	f.IntVar(&bo.loader.QuietPeriodMS, "quiet-period-ms", int(window.DefaultQuietPeriod/time.Millisecond), "Debounce delay before fetching")
	f.IntVar(&bo.loader.FetchTimeoutMS, "fetch-timeout-ms", 10000, "Timeout per page request")
	f.StringVar(&bo.thing, "thing", "root", "Thing id whose collection to browse")
	f.StringVar(&bo.property, "property", "children", "Collection property name")
	f.IntVar(&bo.top, "top", 0, "First visible row")
	f.IntVar(&bo.rows, "rows", 20, "Visible rows")
	f.IntVar(&bo.scrollSteps, "scroll-steps", 0, "Scroll moves to simulate after positioning at --top")
	f.IntVar(&bo.step, "step", 1, "Rows moved per scroll step")
	f.DurationVar(&bo.wait, "wait", 15*time.Second, "How long to wait for the visible rows")
	return cmd
}

func mergeLoader(cmd *cobra.Command, flags, file config.Loader) config.Loader {
	out := flags
	changed := cmd.Flags().Changed
	if !changed("url") && file.URL != "" {
		out.URL = file.URL
	}
	if !changed("page-size") && file.PageSize > 0 {
		out.PageSize = file.PageSize
	}
	if !changed("quiet-period-ms") && file.QuietPeriodMS > 0 {
		out.QuietPeriodMS = file.QuietPeriodMS
	}
	if !changed("fetch-timeout-ms") && file.FetchTimeoutMS > 0 {
		out.FetchTimeoutMS = file.FetchTimeoutMS
	}
	return out
}

func runBrowse(cmd *cobra.Command, opts *rootOptions, bo browseOptions) error {
	if bo.rows < 1 {
		return fmt.Errorf("--rows must be >= 1")
	}
	if bo.top < 0 || bo.scrollSteps < 0 {
		return fmt.Errorf("--top and --scroll-steps must be >= 0")
	}
	client, err := fetch.New(fetch.Config{
		BaseURL: bo.loader.URL,
		Timeout: bo.loader.FetchTimeout(),
		Logger:  &opts.log,
	})
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ld, err := window.New(window.Config{
		Handle:      window.Handle{ThingID: bo.thing, Property: bo.property},
		Fetcher:     client,
		PageSize:    bo.loader.PageSize,
		QuietPeriod: bo.loader.QuietPeriod(),
		Context:     ctx,
		Logger:      &opts.log,
	})
	if err != nil {
		return err
	}
	defer ld.Close()

	vp := viewport.New(ld, bo.rows)
	defer vp.Close()
	if err := vp.ScrollTo(bo.top); err != nil {
		return err
	}
	for i := 0; i < bo.scrollSteps; i++ {
		if err := vp.ScrollBy(bo.step); err != nil {
			return err
		}
	}

	wctx, cancel := context.WithTimeout(ctx, bo.wait)
	defer cancel()
	if err := vp.Wait(wctx); err != nil {
		opts.log.Warn().Err(err).Msg("visible rows not fully loaded")
	}
	st := ld.Stats()
	opts.log.Debug().
		Str("handle", st.Handle.String()).
		Int("total", st.TotalCount).
		Int("loaded", st.Loaded).
		Int("in_flight", st.InFlight).
		Msg("loader stats")
	return vp.Render(cmd.OutOrStdout())
}
