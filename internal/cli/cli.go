// Copyright 2025 Ehab Terra
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli wires the apidocs commands: the document viewer, the mock API,
// one-shot inspection and the MCP tool server.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ehabterra/apidocs/internal/catalog"
	"github.com/ehabterra/apidocs/internal/engine"
	"github.com/ehabterra/apidocs/internal/mcpserver"
	"github.com/ehabterra/apidocs/internal/metrics"
	"github.com/ehabterra/apidocs/internal/mock"
	"github.com/ehabterra/apidocs/internal/profiler"
	"github.com/ehabterra/apidocs/internal/spec"
	"github.com/ehabterra/apidocs/internal/viewer"
	"github.com/fatih/color"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/formatter"
	"github.com/projectdiscovery/gologger/levels"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// DefaultStaticDir holds the bundled catalog documents.
const DefaultStaticDir = "public"

// Options are the flags shared by every command.
type Options struct {
	Verbose     bool
	Silent      bool
	NoColor     bool
	CatalogFile string
	EnvFile     string
	Root        string
	BaseURL     string
	Timeout     time.Duration

	Profile  profiler.ProfilerConfig
	profiler *profiler.Profiler
}

func (o *Options) configureOutput() {
	if o.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
	if o.NoColor {
		gologger.DefaultLogger.SetFormatter(formatter.NewCLI(true))
		color.NoColor = true
	}
	if o.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	}
}

func (o *Options) startProfiling() error {
	if !o.Profile.Enabled() {
		return nil
	}
	o.profiler = profiler.NewProfiler(&o.Profile)
	return o.profiler.Start()
}

func (o *Options) stopProfiling() error {
	if o.profiler == nil {
		return nil
	}
	return o.profiler.Stop()
}

// catalog returns the catalog file if one was given, else the built-in one.
func (o *Options) catalog() (*catalog.Catalog, error) {
	if o.CatalogFile == "" {
		return catalog.DefaultCatalog(), nil
	}
	return catalog.LoadCatalog(o.CatalogFile)
}

func (o *Options) engine(root string, m *metrics.Metrics) *engine.Engine {
	config := engine.DefaultEngineConfig()
	config.Root = root
	config.BaseURL = o.BaseURL
	config.HTTPTimeout = o.Timeout
	config.Metrics = m
	return engine.NewEngine(config)
}

// rootOr returns the --root flag, or fallback when it is unset.
func (o *Options) rootOr(fallback string) string {
	if o.Root != "" {
		return o.Root
	}
	return fallback
}

// Execute runs the apidocs command line.
func Execute() error {
	rootCmd, opts := newRootCommand()
	err := rootCmd.Execute()
	if stopErr := opts.stopProfiling(); err == nil {
		err = stopErr
	}
	return err
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	rootCmd, _ := newRootCommand()
	return rootCmd
}

func newRootCommand() (*cobra.Command, *Options) {
	opts := &Options{Profile: *profiler.DefaultProfilerConfig()}

	rootCmd := &cobra.Command{
		Use:           "apidocs",
		Short:         "Browse OpenAPI and Swagger documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.configureOutput()
			if err := mock.LoadEnv(opts.EnvFile); err != nil {
				return err
			}
			return opts.startProfiling()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Show verbose output")
	flags.BoolVar(&opts.Silent, "silent", false, "Show only results")
	flags.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	flags.StringVarP(&opts.CatalogFile, "catalog", "c", "", "YAML file listing the documents to browse")
	flags.StringVar(&opts.EnvFile, "env-file", mock.DefaultEnvFile, "Read environment variables such as PORT from this file if it exists")
	flags.StringVar(&opts.Root, "root", "", "Directory filesystem locators are resolved against")
	flags.StringVar(&opts.BaseURL, "base-url", "", "Fetch relative locators from this URL instead of the filesystem")
	flags.DurationVar(&opts.Timeout, "timeout", engine.DefaultHTTPTimeout, "Timeout for remote fetches (0 for none)")
	flags.BoolVar(&opts.Profile.CPUProfile, "cpu-profile", false, "Write a CPU profile")
	flags.BoolVar(&opts.Profile.MemProfile, "mem-profile", false, "Write a heap profile on exit")
	flags.BoolVar(&opts.Profile.TraceProfile, "trace", false, "Write an execution trace")
	flags.StringVar(&opts.Profile.OutputDir, "profile-dir", opts.Profile.OutputDir, "Directory for profile output")

	rootCmd.AddCommand(
		newServeCommand(opts),
		newMockCommand(),
		newInspectCommand(opts),
		newMCPCommand(opts),
		newVersionCommand(),
	)
	return rootCmd, opts
}

func newServeCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the document viewer API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _ := cmd.Flags().GetString("host")
			port, _ := cmd.Flags().GetInt("port")
			enableCORS, _ := cmd.Flags().GetBool("cors")
			staticDir, _ := cmd.Flags().GetString("static")
			anyLocator, _ := cmd.Flags().GetBool("allow-any-locator")
			withMock, _ := cmd.Flags().GetBool("with-mock")
			sessionTTL, _ := cmd.Flags().GetDuration("session-ttl")

			cat, err := opts.catalog()
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m, err := metrics.New(reg)
			if err != nil {
				return err
			}

			loader := opts.engine(opts.rootOr(staticDir), m)
			sessions := viewer.NewSessions(loader, m)
			defer sessions.CloseAll()

			srv := viewer.NewServer(&viewer.ServerConfig{
				Host:            host,
				Port:            port,
				EnableCORS:      enableCORS,
				StaticDir:       staticDir,
				AllowAnyLocator: anyLocator,
			}, loader, cat, sessions, reg)

			var mockCfg *mock.Config
			if withMock {
				if mockCfg, err = mockConfig(cmd, "mock-framework", "mock-port"); err != nil {
					return err
				}
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.ListenAndServe(gctx)
			})
			g.Go(func() error {
				return sessions.Expire(gctx, sessionTTL)
			})
			if mockCfg != nil {
				g.Go(func() error {
					return mock.Run(gctx, mockCfg, mock.NewService())
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().String("host", viewer.DefaultHost, "Address to listen on")
	cmd.Flags().IntP("port", "p", viewer.DefaultPort, "Port to listen on")
	cmd.Flags().Bool("cors", true, "Send CORS headers")
	cmd.Flags().String("static", DefaultStaticDir, "Directory of catalog documents served under /specs/")
	cmd.Flags().Bool("allow-any-locator", false, "Allow loading locators that are not in the catalog")
	cmd.Flags().Duration("session-ttl", viewer.DefaultIdleTimeout, "Close viewer sessions unused for this long (0 keeps them until deleted)")
	cmd.Flags().Bool("with-mock", false, "Also run the mock API")
	cmd.Flags().String("mock-framework", mock.DefaultFramework, "Router for the mock API (gin, chi, echo, fiber)")
	cmd.Flags().Int("mock-port", mock.DefaultPort, "Port for the mock API (default $PORT or 3001)")
	return cmd
}

func newMockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Start the mock API described by the Mock API document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mockConfig(cmd, "framework", "port")
			if err != nil {
				return err
			}
			cfg.Host, _ = cmd.Flags().GetString("host")

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return mock.Run(ctx, cfg, mock.NewService())
		},
	}
	cmd.Flags().StringP("framework", "f", mock.DefaultFramework, "Router to serve with (gin, chi, echo, fiber)")
	cmd.Flags().String("host", mock.DefaultHost, "Address to listen on")
	cmd.Flags().IntP("port", "p", mock.DefaultPort, "Port to listen on (default $PORT or 3001)")
	return cmd
}

// mockConfig reads the mock router and port flags. The port flag overrides
// $PORT only when given explicitly.
func mockConfig(cmd *cobra.Command, frameworkFlag, portFlag string) (*mock.Config, error) {
	cfg, err := mock.DefaultConfig()
	if err != nil {
		return nil, err
	}
	cfg.Framework, _ = cmd.Flags().GetString(frameworkFlag)
	if cmd.Flags().Changed(portFlag) {
		cfg.Port, _ = cmd.Flags().GetInt(portFlag)
	}
	if err := mock.ValidateFramework(cfg.Framework); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newInspectCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [locator]",
		Short: "Load a document and print its endpoints grouped by tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			parsed, err := opts.engine(opts.Root, nil).Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSummary(parsed)

			if output == "" {
				return nil
			}
			if err := spec.WriteFile(spec.NewExport(parsed), output); err != nil {
				return err
			}
			gologger.Info().Msgf("Wrote %s", output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write the parsed document to this file (.json or .yaml)")
	return cmd
}

func newMCPCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the catalog as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := opts.catalog()
			if err != nil {
				return err
			}
			detectVersionInfo()
			return mcpserver.New(opts.engine(opts.rootOr(DefaultStaticDir), nil), cat, Version).Start()
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Main runs the command line and exits non-zero on failure.
func Main() {
	if err := Execute(); err != nil {
		gologger.Error().Msgf("%v", err)
		os.Exit(1)
	}
}
