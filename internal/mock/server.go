package mock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/projectdiscovery/gologger"
)

const (
	FrameworkGin   = "gin"
	FrameworkChi   = "chi"
	FrameworkEcho  = "echo"
	FrameworkFiber = "fiber"

	DefaultFramework = FrameworkGin
	DefaultHost      = ""
	DefaultPort      = 3001
	EnvPort          = "PORT"

	shutdownTimeout = 5 * time.Second

	errorUnknownFramework = "unknown framework %q (want one of gin, chi, echo, fiber)"
	errorInvalidPort      = "invalid %s value %q: %w"
)

// Frameworks lists the supported routers.
var Frameworks = []string{FrameworkGin, FrameworkChi, FrameworkEcho, FrameworkFiber}

// Config selects the router and listen address of the mock server.
type Config struct {
	Framework string
	Host      string
	Port      int
}

// DefaultConfig returns the gin flavour on the port from $PORT, or 3001.
func DefaultConfig() (*Config, error) {
	port, err := PortFromEnv(DefaultPort)
	if err != nil {
		return nil, err
	}
	return &Config{Framework: DefaultFramework, Host: DefaultHost, Port: port}, nil
}

// PortFromEnv reads $PORT, returning fallback when it is unset.
func PortFromEnv(fallback int) (int, error) {
	v := os.Getenv(EnvPort)
	if v == "" {
		return fallback, nil
	}
	port, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf(errorInvalidPort, EnvPort, v, err)
	}
	return port, nil
}

// ValidateFramework rejects router names other than those in Frameworks.
// The empty name selects the default.
func ValidateFramework(framework string) error {
	if framework == "" || slices.Contains(Frameworks, framework) {
		return nil
	}
	return fmt.Errorf(errorUnknownFramework, framework)
}

// NewHandler returns the mock API for framework as a net/http handler.
func NewHandler(framework string, svc *Service) (http.Handler, error) {
	switch framework {
	case FrameworkGin, "":
		gin.SetMode(gin.ReleaseMode)
		return NewGinHandler(svc), nil
	case FrameworkChi:
		return NewChiHandler(svc), nil
	case FrameworkEcho:
		return NewEchoHandler(svc), nil
	case FrameworkFiber:
		return adaptor.FiberApp(NewFiberApp(svc)), nil
	}
	return nil, fmt.Errorf(errorUnknownFramework, framework)
}

// Run serves the mock API until ctx is cancelled.
func Run(ctx context.Context, cfg *Config, svc *Service) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	if cfg.Framework == FrameworkFiber {
		return runFiber(ctx, cfg, addr, svc)
	}

	handler, err := NewHandler(cfg.Framework, svc)
	if err != nil {
		return err
	}
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		gologger.Info().Str("framework", frameworkName(cfg.Framework)).Msgf("Server running on http://%s", displayAddr(cfg))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runFiber(ctx context.Context, cfg *Config, addr string, svc *Service) error {
	app := NewFiberApp(svc)

	errCh := make(chan error, 1)
	go func() {
		gologger.Info().Str("framework", FrameworkFiber).Msgf("Server running on http://%s", displayAddr(cfg))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func frameworkName(f string) string {
	if f == "" {
		return DefaultFramework
	}
	return f
}

func displayAddr(cfg *Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	return net.JoinHostPort(host, strconv.Itoa(cfg.Port))
}
