// Command asterai-runtime is the standalone runtime process: it loads an
// environment manifest and its component artifacts from disk, builds the
// engine, cron, and WebSocket managers, and serves the direct-call wire
// protocol and HTTP forwarding routes over one HTTP listener. Grounded on
// cli/src/main.rs's entry point shape; flag/command parsing itself is out
// of scope (that CLI's subcommand tree lives entirely outside this
// runtime), so this only wires the pieces spec.md actually describes.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/asterai-io/asterai-sub000/asterror"
	"github.com/asterai-io/asterai-sub000/component"
	"github.com/asterai-io/asterai-sub000/environment"
	"github.com/asterai-io/asterai-sub000/pkgname"
	"github.com/asterai-io/asterai-sub000/runtime/cron"
	"github.com/asterai-io/asterai-sub000/runtime/engine"
	"github.com/asterai-io/asterai-sub000/runtime/hostapi"
	"github.com/asterai-io/asterai-sub000/runtime/httpd"
	"github.com/asterai-io/asterai-sub000/runtime/ws"
	"github.com/asterai-io/asterai-sub000/server"
)

func main() {
	envPath := flag.String("env", "env.toml", "path to the environment manifest")
	artifactsRoot := flag.String("artifacts-root", "artifacts", "root directory component artifacts are read from")
	listenAddr := flag.String("listen", ":8080", "HTTP listen address")
	bearerSecret := flag.String("bearer-secret", "", "bearer token required on /v1/...; empty disables authentication")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(*envPath, *artifactsRoot, *listenAddr, *bearerSecret, log); err != nil {
		log.Error("runtime exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(envPath, artifactsRoot, listenAddr, bearerSecret string, log *zap.Logger) error {
	ctx := context.Background()

	env, err := environment.LoadTOML(envPath)
	if err != nil {
		return err
	}

	binaries, err := loadBinaries(ctx, env, artifactsRoot)
	if err != nil {
		return err
	}

	if problems := environment.UnsatisfiedImportPackages(toReflectors(binaries)); len(problems) > 0 {
		return asterror.New(asterror.KindDependencyMissing,
			fmt.Sprintf("environment has unsatisfied imports: %v", problems))
	}
	if conflicts := environment.ConflictingExports(toReflectors(binaries)); len(conflicts) > 0 {
		return asterror.New(asterror.KindDependencyConflict,
			fmt.Sprintf("environment has conflicting exports: %v", conflicts))
	}

	cronMgr := cron.NewManager(nil, engine.Config{}, log) // factory filled in below, after construction
	wsMgr := ws.NewManager(nil, log, hostapi.NewHTTPClient())

	binder := hostapi.Binder(hostapi.Dependencies{
		Log:        log,
		Cron:       cronMgr,
		WS:         wsMgr,
		HTTPClient: hostapi.NewHTTPClient(),
	})
	factory := engine.NewFactory(log, binaries, binder)

	storeCfg := engine.Config{Vars: env.Vars}

	sharedEng, err := factory.Shared(ctx, storeCfg)
	if err != nil {
		return err
	}
	rewireCronAndWS(cronMgr, wsMgr, factory, storeCfg, sharedEng)

	router, err := httpd.NewRouter(ctx, factory, storeCfg, binaries, log)
	if err != nil {
		return err
	}
	srv := server.New(factory, storeCfg, log)
	mux := server.NewRouter(srv, router, env, server.Config{BearerSecret: bearerSecret}, log)

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", listenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("shutting down")
	case err := <-errCh:
		log.Error("http server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	cronMgr.CancelAll()
	wsMgr.CloseAll()
	return factory.Close(shutdownCtx)
}

// loadBinaries reads each of env's components from
// "<artifactsRoot>/<namespace>/<name>@<version>/component.wasm", per §6's
// on-disk layout (the artifact store that populates this directory is an
// external collaborator, out of scope for this runtime).
func loadBinaries(ctx context.Context, env *environment.Environment, artifactsRoot string) ([]*component.Binary, error) {
	binaries := make([]*component.Binary, 0, len(env.Components))
	for key, version := range env.Components {
		name, err := pkgname.Parse(key + "@" + version)
		if err != nil {
			return nil, err
		}
		comp, err := component.New(name)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(artifactsRoot, comp.Namespace(), comp.Name()+"@"+comp.Version(), "component.wasm")
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read component artifact %s: %w", path, err)
		}
		binary, err := component.FromBytes(ctx, comp, raw)
		if err != nil {
			return nil, err
		}
		binaries = append(binaries, binary)
	}
	return binaries, nil
}

func toReflectors(binaries []*component.Binary) []environment.Reflector {
	out := make([]environment.Reflector, len(binaries))
	for i, b := range binaries {
		out[i] = b
	}
	return out
}

// rewireCronAndWS points the already-constructed managers at the engine
// and factory built from the host bindings those same managers provide,
// resolving the bind-before-instantiate chicken-and-egg the same way
// engine.Ref does for host capability functions.
func rewireCronAndWS(cronMgr *cron.Manager, wsMgr *ws.Manager, factory *engine.Factory, cfg engine.Config, sharedEng *engine.Engine) {
	cronMgr.Rewire(factory, cfg)
	wsMgr.Rewire(sharedEng)
}
