package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/adapter/gateway"
	"github.com/polkiloo/storefront/internal/checkout"
	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/server/http/handlers"
	testhelpers "github.com/polkiloo/storefront/internal/test"
	"github.com/polkiloo/storefront/internal/usecase"
	"github.com/polkiloo/storefront/internal/worker"
)

var (
	_ handlers.StorefrontFacade    = (*StorefrontFacade)(nil)
	_ worker.ReconciliationFacade = (*StorefrontFacade)(nil)
)

type runtime struct {
	reconciler   *worker.Reconciler
	janitor      *checkout.Janitor
	orchestrator *checkout.Orchestrator
}

func newRuntime() runtime {
	logger := testLogger()
	stub := testhelpers.NewBackendStub()
	carts := usecase.NewCartUseCase(stub, logger)
	orch := checkout.NewOrchestrator(stub, carts, usecase.NewAddressUseCase(stub, nil, time.Second, logger),
		gateway.NewHosted(logger), nil, checkout.Options{SessionTTL: time.Minute}, logger)
	return runtime{
		reconciler:   worker.NewReconciler(&testhelpers.ReconcileFacadeStub{}, 10*time.Millisecond, 1, 1, logger),
		janitor:      checkout.NewJanitor(orch, 10*time.Millisecond, logger),
		orchestrator: orch,
	}
}

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{RunAddress: ":9999"}
	router := gin.New()
	server := newHTTPServer(serverParams{Config: cfg, Router: router})
	if server.Addr != ":9999" {
		t.Fatalf("expected address :9999, got %q", server.Addr)
	}
	if server.Handler != router {
		t.Fatalf("expected handler to be router")
	}
}

func TestNewReconcilerUsesConfig(t *testing.T) {
	rec := newReconciler(reconcilerParams{
		Facade: &StorefrontFacade{},
		Config: &config.Config{ReconcileInterval: 15 * time.Second, ReconcileBatch: 3, WorkerPoolSize: 4},
		Logger: testLogger(),
	})
	if rec == nil {
		t.Fatal("expected reconciler instance")
	}
}

func TestNewFacadeWithoutStorage(t *testing.T) {
	facade := newFacade(facadeParams{Config: &config.Config{BackendServiceToken: "svc"}})
	if facade.health != nil {
		t.Fatalf("expected no health checker, got %T", facade.health)
	}
	if facade.serviceToken != "svc" {
		t.Fatalf("expected service token to be passed, got %q", facade.serviceToken)
	}
}

func TestRegisterLifecycleStartStop(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	rt := newRuntime()
	cfg := &config.Config{ShutdownTimeout: 100 * time.Millisecond, BackendServiceToken: "svc"}

	registerLifecycle(lifecycleParams{
		Lifecycle:    recorder,
		Shutdowner:   shutdowner,
		Logger:       testLogger(),
		Server:       server,
		Reconciler:   rt.reconciler,
		Janitor:      rt.janitor,
		Orchestrator: rt.orchestrator,
		Config:       cfg,
	})

	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected one hook registered, got %d", len(recorder.Hooks))
	}

	hook := recorder.Hooks[0]
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := hook.OnStart(ctx); err != nil {
		t.Fatalf("on start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hook.OnStop(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected on stop to finish")
	}
}

func TestRegisterLifecycleWithoutServiceToken(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	rt := newRuntime()
	registerLifecycle(lifecycleParams{
		Lifecycle:    recorder,
		Shutdowner:   &testhelpers.ShutdownerStub{},
		Logger:       testLogger(),
		Server:       &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()},
		Reconciler:   rt.reconciler,
		Janitor:      rt.janitor,
		Orchestrator: rt.orchestrator,
		Config:       &config.Config{ShutdownTimeout: 100 * time.Millisecond},
	})

	hook := recorder.Hooks[0]
	if err := hook.OnStart(context.Background()); err != nil {
		t.Fatalf("on start failed: %v", err)
	}
	if err := hook.OnStop(context.Background()); err != nil {
		t.Fatalf("on stop failed: %v", err)
	}
}

func TestRegisterLifecycleShutdownOnServerError(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	rt := newRuntime()

	registerLifecycle(lifecycleParams{
		Lifecycle:    recorder,
		Shutdowner:   shutdowner,
		Logger:       testLogger(),
		Server:       &http.Server{Addr: "bad addr"},
		Reconciler:   rt.reconciler,
		Janitor:      rt.janitor,
		Orchestrator: rt.orchestrator,
		Config:       &config.Config{ShutdownTimeout: time.Second},
	})

	hook := recorder.Hooks[0]
	if err := hook.OnStart(context.Background()); err != nil {
		t.Fatalf("on start returned error: %v", err)
	}

	select {
	case <-shutdowner.Called:
	case <-time.After(time.Second):
		t.Fatal("expected shutdown to be triggered on server error")
	}

	_ = hook.OnStop(context.Background())
}

func TestLifecycleRecorderAppend(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	recorder.Append(fx.Hook{})
	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected hook to be appended")
	}
}

func TestShutdownerStub(t *testing.T) {
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	if err := shutdowner.Shutdown(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-shutdowner.Called:
	default:
		t.Fatal("expected shutdown notification")
	}
}
