package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/simulai/simulai/config"
	"github.com/simulai/simulai/internal/app"
	"github.com/simulai/simulai/pkg/logger"
)

// fakeApp implements the lifecycle calls runServer makes
type fakeApp struct {
	app.AppInterface
	initErr     error
	startErr    error
	shutdownErr error
	stop        chan struct{}
	shutdowns   int
	timeout     time.Duration
}

func newFakeApp() *fakeApp {
	return &fakeApp{stop: make(chan struct{})}
}

func (f *fakeApp) Initialize() error { return f.initErr }

func (f *fakeApp) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeApp) Shutdown(ctx context.Context) error {
	f.shutdowns++
	close(f.stop)
	return f.shutdownErr
}

func (f *fakeApp) SetShutdownTimeout(timeout time.Duration) { f.timeout = timeout }
func (f *fakeApp) GetActiveRequestCount() int64             { return 0 }

func factory(f *fakeApp) NewAppFunc {
	return func(cfg *config.Config, opts ...app.AppOption) app.AppInterface { return f }
}

// withSignal makes the first signal.Notify call receive sig right away
func withSignal(t *testing.T, sig os.Signal) {
	original := signalNotify
	calls := 0
	signalNotify = func(c chan<- os.Signal, _ ...os.Signal) {
		calls++
		if calls == 1 && sig != nil {
			c <- sig
		}
	}
	t.Cleanup(func() { signalNotify = original })
}

func TestRunServer_GracefulShutdown(t *testing.T) {
	withSignal(t, syscall.SIGTERM)
	f := newFakeApp()

	err := runServer(&config.Config{}, logger.NewTestLogger(t), factory(f))

	assert.NoError(t, err)
	assert.Equal(t, 1, f.shutdowns)
	assert.Equal(t, 25*time.Second, f.timeout)
}

func TestRunServer_InitializeError(t *testing.T) {
	withSignal(t, nil)
	f := newFakeApp()
	f.initErr = errors.New("database unreachable")

	err := runServer(&config.Config{}, logger.NewTestLogger(t), factory(f))
	assert.EqualError(t, err, "database unreachable")
}

func TestRunServer_StartError(t *testing.T) {
	withSignal(t, nil)
	f := newFakeApp()
	f.startErr = errors.New("address already in use")

	err := runServer(&config.Config{}, logger.NewTestLogger(t), factory(f))
	assert.EqualError(t, err, "address already in use")
}

func TestRunServer_ShutdownError(t *testing.T) {
	withSignal(t, os.Interrupt)
	f := newFakeApp()
	f.shutdownErr = errors.New("shutdown timeout exceeded")

	err := runServer(&config.Config{}, logger.NewTestLogger(t), factory(f))
	assert.EqualError(t, err, "shutdown timeout exceeded")
}

func TestConfigLoading_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.LoadWithOptions(config.LoadOptions{})
	assert.Error(t, err)
}
