package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"chatledger/pkg/api"
	"chatledger/pkg/auth"
	"chatledger/pkg/banner"
	"chatledger/pkg/logger"
)

// printBanner prints the startup banner and the effective runtime summary.
func (a *App) printBanner() {
	gen := a.eff.Config.Reply.Provider
	banner.Print(a.eff.Addr, a.st.Path(), gen, a.eff.Source, a.version)
}

// startHTTP builds the handler, starts the HTTP server in a goroutine
// and returns a channel that will contain any server error.
func (a *App) startHTTP() <-chan error {
	secCfg := auth.SecConfig{
		AllowedOrigins:   append([]string{}, a.eff.Config.Security.CORS.AllowedOrigins...),
		RPS:              a.eff.Config.Security.RateLimit.RPS,
		Burst:            a.eff.Config.Security.RateLimit.Burst,
		RateLimitEnabled: a.eff.Config.Security.RateLimit.Enabled,
	}

	h := &api.Handlers{Dir: a.dir, Orc: a.orc, St: a.st}
	a.srv = &http.Server{Addr: a.eff.Addr, Handler: api.NewRouter(h, secCfg)}

	errCh := make(chan error, 1)
	go func() {
		cert := a.eff.Config.Server.TLS.CertFile
		key := a.eff.Config.Server.TLS.KeyFile
		var err error
		if cert != "" && key != "" {
			err = a.srv.ListenAndServeTLS(cert, key)
		} else {
			err = a.srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// shutdownHTTP drains the server with a bounded grace period.
func (a *App) shutdownHTTP() {
	if a.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(ctx); err != nil {
		logger.Error("http_shutdown_failed", "error", err)
	}
}
