// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package http assembles the gin engine and runs the HTTP server.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/go-arcade/autopush/internal/monitor"
	"github.com/go-arcade/autopush/internal/router"
	"github.com/go-arcade/autopush/pkg/httpx"
	"github.com/go-arcade/autopush/pkg/log"
	"github.com/go-arcade/autopush/pkg/version"
)

// HTTP is the server configuration.
type HTTP struct {
	Host            string
	Port            int
	Mode            string // gin mode: debug, release, test
	ContextPath     string // api prefix, default /api
	APIKey          string // empty disables authentication
	AccessLog       bool
	ReadTimeout     int // seconds
	WriteTimeout    int // seconds
	IdleTimeout     int // seconds
	ShutdownTimeout int // seconds
	TLS             TLS
}

// TLS holds the optional certificate pair.
type TLS struct {
	CertFile string
	KeyFile  string
}

// SetDefaults returns the default server configuration.
func SetDefaults() HTTP {
	return HTTP{
		Host:            "0.0.0.0",
		Port:            3001,
		Mode:            gin.ReleaseMode,
		ContextPath:     "/api",
		AccessLog:       true,
		ReadTimeout:     30,
		WriteTimeout:    60,
		IdleTimeout:     120,
		ShutdownTimeout: 10,
	}
}

// NewHTTPEngine builds the gin engine with the push API mounted under the
// context path. /health stays outside the authenticated group so probes
// never need the api key.
func NewHTTPEngine(cfg HTTP, api *router.Router, mon *monitor.Monitor) *gin.Engine {

	gin.SetMode(cfg.Mode)

	r := gin.New()

	// panic recover
	r.Use(gin.Recovery())

	if cfg.AccessLog {
		r.Use(gin.LoggerWithFormatter(httpx.AccessLogFormat))
	}

	r.GET("/health", func(c *gin.Context) {
		health := mon.HealthCheck()
		status := http.StatusOK
		if health.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, health)
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.GetVersion())
	})

	core := r.Group(cfg.ContextPath)
	{
		api.Register(core)
	}

	return r
}

// NewHTTP starts the server and returns a function that shuts it down
// gracefully.
func NewHTTP(cfg HTTP, handler http.Handler) func() {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	go func() {
		log.Infow("http server started", "addr", addr)

		var err error
		if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
			err = srv.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*time.Duration(cfg.ShutdownTimeout))
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorw("http server shutdown failed", "error", err)
			return
		}
		log.Info("http server stopped")
	}
}
