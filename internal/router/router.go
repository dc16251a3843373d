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

// Package router exposes the push service API over gin.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/go-arcade/autopush/internal/history"
	"github.com/go-arcade/autopush/internal/monitor"
	"github.com/go-arcade/autopush/internal/scheduler"
	"github.com/go-arcade/autopush/internal/task"
	"github.com/go-arcade/autopush/pkg/httpx"
)

// Router holds the API dependencies.
type Router struct {
	apiKey string
	mgr    *task.Manager
	store  history.Store
	mon    *monitor.Monitor
	sched  *scheduler.Scheduler
}

// NewRouter builds the API router. An empty apiKey disables authentication.
func NewRouter(apiKey string, mgr *task.Manager, store history.Store, mon *monitor.Monitor, sched *scheduler.Scheduler) *Router {
	return &Router{
		apiKey: apiKey,
		mgr:    mgr,
		store:  store,
		mon:    mon,
		sched:  sched,
	}
}

// Register mounts the API routes on the given group.
func (r *Router) Register(g *gin.RouterGroup) {
	g.Use(r.authMiddleware())

	push := g.Group("/push")
	{
		push.POST("", r.submitPush)
		push.GET("/history", r.getHistory)
		push.GET("/history/stats", r.getHistoryStats)
		push.GET("/:id", r.getTask)
		push.POST("/:id/cancel", r.cancelTask)
	}

	g.GET("/status", r.getStatus)
}

// authMiddleware checks the api key from the X-API-Key header or the apiKey
// query parameter. With no key configured every request passes.
func (r *Router) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.apiKey == "" {
			c.Next()
			return
		}
		key := c.GetHeader("X-API-Key")
		if key == "" {
			key = c.Query("apiKey")
		}
		if key != r.apiKey {
			httpx.WithRepUnauthorized(c)
			return
		}
		c.Next()
	}
}
