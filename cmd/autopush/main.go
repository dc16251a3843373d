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

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/go-arcade/autopush/internal/conf"
	"github.com/go-arcade/autopush/internal/history"
	"github.com/go-arcade/autopush/internal/monitor"
	"github.com/go-arcade/autopush/internal/notify"
	"github.com/go-arcade/autopush/internal/pipeline"
	"github.com/go-arcade/autopush/internal/router"
	"github.com/go-arcade/autopush/internal/scheduler"
	serverhttp "github.com/go-arcade/autopush/internal/server/http"
	"github.com/go-arcade/autopush/internal/task"
	"github.com/go-arcade/autopush/pkg/log"
	"github.com/go-arcade/autopush/pkg/runner"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "conf", "conf.d/config.toml", "conf file path, e.g. -conf conf.d/config.toml")
}

func main() {
	flag.Parse()

	appConf, err := conf.LoadConfigFile(configFile)
	if err != nil {
		panic(err)
	}

	log.MustInit(&appConf.Log)
	log.Infow("starting autopush", "hostname", runner.Hostname, "pwd", runner.Pwd)

	store, err := history.New(appConf.History)
	if err != nil {
		log.Fatalf("open history store: %v", err)
	}

	var notifiers []notify.Notifier
	if appConf.Monitor.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookChannel(appConf.Monitor.WebhookURL, ""))
	}
	mon := monitor.New(appConf.Monitor, notifiers...)

	fetcher := pipeline.NewRestFetcher(appConf.Pipeline.SourceBaseURL)
	generator := pipeline.NewRestGenerator(
		appConf.Pipeline.GeneratorBaseURL,
		appConf.Pipeline.GeneratorToken,
		appConf.Pipeline.GeneratorUserID,
	)
	var publisher pipeline.Publisher
	if appConf.Pipeline.PublisherBaseURL != "" {
		publisher = pipeline.NewRestPublisher(appConf.Pipeline.PublisherBaseURL, appConf.Pipeline.PublisherToken)
	}
	pipe := pipeline.NewComposed(appConf.Pipeline, fetcher, generator, publisher)

	mgr := task.NewManager(appConf.Task, store, mon, pipe)

	sched := scheduler.New()
	registerJobs(sched, appConf, mgr, mon, store)
	sched.Start()

	api := router.NewRouter(appConf.HTTP.APIKey, mgr, store, mon, sched)
	engine := serverhttp.NewHTTPEngine(appConf.HTTP, api, mon)
	httpClean := serverhttp.NewHTTP(appConf.HTTP, engine)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Infow("shutdown signal received", "signal", sig.String())

	httpClean()
	sched.Stop()
	mgr.Wait()
	if err := store.Close(); err != nil {
		log.Errorw("close history store failed", "error", err)
	}
}

// registerJobs wires the standing cron jobs: the daily push run, the hourly
// health probe and the history retention sweep. Outside release mode an
// extra frequent push trigger helps during development.
func registerJobs(sched *scheduler.Scheduler, appConf *conf.AppConfig, mgr *task.Manager, mon *monitor.Monitor, store history.Store) {
	runPush := func() {
		t, err := mgr.Submit(context.Background(), nil)
		if err != nil {
			log.Errorw("scheduled push submit failed", "error", err)
			return
		}
		log.Infow("scheduled push submitted", "task_id", t.ID)
	}

	mustAdd(sched, "push", appConf.Scheduler.PushSpec, runPush)

	mustAdd(sched, "health", appConf.Scheduler.HealthSpec, func() {
		h := mon.HealthCheck()
		log.Infow("health probe", "status", h.Status, "active", h.Active, "has_error", h.HasError)
	})

	mustAdd(sched, "cleanup", appConf.Scheduler.CleanupSpec, func() {
		removed, err := store.CleanupOldRecords(context.Background(), appConf.History.RetentionDays)
		if err != nil {
			log.Errorw("history cleanup failed", "error", err)
			return
		}
		log.Infow("history cleanup finished", "removed", removed)
	})

	if appConf.HTTP.Mode != gin.ReleaseMode {
		mustAdd(sched, "push-fast", appConf.Scheduler.FastSpec, runPush)
	}
}

func mustAdd(sched *scheduler.Scheduler, name, spec string, fn func()) {
	if err := sched.AddTask(name, spec, fn); err != nil {
		log.Fatalf("register job %s: %v", name, err)
	}
}
