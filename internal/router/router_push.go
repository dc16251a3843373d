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

package router

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/go-arcade/autopush/internal/history"
	"github.com/go-arcade/autopush/internal/model"
	"github.com/go-arcade/autopush/pkg/httpx"
	"github.com/go-arcade/autopush/pkg/log"
)

type submitPushReq struct {
	Params model.Params `json:"params"`
}

// submitPush accepts a manual pipeline run. The task executes asynchronously;
// the response carries the pending record for progress polling.
func (r *Router) submitPush(c *gin.Context) {
	// ContentLength is -1 for chunked bodies; only 0 means no body at all.
	var req submitPushReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.WithRepErrMsg(c, httpx.BadRequest.Code, "invalid request body", c.Request.URL.Path)
			return
		}
	}

	task, err := r.mgr.Submit(c.Request.Context(), req.Params)
	if err != nil {
		log.Errorw("submit push task failed", "error", err)
		httpx.WithRepErrMsg(c, httpx.InternalError.Code, "failed to submit task", c.Request.URL.Path)
		return
	}
	httpx.WithRepAccepted(c, task)
}

func (r *Router) getTask(c *gin.Context) {
	task, err := r.mgr.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, history.ErrTaskNotFound) {
			httpx.WithRepNotFound(c, "task not found")
			return
		}
		log.Errorw("get task failed", "task_id", c.Param("id"), "error", err)
		httpx.WithRepErrMsg(c, httpx.InternalError.Code, "failed to query task", c.Request.URL.Path)
		return
	}
	httpx.WithRep(c, task)
}

// cancelTask cancels a pending or running task. Cancellation is advisory: an
// in-flight attempt completes on its own and its result is discarded.
func (r *Router) cancelTask(c *gin.Context) {
	task, err := r.mgr.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, history.ErrTaskNotFound) {
			httpx.WithRepNotFound(c, "task not found or already finished")
			return
		}
		log.Errorw("cancel task failed", "task_id", c.Param("id"), "error", err)
		httpx.WithRepErrMsg(c, httpx.InternalError.Code, "failed to cancel task", c.Request.URL.Path)
		return
	}
	httpx.WithRep(c, task)
}

type historyQuery struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=10"`
	Status string `form:"status"`
}

func (r *Router) getHistory(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpx.WithRepErrMsg(c, httpx.BadRequest.Code, "invalid query parameters", c.Request.URL.Path)
		return
	}

	status := model.TaskStatus(q.Status)
	if q.Status != "" && !status.Valid() {
		httpx.WithRepErrMsg(c, httpx.BadRequest.Code, "unknown status filter", c.Request.URL.Path)
		return
	}

	page, err := r.store.GetHistory(c.Request.Context(), history.Query{
		Page:   q.Page,
		Limit:  q.Limit,
		Status: status,
	})
	if err != nil {
		log.Errorw("query history failed", "error", err)
		httpx.WithRepErrMsg(c, httpx.InternalError.Code, "failed to query history", c.Request.URL.Path)
		return
	}
	httpx.WithRep(c, page)
}

func (r *Router) getHistoryStats(c *gin.Context) {
	stats, err := r.store.StatusStats(c.Request.Context())
	if err != nil {
		log.Errorw("query history stats failed", "error", err)
		httpx.WithRepErrMsg(c, httpx.InternalError.Code, "failed to query stats", c.Request.URL.Path)
		return
	}
	httpx.WithRep(c, stats)
}

// getStatus reports the service state: monitor counters, scheduler jobs and
// the number of in-flight tasks.
func (r *Router) getStatus(c *gin.Context) {
	httpx.WithRep(c, gin.H{
		"monitor":     r.mon.Status(),
		"scheduler":   r.sched.Status(),
		"activeTasks": r.mgr.ActiveCount(),
	})
}
