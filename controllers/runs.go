package controllers

import (
	"context"
	"net/http"

	"github.com/BerniceZTT/consultsim/service"
	"github.com/BerniceZTT/consultsim/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StartRunRequest overrides the configured run defaults. Omitted fields keep
// the values from the environment.
type StartRunRequest struct {
	Seed      *int64 `json:"seed"`
	StartYear *int   `json:"startYear"`
	EndYear   *int   `json:"endYear"`
	SlotCount *int   `json:"slotCount"`
}

func (h *Handler) runOptions(req StartRunRequest) service.RunOptions {
	opts := service.RunOptions{
		RunID:     uuid.NewString(),
		Seed:      h.cfg.Seed,
		StartYear: h.cfg.StartYear,
		EndYear:   h.cfg.EndYear,
		SlotCount: h.cfg.SlotCount,
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	if req.StartYear != nil {
		opts.StartYear = *req.StartYear
	}
	if req.EndYear != nil {
		opts.EndYear = *req.EndYear
	}
	if req.SlotCount != nil {
		opts.SlotCount = *req.SlotCount
	}
	return opts
}

// StartRun launches a generation run in the background and answers with its ID.
func (h *Handler) StartRun(c *gin.Context) {
	var req StartRunRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.HandleError(c, utils.CreateBadRequestError("invalid request: "+err.Error()))
			return
		}
	}
	opts := h.runOptions(req)
	if err := opts.Validate(); err != nil {
		utils.HandleError(c, err)
		return
	}

	if !h.busy.CompareAndSwap(false, true) {
		utils.HandleError(c, utils.CreateConflictError("a generation run is already in progress"))
		return
	}

	operator := ""
	if user, err := utils.GetUser(c); err == nil {
		operator = user.Username
	}
	utils.Logger.Info().
		Str("operator", operator).
		Str("run", opts.RunID).
		Int64("seed", opts.Seed).
		Msg("generation run requested")

	go h.execute(opts)

	utils.SuccessResponse(c, gin.H{"runId": opts.RunID}, "run started", http.StatusAccepted)
}

func (h *Handler) execute(opts service.RunOptions) {
	defer h.busy.Store(false)
	if _, err := h.runner.Run(context.Background(), opts); err != nil {
		utils.Logger.Error().Err(err).Str("run", opts.RunID).Msg("background run failed")
	}
}

// ListRuns returns every recorded run, newest first.
func (h *Handler) ListRuns(c *gin.Context) {
	runs, err := h.store.ListRuns(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, runs, "")
}

// GetRun returns one run record.
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.store.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "run", err)
		return
	}
	utils.SuccessResponse(c, run, "")
}

// StartDefaultRun launches a run with the configured defaults unless one is
// already in flight.
func (h *Handler) StartDefaultRun() bool {
	if !h.busy.CompareAndSwap(false, true) {
		return false
	}
	opts := h.runOptions(StartRunRequest{})
	utils.Logger.Info().Str("run", opts.RunID).Msg("generating dataset on start")
	go h.execute(opts)
	return true
}
