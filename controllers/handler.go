package controllers

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/BerniceZTT/consultsim/config"
	"github.com/BerniceZTT/consultsim/repository"
	"github.com/BerniceZTT/consultsim/service"
	"github.com/BerniceZTT/consultsim/utils"

	"github.com/gin-gonic/gin"
)

// Handler serves the read API over a generated dataset and lets an operator
// start new generation runs.
type Handler struct {
	store  repository.Store
	runner *service.Runner
	cfg    *config.Config

	// busy is set while a generation run is in flight. Only one run may
	// write to the store at a time.
	busy atomic.Bool
}

// NewHandler creates a Handler.
func NewHandler(store repository.Store, runner *service.Runner, cfg *config.Config) *Handler {
	return &Handler{
		store:  store,
		runner: runner,
		cfg:    cfg,
	}
}

// respondError maps storage errors onto API errors before writing them.
func respondError(c *gin.Context, resource string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		utils.HandleError(c, utils.CreateNotFoundError(resource))
		return
	}
	utils.HandleError(c, err)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "running": h.busy.Load()})
}

// DBStatus reports the document count of every collection.
func (h *Handler) DBStatus(c *gin.Context) {
	counts := make(map[string]int64, len(repository.Collections))
	for _, name := range repository.Collections {
		n, err := h.store.Count(c.Request.Context(), name)
		if err != nil {
			utils.ErrorResponse(c, "read storage status: "+err.Error(), http.StatusInternalServerError)
			return
		}
		counts[name] = n
	}
	c.JSON(http.StatusOK, gin.H{
		"driver":      h.cfg.StoreDriver,
		"collections": counts,
	})
}
