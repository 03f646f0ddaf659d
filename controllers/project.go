package controllers

import (
	"strconv"

	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/repository"
	"github.com/BerniceZTT/consultsim/utils"

	"github.com/gin-gonic/gin"
)

var projectStatuses = map[string]models.ProjectStatus{
	string(models.StatusNotStarted): models.StatusNotStarted,
	string(models.StatusInProgress): models.StatusInProgress,
	string(models.StatusCompleted):  models.StatusCompleted,
}

// projectQuery reads the status and year filters of a project listing.
func projectQuery(c *gin.Context) (repository.ProjectQuery, error) {
	var q repository.ProjectQuery
	if s := c.Query("status"); s != "" {
		status, ok := projectStatuses[s]
		if !ok {
			return q, utils.CreateBadRequestError("unknown status " + strconv.Quote(s))
		}
		q.Status = status
	}
	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil || year <= 0 {
			return q, utils.CreateBadRequestError("year must be a positive integer")
		}
		q.StartYear = year
	}
	return q, nil
}

// GetAllProjects pages through projects, optionally filtered by status and start year.
func (h *Handler) GetAllProjects(c *gin.Context) {
	ctx := c.Request.Context()
	q, err := projectQuery(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	total, err := h.store.CountProjects(ctx, q)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	page, limit := utils.ParsePagination(c)
	q.Page = repository.Page{Limit: limit, Offset: (page - 1) * limit}
	projects, err := h.store.ListProjects(ctx, q)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	utils.PaginatedResponse(c, projects, total, page, limit)
}

// GetProjectDetail returns a project with its team, deliverables, rates and expenses.
func (h *Handler) GetProjectDetail(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	project, err := h.store.GetProject(ctx, id)
	if err != nil {
		respondError(c, "project", err)
		return
	}
	detail := models.ProjectDetail{Project: *project}

	if detail.Team, err = h.store.ListMemberships(ctx, repository.MembershipQuery{ProjectID: id}); err != nil {
		utils.HandleError(c, err)
		return
	}
	if detail.Deliverables, err = h.store.ListDeliverables(ctx, id); err != nil {
		utils.HandleError(c, err)
		return
	}
	if detail.BillingRates, err = h.store.ListBillingRates(ctx, id); err != nil {
		utils.HandleError(c, err)
		return
	}
	if detail.Expenses, err = h.store.ListExpenses(ctx, repository.ExpenseQuery{ProjectID: id}); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, detail, "")
}

// GetProjectsByUnit counts projects per business unit for one start year.
func (h *Handler) GetProjectsByUnit(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year <= 0 {
		utils.HandleError(c, utils.CreateBadRequestError("year must be a positive integer"))
		return
	}
	counts, err := h.store.CountProjectsByUnit(c.Request.Context(), year)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"year": year, "projects": counts}, "")
}
