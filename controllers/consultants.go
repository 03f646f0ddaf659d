package controllers

import (
	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/repository"
	"github.com/BerniceZTT/consultsim/utils"

	"github.com/gin-gonic/gin"
)

// ListConsultants pages through consultants in ID order.
func (h *Handler) ListConsultants(c *gin.Context) {
	ctx := c.Request.Context()
	page, limit := utils.ParsePagination(c)

	total, err := h.store.Count(ctx, repository.ConsultantsCollection)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	consultants, err := h.store.ListConsultants(ctx, repository.Page{Limit: limit, Offset: (page - 1) * limit})
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if consultants == nil {
		consultants = []models.Consultant{}
	}
	utils.PaginatedResponse(c, consultants, total, page, limit)
}

// GetConsultant returns a consultant with title history, payroll and project memberships.
func (h *Handler) GetConsultant(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	consultant, err := h.store.GetConsultant(ctx, id)
	if err != nil {
		respondError(c, "consultant", err)
		return
	}
	history, err := h.store.ListTitleHistory(ctx, repository.TitleHistoryQuery{ConsultantID: id})
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	payroll, err := h.store.ListPayroll(ctx, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	memberships, err := h.store.ListMemberships(ctx, repository.MembershipQuery{ConsultantID: id})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, models.ConsultantDetail{
		Consultant:   *consultant,
		TitleHistory: history,
		Payroll:      payroll,
		Projects:     memberships,
	}, "")
}
