package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/autocrm-backend/internal/domain/support"
	"github.com/yungbote/autocrm-backend/internal/http/response"
	apperr "github.com/yungbote/autocrm-backend/internal/pkg/errors"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/services"
)

type TicketHandler struct {
	log     *logger.Logger
	tickets services.TicketService
}

func NewTicketHandler(log *logger.Logger, tickets services.TicketService) *TicketHandler {
	return &TicketHandler{log: log.With("handler", "TicketHandler"), tickets: tickets}
}

type createTicketReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type messageReq struct {
	Content string `json:"content"`
}

type statusReq struct {
	Status string `json:"status"`
}

type assignReq struct {
	AssignedTo *uuid.UUID `json:"assigned_to"`
}

// GET /api/tickets?status=&priority=&assigned_to=&limit=&offset=
func (h *TicketHandler) List(c *gin.Context) {
	in := services.ListTicketsInput{
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		st, ok := support.ParseTicketStatus(raw)
		if !ok {
			response.RespondServiceError(c, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidArgument, raw))
			return
		}
		in.Status = st
	}
	if raw := c.Query("priority"); raw != "" {
		p, ok := support.ParsePriority(raw)
		if !ok {
			response.RespondServiceError(c, fmt.Errorf("%w: unknown priority %q", apperr.ErrInvalidArgument, raw))
			return
		}
		in.Priority = p
	}
	if raw := c.Query("assigned_to"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondServiceError(c, fmt.Errorf("%w: invalid assigned_to", apperr.ErrInvalidArgument))
			return
		}
		in.AssignedTo = &id
	}
	list, err := h.tickets.ListTickets(c.Request.Context(), in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tickets": list})
}

// POST /api/tickets
func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	detail, err := h.tickets.CreateTicket(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, detail)
}

// GET /api/tickets/:id
func (h *TicketHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	detail, err := h.tickets.GetTicket(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

// POST /api/tickets/:id/messages
// Customers get an assistant reply; staff messages are stored as-is.
func (h *TicketHandler) AddMessage(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	var req messageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("content is required"))
		return
	}
	ctx := c.Request.Context()
	if callerIsStaff(c) {
		msg, err := h.tickets.AddWorkerMessage(ctx, id, req.Content)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondCreated(c, gin.H{"message": msg})
		return
	}
	ex, err := h.tickets.AddCustomerMessage(ctx, id, req.Content)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, ex)
}

// PATCH /api/tickets/:id/status
func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	st, ok := support.ParseTicketStatus(req.Status)
	if !ok {
		response.RespondServiceError(c, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidArgument, req.Status))
		return
	}
	t, err := h.tickets.UpdateStatus(c.Request.Context(), id, st)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ticket": t})
}

// PATCH /api/tickets/:id/assign
func (h *TicketHandler) Assign(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	t, err := h.tickets.Assign(c.Request.Context(), id, req.AssignedTo)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ticket": t})
}

// POST /api/tickets/:id/reopen
func (h *TicketHandler) Reopen(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	t, err := h.tickets.Reopen(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ticket": t})
}
