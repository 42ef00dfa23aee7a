// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/glimpsed/datecoord/internal/calendar"
	"github.com/glimpsed/datecoord/internal/coordinator"
	"github.com/glimpsed/datecoord/internal/dates"
	"github.com/glimpsed/datecoord/internal/db"
	"github.com/glimpsed/datecoord/internal/model"
)

func NewProposalHandler(svc *dates.Service, coord *coordinator.Coordinator) *ProposalHandler {
	return &ProposalHandler{
		svc:    svc,
		coord:  coord,
		logger: slog.Default().WithGroup("http"),
	}
}

// ProposalHandler exposes the proposal lifecycle as a JSON API.
type ProposalHandler struct {
	svc    *dates.Service
	coord  *coordinator.Coordinator
	logger *slog.Logger
}

type createRequest struct {
	MatchID     string `json:"match_id"`
	MatchName   string `json:"match_name"`
	DateTime    string `json:"date_time"`
	Activity    string `json:"activity"`
	Venue       string `json:"venue"`
	Location    string `json:"location"`
	Description string `json:"description"`
	GlimpseID   string `json:"glimpse_id"`
}

func (h *ProposalHandler) Create(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "ProposalHandler.Create")
	defer span.End()

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request format"})
		return
	}

	proposal, err := h.svc.Propose(ctx, dates.NewProposalInput{
		MatchID:     req.MatchID,
		MatchName:   req.MatchName,
		DateTime:    req.DateTime,
		Activity:    req.Activity,
		Venue:       req.Venue,
		Location:    req.Location,
		Description: req.Description,
		GlimpseID:   req.GlimpseID,
	})
	if err != nil {
		h.writeError(c, span, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "proposal": proposal})
}

func (h *ProposalHandler) Get(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "ProposalHandler.Get")
	defer span.End()

	id, ok := h.proposalID(c)
	if !ok {
		return
	}
	proposal, err := h.svc.Get(ctx, id)
	if err != nil {
		h.writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "proposal": proposal})
}

func (h *ProposalHandler) List(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "ProposalHandler.List")
	defer span.End()

	proposals, err := h.svc.List(ctx, dates.ListFilter{
		MatchID: c.Query("match_id"),
		Status:  model.ProposalStatus(c.Query("status")),
	})
	if err != nil {
		h.writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "proposals": proposals})
}

func (h *ProposalHandler) Delete(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "ProposalHandler.Delete")
	defer span.End()

	id, ok := h.proposalID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(ctx, id); err != nil {
		h.writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type respondRequest struct {
	Side   string `json:"side"`
	Action string `json:"action"`
}

func (h *ProposalHandler) Respond(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "ProposalHandler.Respond")
	defer span.End()

	id, ok := h.proposalID(c)
	if !ok {
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request format"})
		return
	}
	if req.Side == "" {
		req.Side = string(dates.SideUser)
	}

	proposal, err := h.svc.Respond(ctx, id, dates.Side(req.Side), dates.Action(req.Action))
	if err != nil {
		h.writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "proposal": proposal})
}

func (h *ProposalHandler) Coordinate(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "ProposalHandler.Coordinate")
	defer span.End()

	id, ok := h.proposalID(c)
	if !ok {
		return
	}

	result, err := h.coord.Coordinate(ctx, id)
	if err != nil {
		h.writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        result.Success,
		"accommodations": result.Accommodations,
		"errors":         result.Errors,
	})
}

func (h *ProposalHandler) Calendar(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "ProposalHandler.Calendar")
	defer span.End()

	id, ok := h.proposalID(c)
	if !ok {
		return
	}

	proposal, err := h.svc.Get(ctx, id)
	if err != nil {
		h.writeError(c, span, err)
		return
	}

	export, err := calendar.ExportProposal(proposal, c.Request.UserAgent())
	if err != nil {
		h.writeError(c, span, err)
		return
	}

	// Confirmed proposals remember that an invite was handed out; the
	// ICS UID doubles as the event id until a real provider reports one.
	if proposal.Status == model.StatusConfirmed && proposal.CalendarEventID == "" {
		if err := h.svc.RecordCalendarExport(ctx, id, proposal.ID.String()+"@glimpse-dating.app"); err != nil {
			h.logger.WarnContext(ctx, "could not record calendar export", "proposal", id, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "calendar": export})
}

// proposalID parses the :uuid path parameter, answering 404 on garbage
// so unknown and malformed ids are indistinguishable to the caller.
func (h *ProposalHandler) proposalID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "date proposal not found"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *ProposalHandler) writeError(c *gin.Context, span trace.Span, err error) {
	span.RecordError(err)

	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": verr.Error()})
	case errors.Is(err, db.ErrProposalNotFound), errors.Is(err, db.ErrAccommodationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, dates.ErrProposalClosed),
		errors.Is(err, dates.ErrNotReady),
		errors.Is(err, dates.ErrCoordinationInProgress):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
	default:
		h.logger.ErrorContext(c.Request.Context(), "internal error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
	}
}
