package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/tollgrid/pathways-backend/internal/domain/aggregates"
	"github.com/tollgrid/pathways-backend/internal/platform/logger"
	"github.com/tollgrid/pathways-backend/internal/services"
)

type PathwayHandler struct {
	log            *logger.Logger
	pathwayService services.PathwayService
}

func NewPathwayHandler(log *logger.Logger, pathwayService services.PathwayService) *PathwayHandler {
	return &PathwayHandler{
		log:            log.With("handler", "PathwayHandler"),
		pathwayService: pathwayService,
	}
}

type optionPayloadRequest struct {
	Name               *string  `json:"name"`
	Description        *string  `json:"description"`
	DistanceKm         *float64 `json:"distanceKm"`
	TypicalTimeMin     *int     `json:"typicalTimeMin"`
	AvgSpeedKmh        *int     `json:"avgSpeedKmh"`
	IsDefault          *bool    `json:"isDefault"`
	IsPassThrough      *bool    `json:"isPassThrough"`
	PassThroughTimeMin *int     `json:"passThroughTimeMin"`
	Active             *bool    `json:"active"`
}

func (r optionPayloadRequest) toPayload() domainagg.OptionPayload {
	return domainagg.OptionPayload{
		Name:               r.Name,
		Description:        r.Description,
		DistanceKm:         r.DistanceKm,
		TypicalTimeMin:     r.TypicalTimeMin,
		AvgSpeedKmh:        r.AvgSpeedKmh,
		IsDefault:          r.IsDefault,
		IsPassThrough:      r.IsPassThrough,
		PassThroughTimeMin: r.PassThroughTimeMin,
		Active:             r.Active,
	}
}

type tollInputRequest struct {
	NodeID      uuid.UUID `json:"nodeId"`
	DistanceKm  *float64  `json:"distanceKm"`
	PassTimeMin *int      `json:"passTimeMin"`
	Sequence    *int      `json:"sequence"`
}

func tollInputs(reqs []tollInputRequest) []domainagg.TollInput {
	out := make([]domainagg.TollInput, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, domainagg.TollInput{
			NodeID:      r.NodeID,
			DistanceKm:  r.DistanceKm,
			PassTimeMin: r.PassTimeMin,
			Sequence:    r.Sequence,
		})
	}
	return out
}

// GET /api/pathways
func (h *PathwayHandler) ListPathways(c *gin.Context) {
	var in services.ListPathwaysInput
	if raw := c.Query("originCityId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondBadRequest(c, "invalid originCityId")
			return
		}
		in.OriginCityID = id
	}
	if raw := c.Query("destinationCityId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondBadRequest(c, "invalid destinationCityId")
			return
		}
		in.DestinationCityID = id
	}
	in.ActiveOnly = c.Query("activeOnly") == "true"

	rows, err := h.pathwayService.ListPathways(c.Request.Context(), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"pathways": rows})
}

// GET /api/pathways/:id
func (h *PathwayHandler) GetPathway(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "invalid pathway id")
		return
	}
	detail, err := h.pathwayService.GetPathway(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, detail)
}

// GET /api/pathways/:id/options/:optionId/tolls
func (h *PathwayHandler) GetOptionTolls(c *gin.Context) {
	pathwayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "invalid pathway id")
		return
	}
	optionID, err := uuid.Parse(c.Param("optionId"))
	if err != nil {
		RespondBadRequest(c, "invalid option id")
		return
	}
	tolls, err := h.pathwayService.GetOptionTolls(c.Request.Context(), pathwayID, optionID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"tolls": tolls})
}

type createPathwayRequest struct {
	OriginNodeID      uuid.UUID      `json:"originNodeId"`
	DestinationNodeID uuid.UUID      `json:"destinationNodeId"`
	Name              string         `json:"name"`
	Code              string         `json:"code"`
	Description       string         `json:"description"`
	IsSellable        bool           `json:"isSellable"`
	IsEmptyTrip       bool           `json:"isEmptyTrip"`
	Metadata          map[string]any `json:"metadata"`
}

// POST /api/pathways
func (h *PathwayHandler) CreatePathway(c *gin.Context) {
	var req createPathwayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "invalid request body")
		return
	}
	snap, err := h.pathwayService.CreatePathway(c.Request.Context(), domainagg.CreatePathwayInput{
		OriginNodeID:      req.OriginNodeID,
		DestinationNodeID: req.DestinationNodeID,
		Name:              req.Name,
		Code:              req.Code,
		Description:       req.Description,
		IsSellable:        req.IsSellable,
		IsEmptyTrip:       req.IsEmptyTrip,
		Metadata:          req.Metadata,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, snap)
}

type updatePathwayRequest struct {
	OriginNodeID      *uuid.UUID     `json:"originNodeId"`
	DestinationNodeID *uuid.UUID     `json:"destinationNodeId"`
	Name              *string        `json:"name"`
	Code              *string        `json:"code"`
	Description       *string        `json:"description"`
	IsSellable        *bool          `json:"isSellable"`
	IsEmptyTrip       *bool          `json:"isEmptyTrip"`
	Active            *bool          `json:"active"`
	Metadata          map[string]any `json:"metadata"`
}

// PATCH /api/pathways/:id
func (h *PathwayHandler) UpdatePathway(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "invalid pathway id")
		return
	}
	var req updatePathwayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "invalid request body")
		return
	}
	snap, err := h.pathwayService.UpdatePathway(c.Request.Context(), domainagg.UpdatePathwayInput{
		PathwayID:         id,
		OriginNodeID:      req.OriginNodeID,
		DestinationNodeID: req.DestinationNodeID,
		Name:              req.Name,
		Code:              req.Code,
		Description:       req.Description,
		IsSellable:        req.IsSellable,
		IsEmptyTrip:       req.IsEmptyTrip,
		Active:            req.Active,
		Metadata:          req.Metadata,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, snap)
}

// POST /api/pathways/:id/options
func (h *PathwayHandler) AddOption(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "invalid pathway id")
		return
	}
	var req optionPayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "invalid request body")
		return
	}
	snap, err := h.pathwayService.AddOption(c.Request.Context(), domainagg.AddOptionInput{
		PathwayID: id,
		Option:    req.toPayload(),
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, snap)
}

// PATCH /api/pathways/:id/options/:optionId
func (h *PathwayHandler) UpdateOption(c *gin.Context) {
	pathwayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "invalid pathway id")
		return
	}
	optionID, err := uuid.Parse(c.Param("optionId"))
	if err != nil {
		RespondBadRequest(c, "invalid option id")
		return
	}
	var req optionPayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "invalid request body")
		return
	}
	snap, err := h.pathwayService.UpdateOption(c.Request.Context(), domainagg.UpdateOptionInput{
		PathwayID: pathwayID,
		OptionID:  optionID,
		Option:    req.toPayload(),
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, snap)
}

// DELETE /api/pathways/:id/options/:optionId
func (h *PathwayHandler) RemoveOption(c *gin.Context) {
	pathwayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "invalid pathway id")
		return
	}
	optionID, err := uuid.Parse(c.Param("optionId"))
	if err != nil {
		RespondBadRequest(c, "invalid option id")
		return
	}
	snap, err := h.pathwayService.RemoveOption(c.Request.Context(), domainagg.RemoveOptionInput{
		PathwayID: pathwayID,
		OptionID:  optionID,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, snap)
}

// POST /api/pathways/:id/options/:optionId/default
func (h *PathwayHandler) SetDefaultOption(c *gin.Context) {
	pathwayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "invalid pathway id")
		return
	}
	optionID, err := uuid.Parse(c.Param("optionId"))
	if err != nil {
		RespondBadRequest(c, "invalid option id")
		return
	}
	snap, err := h.pathwayService.SetDefaultOption(c.Request.Context(), domainagg.SetDefaultOptionInput{
		PathwayID: pathwayID,
		OptionID:  optionID,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, snap)
}

type syncTollsRequest struct {
	Tolls []tollInputRequest `json:"tolls"`
}

// PUT /api/pathways/:id/options/:optionId/tolls
func (h *PathwayHandler) SyncOptionTolls(c *gin.Context) {
	pathwayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "invalid pathway id")
		return
	}
	optionID, err := uuid.Parse(c.Param("optionId"))
	if err != nil {
		RespondBadRequest(c, "invalid option id")
		return
	}
	var req syncTollsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "invalid request body")
		return
	}
	snap, err := h.pathwayService.SyncOptionTolls(c.Request.Context(), domainagg.SyncOptionTollsInput{
		PathwayID: pathwayID,
		OptionID:  optionID,
		Tolls:     tollInputs(req.Tolls),
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, snap)
}

type bulkOptionRequest struct {
	ID *uuid.UUID `json:"id"`
	optionPayloadRequest
	Tolls *[]tollInputRequest `json:"tolls"`
}

type bulkSyncRequest struct {
	ExpectedVersion *int                `json:"expectedVersion"`
	Options         []bulkOptionRequest `json:"options"`
}

// PUT /api/pathways/:id/options
func (h *PathwayHandler) BulkSyncOptions(c *gin.Context) {
	pathwayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "invalid pathway id")
		return
	}
	var req bulkSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "invalid request body")
		return
	}
	entries := make([]domainagg.BulkOptionInput, 0, len(req.Options))
	for _, o := range req.Options {
		entry := domainagg.BulkOptionInput{
			ID:     o.ID,
			Option: o.toPayload(),
		}
		if o.Tolls != nil {
			ts := tollInputs(*o.Tolls)
			entry.Tolls = &ts
		}
		entries = append(entries, entry)
	}
	res, err := h.pathwayService.BulkSyncOptions(c.Request.Context(), domainagg.BulkSyncOptionsInput{
		PathwayID:       pathwayID,
		ExpectedVersion: req.ExpectedVersion,
		Options:         entries,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, res)
}
