package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var PathwayAggregateContract = Contract{
	Name:             "Transit.PathwayAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes: "Owns atomic pathway/option/toll consistency: default-option election, " +
		"last-option protection, activation preconditions, toll sequencing.",
}

// Field violation codes raised by pathway/option/toll validation passes.
const (
	ViolationRequired                 = "required"
	ViolationOriginEqualsDestination  = "origin_equals_destination"
	ViolationEmptyTripSellable        = "empty_trip_sellable_conflict"
	ViolationPassThroughTimeRequired  = "pass_through_time_required"
	ViolationDuplicateNode            = "duplicate_node"
	ViolationConsecutiveDuplicateNode = "consecutive_duplicate_node"
	ViolationMultipleDefaults         = "multiple_defaults"
	ViolationDefaultMustBeActive      = "default_must_be_active"
	ViolationNodeNotFound             = "node_not_found"
	ViolationUnknownOption            = "unknown_option"
	ViolationNoDefaultOption          = "no_default_option"
	ViolationNoOptionsWhileActive     = "no_options_while_active"
)

// PathwayAggregate owns every multi-entity pathway write.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeInvariantViolation,
// CodePreconditionFailed, CodeRetryable, CodeInternal. Validation errors
// carry the full list of field violations collected in one pass.
//
// Every mutating operation returns a fresh snapshot of post-mutation state;
// snapshots are plain values and never re-read the store when inspected.
type PathwayAggregate interface {
	Aggregate

	// CreatePathway validates and persists a new pathway. The pathway is
	// always created inactive regardless of caller input.
	CreatePathway(ctx context.Context, in CreatePathwayInput) (PathwaySnapshot, error)

	// UpdatePathway patches pathway fields. Requesting active=true requires
	// at least one non-deleted option. Changing either endpoint re-derives
	// the city ids from the new nodes.
	UpdatePathway(ctx context.Context, in UpdatePathwayInput) (PathwaySnapshot, error)

	// AddOption appends one option. The first option ever added becomes the
	// default unless the payload says otherwise.
	AddOption(ctx context.Context, in AddOptionInput) (OptionSnapshot, error)

	// RemoveOption soft-deletes one option. Refuses to remove the default
	// option, and refuses to remove the sole option of an active pathway.
	RemoveOption(ctx context.Context, in RemoveOptionInput) (PathwaySnapshot, error)

	// UpdateOption patches one option after an ownership check, re-deriving
	// avg speed when distance/time change without an explicit speed.
	UpdateOption(ctx context.Context, in UpdateOptionInput) (OptionSnapshot, error)

	// SetDefaultOption atomically moves the default flag. No-op when the
	// option is already the default.
	SetDefaultOption(ctx context.Context, in SetDefaultOptionInput) (PathwaySnapshot, error)

	// SyncOptionTolls destructively replaces the option's toll list and
	// assigns 1-based contiguous sequences from input order. An empty input
	// clears all tolls.
	SyncOptionTolls(ctx context.Context, in SyncOptionTollsInput) (OptionSnapshot, error)

	// BulkSyncOptions reconciles the pathway's entire option set (with
	// nested toll sets) in one transaction: deletes absent options, updates
	// matched ones, creates id-less entries, then resolves the default.
	BulkSyncOptions(ctx context.Context, in BulkSyncOptionsInput) (BulkSyncResult, error)
}

type CreatePathwayInput struct {
	OriginNodeID      uuid.UUID
	DestinationNodeID uuid.UUID
	Name              string
	Code              string
	Description       string
	IsSellable        bool
	IsEmptyTrip       bool
	Metadata          map[string]any
}

type UpdatePathwayInput struct {
	PathwayID         uuid.UUID
	OriginNodeID      *uuid.UUID
	DestinationNodeID *uuid.UUID
	Name              *string
	Code              *string
	Description       *string
	IsSellable        *bool
	IsEmptyTrip       *bool
	Active            *bool
	Metadata          map[string]any
}

// OptionPayload carries caller-supplied option fields. Nil pointers mean
/// "not provided": on create they fall back to defaults, on update they leave
// the stored value untouched.
type OptionPayload struct {
	Name               *string
	Description        *string
	DistanceKm         *float64
	TypicalTimeMin     *int
	AvgSpeedKmh        *int
	IsDefault          *bool
	IsPassThrough      *bool
	PassThroughTimeMin *int
	Active             *bool
}

type AddOptionInput struct {
	PathwayID uuid.UUID
	Option    OptionPayload
}

type UpdateOptionInput struct {
	PathwayID uuid.UUID
	OptionID  uuid.UUID
	Option    OptionPayload
}

type RemoveOptionInput struct {
	PathwayID uuid.UUID
	OptionID  uuid.UUID
}

type SetDefaultOptionInput struct {
	PathwayID uuid.UUID
	OptionID  uuid.UUID
}

// TollInput is one toll stop in input order. Sequence values present in the
// payload are ignored; position in the slice is authoritative.
type TollInput struct {
	NodeID      uuid.UUID
	DistanceKm  *float64
	PassTimeMin *int
	Sequence    *int
}

type SyncOptionTollsInput struct {
	PathwayID uuid.UUID
	OptionID  uuid.UUID
	Tolls     []TollInput
}

// BulkOptionInput is one entry of a bulk sync payload. A nil ID means
// create; a non-nil ID must match a current option. A nil Tolls pointer
// leaves that option's tolls untouched; a non-nil (possibly empty) slice
// destructively replaces them.
type BulkOptionInput struct {
	ID     *uuid.UUID
	Option OptionPayload
	Tolls  *[]TollInput
}

// BulkSyncOptionsInput reconciles a pathway's full option set. When
// ExpectedVersion is set, the sync is rejected with a conflict if another
// sync bumped the pathway version since the caller last read it.
type BulkSyncOptionsInput struct {
	PathwayID       uuid.UUID
	ExpectedVersion *int
	Options         []BulkOptionInput
}

type PathwaySnapshot struct {
	ID                uuid.UUID        `json:"id"`
	OriginNodeID      uuid.UUID        `json:"origin_node_id"`
	DestinationNodeID uuid.UUID        `json:"destination_node_id"`
	OriginCityID      uuid.UUID        `json:"origin_city_id"`
	DestinationCityID uuid.UUID        `json:"destination_city_id"`
	Name              string           `json:"name"`
	Code              string           `json:"code"`
	Description       string           `json:"description,omitempty"`
	IsSellable        bool             `json:"is_sellable"`
	IsEmptyTrip       bool             `json:"is_empty_trip"`
	Active            bool             `json:"active"`
	Version           int              `json:"version"`
	Metadata          map[string]any   `json:"metadata,omitempty"`
	Options           []OptionSnapshot `json:"options,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

type OptionSnapshot struct {
	ID                 uuid.UUID      `json:"id"`
	PathwayID          uuid.UUID      `json:"pathway_id"`
	Name               string         `json:"name"`
	Description        string         `json:"description,omitempty"`
	DistanceKm         float64        `json:"distance_km"`
	TypicalTimeMin     int            `json:"typical_time_min"`
	AvgSpeedKmh        int            `json:"avg_speed_kmh"`
	IsDefault          bool           `json:"is_default"`
	IsPassThrough      bool           `json:"is_pass_through"`
	PassThroughTimeMin *int           `json:"pass_through_time_min,omitempty"`
	Sequence           int            `json:"sequence"`
	Active             bool           `json:"active"`
	Tolls              []TollSnapshot `json:"tolls,omitempty"`
}

type TollSnapshot struct {
	ID              uuid.UUID `json:"id"`
	PathwayOptionID uuid.UUID `json:"pathway_option_id"`
	NodeID          uuid.UUID `json:"node_id"`
	Sequence        int       `json:"sequence"`
	DistanceKm      *float64  `json:"distance_km,omitempty"`
	PassTimeMin     *int      `json:"pass_time_min,omitempty"`
}

type BulkSyncResult struct {
	PathwayID       uuid.UUID        `json:"pathway_id"`
	Options         []OptionSnapshot `json:"options"`
	Created         int              `json:"created"`
	Updated         int              `json:"updated"`
	Deleted         int              `json:"deleted"`
	DefaultOptionID uuid.UUID        `json:"default_option_id"`
	SyncedAt        time.Time        `json:"synced_at"`
}
