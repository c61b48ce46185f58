// Package errors defines sentinel errors for all RPCs. Return these unwrapped — wrapping changes the gRPC code on the wire.
package errors

import "github.com/heroiclabs/nakama-common/runtime"

// gRPC status codes.
const (
	CodeInternal           = 13 // codes.Internal
	CodeInvalidArg         = 3  // codes.InvalidArgument
	CodeForbidden          = 7  // codes.PermissionDenied
	CodeNotFound           = 5  // codes.NotFound
	CodeFailedPrecondition = 9  // codes.FailedPrecondition
	CodeUnavailable        = 14 // codes.Unavailable
	CodeUnauthenticated    = 16 // codes.Unauthenticated
)

// Unified error definitions, grouped by the gRPC family they map to.
var (
	// Internal errors (code 13)
	ErrInternalError        = runtime.NewError("internal server error", CodeInternal)
	ErrMarshal              = runtime.NewError("cannot marshal type", CodeInternal)
	ErrUnmarshal            = runtime.NewError("cannot unmarshal type", CodeInternal)
	ErrCouldNotReadStorage  = runtime.NewError("could not read storage", CodeInternal)
	ErrCouldNotWriteStorage = runtime.NewError("could not write storage", CodeInternal)
	ErrGatewayConflict      = runtime.NewError("session changed mid-transaction, retry", CodeInternal)

	// Invalid argument / validation errors (code 3)
	ErrNoUserIDFound       = runtime.NewError("no user ID in context", CodeInvalidArg)
	ErrValidation          = runtime.NewError("VALIDATION", CodeInvalidArg)
	ErrSelfChallenge       = runtime.NewError("cannot challenge yourself", CodeInvalidArg)
	ErrVideoTooLong        = runtime.NewError("VIDEO_TOO_LONG", CodeInvalidArg)
	ErrVideoDomain         = runtime.NewError("video URL is not from a trusted storage domain", CodeInvalidArg)
	ErrTrickDescription    = runtime.NewError("trick description must be 1-500 characters", CodeInvalidArg)
	ErrResponseRequired    = runtime.NewError("RESPONSE_REQUIRED", CodeInvalidArg)
	ErrAlreadyJudged       = runtime.NewError("ALREADY_JUDGED", CodeInvalidArg)
	ErrDisputeQuotaUsed    = runtime.NewError("DISPUTE_QUOTA_USED", CodeInvalidArg)
	ErrDisputeWrongJudg    = runtime.NewError("only a BAIL judgment may be disputed", CodeInvalidArg)
	ErrDisputeAlreadyDone  = runtime.NewError("dispute already resolved", CodeInvalidArg)
	ErrRoomFull            = runtime.NewError("room_full", CodeInvalidArg)
	ErrInvalidJudgment     = runtime.NewError("judgment result must be landed or missed", CodeInvalidArg)

	// NotFound errors (code 5)
	ErrGameNotFound    = runtime.NewError("GAME_NOT_FOUND", CodeNotFound)
	ErrOpponentNotFound = runtime.NewError("opponent not found", CodeNotFound)
	ErrTurnNotFound    = runtime.NewError("turn not found", CodeNotFound)
	ErrDisputeNotFound = runtime.NewError("dispute not found", CodeNotFound)

	// Forbidden errors (code 7)
	ErrNotAPlayer   = runtime.NewError("NOT_A_PLAYER", CodeForbidden)
	ErrNotYourTurn  = runtime.NewError("NOT_YOUR_TURN", CodeForbidden)
	ErrWrongActor   = runtime.NewError("wrong actor for this operation", CodeForbidden)
	ErrNotRespondent = runtime.NewError("only the respondent may resolve this dispute", CodeForbidden)
	ErrForbiddenView = runtime.NewError("not authorized to view this resource", CodeForbidden)

	// Precondition / conflict errors (code 9)
	ErrWrongPhase      = runtime.NewError("WRONG_PHASE", CodeFailedPrecondition)
	ErrDeadlinePassed  = runtime.NewError("DEADLINE_PASSED", CodeFailedPrecondition)
	ErrNotPending      = runtime.NewError("game is not pending", CodeFailedPrecondition)
	ErrNotActive       = runtime.NewError("game is not active", CodeFailedPrecondition)
	ErrNotYetExpired   = runtime.NewError("session has not yet passed its deadline", CodeFailedPrecondition)
	ErrNotYetStalled   = runtime.NewError("session has not yet reached the hard cap", CodeFailedPrecondition)

	// Unavailable errors (code 14)
	ErrStorageUnavailable = runtime.NewError("service_unavailable", CodeUnavailable)
)
