package service

import (
	"net/http"

	"connectrpc.com/connect"
)

const (
	// TrackerServiceName is the fully-qualified name of the TrackerService service.
	TrackerServiceName = "tabsettle.v1.TrackerService"
	// AuthServiceName is the fully-qualified name of the AuthService service.
	AuthServiceName = "tabsettle.v1.AuthService"
)

// Procedure paths, as they appear in the URL path and in Spec().Procedure.
const (
	TrackerServiceRegisterParticipantProcedure = "/tabsettle.v1.TrackerService/RegisterParticipant"
	TrackerServiceRecordExpenseProcedure       = "/tabsettle.v1.TrackerService/RecordExpense"
	TrackerServiceRecordSplitProcedure         = "/tabsettle.v1.TrackerService/RecordSplit"
	TrackerServiceSettleProcedure              = "/tabsettle.v1.TrackerService/Settle"
	TrackerServicePreviewSettlementProcedure   = "/tabsettle.v1.TrackerService/PreviewSettlement"
	TrackerServiceGetSnapshotProcedure         = "/tabsettle.v1.TrackerService/GetSnapshot"
	TrackerServiceListRoundsProcedure          = "/tabsettle.v1.TrackerService/ListRounds"
	TrackerServiceMintProcedure                = "/tabsettle.v1.TrackerService/Mint"
	TrackerServiceApproveProcedure             = "/tabsettle.v1.TrackerService/Approve"

	AuthServiceLoginProcedure = "/tabsettle.v1.AuthService/Login"
)

// PublicProcedures never require a coordinator token: login and the read-only calls.
var PublicProcedures = []string{
	AuthServiceLoginProcedure,
	TrackerServicePreviewSettlementProcedure,
	TrackerServiceGetSnapshotProcedure,
	TrackerServiceListRoundsProcedure,
}

// NewTrackerServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewTrackerServiceHandler(svc *TrackerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(TrackerServiceRegisterParticipantProcedure, connect.NewUnaryHandler(
		TrackerServiceRegisterParticipantProcedure, svc.RegisterParticipant, opts...))
	mux.Handle(TrackerServiceRecordExpenseProcedure, connect.NewUnaryHandler(
		TrackerServiceRecordExpenseProcedure, svc.RecordExpense, opts...))
	mux.Handle(TrackerServiceRecordSplitProcedure, connect.NewUnaryHandler(
		TrackerServiceRecordSplitProcedure, svc.RecordSplit, opts...))
	mux.Handle(TrackerServiceSettleProcedure, connect.NewUnaryHandler(
		TrackerServiceSettleProcedure, svc.Settle, opts...))
	mux.Handle(TrackerServicePreviewSettlementProcedure, connect.NewUnaryHandler(
		TrackerServicePreviewSettlementProcedure, svc.PreviewSettlement, opts...))
	mux.Handle(TrackerServiceGetSnapshotProcedure, connect.NewUnaryHandler(
		TrackerServiceGetSnapshotProcedure, svc.GetSnapshot, opts...))
	mux.Handle(TrackerServiceListRoundsProcedure, connect.NewUnaryHandler(
		TrackerServiceListRoundsProcedure, svc.ListRounds, opts...))
	mux.Handle(TrackerServiceMintProcedure, connect.NewUnaryHandler(
		TrackerServiceMintProcedure, svc.Mint, opts...))
	mux.Handle(TrackerServiceApproveProcedure, connect.NewUnaryHandler(
		TrackerServiceApproveProcedure, svc.Approve, opts...))

	return "/" + TrackerServiceName + "/", mux
}

// NewAuthServiceHandler builds an HTTP handler from the service implementation.
func NewAuthServiceHandler(svc *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(AuthServiceLoginProcedure, connect.NewUnaryHandler(
		AuthServiceLoginProcedure, svc.Login, opts...))

	return "/" + AuthServiceName + "/", mux
}
