package service

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// TrackerServiceClient is a client for the tabsettle.v1.TrackerService service.
type TrackerServiceClient struct {
	registerParticipant *connect.Client[RegisterParticipantRequest, RegisterParticipantResponse]
	recordExpense       *connect.Client[RecordExpenseRequest, RecordExpenseResponse]
	recordSplit         *connect.Client[RecordSplitRequest, RecordSplitResponse]
	settle              *connect.Client[SettleRequest, SettleResponse]
	previewSettlement   *connect.Client[PreviewSettlementRequest, PreviewSettlementResponse]
	getSnapshot         *connect.Client[GetSnapshotRequest, GetSnapshotResponse]
	listRounds          *connect.Client[ListRoundsRequest, ListRoundsResponse]
	mint                *connect.Client[MintRequest, MintResponse]
	approve             *connect.Client[ApproveRequest, ApproveResponse]
}

// NewTrackerServiceClient constructs a client for the tabsettle.v1.TrackerService service.
// The URL supplied here should be the base URL for the server (for example,
// http://api.acme.com or https://acme.com/grpc).
func NewTrackerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *TrackerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)

	return &TrackerServiceClient{
		registerParticipant: connect.NewClient[RegisterParticipantRequest, RegisterParticipantResponse](
			httpClient, baseURL+TrackerServiceRegisterParticipantProcedure, opts...),
		recordExpense: connect.NewClient[RecordExpenseRequest, RecordExpenseResponse](
			httpClient, baseURL+TrackerServiceRecordExpenseProcedure, opts...),
		recordSplit: connect.NewClient[RecordSplitRequest, RecordSplitResponse](
			httpClient, baseURL+TrackerServiceRecordSplitProcedure, opts...),
		settle: connect.NewClient[SettleRequest, SettleResponse](
			httpClient, baseURL+TrackerServiceSettleProcedure, opts...),
		previewSettlement: connect.NewClient[PreviewSettlementRequest, PreviewSettlementResponse](
			httpClient, baseURL+TrackerServicePreviewSettlementProcedure, opts...),
		getSnapshot: connect.NewClient[GetSnapshotRequest, GetSnapshotResponse](
			httpClient, baseURL+TrackerServiceGetSnapshotProcedure, opts...),
		listRounds: connect.NewClient[ListRoundsRequest, ListRoundsResponse](
			httpClient, baseURL+TrackerServiceListRoundsProcedure, opts...),
		mint: connect.NewClient[MintRequest, MintResponse](
			httpClient, baseURL+TrackerServiceMintProcedure, opts...),
		approve: connect.NewClient[ApproveRequest, ApproveResponse](
			httpClient, baseURL+TrackerServiceApproveProcedure, opts...),
	}
}

func (c *TrackerServiceClient) RegisterParticipant(ctx context.Context, req *connect.Request[RegisterParticipantRequest]) (*connect.Response[RegisterParticipantResponse], error) {
	return c.registerParticipant.CallUnary(ctx, req)
}

func (c *TrackerServiceClient) RecordExpense(ctx context.Context, req *connect.Request[RecordExpenseRequest]) (*connect.Response[RecordExpenseResponse], error) {
	return c.recordExpense.CallUnary(ctx, req)
}

func (c *TrackerServiceClient) RecordSplit(ctx context.Context, req *connect.Request[RecordSplitRequest]) (*connect.Response[RecordSplitResponse], error) {
	return c.recordSplit.CallUnary(ctx, req)
}

func (c *TrackerServiceClient) Settle(ctx context.Context, req *connect.Request[SettleRequest]) (*connect.Response[SettleResponse], error) {
	return c.settle.CallUnary(ctx, req)
}

func (c *TrackerServiceClient) PreviewSettlement(ctx context.Context, req *connect.Request[PreviewSettlementRequest]) (*connect.Response[PreviewSettlementResponse], error) {
	return c.previewSettlement.CallUnary(ctx, req)
}

func (c *TrackerServiceClient) GetSnapshot(ctx context.Context, req *connect.Request[GetSnapshotRequest]) (*connect.Response[GetSnapshotResponse], error) {
	return c.getSnapshot.CallUnary(ctx, req)
}

func (c *TrackerServiceClient) ListRounds(ctx context.Context, req *connect.Request[ListRoundsRequest]) (*connect.Response[ListRoundsResponse], error) {
	return c.listRounds.CallUnary(ctx, req)
}

func (c *TrackerServiceClient) Mint(ctx context.Context, req *connect.Request[MintRequest]) (*connect.Response[MintResponse], error) {
	return c.mint.CallUnary(ctx, req)
}

func (c *TrackerServiceClient) Approve(ctx context.Context, req *connect.Request[ApproveRequest]) (*connect.Response[ApproveResponse], error) {
	return c.approve.CallUnary(ctx, req)
}

// AuthServiceClient is a client for the tabsettle.v1.AuthService service.
type AuthServiceClient struct {
	login *connect.Client[LoginRequest, LoginResponse]
}

// NewAuthServiceClient constructs a client for the tabsettle.v1.AuthService service.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)

	return &AuthServiceClient{
		login: connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
	}
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}
