package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/kkkkikiki/crowdfund/internal/ledger"
)

// LedgerServiceName is the fully-qualified name of the LedgerService service.
const LedgerServiceName = "crowdfund.v1.LedgerService"

// Procedure paths of the LedgerService RPCs.
const (
	LedgerServiceInitializeProcedure             = "/crowdfund.v1.LedgerService/Initialize"
	LedgerServiceCreateCampaignProcedure         = "/crowdfund.v1.LedgerService/CreateCampaign"
	LedgerServiceUpdateCampaignProcedure         = "/crowdfund.v1.LedgerService/UpdateCampaign"
	LedgerServiceDeleteCampaignProcedure         = "/crowdfund.v1.LedgerService/DeleteCampaign"
	LedgerServiceDonateProcedure                 = "/crowdfund.v1.LedgerService/Donate"
	LedgerServiceWithdrawProcedure               = "/crowdfund.v1.LedgerService/Withdraw"
	LedgerServiceUpdatePlatformSettingsProcedure = "/crowdfund.v1.LedgerService/UpdatePlatformSettings"
	LedgerServiceGetProgramStateProcedure        = "/crowdfund.v1.LedgerService/GetProgramState"
	LedgerServiceGetCampaignProcedure            = "/crowdfund.v1.LedgerService/GetCampaign"
	LedgerServiceGetTransactionProcedure         = "/crowdfund.v1.LedgerService/GetTransaction"
	LedgerServiceGetBalanceProcedure             = "/crowdfund.v1.LedgerService/GetBalance"
)

var signedProcedures = map[string]string{
	LedgerServiceInitializeProcedure:             ledger.InstructionInitialize,
	LedgerServiceCreateCampaignProcedure:         ledger.InstructionCreateCampaign,
	LedgerServiceUpdateCampaignProcedure:         ledger.InstructionUpdateCampaign,
	LedgerServiceDeleteCampaignProcedure:         ledger.InstructionDeleteCampaign,
	LedgerServiceDonateProcedure:                 ledger.InstructionDonate,
	LedgerServiceWithdrawProcedure:               ledger.InstructionWithdraw,
	LedgerServiceUpdatePlatformSettingsProcedure: ledger.InstructionUpdatePlatformSettings,
}

// Instruction returns the ledger instruction a procedure executes. Queries
// execute none and need no signature.
func Instruction(procedure string) (string, bool) {
	instruction, ok := signedProcedures[procedure]
	return instruction, ok
}

// LedgerServiceClient is a client for the crowdfund.v1.LedgerService service.
type LedgerServiceClient interface {
	Initialize(context.Context, *connect.Request[InitializeRequest]) (*connect.Response[InitializeResponse], error)
	CreateCampaign(context.Context, *connect.Request[CreateCampaignRequest]) (*connect.Response[CreateCampaignResponse], error)
	UpdateCampaign(context.Context, *connect.Request[UpdateCampaignRequest]) (*connect.Response[UpdateCampaignResponse], error)
	DeleteCampaign(context.Context, *connect.Request[DeleteCampaignRequest]) (*connect.Response[DeleteCampaignResponse], error)
	Donate(context.Context, *connect.Request[DonateRequest]) (*connect.Response[DonateResponse], error)
	Withdraw(context.Context, *connect.Request[WithdrawRequest]) (*connect.Response[WithdrawResponse], error)
	UpdatePlatformSettings(context.Context, *connect.Request[UpdatePlatformSettingsRequest]) (*connect.Response[UpdatePlatformSettingsResponse], error)
	GetProgramState(context.Context, *connect.Request[GetProgramStateRequest]) (*connect.Response[GetProgramStateResponse], error)
	GetCampaign(context.Context, *connect.Request[GetCampaignRequest]) (*connect.Response[GetCampaignResponse], error)
	GetTransaction(context.Context, *connect.Request[GetTransactionRequest]) (*connect.Response[GetTransactionResponse], error)
	GetBalance(context.Context, *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error)
}

// NewLedgerServiceClient constructs a client for the crowdfund.v1.LedgerService
// service. Requests are JSON encoded; pass NewSigningInterceptor to sign
// instructions.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &ledgerServiceClient{
		initialize:             connect.NewClient[InitializeRequest, InitializeResponse](httpClient, baseURL+LedgerServiceInitializeProcedure, opts...),
		createCampaign:         connect.NewClient[CreateCampaignRequest, CreateCampaignResponse](httpClient, baseURL+LedgerServiceCreateCampaignProcedure, opts...),
		updateCampaign:         connect.NewClient[UpdateCampaignRequest, UpdateCampaignResponse](httpClient, baseURL+LedgerServiceUpdateCampaignProcedure, opts...),
		deleteCampaign:         connect.NewClient[DeleteCampaignRequest, DeleteCampaignResponse](httpClient, baseURL+LedgerServiceDeleteCampaignProcedure, opts...),
		donate:                 connect.NewClient[DonateRequest, DonateResponse](httpClient, baseURL+LedgerServiceDonateProcedure, opts...),
		withdraw:               connect.NewClient[WithdrawRequest, WithdrawResponse](httpClient, baseURL+LedgerServiceWithdrawProcedure, opts...),
		updatePlatformSettings: connect.NewClient[UpdatePlatformSettingsRequest, UpdatePlatformSettingsResponse](httpClient, baseURL+LedgerServiceUpdatePlatformSettingsProcedure, opts...),
		getProgramState:        connect.NewClient[GetProgramStateRequest, GetProgramStateResponse](httpClient, baseURL+LedgerServiceGetProgramStateProcedure, opts...),
		getCampaign:            connect.NewClient[GetCampaignRequest, GetCampaignResponse](httpClient, baseURL+LedgerServiceGetCampaignProcedure, opts...),
		getTransaction:         connect.NewClient[GetTransactionRequest, GetTransactionResponse](httpClient, baseURL+LedgerServiceGetTransactionProcedure, opts...),
		getBalance:             connect.NewClient[GetBalanceRequest, GetBalanceResponse](httpClient, baseURL+LedgerServiceGetBalanceProcedure, opts...),
	}
}

type ledgerServiceClient struct {
	initialize             *connect.Client[InitializeRequest, InitializeResponse]
	createCampaign         *connect.Client[CreateCampaignRequest, CreateCampaignResponse]
	updateCampaign         *connect.Client[UpdateCampaignRequest, UpdateCampaignResponse]
	deleteCampaign         *connect.Client[DeleteCampaignRequest, DeleteCampaignResponse]
	donate                 *connect.Client[DonateRequest, DonateResponse]
	withdraw               *connect.Client[WithdrawRequest, WithdrawResponse]
	updatePlatformSettings *connect.Client[UpdatePlatformSettingsRequest, UpdatePlatformSettingsResponse]
	getProgramState        *connect.Client[GetProgramStateRequest, GetProgramStateResponse]
	getCampaign            *connect.Client[GetCampaignRequest, GetCampaignResponse]
	getTransaction         *connect.Client[GetTransactionRequest, GetTransactionResponse]
	getBalance             *connect.Client[GetBalanceRequest, GetBalanceResponse]
}

func (c *ledgerServiceClient) Initialize(ctx context.Context, req *connect.Request[InitializeRequest]) (*connect.Response[InitializeResponse], error) {
	return c.initialize.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) CreateCampaign(ctx context.Context, req *connect.Request[CreateCampaignRequest]) (*connect.Response[CreateCampaignResponse], error) {
	return c.createCampaign.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) UpdateCampaign(ctx context.Context, req *connect.Request[UpdateCampaignRequest]) (*connect.Response[UpdateCampaignResponse], error) {
	return c.updateCampaign.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeleteCampaign(ctx context.Context, req *connect.Request[DeleteCampaignRequest]) (*connect.Response[DeleteCampaignResponse], error) {
	return c.deleteCampaign.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) Donate(ctx context.Context, req *connect.Request[DonateRequest]) (*connect.Response[DonateResponse], error) {
	return c.donate.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) Withdraw(ctx context.Context, req *connect.Request[WithdrawRequest]) (*connect.Response[WithdrawResponse], error) {
	return c.withdraw.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) UpdatePlatformSettings(ctx context.Context, req *connect.Request[UpdatePlatformSettingsRequest]) (*connect.Response[UpdatePlatformSettingsResponse], error) {
	return c.updatePlatformSettings.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetProgramState(ctx context.Context, req *connect.Request[GetProgramStateRequest]) (*connect.Response[GetProgramStateResponse], error) {
	return c.getProgramState.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetCampaign(ctx context.Context, req *connect.Request[GetCampaignRequest]) (*connect.Response[GetCampaignResponse], error) {
	return c.getCampaign.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetTransaction(ctx context.Context, req *connect.Request[GetTransactionRequest]) (*connect.Response[GetTransactionResponse], error) {
	return c.getTransaction.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetBalance(ctx context.Context, req *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error) {
	return c.getBalance.CallUnary(ctx, req)
}

// LedgerServiceHandler is an implementation of the crowdfund.v1.LedgerService service.
type LedgerServiceHandler interface {
	Initialize(context.Context, *connect.Request[InitializeRequest]) (*connect.Response[InitializeResponse], error)
	CreateCampaign(context.Context, *connect.Request[CreateCampaignRequest]) (*connect.Response[CreateCampaignResponse], error)
	UpdateCampaign(context.Context, *connect.Request[UpdateCampaignRequest]) (*connect.Response[UpdateCampaignResponse], error)
	DeleteCampaign(context.Context, *connect.Request[DeleteCampaignRequest]) (*connect.Response[DeleteCampaignResponse], error)
	Donate(context.Context, *connect.Request[DonateRequest]) (*connect.Response[DonateResponse], error)
	Withdraw(context.Context, *connect.Request[WithdrawRequest]) (*connect.Response[WithdrawResponse], error)
	UpdatePlatformSettings(context.Context, *connect.Request[UpdatePlatformSettingsRequest]) (*connect.Response[UpdatePlatformSettingsResponse], error)
	GetProgramState(context.Context, *connect.Request[GetProgramStateRequest]) (*connect.Response[GetProgramStateResponse], error)
	GetCampaign(context.Context, *connect.Request[GetCampaignRequest]) (*connect.Response[GetCampaignResponse], error)
	GetTransaction(context.Context, *connect.Request[GetTransactionRequest]) (*connect.Response[GetTransactionResponse], error)
	GetBalance(context.Context, *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	handlers := map[string]http.Handler{
		LedgerServiceInitializeProcedure:             connect.NewUnaryHandler(LedgerServiceInitializeProcedure, svc.Initialize, opts...),
		LedgerServiceCreateCampaignProcedure:         connect.NewUnaryHandler(LedgerServiceCreateCampaignProcedure, svc.CreateCampaign, opts...),
		LedgerServiceUpdateCampaignProcedure:         connect.NewUnaryHandler(LedgerServiceUpdateCampaignProcedure, svc.UpdateCampaign, opts...),
		LedgerServiceDeleteCampaignProcedure:         connect.NewUnaryHandler(LedgerServiceDeleteCampaignProcedure, svc.DeleteCampaign, opts...),
		LedgerServiceDonateProcedure:                 connect.NewUnaryHandler(LedgerServiceDonateProcedure, svc.Donate, opts...),
		LedgerServiceWithdrawProcedure:               connect.NewUnaryHandler(LedgerServiceWithdrawProcedure, svc.Withdraw, opts...),
		LedgerServiceUpdatePlatformSettingsProcedure: connect.NewUnaryHandler(LedgerServiceUpdatePlatformSettingsProcedure, svc.UpdatePlatformSettings, opts...),
		LedgerServiceGetProgramStateProcedure:        connect.NewUnaryHandler(LedgerServiceGetProgramStateProcedure, svc.GetProgramState, opts...),
		LedgerServiceGetCampaignProcedure:            connect.NewUnaryHandler(LedgerServiceGetCampaignProcedure, svc.GetCampaign, opts...),
		LedgerServiceGetTransactionProcedure:         connect.NewUnaryHandler(LedgerServiceGetTransactionProcedure, svc.GetTransaction, opts...),
		LedgerServiceGetBalanceProcedure:             connect.NewUnaryHandler(LedgerServiceGetBalanceProcedure, svc.GetBalance, opts...),
	}
	return "/" + LedgerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}
