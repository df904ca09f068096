package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"

	"github.com/kkkkikiki/crowdfund/internal/address"
	"github.com/kkkkikiki/crowdfund/internal/api"
	"github.com/kkkkikiki/crowdfund/internal/auth"
	"github.com/kkkkikiki/crowdfund/internal/ledger"
	"github.com/kkkkikiki/crowdfund/internal/metrics"
	"github.com/kkkkikiki/crowdfund/internal/model"
	"github.com/kkkkikiki/crowdfund/internal/repository"
	"github.com/kkkkikiki/crowdfund/internal/units"
)

// LedgerServer implements the ledger service
type LedgerServer struct {
	processor *ledger.Processor
	verifier  *auth.Verifier
	logger    zerolog.Logger
}

// NewLedgerServer creates a new LedgerServer instance
func NewLedgerServer(processor *ledger.Processor, verifier *auth.Verifier, logger zerolog.Logger) *LedgerServer {
	return &LedgerServer{
		processor: processor,
		verifier:  verifier,
		logger:    logger,
	}
}

// Handler returns the mount path and HTTP handler of the service, with
// request signature checks installed.
func (s *LedgerServer) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append(opts, connect.WithInterceptors(s.authInterceptor()))
	return api.NewLedgerServiceHandler(s, opts...)
}

// Initialize creates the program state; the signer becomes the platform address
func (s *LedgerServer) Initialize(
	ctx context.Context,
	req *connect.Request[api.InitializeRequest],
) (*connect.Response[api.InitializeResponse], error) {
	state, err := s.processor.Initialize(ctx, signerFrom(ctx))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.InitializeResponse{State: state}), nil
}

// CreateCampaign creates a campaign owned by the signer
func (s *LedgerServer) CreateCampaign(
	ctx context.Context,
	req *connect.Request[api.CreateCampaignRequest],
) (*connect.Response[api.CreateCampaignResponse], error) {
	campaign, err := s.processor.CreateCampaign(ctx, signerFrom(ctx), ledger.CampaignInput{
		Title:       req.Msg.Title,
		Description: req.Msg.Description,
		ImageURL:    req.Msg.ImageURL,
		Goal:        req.Msg.Goal,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.CreateCampaignResponse{Campaign: campaign}), nil
}

// UpdateCampaign rewrites campaign metadata
func (s *LedgerServer) UpdateCampaign(
	ctx context.Context,
	req *connect.Request[api.UpdateCampaignRequest],
) (*connect.Response[api.UpdateCampaignResponse], error) {
	campaign, err := s.processor.UpdateCampaign(ctx, signerFrom(ctx), req.Msg.CID, ledger.CampaignInput{
		Title:       req.Msg.Title,
		Description: req.Msg.Description,
		ImageURL:    req.Msg.ImageURL,
		Goal:        req.Msg.Goal,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.UpdateCampaignResponse{Campaign: campaign}), nil
}

// DeleteCampaign closes a campaign to new donations
func (s *LedgerServer) DeleteCampaign(
	ctx context.Context,
	req *connect.Request[api.DeleteCampaignRequest],
) (*connect.Response[api.DeleteCampaignResponse], error) {
	campaign, err := s.processor.DeleteCampaign(ctx, signerFrom(ctx), req.Msg.CID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.DeleteCampaignResponse{Campaign: campaign}), nil
}

// Donate transfers lamports from the signer to a campaign
func (s *LedgerServer) Donate(
	ctx context.Context,
	req *connect.Request[api.DonateRequest],
) (*connect.Response[api.DonateResponse], error) {
	receipt, err := s.processor.Donate(ctx, signerFrom(ctx), req.Msg.CID, req.Msg.Seq, req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.DonateResponse{
		Receipt:  toReceipt(receipt),
		Campaign: receipt.Campaign,
	}), nil
}

// Withdraw pays campaign funds out to the signing creator
func (s *LedgerServer) Withdraw(
	ctx context.Context,
	req *connect.Request[api.WithdrawRequest],
) (*connect.Response[api.WithdrawResponse], error) {
	receipt, err := s.processor.Withdraw(ctx, signerFrom(ctx), req.Msg.CID, req.Msg.Seq, req.Msg.Amount, req.Msg.PlatformAddress)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.WithdrawResponse{
		Receipt:  toReceipt(receipt),
		Campaign: receipt.Campaign,
	}), nil
}

// UpdatePlatformSettings changes the platform fee
func (s *LedgerServer) UpdatePlatformSettings(
	ctx context.Context,
	req *connect.Request[api.UpdatePlatformSettingsRequest],
) (*connect.Response[api.UpdatePlatformSettingsResponse], error) {
	state, err := s.processor.UpdatePlatformSettings(ctx, signerFrom(ctx), req.Msg.PlatformFee)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.UpdatePlatformSettingsResponse{State: state}), nil
}

// GetProgramState returns the program state
func (s *LedgerServer) GetProgramState(
	ctx context.Context,
	req *connect.Request[api.GetProgramStateRequest],
) (*connect.Response[api.GetProgramStateResponse], error) {
	state, err := s.processor.ProgramState(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetProgramStateResponse{State: state}), nil
}

// GetCampaign returns a campaign and its account lamports
func (s *LedgerServer) GetCampaign(
	ctx context.Context,
	req *connect.Request[api.GetCampaignRequest],
) (*connect.Response[api.GetCampaignResponse], error) {
	campaign, lamports, err := s.processor.Campaign(ctx, req.Msg.CID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetCampaignResponse{
		Campaign: &api.Campaign{Campaign: campaign, Lamports: lamports},
	}), nil
}

// GetTransaction returns a donation or withdrawal receipt
func (s *LedgerServer) GetTransaction(
	ctx context.Context,
	req *connect.Request[api.GetTransactionRequest],
) (*connect.Response[api.GetTransactionResponse], error) {
	record, err := s.processor.Transaction(ctx, req.Msg.Address)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetTransactionResponse{
		Receipt: &api.Receipt{Address: req.Msg.Address, Record: record},
	}), nil
}

// GetBalance returns the lamports held at an address
func (s *LedgerServer) GetBalance(
	ctx context.Context,
	req *connect.Request[api.GetBalanceRequest],
) (*connect.Response[api.GetBalanceResponse], error) {
	lamports, err := s.processor.Balance(ctx, req.Msg.Address)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetBalanceResponse{
		Address:  req.Msg.Address,
		Lamports: lamports,
		SOL:      units.FormatSOL(lamports),
	}), nil
}

func toReceipt(r *ledger.Receipt) *api.Receipt {
	return &api.Receipt{Address: r.Address, Record: r.Transaction, Fee: r.Fee}
}

type signerKey struct{}

func withSigner(ctx context.Context, signer address.Address) context.Context {
	return context.WithValue(ctx, signerKey{}, signer)
}

// signerFrom returns the verified signer. The auth interceptor guarantees it
// is set for every instruction procedure.
func signerFrom(ctx context.Context) address.Address {
	signer, _ := ctx.Value(signerKey{}).(address.Address)
	return signer
}

// authInterceptor verifies the request token of instruction procedures and
// stores the signer in the context.
func (s *LedgerServer) authInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			instruction, ok := api.Instruction(procedure)
			if !ok {
				return next(ctx, req)
			}

			body, err := api.Codec{}.Marshal(req.Any())
			if err != nil {
				return nil, connect.NewError(connect.CodeInternal, err)
			}
			token := api.BearerToken(req.Header().Get(api.AuthorizationHeader))
			signer, err := s.verifier.Verify(token, instruction, body)
			if err != nil {
				reason := "invalid_token"
				switch {
				case errors.Is(err, auth.ErrMissingToken):
					reason = "missing_token"
				case errors.Is(err, auth.ErrReplayedToken):
					reason = "replay"
				}
				metrics.RecordRejection(procedure, reason)
				s.logger.Warn().Err(err).Str("procedure", procedure).Msg("request signature rejected")
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(withSigner(ctx, signer), req)
		}
	}
}

// toConnectError maps ledger errors to connect codes
func toConnectError(err error) error {
	code := connect.CodeInternal
	var mismatch *model.KindMismatchError
	switch {
	case errors.Is(err, ledger.ErrTitleTooLong),
		errors.Is(err, ledger.ErrDescriptionTooLong),
		errors.Is(err, ledger.ErrImageURLTooLong),
		errors.Is(err, ledger.ErrInvalidGoalAmount),
		errors.Is(err, ledger.ErrInvalidDonationAmount),
		errors.Is(err, ledger.ErrInvalidWithdrawalAmount),
		errors.Is(err, ledger.ErrInvalidPlatformAddress),
		errors.Is(err, ledger.ErrInvalidPlatformFee):
		code = connect.CodeInvalidArgument
	case errors.Is(err, ledger.ErrUnauthorized):
		code = connect.CodePermissionDenied
	case errors.Is(err, ledger.ErrCampaignNotFound),
		errors.Is(err, repository.ErrAccountNotFound),
		errors.As(err, &mismatch):
		code = connect.CodeNotFound
	case errors.Is(err, ledger.ErrAlreadyInitialized),
		errors.Is(err, ledger.ErrAddressCollision):
		code = connect.CodeAlreadyExists
	case errors.Is(err, ledger.ErrNotInitialized),
		errors.Is(err, ledger.ErrInactiveCampaign),
		errors.Is(err, ledger.ErrGoalReached),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrArithmeticOverflow):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, ledger.ErrSequenceMismatch):
		code = connect.CodeAborted
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}
	if code == connect.CodeInternal {
		return connect.NewError(code, fmt.Errorf("ledger failure: %w", err))
	}
	return connect.NewError(code, err)
}
