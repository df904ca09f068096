package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"connectrpc.com/connect"

	"github.com/kkkkikiki/crowdfund/internal/address"
	"github.com/kkkkikiki/crowdfund/internal/api"
	"github.com/kkkkikiki/crowdfund/internal/auth"
	"github.com/kkkkikiki/crowdfund/internal/database"
	"github.com/kkkkikiki/crowdfund/internal/ledger"
	"github.com/kkkkikiki/crowdfund/internal/logging"
	"github.com/kkkkikiki/crowdfund/internal/units"
)

type testEnv struct {
	server   *httptest.Server
	program  address.Address
	platform *auth.Signer
	creator  *auth.Signer
	donor    *auth.Signer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	program := address.Derive(address.Address{}, "service-test-program")
	processor, err := ledger.NewProcessor(db.Ledger, program, ledger.DefaultParams())
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}

	env := &testEnv{program: program}
	for _, s := range []**auth.Signer{&env.platform, &env.creator, &env.donor} {
		key, err := auth.GenerateKey()
		if err != nil {
			t.Fatalf("generate key: %v", err)
		}
		*s = auth.NewSigner(key)
	}
	_, err = processor.Genesis(ctx, map[address.Address]uint64{
		env.platform.Address(): units.SOL(100),
		env.creator.Address():  units.SOL(100),
		env.donor.Address():    units.SOL(100),
	})
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}

	server := NewLedgerServer(processor, auth.NewVerifier(auth.DefaultMaxAge), logging.Nop())
	path, handler := server.Handler()
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	env.server = httptest.NewServer(mux)
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) client(signer *auth.Signer) api.LedgerServiceClient {
	var opts []connect.ClientOption
	if signer != nil {
		opts = append(opts, connect.WithInterceptors(api.NewSigningInterceptor(signer)))
	}
	return api.NewLedgerServiceClient(e.server.Client(), e.server.URL, opts...)
}

func TestLedgerServiceFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	platform := env.client(env.platform)
	creator := env.client(env.creator)
	donor := env.client(env.donor)

	initRes, err := platform.Initialize(ctx, connect.NewRequest(&api.InitializeRequest{}))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if initRes.Msg.State.PlatformAddress != env.platform.Address() {
		t.Fatalf("platform address = %s, want signer %s", initRes.Msg.State.PlatformAddress, env.platform.Address())
	}

	createRes, err := creator.CreateCampaign(ctx, connect.NewRequest(&api.CreateCampaignRequest{
		Title: "Library books",
		Goal:  units.SOL(10),
	}))
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	cid := createRes.Msg.Campaign.CID
	if createRes.Msg.Campaign.Creator != env.creator.Address() {
		t.Fatalf("creator = %s, want signer", createRes.Msg.Campaign.Creator)
	}

	donateRes, err := donor.Donate(ctx, connect.NewRequest(&api.DonateRequest{CID: cid, Seq: 1, Amount: units.SOL(2)}))
	if err != nil {
		t.Fatalf("donate: %v", err)
	}
	if donateRes.Msg.Campaign.AmountRaised != units.SOL(2) {
		t.Fatalf("amount_raised = %d, want 2 SOL", donateRes.Msg.Campaign.AmountRaised)
	}

	withdrawRes, err := creator.Withdraw(ctx, connect.NewRequest(&api.WithdrawRequest{
		CID:             cid,
		Seq:             1,
		Amount:          units.SOL(1),
		PlatformAddress: env.platform.Address(),
	}))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if withdrawRes.Msg.Receipt.Fee != 50_000_000 {
		t.Fatalf("fee = %d, want 0.05 SOL", withdrawRes.Msg.Receipt.Fee)
	}

	reader := env.client(nil)
	campaignRes, err := reader.GetCampaign(ctx, connect.NewRequest(&api.GetCampaignRequest{CID: cid}))
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if got := campaignRes.Msg.Campaign.Balance; got != units.SOL(1) {
		t.Fatalf("balance = %d, want 1 SOL", got)
	}

	txRes, err := reader.GetTransaction(ctx, connect.NewRequest(&api.GetTransactionRequest{Address: donateRes.Msg.Receipt.Address}))
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if txRes.Msg.Receipt.Record.Owner != env.donor.Address() {
		t.Fatalf("receipt owner = %s, want donor", txRes.Msg.Receipt.Record.Owner)
	}

	balanceRes, err := reader.GetBalance(ctx, connect.NewRequest(&api.GetBalanceRequest{Address: address.Derive(address.Address{}, "nobody")}))
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balanceRes.Msg.Lamports != 0 || balanceRes.Msg.SOL != "0" {
		t.Fatalf("unknown address balance = %d (%s), want 0", balanceRes.Msg.Lamports, balanceRes.Msg.SOL)
	}
}

func TestLedgerServiceRejectsUnsignedInstruction(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.client(nil).Initialize(context.Background(), connect.NewRequest(&api.InitializeRequest{}))
	if got := connect.CodeOf(err); got != connect.CodeUnauthenticated {
		t.Fatalf("code = %v, want Unauthenticated (err %v)", got, err)
	}
}

func TestLedgerServiceErrorCodes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	platform := env.client(env.platform)
	creator := env.client(env.creator)
	donor := env.client(env.donor)

	if _, err := creator.CreateCampaign(ctx, connect.NewRequest(&api.CreateCampaignRequest{Title: "early", Goal: 1})); connect.CodeOf(err) != connect.CodeFailedPrecondition {
		t.Fatalf("create before initialize: err = %v, want FailedPrecondition", err)
	}
	if _, err := platform.Initialize(ctx, connect.NewRequest(&api.InitializeRequest{})); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, err := creator.Initialize(ctx, connect.NewRequest(&api.InitializeRequest{})); connect.CodeOf(err) != connect.CodeAlreadyExists {
		t.Fatalf("second initialize: err = %v, want AlreadyExists", err)
	}
	if _, err := creator.CreateCampaign(ctx, connect.NewRequest(&api.CreateCampaignRequest{Title: "zero", Goal: 0})); connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Fatalf("zero goal: err = %v, want InvalidArgument", err)
	}
	if _, err := creator.CreateCampaign(ctx, connect.NewRequest(&api.CreateCampaignRequest{Title: "ok", Goal: units.SOL(5)})); err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	if _, err := donor.UpdateCampaign(ctx, connect.NewRequest(&api.UpdateCampaignRequest{CID: 1, Title: "mine", Goal: 1})); connect.CodeOf(err) != connect.CodePermissionDenied {
		t.Fatalf("foreign update: err = %v, want PermissionDenied", err)
	}
	if _, err := donor.Donate(ctx, connect.NewRequest(&api.DonateRequest{CID: 9, Seq: 1, Amount: units.SOL(1)})); connect.CodeOf(err) != connect.CodeNotFound {
		t.Fatalf("missing campaign: err = %v, want NotFound", err)
	}
	if _, err := donor.Donate(ctx, connect.NewRequest(&api.DonateRequest{CID: 1, Seq: 3, Amount: units.SOL(1)})); connect.CodeOf(err) != connect.CodeAborted {
		t.Fatalf("stale seq: err = %v, want Aborted", err)
	}

	var connectErr *connect.Error
	_, err := env.client(nil).GetTransaction(ctx, connect.NewRequest(&api.GetTransactionRequest{Address: address.Derive(address.Address{}, "missing")}))
	if !errors.As(err, &connectErr) || connectErr.Code() != connect.CodeNotFound {
		t.Fatalf("missing receipt: err = %v, want NotFound", err)
	}
	_, err = env.client(nil).GetTransaction(ctx, connect.NewRequest(&api.GetTransactionRequest{Address: address.Campaign(env.program, 1)}))
	if got := connect.CodeOf(err); got != connect.CodeNotFound {
		t.Fatalf("campaign address as receipt: code = %v, want NotFound (err %v)", got, err)
	}
}
