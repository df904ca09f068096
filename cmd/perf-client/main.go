package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"connectrpc.com/connect"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/time/rate"

	"github.com/kkkkikiki/crowdfund/internal/address"
	"github.com/kkkkikiki/crowdfund/internal/api"
	"github.com/kkkkikiki/crowdfund/internal/auth"
	"github.com/kkkkikiki/crowdfund/internal/units"
)

// PerfResult gathers aggregated metrics for the test run.
// LatencySum & P95Latency are in nanoseconds.
type PerfResult struct {
	TotalRequests int64
	SuccessCount  int64
	ConflictCount int64 // lost a sequence race and retried
	ErrorCount    int64
	LatencySum    int64
	P95Latency    int64
}

// perfConfig is read from PERF_* environment variables. Both keys must be
// funded, e.g. through the server's LEDGER_GENESIS.
type perfConfig struct {
	BaseURL    string        `env:"BASE_URL,default=http://localhost:8080"`
	CreatorKey string        `env:"CREATOR_KEY,required"`
	DonorKey   string        `env:"DONOR_KEY,required"`
	Workers    int           `env:"WORKERS,default=20"`
	RPS        int           `env:"RPS,default=200"`
	Duration   time.Duration `env:"DURATION,default=30s"`
	Donation   string        `env:"DONATION_SOL,default=1"`
}

const defaultTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()

	var cfg perfConfig
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper("PERF_", envconfig.OsLookuper()),
	}); err != nil {
		fatalf("failed to load config: %v", err)
	}

	creatorKey, err := auth.ParsePrivateKey(cfg.CreatorKey)
	if err != nil {
		fatalf("PERF_CREATOR_KEY: %v", err)
	}
	donorKey, err := auth.ParsePrivateKey(cfg.DonorKey)
	if err != nil {
		fatalf("PERF_DONOR_KEY: %v", err)
	}
	amount, err := units.ParseSOL(cfg.Donation)
	if err != nil {
		fatalf("PERF_DONATION_SOL: %v", err)
	}

	// ─── HTTP Client & Transport ─────────────────────────────────
	transport := &http.Transport{
		MaxIdleConns:        cfg.Workers * 4,
		MaxIdleConnsPerHost: cfg.Workers * 4,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   defaultTimeout,
	}

	creator := auth.NewSigner(creatorKey)
	creatorClient := api.NewLedgerServiceClient(httpClient, cfg.BaseURL,
		connect.WithInterceptors(api.NewSigningInterceptor(creator)))
	donorClient := api.NewLedgerServiceClient(httpClient, cfg.BaseURL,
		connect.WithInterceptors(api.NewSigningInterceptor(auth.NewSigner(donorKey))))

	// ─── Campaign setup ──────────────────────────────────────────
	platform, err := ensureInitialized(creatorClient)
	if err != nil {
		fatalf("failed to initialize program: %v", err)
	}
	cid, err := createCampaign(creatorClient)
	if err != nil {
		fatalf("failed to create campaign: %v", err)
	}

	fmt.Println("==========================================")
	fmt.Println("crowdfund load client")
	fmt.Println("==========================================")
	fmt.Printf("campaign   : %d\n", cid)
	fmt.Printf("donation   : %s SOL\n", units.FormatSOL(amount))
	fmt.Printf("RPS        : %d\n", cfg.RPS)
	fmt.Printf("workers    : %d\n", cfg.Workers)
	fmt.Printf("duration   : %v\n", cfg.Duration)
	fmt.Println("==========================================")

	// ─── Rate limiter & context ─────────────────────────────────
	burst := cfg.RPS / cfg.Workers
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), burst)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var result PerfResult
	var wg sync.WaitGroup

	latencyChan := make(chan time.Duration, 4096)
	p95Done := make(chan struct{})
	go func() {
		trackP95(latencyChan, &result)
		close(p95Done)
	}()

	// ─── Workers ────────────────────────────────────────────────
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				donate(donorClient, cid, amount, &result, latencyChan)
			}
		}()
	}

	start := time.Now()
	<-ctx.Done()

	wg.Wait()
	close(latencyChan)
	<-p95Done
	totalDur := time.Since(start)

	// ─── Report ─────────────────────────────────────────────────
	var avgLatency time.Duration
	if result.SuccessCount > 0 {
		avgLatency = time.Duration(result.LatencySum / result.SuccessCount)
	}
	fmt.Println("==========================================")
	fmt.Printf("elapsed            : %.2fs\n", totalDur.Seconds())
	fmt.Printf("requests           : %d\n", result.TotalRequests)
	fmt.Printf("donations credited : %d\n", result.SuccessCount)
	fmt.Printf("sequence conflicts : %d\n", result.ConflictCount)
	fmt.Printf("errors             : %d\n", result.ErrorCount)
	fmt.Printf("donations/s        : %.2f\n", float64(result.SuccessCount)/totalDur.Seconds())
	fmt.Printf("avg latency        : %v\n", avgLatency)
	fmt.Printf("p95 latency        : %v\n", time.Duration(result.P95Latency))
	fmt.Println("==========================================")

	// ─── Data Consistency Check ─────────────────────────────────
	if err := verifyConsistency(creatorClient, cid, amount, result.SuccessCount, platform); err != nil {
		fmt.Printf("consistency check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("consistency check passed")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// ensureInitialized returns the platform address, initializing the program
// with client's signer when needed.
func ensureInitialized(client api.LedgerServiceClient) (address.Address, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	res, err := client.GetProgramState(ctx, connect.NewRequest(&api.GetProgramStateRequest{}))
	if err == nil {
		return res.Msg.State.PlatformAddress, nil
	}
	if connect.CodeOf(err) != connect.CodeFailedPrecondition {
		return address.Address{}, err
	}

	initRes, err := client.Initialize(ctx, connect.NewRequest(&api.InitializeRequest{}))
	if err != nil {
		return address.Address{}, err
	}
	return initRes.Msg.State.PlatformAddress, nil
}

func createCampaign(client api.LedgerServiceClient) (uint64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	res, err := client.CreateCampaign(ctx, connect.NewRequest(&api.CreateCampaignRequest{
		Title:       fmt.Sprintf("load test %s", time.Now().UTC().Format(time.RFC3339)),
		Description: "created by perf-client",
		Goal:        ^uint64(0),
	}))
	if err != nil {
		return 0, err
	}
	return res.Msg.Campaign.CID, nil
}

// donate reads the campaign's next donation number and donates with it.
// Workers race for the same number; the losers retry on the next tick.
func donate(client api.LedgerServiceClient, cid, amount uint64, result *PerfResult, latencyChan chan<- time.Duration) {
	// Use independent context to avoid cancellation when test ends
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	start := time.Now()
	atomic.AddInt64(&result.TotalRequests, 1)

	campaign, err := client.GetCampaign(ctx, connect.NewRequest(&api.GetCampaignRequest{CID: cid}))
	if err != nil {
		atomic.AddInt64(&result.ErrorCount, 1)
		return
	}
	_, err = client.Donate(ctx, connect.NewRequest(&api.DonateRequest{
		CID:    cid,
		Seq:    campaign.Msg.Campaign.Donors + 1,
		Amount: amount,
	}))
	latency := time.Since(start)

	switch code := connect.CodeOf(err); {
	case err == nil:
		atomic.AddInt64(&result.SuccessCount, 1)
		atomic.AddInt64(&result.LatencySum, latency.Nanoseconds())
		select {
		case latencyChan <- latency:
		default:
		}
	case code == connect.CodeAborted || code == connect.CodeAlreadyExists:
		atomic.AddInt64(&result.ConflictCount, 1)
	default:
		atomic.AddInt64(&result.ErrorCount, 1)
	}
}

// trackP95 maintains a best-effort rolling P95 latency estimation.
func trackP95(latencies <-chan time.Duration, result *PerfResult) {
	const size = 1000
	buf := make([]int64, 0, size)

	for lat := range latencies {
		if len(buf) < size {
			buf = append(buf, lat.Nanoseconds())
		} else if idx := time.Now().UnixNano() % int64(size); idx < int64(size/10) {
			buf[idx] = lat.Nanoseconds()
		}

		if len(buf) >= 100 && len(buf)%100 == 0 {
			sorted := make([]int64, len(buf))
			copy(sorted, buf)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
			p95Index := int(float64(len(sorted)) * 0.95)
			if p95Index >= len(sorted) {
				p95Index = len(sorted) - 1
			}
			atomic.StoreInt64(&result.P95Latency, sorted[p95Index])
		}
	}
}

// verifyConsistency checks the campaign against the donations the client saw
// succeed, then withdraws and checks the balance invariant.
func verifyConsistency(client api.LedgerServiceClient, cid, amount uint64, credited int64, platform address.Address) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	res, err := client.GetCampaign(ctx, connect.NewRequest(&api.GetCampaignRequest{CID: cid}))
	if err != nil {
		return fmt.Errorf("failed to get campaign: %w", err)
	}
	c := res.Msg.Campaign

	fmt.Printf("donors (ledger)    : %d\n", c.Donors)
	fmt.Printf("donors (client)    : %d\n", credited)
	fmt.Printf("amount raised      : %s SOL\n", units.FormatSOL(c.AmountRaised))

	if c.Donors != uint64(credited) {
		return fmt.Errorf("donor mismatch: ledger=%d, client=%d", c.Donors, credited)
	}
	if c.AmountRaised != uint64(credited)*amount {
		return fmt.Errorf("amount_raised mismatch: ledger=%d, expected=%d", c.AmountRaised, uint64(credited)*amount)
	}
	if c.Balance != c.AmountRaised {
		return fmt.Errorf("balance %d differs from amount_raised %d before any withdrawal", c.Balance, c.AmountRaised)
	}
	if c.Balance < amount {
		return errors.New("nothing to withdraw")
	}

	withdraw := c.Balance / 2
	if withdraw < amount {
		withdraw = amount
	}
	wres, err := client.Withdraw(ctx, connect.NewRequest(&api.WithdrawRequest{
		CID:             cid,
		Seq:             c.Withdrawals + 1,
		Amount:          withdraw,
		PlatformAddress: platform,
	}))
	if err != nil {
		return fmt.Errorf("withdraw failed: %w", err)
	}
	after := wres.Msg.Campaign
	if after.Balance != after.AmountRaised-withdraw {
		return fmt.Errorf("balance %d != amount_raised %d - withdrawn %d", after.Balance, after.AmountRaised, withdraw)
	}
	fmt.Printf("withdrawn          : %s SOL (fee %s SOL)\n", units.FormatSOL(withdraw), units.FormatSOL(wres.Msg.Receipt.Fee))
	return nil
}
