package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/soywatch/backend/internal/calendar"
	"github.com/wonny/soywatch/backend/internal/contracts"
	"github.com/wonny/soywatch/backend/pkg/logger"
)

// Collector fetches contract histories and yearly closes from a MarketDataClient
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	client contracts.MarketDataClient
	engine *calendar.Engine
	cfg    Config
	pacer  Pacer
	sleep  Sleeper
	logger *logger.Logger
}

// Config holds collector configuration
type Config struct {
	LookAhead   int           // valid months per variety after the starting month
	MaxRetries  int           // attempts per call
	BackoffBase time.Duration // delay after the first failed attempt, doubled after each
	Workers     int           // concurrent calls; 1 is sequential
}

// DefaultConfig returns K=9, 3 attempts, 2s backoff, sequential
func DefaultConfig() Config {
	return Config{
		LookAhead:   9,
		MaxRetries:  3,
		BackoffBase: 2 * time.Second,
		Workers:     1,
	}
}

// Option customizes a Collector
type Option func(*Collector)

// WithPacer replaces the default one-call-per-second pacer
func WithPacer(p Pacer) Option {
	return func(c *Collector) { c.pacer = p }
}

// WithSleeper replaces the backoff sleep
func WithSleeper(s Sleeper) Option {
	return func(c *Collector) { c.sleep = s }
}

// NewCollector creates a new Collector instance
func NewCollector(client contracts.MarketDataClient, engine *calendar.Engine, cfg Config, log *logger.Logger, opts ...Option) *Collector {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	c := &Collector{
		client: client,
		engine: engine,
		cfg:    cfg,
		pacer:  NewRatePacer(time.Second),
		sleep:  SleepContext,
		logger: log.WithField("module", "collector"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CollectAll builds the contract list for today and fetches every contract
// and every variety's yearly closes. Per-item failures are logged and
// counted; only configuration errors and cancellation abort the pass.
func (c *Collector) CollectAll(ctx context.Context, today civil.Date, varieties []contracts.Variety) (*contracts.CollectionResult, error) {
	if len(varieties) == 0 {
		return nil, fmt.Errorf("%w: no varieties configured", contracts.ErrConfiguration)
	}

	ids, info, err := c.engine.BuildContractList(today, c.cfg.LookAhead, varieties)
	if err != nil {
		return nil, fmt.Errorf("build contract list: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"today":          today.String(),
		"start_contract": info.StartSuffix,
		"valid_months":   info.ValidMonths,
		"contracts":      len(ids),
		"workers":        c.cfg.Workers,
	}).Info("Starting contract collection")

	result := contracts.NewCollectionResult(info)

	if err := c.collectContracts(ctx, ids, today, result); err != nil {
		return nil, err
	}

	if err := c.collectYearly(ctx, varieties, today, result); err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"contracts_fetched": result.Stats.ContractsFetched,
		"contracts_absent":  result.Stats.ContractsAbsent,
		"yearly_fetched":    result.Stats.YearlyFetched,
		"yearly_absent":     result.Stats.YearlyAbsent,
		"rows":              result.RowCount(),
	}).Info("Collection completed")

	return result, nil
}

type contractOutcome struct {
	rows []contracts.ContractRow
	err  error
}

func (c *Collector) collectContracts(ctx context.Context, ids []contracts.ContractIdentifier, today civil.Date, result *contracts.CollectionResult) error {
	outcomes, err := runPaced(ctx, c, len(ids), func(ctx context.Context, i int) contractOutcome {
		rows, err := c.FetchContractHistory(ctx, ids[i], today)
		return contractOutcome{rows: rows, err: err}
	})
	if err != nil {
		return err
	}

	result.Stats.Contracts = len(ids)
	for i, outcome := range outcomes {
		id := ids[i]
		log := c.logger.WithFields(map[string]interface{}{
			"contract": id.ContractCode,
			"name":     id.DisplayName,
			"progress": fmt.Sprintf("%d/%d", i+1, len(ids)),
		})

		if outcome.err != nil {
			result.Stats.ContractsAbsent++
			c.logOutcome(log, outcome.err)
			continue
		}

		result.ContractRows = append(result.ContractRows, outcome.rows)
		result.Stats.ContractsFetched++
		log.WithField("rows", len(outcome.rows)).Info("Contract fetched")
	}
	return nil
}

type yearlyOutcome struct {
	points []contracts.YearlyClosePoint
	err    error
}

func (c *Collector) collectYearly(ctx context.Context, varieties []contracts.Variety, today civil.Date, result *contracts.CollectionResult) error {
	outcomes, err := runPaced(ctx, c, len(varieties), func(ctx context.Context, i int) yearlyOutcome {
		points, err := c.FetchYearlyClose(ctx, varieties[i], today)
		return yearlyOutcome{points: points, err: err}
	})
	if err != nil {
		return err
	}

	result.Stats.Yearly = len(varieties)
	for i, outcome := range outcomes {
		name := varieties[i].ContinuousName
		log := c.logger.WithField("series", name)

		if outcome.err != nil {
			result.Stats.YearlyAbsent++
			c.logOutcome(log, outcome.err)
			continue
		}

		result.AddYearly(name, outcome.points)
		result.Stats.YearlyFetched++
		log.WithField("rows", len(outcome.points)).Info("Yearly closes fetched")
	}
	return nil
}

func (c *Collector) logOutcome(log *logger.Logger, err error) {
	switch {
	case errors.Is(err, contracts.ErrNoData):
		log.WithError(err).Info("No data available, skipped")
	default:
		log.WithError(err).Error("Fetch failed, skipped")
	}
}

// runPaced calls fn for 0..n-1 on at most cfg.Workers goroutines, pacing each
// call. Results keep index order. Only context cancellation is returned; a
// failing pacer is logged and the call goes ahead unpaced.
func runPaced[T any](ctx context.Context, c *Collector, n int, fn func(ctx context.Context, i int) T) ([]T, error) {
	out := make([]T, n)
	tracker, _ := c.pacer.(CallTracker)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := c.pacer.Wait(gctx); err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.logger.WithError(err).Warn("Pacer unavailable, calling unpaced")
			}
			out[i] = fn(gctx, i)
			if tracker != nil {
				tracker.Done()
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
