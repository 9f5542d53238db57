package collector

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/wonny/soywatch/backend/internal/contracts"
	"github.com/wonny/soywatch/backend/pkg/logger"
)

// FetchState is the state of one provider call
type FetchState int

const (
	StatePending FetchState = iota
	StateTransientFailure
	StateAbsent
	StateDone
)

func (s FetchState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateTransientFailure:
		return "transient_failure"
	case StateAbsent:
		return "absent"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("FetchState(%d)", int(s))
	}
}

// fetchRun is the retry state of a single call; it is never shared between contracts
type fetchRun struct {
	label    string
	quoteID  string
	state    FetchState
	attempts int
	delays   []time.Duration
	lastErr  error
}

func newFetchRun(label, quoteID string) *fetchRun {
	return &fetchRun{label: label, quoteID: quoteID, state: StatePending}
}

// maxBackoffShift caps the doubling so the delay cannot overflow
const maxBackoffShift = 16

// backoff returns the delay after the n-th failed attempt: base, 2*base, 4*base, ...
func (c *Collector) backoff(failures int) time.Duration {
	shift := failures - 1
	if shift < 0 {
		shift = 0
	}
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return c.cfg.BackoffBase << uint(shift)
}

// retrieve drives run from Pending to Done or Absent
func (c *Collector) retrieve(ctx context.Context, run *fetchRun, log *logger.Logger) (*contracts.Frame, error) {
	for {
		run.attempts++
		frame, err := c.client.GetHistory(ctx, run.quoteID)
		if err == nil {
			run.state = StateDone
			return frame, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		run.state = StateTransientFailure
		run.lastErr = err

		if run.attempts >= c.cfg.MaxRetries {
			run.state = StateAbsent
			return nil, fmt.Errorf("%w: %s failed %d times: %v",
				contracts.ErrRetriesExhausted, run.label, run.attempts, err)
		}

		delay := c.backoff(run.attempts)
		run.delays = append(run.delays, delay)

		log.WithError(err).WithFields(map[string]interface{}{
			"attempt":     run.attempts,
			"max_retries": c.cfg.MaxRetries,
			"delay":       delay.String(),
		}).Warn("Fetch attempt failed, backing off")

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
		run.state = StatePending
	}
}

// FetchContractHistory fetches and normalizes one contract's history.
// Errors wrap contracts.ErrNoData or contracts.ErrRetriesExhausted, or are context errors.
func (c *Collector) FetchContractHistory(ctx context.Context, id contracts.ContractIdentifier, today civil.Date) ([]contracts.ContractRow, error) {
	log := c.logger.WithFields(map[string]interface{}{
		"contract": id.ContractCode,
		"quote_id": id.QuoteID,
	})

	run := newFetchRun(id.String(), id.QuoteID)
	frame, err := c.retrieve(ctx, run, log)
	if err != nil {
		return nil, err
	}

	rows, err := NormalizeHistory(frame, id, today)
	if err != nil {
		return nil, err
	}

	if latest := rows[0].Date; latest.Before(today) {
		log.WithFields(map[string]interface{}{
			"today":  today.String(),
			"latest": latest.String(),
		}).Info("Market not open today, keeping last session only")
	} else {
		log.WithField("latest", latest.String()).Debug("Market open today, keeping full history")
	}

	return rows, nil
}

// FetchYearlyClose fetches the trailing-year closes of a variety's continuous contract
func (c *Collector) FetchYearlyClose(ctx context.Context, v contracts.Variety, today civil.Date) ([]contracts.YearlyClosePoint, error) {
	id := c.engine.ContinuousIdentifier(v)
	log := c.logger.WithFields(map[string]interface{}{
		"series":   id.DisplayName,
		"quote_id": id.QuoteID,
	})

	run := newFetchRun(id.String(), id.QuoteID)
	frame, err := c.retrieve(ctx, run, log)
	if err != nil {
		return nil, err
	}

	return NormalizeYearly(frame, id.DisplayName, today)
}
