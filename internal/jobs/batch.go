package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/support-totem125/vcc-totem/internal/errors"
	"github.com/support-totem125/vcc-totem/internal/model"
	"github.com/support-totem125/vcc-totem/internal/service"
	"github.com/support-totem125/vcc-totem/internal/util"
)

type Lookuper interface {
	Lookup(ctx context.Context, dni string) (*service.LookupResult, error)
}

type ReportWriter interface {
	Write(result *service.LookupResult) (string, error)
}

// Item describes one processed DNI. Delay is the pause taken before the next
// one, zero for the last.
type Item struct {
	Index      int
	Total      int
	DNI        string
	Result     *service.LookupResult
	ReportPath string
	Err        error
	Delay      time.Duration
}

type Summary struct {
	RunID        string
	Total        int
	Processed    int
	Succeeded    int
	WithOffer    int
	WithoutOffer int
	Invalid      int
	Errors       int
	Aborted      bool
	Cancelled    bool
	Elapsed      time.Duration
}

type BatchOptions struct {
	DelayMin time.Duration
	DelayMax time.Duration
	// OnItem, when set, is called after each DNI, before the delay.
	OnItem func(Item)
}

// BatchJob queries a list of DNIs one at a time with a random pause between
// queries, writing a report for each.
type BatchJob struct {
	lookups Lookuper
	reports ReportWriter
	opts    BatchOptions
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewBatchJob(lookups Lookuper, reports ReportWriter, opts BatchOptions) *BatchJob {
	return &BatchJob{
		lookups: lookups,
		reports: reports,
		opts:    opts,
		sleep:   util.SleepContext,
	}
}

// Run processes dnis in order. It stops early when the portal blocks the
// account, when login fails, or when ctx is cancelled.
func (j *BatchJob) Run(ctx context.Context, dnis []string) Summary {
	start := time.Now()
	summary := Summary{RunID: uuid.NewString(), Total: len(dnis)}
	logger := log.With().Str("runId", summary.RunID).Logger()

	logger.Info().Int("total", len(dnis)).Msg("batch started")

	for i, dni := range dnis {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		item := Item{Index: i + 1, Total: len(dnis), DNI: dni}
		result, err := j.lookups.Lookup(ctx, dni)
		summary.Processed++

		if err != nil {
			item.Err = err
			summary.Errors++
			logger.Error().Err(err).Str("dni", dni).Msg("lookup failed")

			if apperrors.IsFatal(err) {
				summary.Aborted = true
			}
		} else {
			item.Result = result
			j.tally(&summary, result)
			if result.Aborted {
				summary.Aborted = true
			} else if !result.RateLimited {
				path, werr := j.reports.Write(result)
				if werr != nil {
					logger.Error().Err(werr).Str("dni", dni).Msg("failed to write report")
				}
				item.ReportPath = path
			}
		}

		last := i == len(dnis)-1
		if !summary.Aborted && !last {
			item.Delay = util.Jitter(j.opts.DelayMin, j.opts.DelayMax)
		}
		if j.opts.OnItem != nil {
			j.opts.OnItem(item)
		}

		if summary.Aborted {
			logger.Error().Str("dni", dni).Msg("batch aborted")
			break
		}
		if item.Delay > 0 {
			logger.Debug().Dur("delay", item.Delay).Msg("waiting before next lookup")
			if err := j.sleep(ctx, item.Delay); err != nil {
				summary.Cancelled = true
				break
			}
		}
	}

	summary.Elapsed = time.Since(start)
	logger.Info().
		Int("processed", summary.Processed).
		Int("succeeded", summary.Succeeded).
		Int("withOffer", summary.WithOffer).
		Int("invalid", summary.Invalid).
		Int("errors", summary.Errors).
		Bool("aborted", summary.Aborted).
		Bool("cancelled", summary.Cancelled).
		Dur("elapsed", summary.Elapsed).
		Msg("batch finished")

	return summary
}

func (j *BatchJob) tally(summary *Summary, result *service.LookupResult) {
	switch {
	case result.Success():
		summary.Succeeded++
		if result.Outcome == model.OutcomeHasOffer {
			summary.WithOffer++
		} else {
			summary.WithoutOffer++
		}
	case result.Query.Status.Is(model.StatusInvalid):
		summary.Invalid++
	default:
		summary.Errors++
	}
}
