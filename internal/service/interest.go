package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/themyzteziz/bankapp/internal/ledger"
)

// InterestService periodically credits savings accounts with one month of
// interest. The interval is configurable so deployments that are not kept
// running for a whole month can shorten it.
type InterestService struct {
	ledger            *ledger.Ledger
	annualRatePercent float64
	interval          time.Duration
	shutdownChan      chan struct{}
	wg                sync.WaitGroup
	logger            *slog.Logger
}

func NewInterestService(l *ledger.Ledger, annualRatePercent float64, interval time.Duration, logger *slog.Logger) *InterestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InterestService{
		ledger:            l,
		annualRatePercent: annualRatePercent,
		interval:          interval,
		shutdownChan:      make(chan struct{}),
		logger:            logger,
	}
}

func (s *InterestService) Start() {
	s.wg.Add(1)
	go s.run()

	s.logger.Info("Interest service started",
		slog.Float64("annual_rate_percent", s.annualRatePercent),
		slog.Duration("interval", s.interval))
}

func (s *InterestService) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.ledger.ApplyMonthlyInterest(context.Background(), s.annualRatePercent); err != nil {
				s.logger.Error("Interest accrual failed", slog.String("error", err.Error()))
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *InterestService) Shutdown(ctx context.Context) error {
	close(s.shutdownChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Interest service shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
