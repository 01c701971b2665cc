package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Erio-Harrison/nem-price-bot/internal/bot"
	"github.com/Erio-Harrison/nem-price-bot/internal/db"
	"github.com/Erio-Harrison/nem-price-bot/internal/logger"
	"github.com/Erio-Harrison/nem-price-bot/internal/market"
	"github.com/Erio-Harrison/nem-price-bot/internal/nemweb"
	"github.com/Erio-Harrison/nem-price-bot/internal/weather"
)

// Fetcher pulls market data. *nemweb.Client satisfies it.
type Fetcher interface {
	FetchDispatch(ctx context.Context) ([]nemweb.PriceRecord, error)
	FetchPredispatch(ctx context.Context) ([]nemweb.ForecastRecord, error)
}

// WeatherProvider looks up tomorrow's outlook for a region.
// *weather.Client satisfies it.
type WeatherProvider interface {
	Tomorrow(ctx context.Context, region string) (*weather.Forecast, error)
}

// Slot timing. New dispatch files land shortly after each five minute
// boundary, so both loops fire 90 seconds past it.
const (
	pricePeriod    = 5 * time.Minute
	forecastPeriod = 30 * time.Minute
	slotOffset     = 90 * time.Second

	staleRetries    = 5
	staleRetryDelay = 15 * time.Second

	summaryTick = time.Minute
	summaryHour = 21 // AEST
	cleanupTick = 24 * time.Hour
)

// Outcome tags for one price slot, used only for logging.
type fetchOutcome int

const (
	outcomeSuccess fetchOutcome = iota
	outcomeStale
	outcomeError
)

// Scheduler drives the periodic fetch, analyze and notify cycle.
type Scheduler struct {
	DB          *db.DB
	Sink        Sink
	Fetcher     Fetcher
	Weather     WeatherProvider
	AdminChatID int64

	// Injected for tests. now must return AEST time.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool

	summarySent bool
}

// NewScheduler wires the production clock into a scheduler.
func NewScheduler(d *db.DB, sink Sink, fetcher Fetcher, wx WeatherProvider, adminChatID int64) *Scheduler {
	return &Scheduler{
		DB:          d,
		Sink:        sink,
		Fetcher:     fetcher,
		Weather:     wx,
		AdminChatID: adminChatID,
		now:         market.NowAEST,
		sleep:       sleepCtx,
	}
}

// sleepCtx pauses for d. It reports false when ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run blocks until ctx is cancelled, driving all periodic work.
func (s *Scheduler) Run(ctx context.Context) error {
	s.prime(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.priceLoop(ctx) })
	g.Go(func() error { return s.forecastLoop(ctx) })
	g.Go(func() error { return s.summaryLoop(ctx) })
	g.Go(func() error { return s.cleanupLoop(ctx) })
	return g.Wait()
}

// prime fetches once at startup so /price and /forecast have data
// before the first aligned slot arrives.
func (s *Scheduler) prime(ctx context.Context) {
	logger.Section("Startup fetch")
	if prices, err := s.Fetcher.FetchDispatch(ctx); err != nil {
		logger.Warn("SCHED", fmt.Sprintf("startup dispatch fetch: %v", err))
	} else {
		s.processPrices(prices)
	}
	if forecasts, err := s.Fetcher.FetchPredispatch(ctx); err != nil {
		logger.Warn("SCHED", fmt.Sprintf("startup predispatch fetch: %v", err))
	} else {
		s.storeForecasts(forecasts)
	}
}

func (s *Scheduler) priceLoop(ctx context.Context) error {
	for {
		next := market.NextAligned(s.now(), pricePeriod, slotOffset)
		if !s.sleep(ctx, next.Sub(s.now())) {
			return nil
		}
		s.runPriceSlot(ctx)
	}
}

// runPriceSlot fetches dispatch prices for the interval that just
// settled. NEMWEB publishes the file with some lag, so a listing that
// still shows the previous interval is retried a few times before the
// slot is abandoned as stale. A fetch error abandons the slot at once;
// the fetcher already retries network failures internally, and the next
// aligned slot arrives within five minutes anyway.
func (s *Scheduler) runPriceSlot(ctx context.Context) {
	expected := market.ExpectedSettlement(s.now())

	var outcome fetchOutcome
	var lastErr error
	for attempt := 0; attempt < staleRetries; attempt++ {
		if attempt > 0 && !s.sleep(ctx, staleRetryDelay) {
			return
		}
		prices, err := s.Fetcher.FetchDispatch(ctx)
		if err != nil {
			outcome, lastErr = outcomeError, err
			break
		}
		if !containsInterval(prices, expected) {
			outcome = outcomeStale
			continue
		}
		s.processPrices(prices)
		outcome = outcomeSuccess
		break
	}

	switch outcome {
	case outcomeSuccess:
	case outcomeStale:
		logger.Warn("SCHED", fmt.Sprintf("interval %s not published after %d attempts", expected, staleRetries))
	case outcomeError:
		logger.Error("SCHED", fmt.Sprintf("dispatch fetch failed: %v", lastErr))
		s.pingAdmin(fmt.Sprintf("⚠️ Dispatch fetch failing: %v", lastErr))
	}
}

func containsInterval(prices []nemweb.PriceRecord, intervalTime string) bool {
	for _, p := range prices {
		if p.IntervalTime == intervalTime {
			return true
		}
	}
	return false
}

// processPrices stores a dispatch batch, fires threshold alerts, then
// checks the forecast heads-up for each region against its new price.
func (s *Scheduler) processPrices(prices []nemweb.PriceRecord) {
	for _, p := range prices {
		if err := s.DB.InsertPrice(p.Region, p.Price, p.IntervalTime); err != nil {
			logger.Error("SCHED", fmt.Sprintf("store price %s %s: %v", p.Region, p.IntervalTime, err))
		}
	}
	logger.Info("SCHED", fmt.Sprintf("stored %d dispatch prices", len(prices)))

	pending, err := Analyze(s.DB, prices)
	if err != nil {
		logger.Error("SCHED", fmt.Sprintf("analyze: %v", err))
		return
	}
	SendAlerts(s.DB, s.Sink, pending)

	// Forecast heads-ups run for every region, not just those in the
	// batch; a region missing from the file gets a zero current price.
	byRegion := make(map[string]float64, len(prices))
	for _, p := range prices {
		byRegion[p.Region] = p.Price
	}
	for _, region := range market.Regions {
		heads, err := AnalyzeForecasts(s.DB, region, byRegion[region])
		if err != nil {
			logger.Error("SCHED", fmt.Sprintf("forecast analyze %s: %v", region, err))
			continue
		}
		SendAlerts(s.DB, s.Sink, heads)
	}
}

func (s *Scheduler) forecastLoop(ctx context.Context) error {
	for {
		next := market.NextAligned(s.now(), forecastPeriod, slotOffset)
		if !s.sleep(ctx, next.Sub(s.now())) {
			return nil
		}
		forecasts, err := s.Fetcher.FetchPredispatch(ctx)
		if err != nil {
			logger.Error("SCHED", fmt.Sprintf("predispatch fetch failed: %v", err))
			s.pingAdmin(fmt.Sprintf("⚠️ Predispatch fetch failing: %v", err))
			continue
		}
		s.storeForecasts(forecasts)
	}
}

func (s *Scheduler) storeForecasts(forecasts []nemweb.ForecastRecord) {
	publishedAt := s.now().Format(market.IntervalLayout)
	for _, f := range forecasts {
		if err := s.DB.InsertForecast(f.Region, f.ForecastTime, f.Price, publishedAt); err != nil {
			logger.Error("SCHED", fmt.Sprintf("store forecast %s %s: %v", f.Region, f.ForecastTime, err))
		}
	}
	logger.Info("SCHED", fmt.Sprintf("stored %d forecast points", len(forecasts)))
}

// summaryLoop fires the daily roll-up once per day during the summary
// hour. The sent flag resets after midnight so a restart inside hour 21
// cannot double-send within the same tick cycle.
func (s *Scheduler) summaryLoop(ctx context.Context) error {
	for {
		if !s.sleep(ctx, summaryTick) {
			return nil
		}
		now := s.now()
		switch {
		case now.Hour() == 0:
			s.summarySent = false
		case now.Hour() == summaryHour && !s.summarySent:
			s.summarySent = true
			s.sendDailySummaries(ctx)
		}
	}
}

func (s *Scheduler) sendDailySummaries(ctx context.Context) {
	logger.Section("Daily summaries")
	today := market.TodayPrefix()
	dateDisplay := s.now().Format("2 Jan 2006")

	for _, region := range market.Regions {
		users, err := s.DB.GetActiveUsersByRegion(region)
		if err != nil {
			logger.Error("SCHED", fmt.Sprintf("load users for %s: %v", region, err))
			continue
		}
		if len(users) == 0 {
			continue
		}

		stats, err := s.DB.GetDailyStats(region, today)
		if err != nil {
			logger.Error("SCHED", fmt.Sprintf("daily stats %s: %v", region, err))
			continue
		}
		peakTime, err := s.DB.GetDailyPeakTime(region, today)
		if err != nil {
			logger.Error("SCHED", fmt.Sprintf("daily peak %s: %v", region, err))
		}

		// Weather is best effort, the summary goes out without it.
		wx, err := s.Weather.Tomorrow(ctx, region)
		if err != nil {
			logger.Warn("SCHED", fmt.Sprintf("weather for %s: %v", region, err))
			wx = nil
		}

		for _, u := range users {
			alertsToday, err := s.DB.CountAlertsLast24h(u.ChatID)
			if err != nil {
				logger.Error("SCHED", fmt.Sprintf("alert count for %d: %v", u.ChatID, err))
				continue
			}
			text := bot.FormatDailySummary(region, dateDisplay, stats, peakTime, wx, alertsToday)
			if err := s.Sink.Send(u.ChatID, text); err != nil {
				logger.Warn("SCHED", fmt.Sprintf("summary to %d: %v", u.ChatID, err))
			}
			time.Sleep(sendPacing)
		}
		logger.Stats(region+" summaries", len(users))
	}
}

func (s *Scheduler) cleanupLoop(ctx context.Context) error {
	for {
		if !s.sleep(ctx, cleanupTick) {
			return nil
		}
		if err := s.DB.CleanupOldRecords(); err != nil {
			logger.Error("SCHED", fmt.Sprintf("cleanup: %v", err))
			continue
		}
		logger.Info("SCHED", "retention cleanup done")
	}
}

func (s *Scheduler) pingAdmin(text string) {
	if s.AdminChatID == 0 {
		return
	}
	if err := s.Sink.Send(s.AdminChatID, text); err != nil {
		logger.Warn("SCHED", fmt.Sprintf("admin ping: %v", err))
	}
}
