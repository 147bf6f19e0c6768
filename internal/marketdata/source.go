package marketdata

import (
	"context"
	"time"

	"odte-trader/internal/interfaces"
	"odte-trader/internal/types"
)

// CSVSource serves pre-loaded bar series behind the BarSource interface.
type CSVSource struct {
	daily    []types.Bar
	intraday []types.Bar
	loc      *time.Location
}

var _ interfaces.BarSource = (*CSVSource)(nil)

func NewCSVSource(dailyPath, intradayPath string, loc *time.Location) (*CSVSource, error) {
	daily, err := LoadBars(dailyPath, loc)
	if err != nil {
		return nil, err
	}
	intra, err := LoadBars(intradayPath, loc)
	if err != nil {
		return nil, err
	}
	return &CSVSource{daily: daily, intraday: intra, loc: loc}, nil
}

func (s *CSVSource) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]types.Bar, error) {
	_ = ctx
	_ = symbol
	return SliceRange(s.daily, start, end), nil
}

func (s *CSVSource) IntradayBars(ctx context.Context, symbol string, day time.Time) ([]types.Bar, error) {
	_ = ctx
	_ = symbol
	d := day.In(s.loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
	return SliceRange(s.intraday, start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)), nil
}

func (s *CSVSource) TradingDays(ctx context.Context, symbol string) ([]time.Time, error) {
	_ = ctx
	_ = symbol
	return TradingDays(s.intraday, s.loc), nil
}
