package server

import (
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	compliancedomain "github.com/smallbiznis/franchisehub/internal/compliance/domain"
)

type periodQuery struct {
	Period string `form:"period"`
	Month  string `form:"month"`
	Year   string `form:"year"`
}

// reportFilter turns ?period=&month=&year= into a filter. Missing month or
// year fall back to the current period.
func (s *Server) reportFilter(q periodQuery) (compliancedomain.ReportFilter, error) {
	granularity, err := compliancedomain.ParseGranularity(q.Period)
	if err != nil {
		return compliancedomain.ReportFilter{}, err
	}

	month, err := parseOptionalInt(q.Month)
	if err != nil {
		return compliancedomain.ReportFilter{}, compliancedomain.ErrInvalidPeriod
	}
	year, err := parseOptionalInt(q.Year)
	if err != nil {
		return compliancedomain.ReportFilter{}, compliancedomain.ErrInvalidPeriod
	}

	period, err := s.resolvePeriod(month, year, granularity)
	if err != nil {
		return compliancedomain.ReportFilter{}, err
	}
	return compliancedomain.ReportFilter{Granularity: granularity, PeriodStart: period.Start}, nil
}

func (s *Server) resolvePeriod(month, year int, granularity compliancedomain.Granularity) (compliancedomain.Period, error) {
	now := s.clock.Now().UTC()
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	return compliancedomain.NewPeriod(year, month, granularity)
}

func parseOptionalInt(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	return strconv.Atoi(trimmed)
}

func parseSnowflakeID(value string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid_id")
	}
	return parsed, nil
}
