package services

import (
	"strings"
	"time"

	"github.com/6tail/lunar-go/HolidayUtil"
	"github.com/6tail/lunar-go/calendar"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/au"
	"github.com/rickar/cal/v2/ca"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/ie"
	"github.com/rickar/cal/v2/nl"
	"github.com/rickar/cal/v2/nz"
	"github.com/rickar/cal/v2/us"
)

// HolidayService answers working-day questions per country.
type HolidayService struct {
	calendars map[string]*cal.BusinessCalendar
}

type CountryInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var supportedCountries = []CountryInfo{
	{Code: "AU", Name: "Australia (NSW)"},
	{Code: "CN", Name: "China"},
	{Code: "NZ", Name: "New Zealand"},
	{Code: "US", Name: "United States"},
	{Code: "GB", Name: "United Kingdom"},
	{Code: "IE", Name: "Ireland"},
	{Code: "CA", Name: "Canada"},
	{Code: "DE", Name: "Germany"},
	{Code: "FR", Name: "France"},
	{Code: "NL", Name: "Netherlands"},
	{Code: "NONE", Name: "Weekdays only (Mon-Fri)"},
}

func NewHolidayService() *HolidayService {
	s := &HolidayService{calendars: make(map[string]*cal.BusinessCalendar)}
	s.add("AU", au.HolidaysNSW...)
	s.add("NZ", nz.Holidays...)
	s.add("US", us.Holidays...)
	s.add("GB", gb.Holidays...)
	s.add("IE", ie.Holidays...)
	s.add("CA", ca.Holidays...)
	s.add("DE", de.Holidays...)
	s.add("FR", fr.Holidays...)
	s.add("NL", nl.Holidays...)
	return s
}

func (s *HolidayService) add(code string, holidays ...*cal.Holiday) {
	c := cal.NewBusinessCalendar()
	c.Name = code
	c.AddHoliday(holidays...)
	s.calendars[code] = c
}

// IsWorkday falls back to Monday-Friday for unknown countries.
func (s *HolidayService) IsWorkday(t time.Time, countryCode string) bool {
	code := strings.ToUpper(countryCode)
	if code == "CN" {
		return isWorkdayChina(t)
	}
	c, ok := s.calendars[code]
	if !ok {
		return !cal.IsWeekend(t)
	}
	return c.IsWorkday(t)
}

// isWorkdayChina follows the State Council schedule, including the
// weekend days worked in exchange for longer festival breaks.
func isWorkdayChina(t time.Time) bool {
	solar := calendar.NewSolarFromDate(t)
	if h := HolidayUtil.GetHolidayByYmd(solar.GetYear(), solar.GetMonth(), solar.GetDay()); h != nil {
		return h.IsWork()
	}
	return !cal.IsWeekend(t)
}

// WorkingDays counts workdays between the calendar dates of from and to, inclusive.
func (s *HolidayService) WorkingDays(from, to time.Time, countryCode string) int {
	start := time.Date(from.Year(), from.Month(), from.Day(), 12, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), 12, 0, 0, 0, from.Location())

	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if s.IsWorkday(d, countryCode) {
			days++
		}
	}
	return days
}

func (s *HolidayService) SupportedCountries() []CountryInfo {
	return supportedCountries
}
