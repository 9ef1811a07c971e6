package store

import (
	"context"
	"fmt"
	"time"

	"pedestrian-forecast-api/features"

	"github.com/redis/go-redis/v9"
)

// CalendarSource reads the per-date side tables (holidays, school holidays,
// lecture periods, events) maintained by the import jobs. It is consumed
// read-only; absent keys are absent values, never errors.
type CalendarSource struct {
	client *redis.Client
}

func NewCalendarSource(client *redis.Client) *CalendarSource {
	return &CalendarSource{client: client}
}

func (c *CalendarSource) HolidayInfo(ctx context.Context, date string) (*features.Holiday, error) {
	data, err := c.client.HGetAll(ctx, "holiday:"+date).Result()
	if err != nil {
		return nil, fmt.Errorf("read holiday %s: %w", date, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &features.Holiday{
		IsHoliday:    data["is_holiday"] == "1",
		IsNationwide: data["is_nationwide"] == "1",
	}, nil
}

func (c *CalendarSource) IsSchoolHoliday(ctx context.Context, date string) (bool, error) {
	ok, err := c.client.SIsMember(ctx, "school_holidays:all", date).Result()
	if err != nil {
		return false, fmt.Errorf("check school holiday %s: %w", date, err)
	}
	return ok, nil
}

// SchoolHolidayPeriod describes the named break a date belongs to.
type SchoolHolidayPeriod struct {
	Date        string `json:"date"`
	HolidayName string `json:"holiday_name"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Type        string `json:"type"`
}

func (c *CalendarSource) SchoolHolidayPeriod(ctx context.Context, date string) (*SchoolHolidayPeriod, error) {
	data, err := c.client.HGetAll(ctx, "school_holiday:day:"+date).Result()
	if err != nil {
		return nil, fmt.Errorf("read school holiday period %s: %w", date, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &SchoolHolidayPeriod{
		Date:        data["date"],
		HolidayName: data["holiday_name"],
		StartDate:   data["start_date"],
		EndDate:     data["end_date"],
		Type:        data["type"],
	}, nil
}

func (c *CalendarSource) LectureInfo(ctx context.Context, date string) (*features.Lecture, error) {
	data, err := c.client.HGetAll(ctx, "lecture:detail:"+date).Result()
	if err != nil {
		return nil, fmt.Errorf("read lecture %s: %w", date, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &features.Lecture{
		JMU:  data["jmu_lecture"] == "1",
		THWS: data["thws_lecture"] == "1",
	}, nil
}

func (c *CalendarSource) EventInfo(ctx context.Context, date string, hour int) (*features.Event, error) {
	data, err := c.client.HGetAll(ctx, fmt.Sprintf("event:%s:%d", date, hour)).Result()
	if err != nil {
		return nil, fmt.Errorf("read event %s/%d: %w", date, hour, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &features.Event{
		HasEvent:   data["has_event"] == "1",
		HasConcert: data["has_concert"] == "1",
	}, nil
}

// LoadRange assembles the side-table snapshot for [startDate, endDate] in
// batched round trips, one pipeline per day window. The snapshot is what
// the feature engine joins against; days without entries are simply absent.
func (c *CalendarSource) LoadRange(ctx context.Context, startDate, endDate string) (features.Calendar, error) {
	cal := features.NewCalendar()

	start, err := time.ParseInLocation("2006-01-02", startDate, time.UTC)
	if err != nil {
		return cal, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.ParseInLocation("2006-01-02", endDate, time.UTC)
	if err != nil {
		return cal, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := day.Format("2006-01-02")

		pipe := c.client.Pipeline()
		holidayCmd := pipe.HGetAll(ctx, "holiday:"+date)
		schoolCmd := pipe.SIsMember(ctx, "school_holidays:all", date)
		lectureCmd := pipe.HGetAll(ctx, "lecture:detail:"+date)
		eventCmds := make([]*redis.MapStringStringCmd, 24)
		for h := 0; h < 24; h++ {
			eventCmds[h] = pipe.HGetAll(ctx, fmt.Sprintf("event:%s:%d", date, h))
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return cal, fmt.Errorf("load calendar %s: %w", date, err)
		}

		if data := holidayCmd.Val(); len(data) > 0 {
			cal.Holidays[date] = features.Holiday{
				IsHoliday:    data["is_holiday"] == "1",
				IsNationwide: data["is_nationwide"] == "1",
			}
		}
		if schoolCmd.Val() {
			cal.SchoolHolidays[date] = true
		}
		if data := lectureCmd.Val(); len(data) > 0 {
			cal.Lectures[date] = features.Lecture{
				JMU:  data["jmu_lecture"] == "1",
				THWS: data["thws_lecture"] == "1",
			}
		}
		for h, cmd := range eventCmds {
			if data := cmd.Val(); len(data) > 0 {
				cal.SetEvent(date, h, features.Event{
					HasEvent:   data["has_event"] == "1",
					HasConcert: data["has_concert"] == "1",
				})
			}
		}
	}

	return cal, nil
}
