package features

import "fmt"

// Calendar is the read-only side-table snapshot the engine left-joins
// against, keyed on date (and date+hour for events). Absent entries join as
// zeros, so a missing or unreachable calendar source degrades features to
// their unknown buckets instead of failing the transform.
type Calendar struct {
	Holidays       map[string]Holiday // date -> holiday flags
	SchoolHolidays map[string]bool    // date set
	Lectures       map[string]Lecture // date -> lecture period flags
	Events         map[string]Event   // "date:hour" -> event flags
}

type Holiday struct {
	IsHoliday    bool `json:"is_holiday"`
	IsNationwide bool `json:"is_nationwide"`
}

type Lecture struct {
	JMU  bool `json:"jmu_lecture"`
	THWS bool `json:"thws_lecture"`
}

type Event struct {
	HasEvent   bool `json:"has_event"`
	HasConcert bool `json:"has_concert"`
}

func NewCalendar() Calendar {
	return Calendar{
		Holidays:       make(map[string]Holiday),
		SchoolHolidays: make(map[string]bool),
		Lectures:       make(map[string]Lecture),
		Events:         make(map[string]Event),
	}
}

func eventKey(date string, hour int) string {
	return fmt.Sprintf("%s:%d", date, hour)
}

func (c Calendar) SetEvent(date string, hour int, ev Event) {
	c.Events[eventKey(date, hour)] = ev
}

func (c Calendar) EventAt(date string, hour int) (Event, bool) {
	ev, ok := c.Events[eventKey(date, hour)]
	return ev, ok
}

func (c Calendar) holidayOn(date string) bool {
	return c.Holidays[date].IsHoliday
}
