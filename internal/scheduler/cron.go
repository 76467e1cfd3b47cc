package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений (5 полей и дескрипторы @every, @hourly).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule разбирает cron-выражение с учётом timezone.
// Невалидная timezone — UTC.
func ParseSchedule(cronExpr, timezone string) (cron.Schedule, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}

	if timezone == "" {
		return schedule, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return inLocation{schedule: schedule, loc: loc}, nil
}

// inLocation вычисляет расписание в заданной timezone.
type inLocation struct {
	schedule cron.Schedule
	loc      *time.Location
}

func (s inLocation) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.loc))
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	_, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}
