package manager

import (
	"fmt"
	"time"
)

// TradeHours строит границы сегодняшней сессии из строк вида "09:16".
func TradeHours(now time.Time, open, cutoff string) (time.Time, time.Time, error) {
	o, err := atToday(now, open)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("Некорректное время открытия: %w", err)
	}
	c, err := atToday(now, cutoff)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("Некорректное время отсечки: %w", err)
	}
	if !c.After(o) {
		return time.Time{}, time.Time{}, fmt.Errorf("Отсечка %s не позже открытия %s.", cutoff, open)
	}
	return o, c, nil
}

func atToday(now time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(now.Year(), now.Month(), now.Day(),
		t.Hour(), t.Minute(), 0, 0, now.Location()), nil
}
