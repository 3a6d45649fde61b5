// Package month содержит календарную арифметику для расчёта периодов членства.
package month

import (
	"errors"
	"time"
)

// ErrInvalidDuration возвращается, если количество месяцев меньше единицы.
var ErrInvalidDuration = errors.New("duration must be a positive number of months")

// AddMonths возвращает дату через months календарных месяцев после start.
// День месяца сохраняется; если в целевом месяце такого дня нет,
// берётся последний день целевого месяца: 31 января + 1 месяц даёт
// 28 или 29 февраля, а не 2-3 марта, как у time.AddDate.
func AddMonths(start time.Time, months int) (time.Time, error) {
	if months < 1 {
		return time.Time{}, ErrInvalidDuration
	}

	year, m, day := start.Date()
	totalMonths := int(m) - 1 + months
	year += totalMonths / 12
	targetMonth := time.Month(totalMonths%12 + 1)

	if last := lastDay(year, targetMonth); day > last {
		day = last
	}

	h, mi, s := start.Clock()
	return time.Date(year, targetMonth, day, h, mi, s, start.Nanosecond(), start.Location()), nil
}

// lastDay возвращает номер последнего дня месяца.
func lastDay(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
