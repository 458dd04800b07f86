package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// Mode 重复模式
type Mode string

const (
	ModeOnce   Mode = "once"
	ModeDaily  Mode = "daily"
	ModeWeekly Mode = "weekly"
)

// ParseMode 解析重复模式（大小写不敏感）
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeOnce, ModeDaily, ModeWeekly:
		return m, nil
	default:
		return "", fmt.Errorf("%w: 未知的重复模式 %q", ErrInvalidInput, s)
	}
}

// WeekdaySet ISO 星期集合，1=周一 … 7=周日
type WeekdaySet [8]bool

// NewWeekdaySet 由 1-7 的整数构造集合，越界返回 ErrInvalidInput
func NewWeekdaySet(days ...int) (WeekdaySet, error) {
	var set WeekdaySet
	for _, d := range days {
		if d < 1 || d > 7 {
			return WeekdaySet{}, fmt.Errorf("%w: 星期取值 %d 超出 1-7", ErrInvalidInput, d)
		}
		set[d] = true
	}
	return set, nil
}

// Contains 是否包含 ISO 星期 d
func (s WeekdaySet) Contains(d int) bool {
	return d >= 1 && d <= 7 && s[d]
}

// Len 集合大小
func (s WeekdaySet) Len() int {
	n := 0
	for d := 1; d <= 7; d++ {
		if s[d] {
			n++
		}
	}
	return n
}

// Days 升序返回集合中的星期
func (s WeekdaySet) Days() []int {
	days := make([]int, 0, 7)
	for d := 1; d <= 7; d++ {
		if s[d] {
			days = append(days, d)
		}
	}
	return days
}

// ISOWeekday 返回 ISO 星期：周一=1 … 周日=7
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// DateOf 截取到当天零点（保留时区）
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween 两个日期之间相差的自然日数（不受夏令时影响）
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// Expand 按重复模式将 [start, end] 展开为升序日期列表
//
//   - once: 只返回 start，忽略 end
//   - daily: 区间内每一天
//   - weekly: 区间内 ISO 星期属于 weekdays 的日期
//
// start 晚于 end 时（daily/weekly）返回空列表。
func Expand(start, end time.Time, mode Mode, weekdays WeekdaySet) []time.Time {
	start, end = DateOf(start), DateOf(end)

	if mode == ModeOnce {
		return []time.Time{start}
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch mode {
		case ModeDaily:
			dates = append(dates, d)
		case ModeWeekly:
			if weekdays.Contains(ISOWeekday(d)) {
				dates = append(dates, d)
			}
		}
	}
	return dates
}
