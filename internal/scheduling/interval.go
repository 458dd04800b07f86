package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// Clock 一天内的时刻（自零点起的分钟数）
type Clock int

// ParseClock 解析 "H:MM"、"HH:MM" 或 "HH:MM:SS"；秒须合法，但不计入结果
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: 时刻格式应为 HH:MM，实际 %q", ErrInvalidInput, s)
	}
	h, ok := clockField(parts[0], 1, 23)
	if !ok {
		return 0, fmt.Errorf("%w: 小时无效 %q", ErrInvalidInput, s)
	}
	m, ok := clockField(parts[1], 2, 59)
	if !ok {
		return 0, fmt.Errorf("%w: 分钟无效 %q", ErrInvalidInput, s)
	}
	if len(parts) == 3 {
		if _, ok := clockField(parts[2], 2, 59); !ok {
			return 0, fmt.Errorf("%w: 秒无效 %q", ErrInvalidInput, s)
		}
	}
	return Clock(h*60 + m), nil
}

// clockField 只接受纯数字；长度在 [minLen, 2] 之间且不超过 hi
func clockField(s string, minLen, hi int) (int, bool) {
	if len(s) < minLen || len(s) > 2 {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, n <= hi
}

// MustClock 解析失败时 panic，仅用于常量与测试
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String 格式化为 HH:MM
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On 返回 date 当天该时刻（使用 date 的时区）
func (c Clock) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(c)/60, int(c)%60, 0, 0, date.Location())
}

// ParseDate 按 loc 解析 YYYY-MM-DD
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: 日期格式应为 YYYY-MM-DD，实际 %q", ErrInvalidInput, s)
	}
	return t, nil
}

// Interval 半开区间 [Start, End)
type Interval struct {
	Start time.Time
	End   time.Time
}

// IntervalOn 由日期与起止时刻构造区间
func IntervalOn(date time.Time, start, end Clock) Interval {
	return Interval{Start: start.On(date), End: end.On(date)}
}

// LocalInterval 与 IntervalOn 相同，但要求两端的墙上时刻在当地确实存在。
// 夏令时拨快跳过的时刻会被 time.Date 挪到别的钟点，此时返回 ErrInvalidInput
func LocalInterval(date time.Time, start, end Clock) (Interval, error) {
	iv := IntervalOn(date, start, end)
	for _, pair := range []struct {
		at   time.Time
		want Clock
	}{{iv.Start, start}, {iv.End, end}} {
		if got := Clock(pair.at.Hour()*60 + pair.at.Minute()); got != pair.want {
			return Interval{}, fmt.Errorf("%w: %s %s 在时区 %s 中不存在",
				ErrInvalidInput, date.Format("2006-01-02"), pair.want, date.Location())
		}
	}
	return iv, nil
}

// Valid Start 严格早于 End
func (i Interval) Valid() bool { return i.Start.Before(i.End) }

// Overlaps 两个半开区间是否重叠；首尾相接不算重叠
func (i Interval) Overlaps(o Interval) bool {
	return o.Start.Before(i.End) && o.End.After(i.Start)
}

// Minutes 区间时长（分钟）
func (i Interval) Minutes() int {
	return int(i.End.Sub(i.Start) / time.Minute)
}
