package attendance

import (
	"regexp"
	"time"

	pkgerrors "RollCall/pkg/errors"
)

// OffsetFull 表示进场窗口覆盖整节课的哨兵值
const OffsetFull = "FULL"

var offsetPattern = regexp.MustCompile(`^(\d+)H(\d+)M$`)

// ParseOffset 解析 "<h>H<m>M" 相对偏移，返回分钟数。
// 不匹配语法时 ok 为 false，调用方必须以 INVALID_ENTRY_WINDOW 拒绝请求。
func ParseOffset(s string) (minutes int, ok bool) {
	m := offsetPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	var h, mm int
	for _, c := range m[1] {
		h = h*10 + int(c-'0')
	}
	for _, c := range m[2] {
		mm = mm*10 + int(c-'0')
	}
	return h*60 + mm, true
}

// Window 一节课的四个绝对时间点
type Window struct {
	ClassStart time.Time
	ClassEnd   time.Time
	EntryStart time.Time
	EntryEnd   time.Time
}

// ParseClassTime 把 "HH:MM" 应用到课程日期上
func ParseClassTime(classDate, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", classDate+" "+hhmm, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// ComputeWindow 把课程日期、上下课时间和进场偏移换算成绝对时间窗口。
// entryEnd 可为 FULL，表示窗口一直开到下课。
func ComputeWindow(classDate, classStart, classEnd, entryStart, entryEnd string, loc *time.Location) (Window, error) {
	start, err := ParseClassTime(classDate, classStart, loc)
	if err != nil {
		return Window{}, pkgerrors.InvalidTimeRange
	}
	end, err := ParseClassTime(classDate, classEnd, loc)
	if err != nil {
		return Window{}, pkgerrors.InvalidTimeRange
	}

	startOffset, ok := ParseOffset(entryStart)
	if !ok {
		return Window{}, pkgerrors.InvalidEntryWindow
	}

	var endOffset int
	if entryEnd == OffsetFull {
		endOffset = int(end.Sub(start) / time.Minute)
	} else {
		endOffset, ok = ParseOffset(entryEnd)
		if !ok {
			return Window{}, pkgerrors.InvalidEntryWindow
		}
	}

	return Window{
		ClassStart: start,
		ClassEnd:   end,
		EntryStart: start.Add(time.Duration(startOffset) * time.Minute),
		EntryEnd:   start.Add(time.Duration(endOffset) * time.Minute),
	}, nil
}

// ValidateEntryOffsets 建场时校验进场窗口：终点必须晚于起点。
func ValidateEntryOffsets(entryStart, entryEnd string, classStart, classEnd string) error {
	startMins, ok := ParseOffset(entryStart)
	if !ok {
		return pkgerrors.InvalidEntryWindow
	}

	var endMins int
	if entryEnd == OffsetFull {
		s, errS := time.Parse("15:04", classStart)
		e, errE := time.Parse("15:04", classEnd)
		if errS != nil || errE != nil {
			return pkgerrors.InvalidTimeRange
		}
		endMins = int(e.Sub(s) / time.Minute)
	} else {
		endMins, ok = ParseOffset(entryEnd)
		if !ok {
			return pkgerrors.InvalidEntryWindow
		}
	}

	if endMins <= startMins {
		return pkgerrors.InvalidEntryWindow
	}
	return nil
}

// WidenTo 重开只会放宽窗口，不会收窄
func (w Window) WidenTo(until time.Time) Window {
	if until.After(w.EntryEnd) {
		w.EntryEnd = until
	}
	return w
}
