// Package duration 解析并累加 M:SS 或 H:MM:SS 形式的曲目时长
package duration

import (
	"fmt"
	"strconv"
	"strings"

	"cdstash/core/apperr"
)

const field = "duration"

// Parse 把时长字符串转换为秒数。M:SS 中分钟位数不限，秒总是 00..59 的两位数
func Parse(s string) (int, error) {
	return parseAt(s, -1)
}

func parseAt(s string, index int) (int, error) {
	malformed := func(reason string) error {
		return &apperr.MalformedDataError{Field: field, Index: index, Value: s, Reason: reason}
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return 0, malformed("empty value")
	}
	parts := strings.Split(s, ":")

	var hours, minutes, seconds int
	var err error
	switch len(parts) {
	case 2:
		if minutes, err = digits(parts[0], 0); err != nil {
			return 0, malformed("minutes " + err.Error())
		}
	case 3:
		if hours, err = digits(parts[0], 0); err != nil {
			return 0, malformed("hours " + err.Error())
		}
		if minutes, err = digits(parts[1], 2); err != nil {
			return 0, malformed("minutes " + err.Error())
		}
		if minutes > 59 {
			return 0, malformed("minutes out of range")
		}
	default:
		return 0, malformed("expected M:SS or H:MM:SS")
	}

	if seconds, err = digits(parts[len(parts)-1], 2); err != nil {
		return 0, malformed("seconds " + err.Error())
	}
	if seconds > 59 {
		return 0, malformed("seconds out of range")
	}
	return hours*3600 + minutes*60 + seconds, nil
}

// digits 解析无符号十进制数，width > 0 时要求恰好这么多位
func digits(s string, width int) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("missing")
	}
	if width > 0 && len(s) != width {
		return 0, fmt.Errorf("must have %d digits", width)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not numeric")
		}
	}
	return strconv.Atoi(s)
}

// Format 满一小时输出 H:MM:SS，否则输出 M:SS
func Format(total int) string {
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Total 累加时长。空输入得到 "0:00"，任一条格式错误则整体失败
func Total(durations []string) (string, error) {
	sum := 0
	for i, d := range durations {
		secs, err := parseAt(d, i)
		if err != nil {
			return "", err
		}
		sum += secs
	}
	return Format(sum), nil
}

// TotalOf 用于可空时长的 Total；nil 表示时长未知，与格式错误同样处理
func TotalOf(durations []*string) (string, error) {
	values := make([]string, len(durations))
	for i, d := range durations {
		if d == nil {
			return "", &apperr.MalformedDataError{Field: field, Index: i, Reason: "unknown duration"}
		}
		values[i] = *d
	}
	return Total(values)
}
