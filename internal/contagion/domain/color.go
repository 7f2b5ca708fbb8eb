package domain

import (
	"fmt"
	"strings"
)

// Color 疾病颜色，同时也是城市所属区域的颜色。
type Color string

const (
	Blue   Color = "blue"
	Yellow Color = "yellow"
	Black  Color = "black"
	Red    Color = "red"
)

// AllColors 按固定顺序返回全部颜色。
func AllColors() []Color {
	return []Color{Blue, Yellow, Black, Red}
}

func (c Color) Valid() bool {
	switch c {
	case Blue, Yellow, Black, Red:
		return true
	}
	return false
}

func (c Color) String() string {
	return string(c)
}

func ParseColor(s string) (Color, error) {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown disease color %q", s)
	}
	return c, nil
}
