// Package riskscale はリスクスコアを表示用の配色へ変換する。
package riskscale

import "strings"

// パレット。スコア帯ごとに 1 色を割り当てる。
const (
	DarkGreen       = "#006837"
	LightGreen      = "#66BD63"
	VeryLightGreen  = "#D9EF8B"
	LightYellow     = "#FFFFBF"
	SoftYellow      = "#FEE08B"
	LightOrange     = "#FDAE61"
	LightRed        = "#F46D43"
	DarkerOrangeRed = "#D73027"
	DarkRed         = "#A50026"

	// LightText は濃い背景に載せる文字色。
	LightText = "#FFFFFF"
	// DarkText はそれ以外の背景に載せる文字色。
	DarkText = "#1A1A1A"
)

// Level はスコア帯 1 つ分の表示情報。
type Level struct {
	Min       float64 `json:"min"`
	Color     string  `json:"color"`
	TextColor string  `json:"textColor"`
	Label     string  `json:"label"`
}

// levels は上位の帯から順に並べる。Color の比較順と一致させること。
var levels = []Level{
	{Min: 9, Color: DarkRed, Label: "severe"},
	{Min: 8, Color: DarkerOrangeRed, Label: "very high"},
	{Min: 7, Color: LightRed, Label: "high"},
	{Min: 6, Color: LightOrange, Label: "elevated"},
	{Min: 5, Color: SoftYellow, Label: "moderate"},
	{Min: 4, Color: LightYellow, Label: "guarded"},
	{Min: 3, Color: VeryLightGreen, Label: "low"},
	{Min: 2, Color: LightGreen, Label: "very low"},
	{Min: 1, Color: DarkGreen, Label: "minimal"},
}

var darkBackgrounds = map[string]struct{}{
	DarkGreen:       {},
	DarkerOrangeRed: {},
	DarkRed:         {},
}

// Color はスコアに対応する背景色を返す。
// 比較はすべて >= で行うため、1 未満と NaN は最下位帯の色にフォールバックする。
func Color(score float64) string {
	return LevelFor(score).Color
}

// TextColor は背景色に対して読みやすい文字色を返す。
// パレット外の色を含め、濃色 3 色以外はすべて DarkText。
func TextColor(background string) string {
	key := strings.ToUpper(strings.TrimSpace(background))
	if _, ok := darkBackgrounds[key]; ok {
		return LightText
	}
	return DarkText
}

// LevelFor はスコアが属する帯を文字色付きで返す。
func LevelFor(score float64) Level {
	for _, level := range levels {
		if score >= level.Min {
			return withText(level)
		}
	}
	return withText(levels[len(levels)-1])
}

// Legend は凡例表示用に全帯を低い順で返す。
func Legend() []Level {
	result := make([]Level, 0, len(levels))
	for i := len(levels) - 1; i >= 0; i-- {
		result = append(result, withText(levels[i]))
	}
	return result
}

func withText(level Level) Level {
	level.TextColor = TextColor(level.Color)
	return level
}
