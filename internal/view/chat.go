package view

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"cwclog/internal/entry"
	"cwclog/internal/format"
	"cwclog/internal/model"

	"github.com/mattn/go-runewidth"
)

func renderChatTranscript(entries []*entry.Entry, width int, useColor bool) []string {
	if width <= 0 {
		width = 80
	}
	padding := 2

	lines := make([]string, 0, len(entries)*6)
	for idx, e := range entries {
		if idx > 0 {
			lines = append(lines, "")
		}
		if e.Kind() == model.KindReset {
			lines = append(lines, renderResetRule(width, useColor))
			continue
		}
		lines = append(lines, renderChatBubble(e, width, padding, useColor)...)
	}
	return lines
}

func renderResetRule(width int, useColor bool) string {
	label := " new conversation "
	side := (width - runewidth.StringWidth(label)) / 2
	if side < 3 {
		side = 3
	}
	rule := strings.Repeat("─", side) + label + strings.Repeat("─", side)
	return colorize(useColor, ansiSeparator, rule)
}

func renderChatBubble(e *entry.Entry, totalWidth int, padding int, useColor bool) []string {
	bodyLines := format.RenderEntryLines(e, 0)

	maxContentWidth := totalWidth - padding*2 - 10
	if maxContentWidth < 20 {
		if totalWidth > 30 {
			maxContentWidth = totalWidth - 12
		} else {
			maxContentWidth = totalWidth - 8
		}
		if maxContentWidth < 8 {
			maxContentWidth = 8
		}
	}

	headerText, headerLabel, headerMeta := chatHeader(e)
	content := wrapLines(append([]string{headerText}, bodyLines...), maxContentWidth)
	bubbleWidth := contentMaxWidth(content)
	if bubbleWidth > maxContentWidth {
		bubbleWidth = maxContentWidth
	}

	align := alignmentForKind(e.Kind())
	leftPad := computeLeftPad(totalWidth, bubbleWidth, padding, align)

	if useColor && len(content) > 0 {
		colored := fmt.Sprintf("%s · %s",
			colorize(true, kindColor(e.Kind()), headerLabel),
			colorize(true, ansiTimestamp, headerMeta),
		)
		content[0] = strings.Replace(content[0], headerText, colored, 1)
	}

	top := fmt.Sprintf("%s╭%s╮", strings.Repeat(" ", leftPad), strings.Repeat("─", bubbleWidth+2))
	bottom := fmt.Sprintf("%s╰%s╯", strings.Repeat(" ", leftPad), strings.Repeat("─", bubbleWidth+2))

	result := []string{top}
	for _, line := range content {
		result = append(result, renderBubbleBodyLine(line, bubbleWidth, leftPad, useColor))
	}
	result = append(result, bottom)
	return result
}

func renderBubbleBodyLine(line string, bubbleWidth int, leftPad int, useColor bool) string {
	displayLen := visibleWidth(line)
	if displayLen > bubbleWidth {
		line = truncateToWidth(line, bubbleWidth)
		displayLen = bubbleWidth
	}
	paddingRight := bubbleWidth - displayLen

	border := "|"
	if useColor {
		border = colorize(true, ansiSeparator, border)
	}

	return fmt.Sprintf("%s%s %s%s %s", strings.Repeat(" ", leftPad), border, line, strings.Repeat(" ", paddingRight), border)
}

func chatHeader(e *entry.Entry) (header string, label string, meta string) {
	label = format.Label(e)
	if label == "" {
		label = "Event"
	}
	meta = e.Timestamp()
	if meta == "" {
		meta = "-"
	}
	meta += " · " + e.Partner()
	return fmt.Sprintf("%s · %s", label, meta), label, meta
}

func alignmentForKind(kind model.Kind) string {
	switch kind {
	case model.KindUserUtterance:
		return "right"
	case model.KindReset:
		return "center"
	case model.KindSysUtterance, model.KindAddProvenance, model.KindDisplayImage, model.KindDisplaySBGN, model.KindNone:
		return "left"
	}
	return "left"
}

func computeLeftPad(totalWidth, bubbleWidth, padding int, align string) int {
	maxPad := totalWidth - bubbleWidth - 4
	if maxPad < 0 {
		maxPad = 0
	}

	switch align {
	case "right":
		return maxPad
	case "center":
		center := maxPad / 2
		if center < padding {
			center = padding
		}
		if center > maxPad {
			center = maxPad
		}
		return center
	default:
		if padding > maxPad {
			return maxPad
		}
		return padding
	}
}

func wrapLines(lines []string, width int) []string {
	var out []string
	for _, line := range lines {
		out = append(out, wrapText(line, width)...)
	}
	return out
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	text = strings.TrimRight(text, " ")
	if text == "" {
		return []string{""}
	}
	var out []string
	var current strings.Builder
	currentWidth := 0

	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if currentWidth+rw > width && current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
			currentWidth = 0
		}
		current.WriteRune(r)
		currentWidth += rw
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

func contentMaxWidth(lines []string) int {
	widest := 0
	for _, line := range lines {
		if w := visibleWidth(line); w > widest {
			widest = w
		}
	}
	return widest
}

func truncateToWidth(text string, width int) string {
	if visibleWidth(text) <= width {
		return text
	}
	var out strings.Builder
	current := 0

	for i := 0; i < len(text); {
		if m := ansiPattern.FindStringIndex(text[i:]); m != nil && m[0] == 0 {
			out.WriteString(text[i : i+m[1]])
			i += m[1]
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		rw := runewidth.RuneWidth(r)
		if current+rw > width {
			break
		}
		out.WriteRune(r)
		current += rw
		i += size
	}
	return out.String()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func visibleWidth(text string) int {
	clean := ansiPattern.ReplaceAllString(text, "")
	return runewidth.StringWidth(clean)
}
