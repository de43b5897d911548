// package telegram adapts the delivery coordinator to the Telegram Bot API.
// Nothing outside this package imports the transport library.
package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tunedrop/tunedrop/internal/delivery"
	"github.com/tunedrop/tunedrop/internal/formatter"
	"github.com/tunedrop/tunedrop/internal/shared"
)

// maxLabelRunes bounds inline button labels; longer titles get an ellipsis.
const maxLabelRunes = 50

// CallbackKind discriminates inline button payloads.
type CallbackKind int

const (
	CallbackSelect CallbackKind = iota
	CallbackPage
	CallbackNoop
)

// Callback is a decoded inline button payload. Value is an absolute item
// index for CallbackSelect and a page number for CallbackPage.
type Callback struct {
	Kind       CallbackKind
	Generation uint64
	Value      int
}

func encodeSelect(generation uint64, index int) string {
	return fmt.Sprintf("song_%d_%d", generation, index)
}

func encodePage(generation uint64, page int) string {
	return fmt.Sprintf("page_%d_%d", generation, page)
}

// ParseCallback decodes an inline button payload. Unknown or malformed
// payloads are rejected; the generation inside the payload is what lets a
// stale keyboard be detected after the owner searches again.
func ParseCallback(data string) (Callback, error) {
	if data == "noop" {
		return Callback{Kind: CallbackNoop}, nil
	}

	parts := strings.Split(data, "_")
	if len(parts) != 3 {
		return Callback{}, fmt.Errorf("%w: callback %q", shared.ErrInvalidInput, data)
	}

	generation, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Callback{}, fmt.Errorf("%w: callback %q", shared.ErrInvalidInput, data)
	}
	value, err := strconv.Atoi(parts[2])
	if err != nil || value < 0 {
		return Callback{}, fmt.Errorf("%w: callback %q", shared.ErrInvalidInput, data)
	}

	switch parts[0] {
	case "song":
		return Callback{Kind: CallbackSelect, Generation: generation, Value: value}, nil
	case "page":
		return Callback{Kind: CallbackPage, Generation: generation, Value: value}, nil
	default:
		return Callback{}, fmt.Errorf("%w: callback %q", shared.ErrInvalidInput, data)
	}
}

// buttonLabel renders one result row label: position, title and duration.
func buttonLabel(position int, title string, durationSec int) string {
	label := fmt.Sprintf("%d. %s", position, title)
	if durationSec > 0 {
		label = fmt.Sprintf("%s (%s)", label, formatter.FormatDuration(durationSec))
	}
	return formatter.TruncateTitle(label, maxLabelRunes)
}

// resultsKeyboard builds the inline keyboard for one results page: a button
// per item plus a navigation row.
func resultsKeyboard(view delivery.ResultsView) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(view.Items)+1)

	for i, item := range view.Items {
		index := view.PageBase + i
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				buttonLabel(index+1, item.Title, item.DurationSec),
				encodeSelect(view.Generation, index),
			),
		))
	}

	nav := make([]tgbotapi.InlineKeyboardButton, 0, 3)
	if view.Page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("« Prev", encodePage(view.Generation, view.Page-1)))
	}
	nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(
		fmt.Sprintf("Page %d/%d", view.Page+1, view.Pages), "noop"))
	if view.Page < view.Pages-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next »", encodePage(view.Generation, view.Page+1)))
	}
	rows = append(rows, nav)

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
