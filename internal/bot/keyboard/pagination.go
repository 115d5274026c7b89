package keyboard

import (
	"strconv"
	"strings"

	"github.com/nolyk/modbot/internal/i18n"
)

// PaginationButtons returns up to three inline buttons (prev, current page,
// next) allowing the caller to paginate lists using a shared action prefix.
func PaginationButtons(t i18n.Translator, action string, page, totalPages int) []InlineButton {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	buttons := make([]InlineButton, 0, 3)

	if page > 1 {
		buttons = append(buttons, InlineButton{
			Text: translated(t, "pagination.prev", "◀️"),
			Data: MustEncode(action, strconv.Itoa(page-1)),
		})
	}

	buttons = append(buttons, InlineButton{
		Text: translated(t, "pagination.page", "") + " " + strconv.Itoa(page) + "/" + strconv.Itoa(totalPages),
		Data: MustEncode(action, strconv.Itoa(page)),
	})

	if page < totalPages {
		buttons = append(buttons, InlineButton{
			Text: translated(t, "pagination.next", "▶️"),
			Data: MustEncode(action, strconv.Itoa(page+1)),
		})
	}

	return buttons
}

func translated(t i18n.Translator, key, fallback string) string {
	if t == nil {
		return fallback
	}

	text := strings.TrimSpace(t.T(key))
	if text == "" || text == key {
		return fallback
	}

	return text
}
