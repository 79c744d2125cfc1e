package statemachine

import "minhacomanda-api/models"

// The order lifecycle here is deliberately permissive: the ledger only checks
// that a target status is in the enumerated set, and staff pick sensible
// transitions. The graph below is advisory — it drives the Telegram inline
// keyboard and the documentation endpoint.

var allStatuses = []models.OrderStatus{
	models.StatusAwaiting,
	models.StatusConfirmed,
	models.StatusPreparing,
	models.StatusDelivered,
	models.StatusClosed,
	models.StatusCanceled,
}

var statusSet = func() map[models.OrderStatus]bool {
	m := make(map[models.OrderStatus]bool)
	for _, s := range allStatuses {
		m[s] = true
	}
	return m
}()

// suggestedNext is the usual happy-path progression plus cancellation
var suggestedNext = map[models.OrderStatus][]models.OrderStatus{
	models.StatusAwaiting:  {models.StatusConfirmed, models.StatusCanceled},
	models.StatusConfirmed: {models.StatusPreparing, models.StatusCanceled},
	models.StatusPreparing: {models.StatusDelivered},
	models.StatusDelivered: {models.StatusClosed},
}

// ValidStatus reports whether s is one of the enumerated order statuses.
func ValidStatus(s models.OrderStatus) bool {
	return statusSet[s]
}

// ValidSource reports whether src is a known transition source.
func ValidSource(src models.EventSource) bool {
	return src == models.SourceSystem || src == models.SourceAdmin || src == models.SourceTelegram
}

// SuggestedTransitionsFrom returns the advisory next states from a status.
// Terminal states (closed, canceled) have none.
func SuggestedTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	return suggestedNext[status]
}

// AllStatuses returns every order status, in lifecycle order.
func AllStatuses() []models.OrderStatus {
	return allStatuses
}
