package service

import "github.com/airsyncd/airsyncd/models"

const (
	// DefaultWindowSize applies when the request names no window.
	DefaultWindowSize = 100

	// MaxWindowSize is the hard ceiling; larger requested windows are
	// clamped down to it.
	MaxWindowSize = 512
)

// clampWindow normalizes the requested window size to the effective batch
// budget of the response.
func clampWindow(requested int) int {
	switch {
	case requested <= 0:
		return DefaultWindowSize
	case requested > MaxWindowSize:
		return MaxWindowSize
	}
	return requested
}

// paginate cuts the ordered entry list to at most window entries. The
// second result is true iff at least one entry remains beyond the cut;
// an exactly-full final batch reports false.
func paginate(entries []models.ChangeEntry, window int) ([]models.ChangeEntry, bool) {
	if window < 0 {
		window = 0
	}
	if len(entries) <= window {
		return entries, false
	}
	return entries[:window], true
}
