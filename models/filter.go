package models

// FilterType is the per-collection enumerated recency window applied during
// change enumeration. Which values are legal depends on the collection class.
type FilterType int

const (
	FilterNone            FilterType = 0 // no filter, all items
	FilterOneDay          FilterType = 1
	FilterThreeDays       FilterType = 2
	FilterOneWeek         FilterType = 3
	FilterTwoWeeks        FilterType = 4
	FilterOneMonth        FilterType = 5
	FilterThreeMonths     FilterType = 6 // Calendar only
	FilterSixMonths       FilterType = 7 // Calendar only
	FilterIncompleteTasks FilterType = 8 // Tasks only
)

// ValidForClass reports whether f is a legal filter value for the given
// class. Contacts, Notes and SMS ignore FilterType entirely, so any value
// is accepted (and has no effect) for them.
//
//   - Email supports the full recency ladder 0-5; the calendar-reserved
//     values 6-7 and the task-reserved value 8 are hard errors.
//   - Calendar supports 0 and the future-biased values 4-7.
//   - Tasks recognizes only "all" (0) and "incomplete" (8).
func (f FilterType) ValidForClass(class Class) bool {
	switch class {
	case ClassEmail:
		return f >= FilterNone && f <= FilterOneMonth
	case ClassCalendar:
		return f == FilterNone || (f >= FilterTwoWeeks && f <= FilterSixMonths)
	case ClassTasks:
		return f == FilterNone || f == FilterIncompleteTasks
	default:
		return true
	}
}

// Window returns the recency window as a number of days, or 0 when the
// filter does not describe a date window (FilterNone, FilterIncompleteTasks).
func (f FilterType) Window() int {
	switch f {
	case FilterOneDay:
		return 1
	case FilterThreeDays:
		return 3
	case FilterOneWeek:
		return 7
	case FilterTwoWeeks:
		return 14
	case FilterOneMonth:
		return 30
	case FilterThreeMonths:
		return 90
	case FilterSixMonths:
		return 180
	}
	return 0
}
