package service

import (
	"time"

	"github.com/airsyncd/airsyncd/models"
)

// ghostableProps lists, per content class, the properties a device is
// allowed to omit from its Change commands without clearing them on the
// server. Classes absent from the map have no ghostable properties at all,
// so omission always means deletion for them.
var ghostableProps = map[models.Class][]string{
	models.ClassContacts: {
		"FirstName",
		"LastName",
		"MiddleName",
		"CompanyName",
		"JobTitle",
		"Email1Address",
		"MobilePhoneNumber",
		"BusinessPhoneNumber",
		"HomePhoneNumber",
		"Picture",
		models.PropCategories,
		models.PropBody,
	},
	models.ClassCalendar: {
		"Location",
		"Attendees",
		"Reminder",
		"Sensitivity",
		"BusyStatus",
		models.PropCategories,
		models.PropBody,
	},
}

// resolveGhostSet evaluates the Supported declaration of an initial sync
// into the cached ghost set.
//
//   - supported == nil: the device never declared anything, nothing is
//     ghosted and omission on Change deletes the property.
//   - supported empty: every ghostable property of the class is ghosted.
//   - otherwise: ghosted is the class's ghostable set minus the declared
//     properties.
func resolveGhostSet(supported *[]string, class models.Class) []string {
	if supported == nil {
		return nil
	}

	ghostable := ghostableProps[class]
	if len(*supported) == 0 {
		return append([]string(nil), ghostable...)
	}

	declared := make(map[string]struct{}, len(*supported))
	for _, prop := range *supported {
		declared[prop] = struct{}{}
	}

	var ghosted []string
	for _, prop := range ghostable {
		if _, ok := declared[prop]; !ok {
			ghosted = append(ghosted, prop)
		}
	}
	return ghosted
}

// mergeChangeProps builds the property map an accepted Change command
// leaves on the server. Properties present in submitted win; properties
// omitted from it survive only while ghosted. Submitted properties the
// item never had are added.
func mergeChangeProps(existing, submitted map[string]string, ghosted []string) map[string]string {
	ghostSet := make(map[string]struct{}, len(ghosted))
	for _, prop := range ghosted {
		ghostSet[prop] = struct{}{}
	}

	merged := make(map[string]string, len(submitted)+len(existing))
	for name, value := range existing {
		if _, ok := ghostSet[name]; ok {
			merged[name] = value
		}
	}
	for name, value := range submitted {
		merged[name] = value
	}
	return merged
}

// admit reports whether the item falls inside the active filter window.
//
// Email and SMS admit by receive date. Calendar admits every future event
// and every recurrence without a bounded end regardless of the window, and
// otherwise admits events whose end lies within the past window. Tasks
// admit by completeness. Classes without a filter ladder admit everything.
func admit(item models.Item, filter models.FilterType, now time.Time) bool {
	switch item.Class {
	case models.ClassEmail, models.ClassSMS:
		days := filter.Window()
		if days == 0 {
			return true
		}
		return !item.Received().Before(now.AddDate(0, 0, -days))

	case models.ClassCalendar:
		if filter == models.FilterNone {
			return true
		}
		if end, ok := itemTime(item, models.PropEndTime); ok && !end.Before(now) {
			return true
		}
		if _, recurring := item.Props[models.PropRecurrence]; recurring {
			rend, bounded := itemTime(item, models.PropRecurrenceEnd)
			if !bounded || !rend.Before(now) {
				return true
			}
		}
		end, ok := itemTime(item, models.PropEndTime)
		if !ok {
			return true
		}
		return !end.Before(now.AddDate(0, 0, -filter.Window()))

	case models.ClassTasks:
		if filter != models.FilterIncompleteTasks {
			return true
		}
		return !propIsTrue(item.Props[models.PropComplete])

	default:
		return true
	}
}

func itemTime(item models.Item, prop string) (time.Time, bool) {
	raw, ok := item.Props[prop]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func propIsTrue(value string) bool {
	return value == "1" || value == "true"
}
