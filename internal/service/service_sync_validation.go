package service

import (
	"github.com/airsyncd/airsyncd/models"
)

// collectionOptions is the flattened, validated view of a request's option
// list.
type collectionOptions struct {
	filter   *models.FilterType
	conflict *models.ConflictPolicy
	classes  []models.Class
	maxItems int
}

// parseOptions validates the tagged option list against the collection's
// class and flattens it. Redefining the same option, requesting more than
// two classes, pairing classes outside the sanctioned Email+SMS
// combination, or naming a filter value outside the class's ladder all
// yield StatusProtocolError.
func parseOptions(list models.OptionList, collectionClass models.Class) (collectionOptions, models.Status) {
	var opts collectionOptions

	for _, option := range list {
		switch v := option.(type) {
		case models.OptionFilterType:
			if opts.filter != nil {
				return collectionOptions{}, models.StatusProtocolError
			}
			filter := v.Filter
			opts.filter = &filter

		case models.OptionConflict:
			if opts.conflict != nil {
				return collectionOptions{}, models.StatusProtocolError
			}
			policy := v.Policy
			opts.conflict = &policy

		case models.OptionClass:
			if !v.Class.Valid() {
				return collectionOptions{}, models.StatusProtocolError
			}
			for _, existing := range opts.classes {
				if existing == v.Class {
					return collectionOptions{}, models.StatusProtocolError
				}
			}
			opts.classes = append(opts.classes, v.Class)

		case models.OptionMaxItems:
			if opts.maxItems != 0 {
				return collectionOptions{}, models.StatusProtocolError
			}
			opts.maxItems = v.Value

		case models.OptionBodyPreference, models.OptionMIMESupport, models.OptionMIMETruncation:
			// Rendering preferences travel with the payload pipeline and
			// do not constrain enumeration.
		}
	}

	if len(opts.classes) > 2 {
		return collectionOptions{}, models.StatusProtocolError
	}
	if len(opts.classes) == 2 && !models.AllowedClassPair(opts.classes[0], opts.classes[1]) {
		return collectionOptions{}, models.StatusProtocolError
	}

	if opts.filter != nil {
		effective := opts.classes
		if len(effective) == 0 {
			effective = []models.Class{collectionClass}
		}
		for _, class := range effective {
			if !opts.filter.ValidForClass(class) {
				return collectionOptions{}, models.StatusProtocolError
			}
		}
	}

	return opts, models.StatusSuccess
}

// validateAddItem checks the structural requirements a client-submitted
// Add must satisfy for its class. Failures are scoped to the one command
// and reported with StatusInvalidItem.
func validateAddItem(class models.Class, props map[string]string) models.Status {
	if !class.Valid() {
		return models.StatusInvalidItem
	}

	switch class {
	case models.ClassCalendar:
		if props[models.PropEndTime] == "" {
			return models.StatusInvalidItem
		}
	case models.ClassTasks:
		if props[models.PropSubject] == "" {
			return models.StatusInvalidItem
		}
	}

	return models.StatusSuccess
}
