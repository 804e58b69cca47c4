package service

import (
	"testing"

	"github.com/airsyncd/airsyncd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─────────────────────────────────────────────────────────────────────────────
// parseOptions
// ─────────────────────────────────────────────────────────────────────────────

func TestParseOptions(t *testing.T) {
	filter := func(f models.FilterType) models.SyncOption { return models.OptionFilterType{Filter: f} }
	class := func(c models.Class) models.SyncOption { return models.OptionClass{Class: c} }

	tests := []struct {
		name       string
		options    models.OptionList
		class      models.Class
		wantStatus models.Status
	}{
		{name: "Empty", options: nil, class: models.ClassEmail, wantStatus: models.StatusSuccess},
		{
			name:       "EmailWeekFilter",
			options:    models.OptionList{filter(models.FilterOneWeek)},
			class:      models.ClassEmail,
			wantStatus: models.StatusSuccess,
		},
		{
			name:       "DuplicateFilter → ProtocolError",
			options:    models.OptionList{filter(models.FilterOneWeek), filter(models.FilterOneDay)},
			class:      models.ClassEmail,
			wantStatus: models.StatusProtocolError,
		},
		{
			name: "DuplicateConflict → ProtocolError",
			options: models.OptionList{
				models.OptionConflict{Policy: models.ConflictPreferServer},
				models.OptionConflict{Policy: models.ConflictPreferClient},
			},
			class:      models.ClassEmail,
			wantStatus: models.StatusProtocolError,
		},
		{
			name:       "CalendarFilterOnEmail → ProtocolError",
			options:    models.OptionList{filter(models.FilterSixMonths)},
			class:      models.ClassEmail,
			wantStatus: models.StatusProtocolError,
		},
		{
			name:       "TasksFilterOnCalendar → ProtocolError",
			options:    models.OptionList{filter(models.FilterIncompleteTasks)},
			class:      models.ClassCalendar,
			wantStatus: models.StatusProtocolError,
		},
		{
			name:       "ContactsIgnoreFilters",
			options:    models.OptionList{filter(models.FilterOneDay)},
			class:      models.ClassContacts,
			wantStatus: models.StatusSuccess,
		},
		{
			name:       "EmailPlusSMS",
			options:    models.OptionList{class(models.ClassEmail), class(models.ClassSMS)},
			class:      models.ClassEmail,
			wantStatus: models.StatusSuccess,
		},
		{
			name:       "EmailPlusCalendar → ProtocolError",
			options:    models.OptionList{class(models.ClassEmail), class(models.ClassCalendar)},
			class:      models.ClassEmail,
			wantStatus: models.StatusProtocolError,
		},
		{
			name:       "RepeatedClass → ProtocolError",
			options:    models.OptionList{class(models.ClassEmail), class(models.ClassEmail)},
			class:      models.ClassEmail,
			wantStatus: models.StatusProtocolError,
		},
		{
			name:       "UnknownClass → ProtocolError",
			options:    models.OptionList{class(models.Class("Journal"))},
			class:      models.ClassEmail,
			wantStatus: models.StatusProtocolError,
		},
		{
			name: "FilterValidatedAgainstRequestedClasses",
			// The collection is Email, but the request narrows to SMS; the
			// SMS ladder accepts any value, so the calendar-reserved filter
			// passes validation here.
			options:    models.OptionList{class(models.ClassSMS), filter(models.FilterSixMonths)},
			class:      models.ClassEmail,
			wantStatus: models.StatusSuccess,
		},
		{
			name: "RenderingPreferencesPassThrough",
			options: models.OptionList{
				models.OptionBodyPreference{Type: 2, TruncationSize: 4096},
				models.OptionMIMESupport{Value: 1},
				models.OptionMIMETruncation{Value: 5},
			},
			class:      models.ClassEmail,
			wantStatus: models.StatusSuccess,
		},
		{
			name: "DuplicateMaxItems → ProtocolError",
			options: models.OptionList{
				models.OptionMaxItems{Value: 20},
				models.OptionMaxItems{Value: 30},
			},
			class:      models.ClassContacts,
			wantStatus: models.StatusProtocolError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, status := parseOptions(tt.options, tt.class)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestParseOptions_FlattensValues(t *testing.T) {
	opts, status := parseOptions(models.OptionList{
		models.OptionFilterType{Filter: models.FilterOneWeek},
		models.OptionConflict{Policy: models.ConflictPreferClient},
		models.OptionClass{Class: models.ClassEmail},
		models.OptionMaxItems{Value: 25},
	}, models.ClassEmail)

	require.Equal(t, models.StatusSuccess, status)
	require.NotNil(t, opts.filter)
	require.NotNil(t, opts.conflict)

	assert.Equal(t, models.FilterOneWeek, *opts.filter)
	assert.Equal(t, models.ConflictPreferClient, *opts.conflict)
	assert.Equal(t, []models.Class{models.ClassEmail}, opts.classes)
	assert.Equal(t, 25, opts.maxItems)
}

// ─────────────────────────────────────────────────────────────────────────────
// validateAddItem
// ─────────────────────────────────────────────────────────────────────────────

func TestValidateAddItem(t *testing.T) {
	tests := []struct {
		name  string
		class models.Class
		props map[string]string
		want  models.Status
	}{
		{name: "Email/NoRequiredProps", class: models.ClassEmail, props: map[string]string{}, want: models.StatusSuccess},
		{name: "UnknownClass", class: models.Class("Journal"), props: map[string]string{}, want: models.StatusInvalidItem},
		{
			name:  "Calendar/WithEndTime",
			class: models.ClassCalendar,
			props: map[string]string{models.PropEndTime: "2026-09-01T10:00:00Z"},
			want:  models.StatusSuccess,
		},
		{name: "Calendar/MissingEndTime", class: models.ClassCalendar, props: map[string]string{}, want: models.StatusInvalidItem},
		{
			name:  "Tasks/WithSubject",
			class: models.ClassTasks,
			props: map[string]string{models.PropSubject: "file taxes"},
			want:  models.StatusSuccess,
		},
		{name: "Tasks/MissingSubject", class: models.ClassTasks, props: map[string]string{}, want: models.StatusInvalidItem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validateAddItem(tt.class, tt.props))
		})
	}
}
