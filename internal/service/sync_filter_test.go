package service

import (
	"testing"
	"time"

	"github.com/airsyncd/airsyncd/models"
	"github.com/stretchr/testify/assert"
)

// ─────────────────────────────────────────────────────────────────────────────
// admit: per-class filter ladders
// ─────────────────────────────────────────────────────────────────────────────

func emailItem(received time.Time) models.Item {
	return models.Item{
		Class: models.ClassEmail,
		Props: map[string]string{models.PropDateReceived: received.Format(time.RFC3339)},
	}
}

func TestAdmit_EmailRecencyWindow(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		item   models.Item
		filter models.FilterType
		want   bool
	}{
		{name: "NoFilter/AncientMail", item: emailItem(now.AddDate(-1, 0, 0)), filter: models.FilterNone, want: true},
		{name: "OneWeek/Yesterday", item: emailItem(now.AddDate(0, 0, -1)), filter: models.FilterOneWeek, want: true},
		{name: "OneWeek/TenDaysAgo", item: emailItem(now.AddDate(0, 0, -10)), filter: models.FilterOneWeek, want: false},
		{name: "OneDay/TwoDaysAgo", item: emailItem(now.AddDate(0, 0, -2)), filter: models.FilterOneDay, want: false},
		{name: "OneMonth/TwoWeeksAgo", item: emailItem(now.AddDate(0, 0, -14)), filter: models.FilterOneMonth, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, admit(tt.item, tt.filter, now))
		})
	}
}

func TestAdmit_EmailWithoutDateReceivedFallsBackToCreatedAt(t *testing.T) {
	now := time.Now()
	item := models.Item{
		Class:     models.ClassEmail,
		Props:     map[string]string{},
		CreatedAt: now.AddDate(0, 0, -2),
	}

	assert.True(t, admit(item, models.FilterOneWeek, now))
	assert.False(t, admit(item, models.FilterOneDay, now))
}

func TestAdmit_Calendar(t *testing.T) {
	now := time.Now()
	rfc := func(t time.Time) string { return t.Format(time.RFC3339) }

	tests := []struct {
		name   string
		props  map[string]string
		filter models.FilterType
		want   bool
	}{
		{
			name:   "FutureEvent/AlwaysAdmitted",
			props:  map[string]string{models.PropEndTime: rfc(now.AddDate(1, 0, 0))},
			filter: models.FilterTwoWeeks,
			want:   true,
		},
		{
			name:   "PastEvent/InsideWindow",
			props:  map[string]string{models.PropEndTime: rfc(now.AddDate(0, 0, -3))},
			filter: models.FilterTwoWeeks,
			want:   true,
		},
		{
			name:   "PastEvent/OutsideWindow",
			props:  map[string]string{models.PropEndTime: rfc(now.AddDate(0, -2, 0))},
			filter: models.FilterTwoWeeks,
			want:   false,
		},
		{
			name: "UnboundedRecurrence/AncientStart",
			props: map[string]string{
				models.PropEndTime:    rfc(now.AddDate(-2, 0, 0)),
				models.PropRecurrence: "weekly",
			},
			filter: models.FilterTwoWeeks,
			want:   true,
		},
		{
			name: "BoundedRecurrence/EndedLongAgo",
			props: map[string]string{
				models.PropEndTime:       rfc(now.AddDate(-2, 0, 0)),
				models.PropRecurrence:    "weekly",
				models.PropRecurrenceEnd: rfc(now.AddDate(-1, 0, 0)),
			},
			filter: models.FilterTwoWeeks,
			want:   false,
		},
		{
			name: "BoundedRecurrence/StillRunning",
			props: map[string]string{
				models.PropEndTime:       rfc(now.AddDate(-2, 0, 0)),
				models.PropRecurrence:    "weekly",
				models.PropRecurrenceEnd: rfc(now.AddDate(1, 0, 0)),
			},
			filter: models.FilterTwoWeeks,
			want:   true,
		},
		{
			name:   "NoFilter/AncientEvent",
			props:  map[string]string{models.PropEndTime: rfc(now.AddDate(-5, 0, 0))},
			filter: models.FilterNone,
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := models.Item{Class: models.ClassCalendar, Props: tt.props}
			assert.Equal(t, tt.want, admit(item, tt.filter, now))
		})
	}
}

func TestAdmit_Tasks(t *testing.T) {
	now := time.Now()

	incomplete := models.Item{Class: models.ClassTasks, Props: map[string]string{models.PropComplete: "0"}}
	complete := models.Item{Class: models.ClassTasks, Props: map[string]string{models.PropComplete: "1"}}

	assert.True(t, admit(incomplete, models.FilterIncompleteTasks, now))
	assert.False(t, admit(complete, models.FilterIncompleteTasks, now))
	assert.True(t, admit(complete, models.FilterNone, now))
}

func TestAdmit_ContactsAndNotesIgnoreFilters(t *testing.T) {
	now := time.Now()

	contact := models.Item{Class: models.ClassContacts, Props: map[string]string{}}
	note := models.Item{Class: models.ClassNotes, Props: map[string]string{}}

	assert.True(t, admit(contact, models.FilterOneDay, now))
	assert.True(t, admit(note, models.FilterOneDay, now))
}

// ─────────────────────────────────────────────────────────────────────────────
// resolveGhostSet / mergeChangeProps: ghost policy
// ─────────────────────────────────────────────────────────────────────────────

func TestResolveGhostSet(t *testing.T) {
	declared := func(props ...string) *[]string { return &props }

	t.Run("NeverDeclared → NothingGhosted", func(t *testing.T) {
		assert.Nil(t, resolveGhostSet(nil, models.ClassContacts))
	})

	t.Run("DeclaredEmpty → EverythingGhostableGhosted", func(t *testing.T) {
		ghosted := resolveGhostSet(declared(), models.ClassContacts)
		assert.ElementsMatch(t, ghostableProps[models.ClassContacts], ghosted)
	})

	t.Run("Declared → GhostableMinusDeclared", func(t *testing.T) {
		ghosted := resolveGhostSet(declared("FirstName", "LastName"), models.ClassContacts)

		assert.NotContains(t, ghosted, "FirstName")
		assert.NotContains(t, ghosted, "LastName")
		assert.Contains(t, ghosted, "Picture")
		assert.Contains(t, ghosted, "JobTitle")
	})

	t.Run("ClassWithoutGhostableProps → Empty", func(t *testing.T) {
		assert.Empty(t, resolveGhostSet(declared(), models.ClassEmail))
	})
}

func TestMergeChangeProps(t *testing.T) {
	existing := map[string]string{
		"FirstName": "Ada",
		"Picture":   "blob",
		"JobTitle":  "Engineer",
	}
	submitted := map[string]string{
		"FirstName": "Grace",
		"LastName":  "Hopper",
	}
	ghosted := []string{"Picture"}

	merged := mergeChangeProps(existing, submitted, ghosted)

	// Submitted values win, new properties are added.
	assert.Equal(t, "Grace", merged["FirstName"])
	assert.Equal(t, "Hopper", merged["LastName"])

	// Ghosted omission preserves, non-ghosted omission deletes.
	assert.Equal(t, "blob", merged["Picture"])
	assert.NotContains(t, merged, "JobTitle")
}

func TestGhostReduced_StripsGhostedProps(t *testing.T) {
	item := models.Item{
		ServerID: "c1",
		Class:    models.ClassContacts,
		Props: map[string]string{
			"FirstName": "Ada",
			"Picture":   "blob",
		},
	}

	reduced := ghostReduced(item, []string{"Picture"})

	assert.NotContains(t, reduced.Props, "Picture")
	assert.Equal(t, "Ada", reduced.Props["FirstName"])

	// The original item is untouched.
	assert.Equal(t, "blob", item.Props["Picture"])
}
