package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionList_UnmarshalJSON(t *testing.T) {
	raw := `[
		{"kind":"FilterType","filter":3},
		{"kind":"Conflict","policy":0},
		{"kind":"Class","class":"SMS"},
		{"kind":"BodyPreference","type":2,"truncation_size":4096},
		{"kind":"MIMESupport","value":1},
		{"kind":"MaxItems","value":25}
	]`

	var options OptionList
	require.NoError(t, json.Unmarshal([]byte(raw), &options))
	require.Len(t, options, 6)

	filter, ok := options[0].(OptionFilterType)
	require.True(t, ok)
	assert.Equal(t, FilterOneWeek, filter.Filter)

	conflict, ok := options[1].(OptionConflict)
	require.True(t, ok)
	assert.Equal(t, ConflictPreferClient, conflict.Policy)

	class, ok := options[2].(OptionClass)
	require.True(t, ok)
	assert.Equal(t, ClassSMS, class.Class)

	body, ok := options[3].(OptionBodyPreference)
	require.True(t, ok)
	assert.Equal(t, 2, body.Type)
	assert.Equal(t, 4096, body.TruncationSize)
}

// The Conflict envelope without an explicit policy must decode to the
// documented PreferServer default, while an explicit zero means
// PreferClient.
func TestOptionList_ConflictPolicyDefault(t *testing.T) {
	var options OptionList
	require.NoError(t, json.Unmarshal([]byte(`[{"kind":"Conflict"}]`), &options))

	conflict, ok := options[0].(OptionConflict)
	require.True(t, ok)
	assert.Equal(t, ConflictPreferServer, conflict.Policy)
}

func TestOptionList_UnknownKindFailsDecode(t *testing.T) {
	var options OptionList
	err := json.Unmarshal([]byte(`[{"kind":"Telemetry","value":1}]`), &options)
	assert.Error(t, err)
}

func TestOptionList_MarshalRoundtrip(t *testing.T) {
	original := OptionList{
		OptionFilterType{Filter: FilterTwoWeeks},
		OptionConflict{Policy: ConflictPreferClient},
		OptionMaxItems{Value: 10},
	}

	encoded, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded OptionList
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, original, decoded)
}

func TestFilterType_ValidForClass(t *testing.T) {
	tests := []struct {
		name   string
		filter FilterType
		class  Class
		want   bool
	}{
		{name: "Email/None", filter: FilterNone, class: ClassEmail, want: true},
		{name: "Email/OneMonth", filter: FilterOneMonth, class: ClassEmail, want: true},
		{name: "Email/ThreeMonths", filter: FilterThreeMonths, class: ClassEmail, want: false},
		{name: "Email/IncompleteTasks", filter: FilterIncompleteTasks, class: ClassEmail, want: false},
		{name: "Calendar/None", filter: FilterNone, class: ClassCalendar, want: true},
		{name: "Calendar/TwoWeeks", filter: FilterTwoWeeks, class: ClassCalendar, want: true},
		{name: "Calendar/SixMonths", filter: FilterSixMonths, class: ClassCalendar, want: true},
		{name: "Calendar/OneDay", filter: FilterOneDay, class: ClassCalendar, want: false},
		{name: "Tasks/None", filter: FilterNone, class: ClassTasks, want: true},
		{name: "Tasks/Incomplete", filter: FilterIncompleteTasks, class: ClassTasks, want: true},
		{name: "Tasks/OneWeek", filter: FilterOneWeek, class: ClassTasks, want: false},
		{name: "Contacts/Anything", filter: FilterSixMonths, class: ClassContacts, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.ValidForClass(tt.class))
		})
	}
}

func TestAllowedClassPair(t *testing.T) {
	assert.True(t, AllowedClassPair(ClassEmail, ClassSMS))
	assert.True(t, AllowedClassPair(ClassSMS, ClassEmail))
	assert.True(t, AllowedClassPair(ClassEmail, ClassEmail))
	assert.False(t, AllowedClassPair(ClassEmail, ClassCalendar))
	assert.False(t, AllowedClassPair(ClassContacts, ClassNotes))
}
