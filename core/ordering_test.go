package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrderings(t *testing.T) {
	tests := []struct {
		name string
		val  string
		want []Ordering
	}{
		{name: "empty", val: ""},
		{name: "blanks", val: " , - ,"},
		{name: "ascending", val: "name", want: []Ordering{{Field: "name", Ascending: true}}},
		{
			name: "mixed",
			val:  " -salary, name ",
			want: []Ordering{{Field: "salary"}, {Field: "name", Ascending: true}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOrderings(tt.val))
		})
	}
}

func TestOrdering_String(t *testing.T) {
	assert.Equal(t, "name ASC", Ordering{Field: "name", Ascending: true}.String())
	assert.Equal(t, "salary DESC", Ordering{Field: "salary"}.String())
}
