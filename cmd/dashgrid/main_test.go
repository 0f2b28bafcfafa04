package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectAssignArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"dashgrid"},
			want: []string{"dashgrid"},
		},
		{
			name: "cell first token",
			in:   []string{"dashgrid", "d0-07-00", "d0-08-30", "work"},
			want: []string{"dashgrid", "timebox", "assign", "d0-07-00", "d0-08-30", "work"},
		},
		{
			name: "cell after value flag",
			in:   []string{"dashgrid", "--user", "user-42", "d1-09-00", "d1-09-00", "study"},
			want: []string{"dashgrid", "--user", "user-42", "timebox", "assign", "d1-09-00", "d1-09-00", "study"},
		},
		{
			name: "cell after equals flag",
			in:   []string{"dashgrid", "--backend=file", "d0-07-00", "d0-07-00", "work"},
			want: []string{"dashgrid", "--backend=file", "timebox", "assign", "d0-07-00", "d0-07-00", "work"},
		},
		{
			name: "cell after bool flag",
			in:   []string{"dashgrid", "--pretty", "d0-07-00", "d0-07-00", "work"},
			want: []string{"dashgrid", "--pretty", "timebox", "assign", "d0-07-00", "d0-07-00", "work"},
		},
		{
			name: "cell after double dash",
			in:   []string{"dashgrid", "--", "d0-07-00", "d0-07-00", "work"},
			want: []string{"dashgrid", "--", "timebox", "assign", "d0-07-00", "d0-07-00", "work"},
		},
		{
			name: "subcommand untouched",
			in:   []string{"dashgrid", "timebox", "show"},
			want: []string{"dashgrid", "timebox", "show"},
		},
		{
			name: "value flag whose value looks like a cell",
			in:   []string{"dashgrid", "--user", "d0-07-00", "status"},
			want: []string{"dashgrid", "--user", "d0-07-00", "status"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectAssignArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}
