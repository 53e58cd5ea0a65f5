package main

import (
	"reflect"
	"testing"
)

func TestRewriteSiteShortcutArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"spacenav"},
			want: []string{"spacenav"},
		},
		{
			name: "shortcut first token",
			in:   []string{"spacenav", "@1"},
			want: []string{"spacenav", "spaces", "--site", "1"},
		},
		{
			name: "shortcut keeps trailing flags",
			in:   []string{"spacenav", "@1", "--text"},
			want: []string{"spacenav", "spaces", "--site", "1", "--text"},
		},
		{
			name: "shortcut after value flag",
			in:   []string{"spacenav", "--api-url", "http://127.0.0.1:9000", "@2"},
			want: []string{"spacenav", "--api-url", "http://127.0.0.1:9000", "spaces", "--site", "2"},
		},
		{
			name: "shortcut after equals flag",
			in:   []string{"spacenav", "--format=edn", "@2"},
			want: []string{"spacenav", "--format=edn", "spaces", "--site", "2"},
		},
		{
			name: "shortcut after bool flag",
			in:   []string{"spacenav", "--pretty", "@2"},
			want: []string{"spacenav", "--pretty", "spaces", "--site", "2"},
		},
		{
			name: "shortcut after double dash",
			in:   []string{"spacenav", "--", "@3"},
			want: []string{"spacenav", "spaces", "--site", "3"},
		},
		{
			name: "value flag value is not a shortcut",
			in:   []string{"spacenav", "--config", "@odd.yaml", "sites"},
			want: []string{"spacenav", "--config", "@odd.yaml", "sites"},
		},
		{
			name: "bare at sign not rewritten",
			in:   []string{"spacenav", "@"},
			want: []string{"spacenav", "@"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"spacenav", "spaces", "--site", "@1"},
			want: []string{"spacenav", "spaces", "--site", "@1"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteSiteShortcutArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteSiteShortcutArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}
