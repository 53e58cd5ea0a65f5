package format

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Parent  *int     `json:"parentSpaceId"`
	Streams []string `json:"streams"`
}

func TestWrite_Formats(t *testing.T) {
	v := sample{ID: 3, Name: "Lab B", Streams: []string{"a", "b"}}

	cases := []struct {
		format string
		want   string
	}{
		{"json", `{"id":3,"name":"Lab B","parentSpaceId":null,"streams":["a","b"]}` + "\n"},
		{"edn", `{:id 3 :name "Lab B" :parentSpaceId nil :streams ["a" "b"]}` + "\n"},
		{"yaml", "id: 3\nname: Lab B\nparentSpaceId: null\nstreams:\n  - a\n  - b\n"},
	}
	for _, tc := range cases {
		t.Run(tc.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, v, tc.format, false); err != nil {
				t.Fatalf("write: %v", err)
			}
			if buf.String() != tc.want {
				t.Fatalf("expected %q; got %q", tc.want, buf.String())
			}
		})
	}
}

func TestWriteEDN_Pretty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEDN(&buf, map[string]any{"ids": []int{1, 2}, "empty": []int{}}, true); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "{\n  :empty []\n  :ids [\n    1\n    2\n  ]\n}\n"
	if buf.String() != want {
		t.Fatalf("expected %q; got %q", want, buf.String())
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, 1, "xml", false)
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error; got %v", err)
	}
}
