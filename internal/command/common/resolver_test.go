package common

import (
	"net/url"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func TestResolveRelativePaths(t *testing.T) {
	from := &url.URL{Path: "/etc/casecache/config.yaml"}

	type testCase struct {
		Input    string
		Expected string
	}

	testCases := []testCase{
		{Input: "manifest.txt", Expected: filepath.Join("/etc/casecache", "manifest.txt")},
		{Input: "../shared/manifest.txt", Expected: filepath.Join("/etc/shared", "manifest.txt")},
		{Input: "/srv/manifest.txt", Expected: "/srv/manifest.txt"},
		{Input: "-", Expected: "-"},
		{Input: "https://example.com/manifest.txt", Expected: "https://example.com/manifest.txt"},
	}

	for _, tc := range testCases {
		t.Run(tc.Input, func(t *testing.T) {
			values, err := resolveRelativePaths(from, map[any]any{
				"input":   tc.Input,
				"subject": "alice",
			})
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if e, g := tc.Expected, values["input"]; e != g {
				t.Errorf("values[input]: expected '%v', got '%v'", e, g)
			}

			if e, g := "alice", values["subject"]; e != g {
				t.Errorf("values[subject]: expected '%v', got '%v'", e, g)
			}
		})
	}
}
