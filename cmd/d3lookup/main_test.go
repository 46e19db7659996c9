package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
)

func newProfileServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/d3/profile/Name-1234/":
			_, _ = w.Write([]byte(`{"battleTag":"Name#1234","heroes":[{"id":7,"name":"Leah","class":"wizard","level":70}]}`))
		case "/d3/profile/Name-1234/hero/7":
			_, _ = w.Write([]byte(`{"id":7,"name":"Leah","class":"wizard","level":70}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":"NOTFOUND","reason":"The account could not be found."}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func lookup(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("BATTLENET_CLIENT_ID", "")
	t.Setenv("BATTLENET_CLIENT_SECRET", "")
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCareerYAML(t *testing.T) {
	srv := newProfileServer(t)

	code, out, errOut := lookup(t, "--base-url", srv.URL, "career", "Name#1234")
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}

	var got struct {
		BattleTag string `yaml:"battle_tag"`
		Heroes    []struct {
			Name string `yaml:"name"`
		} `yaml:"heroes"`
	}
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not yaml: %v\n%s", err, out)
	}
	if got.BattleTag != "Name#1234" || len(got.Heroes) != 1 || got.Heroes[0].Name != "Leah" {
		t.Fatalf("unexpected career: %+v", got)
	}
}

func TestHeroJSON(t *testing.T) {
	srv := newProfileServer(t)

	code, out, errOut := lookup(t, "--base-url", srv.URL, "--output", "json", "hero", "Name-1234", "7")
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}

	var got struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not json: %v\n%s", err, out)
	}
	if got.ID != 7 || got.Name != "Leah" {
		t.Fatalf("unexpected hero: %+v", got)
	}
}

func TestExitCodes(t *testing.T) {
	srv := newProfileServer(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "unknown career", args: []string{"--base-url", srv.URL, "career", "Nobody#1"}, want: exitNotFound},
		{name: "unknown hero", args: []string{"--base-url", srv.URL, "hero", "Name#1234", "8"}, want: exitNotFound},
		{name: "invalid hero id", args: []string{"--base-url", srv.URL, "hero", "Name#1234", "0"}, want: exitFailure},
		{name: "missing argument", args: []string{"career"}, want: exitFailure},
		{name: "bad output format", args: []string{"--output", "xml", "career", "Name#1234"}, want: exitFailure},
		{name: "missing config", args: []string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "career", "Name#1234"}, want: exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := lookup(t, tt.args...)
			if code != tt.want {
				t.Fatalf("exit code = %d, want %d, stderr = %s", code, tt.want, errOut)
			}
			if !strings.HasPrefix(errOut, "d3lookup: ") {
				t.Errorf("expected prefixed error, got %q", errOut)
			}
		})
	}
}

func TestConfigFileRegion(t *testing.T) {
	srv := newProfileServer(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "battlenet:\n  base_url: " + srv.URL + "\n  region: eu\n  max_retries: -1\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	code, _, errOut := lookup(t, "--config", path, "career", "Name#1234")
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}
}

func TestHelpExitsZero(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"career", "--help"}} {
		code, out, errOut := lookup(t, args...)
		if code != exitOK {
			t.Fatalf("%v: exit code = %d, stderr = %s", args, code, errOut)
		}
		if out != "" {
			t.Errorf("%v: expected nothing on stdout, got %q", args, out)
		}
		if !strings.Contains(errOut, "usage: d3lookup") {
			t.Errorf("%v: expected usage on stderr, got %q", args, errOut)
		}
		if strings.Contains(errOut, "command not specified") {
			t.Errorf("%v: unexpected parse error after help: %q", args, errOut)
		}
	}
}
