package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"UNLURK_PROVIDER", "UNLURK_API_KEY", "UNLURK_MODEL", "UNLURK_BASE_URL",
		"UNLURK_TEMPLATE_PATH", "UNLURK_AMQP_URL", "UNLURK_LOG_LEVEL", "UNLURK_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--env-file", ""))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "unlurk dev\n", out)
}

func TestPromptCmd(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	ctxPath := writeFile(t, dir, "ctx.json", `{"userName":"Alice","communityName":"Gophers"}`)

	t.Run("default builder", func(t *testing.T) {
		out, err := execute(t, "prompt", "--context", ctxPath)
		require.NoError(t, err)
		assert.Contains(t, out, "Community: Gophers\n")
		assert.Contains(t, out, "User's name: Alice\n")
	})

	t.Run("template flag", func(t *testing.T) {
		tmplPath := writeFile(t, dir, "tmpl.txt", "Hi {{userName}}")
		out, err := execute(t, "prompt", "--context", ctxPath, "--template", tmplPath)
		require.NoError(t, err)
		assert.Equal(t, "Hi Alice\n", out)
	})

	t.Run("configured template", func(t *testing.T) {
		tmplPath := writeFile(t, dir, "cfg-tmpl.txt", "From config: {{communityName}}")
		cfgPath := writeFile(t, dir, "config.yaml", "template_path: "+tmplPath+"\n")
		out, err := execute(t, "--config", cfgPath, "prompt", "--context", ctxPath)
		require.NoError(t, err)
		assert.Equal(t, "From config: Gophers\n", out)
	})

	t.Run("invalid context", func(t *testing.T) {
		bad := writeFile(t, dir, "bad.json", `{"communityTone":"snarky"}`)
		_, err := execute(t, "prompt", "--context", bad)
		assert.Error(t, err)
	})
}

func TestDraftCmd(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"response": "draft for: " + body["prompt"].(string)[:5]})
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", "provider: ollama\nbase_url: "+srv.URL+"\nlog_format: json\nlog_level: error\n")
	tmplPath := writeFile(t, dir, "tmpl.txt", "Hello")

	out, err := execute(t, "--config", cfgPath, "draft", "--template", tmplPath, "--hint", "x")
	require.NoError(t, err)
	assert.Equal(t, "draft for: Hello\n", out)
}

func TestDraftCmdNotConfigured(t *testing.T) {
	clearEnv(t)
	_, err := execute(t, "draft")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no provider configured")
}

func TestBenchCmd(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/api/draft", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"draft":"hello there","backend":"custom","elapsed_ms":7}`)
	}))
	defer srv.Close()

	report := filepath.Join(t.TempDir(), "report.json")
	out, err := execute(t, "bench", "--url", srv.URL+"/", "--api-key", "k", "--runs", "2", "--concurrency", "3", "--json", report)
	require.NoError(t, err)

	assert.Equal(t, int32(2*len(Samples)), hits.Load())
	assert.Contains(t, out, "Total runs: 8 (8 ok, 0 failed)")

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var rep benchReport
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Len(t, rep.Results, 2*len(Samples))
	assert.Equal(t, strings.TrimRight(srv.URL, "/"), rep.URL)
}

func TestBenchCmdFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	out, err := execute(t, "bench", "--url", srv.URL, "--runs", "1")
	require.Error(t, err)
	assert.Contains(t, out, "all 4 runs failed")
}

func TestBenchCmdKeepsSampleOrder(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Early requests answer last so completion order differs from submission order.
		n := hits.Add(1)
		time.Sleep(time.Duration(20-n) * 2 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"draft":"ok","backend":"custom","elapsed_ms":1}`)
	}))
	defer srv.Close()

	report := filepath.Join(t.TempDir(), "report.json")
	_, err := execute(t, "bench", "--url", srv.URL, "--runs", "3", "--concurrency", "6", "--json", report)
	require.NoError(t, err)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var rep benchReport
	require.NoError(t, json.Unmarshal(data, &rep))
	require.Len(t, rep.Results, 3*len(Samples))

	for i, r := range rep.Results {
		assert.Equal(t, Samples[i/3].Name, r.Sample, "result %d", i)
		assert.Equal(t, i%3+1, r.Run, "result %d", i)
	}
}
