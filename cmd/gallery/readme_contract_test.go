package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"gallery/internal/config"
)

func TestReadmeSupportedConfigKeysMatchAllowedKeys(t *testing.T) {
	readme := loadReadme(t)

	documented, err := parseDocumentedConfigKeys(readme)
	if err != nil {
		t.Fatalf("parse documented config keys: %v", err)
	}

	allowed := append([]string(nil), config.AllowedKeys()...)
	slices.Sort(documented)
	slices.Sort(allowed)

	if !slices.Equal(documented, allowed) {
		t.Fatalf("README supported config keys mismatch\ndocumented: %v\nallowed:    %v", documented, allowed)
	}
}

func TestReadmeCommandSurfaceMatchesCLILeafCommands(t *testing.T) {
	readme := loadReadme(t)

	documented, err := parseDocumentedCommandPaths(readme)
	if err != nil {
		t.Fatalf("parse documented commands: %v", err)
	}

	cfg := config.Default()
	root := newRootCmd(&cfg)
	actual := collectLeafCommandPaths(root)

	missingInReadme := diff(actual, documented)
	extraInReadme := diff(documented, actual)
	if len(missingInReadme) > 0 || len(extraInReadme) > 0 {
		t.Fatalf("README command surface mismatch\nmissing in README: %v\nextra in README:   %v", missingInReadme, extraInReadme)
	}
}

func TestReadmeRuntimeEnvironmentKeysDocumented(t *testing.T) {
	readme := loadReadme(t)
	documented := parseReadmeEnvKeys(readme)

	required := uniqueSorted([]string{
		"GALLERY_API_URL",
		"GALLERY_CATALOG",
		"GALLERY_HTTP_TIMEOUT",
		"GALLERY_LOG_LEVEL",
		"GALLERY_LOG_FORMAT",
		"GALLERY_CONFIG_DIR",
		"GALLERY_TRUST_PROJECT_CONFIG",
		"GALLERY_API_TOKEN",
		"GALLERY_ALLOW_REMOTE",
	})

	missing := diff(required, documented)
	if len(missing) > 0 {
		t.Fatalf("README missing runtime environment keys: %v", missing)
	}
	if stale := diff(documented, required); len(stale) > 0 {
		t.Fatalf("README documents unknown environment keys: %v", stale)
	}
}

func TestReadmeConfigDefaultsMatchDefaults(t *testing.T) {
	readme := loadReadme(t)
	documented, err := parseDocumentedConfigDefaults(readme)
	if err != nil {
		t.Fatalf("parse documented defaults: %v", err)
	}

	cfg := config.Default()
	for _, key := range config.AllowedKeys() {
		got, ok := documented[key]
		if !ok {
			t.Fatalf("README does not document a default for %s", key)
		}
		want, err := cfg.Get(key)
		if err != nil {
			t.Fatalf("get %s: %v", key, err)
		}
		if key == "catalog_path" {
			want = "~/" + config.DefaultCatalogDirName + "/" + config.DefaultCatalogFileName
		}
		if got != want {
			t.Fatalf("README default for %s is %q, config default is %q", key, got, want)
		}
	}
}

func TestReadmeHTTPAPIMatchesServerRoutes(t *testing.T) {
	readme := loadReadme(t)
	documented, err := parseDocumentedRoutes(readme)
	if err != nil {
		t.Fatalf("parse HTTP API table: %v", err)
	}

	registered := registeredAPIRoutes(t, filepath.Join(repoRoot(t), "internal", "server", "routes.go"))
	missing := diff(registered, documented)
	extra := diff(documented, registered)
	if len(missing) > 0 || len(extra) > 0 {
		t.Fatalf("README HTTP API mismatch\nmissing in README: %v\nextra in README:   %v", missing, extra)
	}
}

func repoRoot(t *testing.T) string {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

func loadReadme(t *testing.T) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(repoRoot(t), "README.md"))
	if err != nil {
		t.Fatalf("read README.md: %v", err)
	}
	return string(data)
}

var configDefaultPattern = regexp.MustCompile("^- `([a-z_.]+)` \\(default `([^`]*)`")

func parseDocumentedConfigDefaults(readme string) (map[string]string, error) {
	defaults := make(map[string]string)
	for _, line := range strings.Split(readme, "\n") {
		m := configDefaultPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		defaults[m[1]] = m[2]
	}
	if len(defaults) == 0 {
		return nil, fmt.Errorf("no config defaults found")
	}
	return defaults, nil
}

// parseDocumentedRoutes reads "| METHOD | `path` |" rows of the HTTP API table.
func parseDocumentedRoutes(readme string) ([]string, error) {
	idx := strings.Index(readme, "## HTTP API")
	if idx == -1 {
		return nil, fmt.Errorf("missing '## HTTP API' section")
	}

	var routes []string
	for _, line := range strings.Split(readme[idx:], "\n")[1:] {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "## ") {
			break
		}
		cells := strings.Split(strings.Trim(line, "|"), "|")
		if len(cells) < 2 {
			continue
		}
		method := strings.TrimSpace(cells[0])
		path := strings.Trim(strings.TrimSpace(cells[1]), "`")
		if method == "" || method == "Method" || strings.HasPrefix(method, "-") {
			continue
		}
		path, _, _ = strings.Cut(path, "?")
		routes = append(routes, method+" "+path)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("no routes found in HTTP API table")
	}
	return uniqueSorted(routes), nil
}

// registeredAPIRoutes collects the JSON API patterns passed to mux.HandleFunc.
// UI routes are served by the page and not part of the API table.
func registeredAPIRoutes(t *testing.T, path string) []string {
	t.Helper()

	file, err := parser.ParseFile(token.NewFileSet(), path, nil, 0)
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}

	var routes []string
	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || (sel.Sel.Name != "HandleFunc" && sel.Sel.Name != "Handle") {
			return true
		}
		lit, ok := call.Args[0].(*ast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			return true
		}
		pattern, err := strconv.Unquote(lit.Value)
		if err != nil {
			t.Fatalf("unquote %s: %v", lit.Value, err)
		}
		method, route, ok := strings.Cut(pattern, " ")
		if !ok || (route != "/health" && !strings.HasPrefix(route, "/v1/")) {
			return true
		}
		routes = append(routes, method+" "+route)
		return true
	})
	if len(routes) == 0 {
		t.Fatalf("no API routes found in %s", path)
	}
	return uniqueSorted(routes)
}

func parseDocumentedConfigKeys(readme string) ([]string, error) {
	lines := strings.Split(readme, "\n")
	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "Supported config keys:" {
			start = i + 1
			break
		}
	}
	if start == -1 {
		return nil, fmt.Errorf("missing 'Supported config keys:' section")
	}

	var keys []string
	for i := start; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "- ") {
			if len(keys) > 0 {
				break
			}
			continue
		}
		startTick := strings.Index(line, "`")
		if startTick == -1 {
			return nil, fmt.Errorf("config key bullet missing backticks: %q", line)
		}
		endTick := strings.Index(line[startTick+1:], "`")
		if endTick == -1 {
			return nil, fmt.Errorf("config key bullet has unterminated backticks: %q", line)
		}
		key := line[startTick+1 : startTick+1+endTick]
		if key != "" {
			keys = append(keys, key)
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no config keys found")
	}

	return uniqueSorted(keys), nil
}

func parseDocumentedCommandPaths(readme string) ([]string, error) {
	idx := strings.Index(readme, "## Commands")
	if idx == -1 {
		return nil, fmt.Errorf("missing '## Commands' section")
	}
	section := readme[idx:]

	fenceStart := strings.Index(section, "```bash")
	if fenceStart == -1 {
		return nil, fmt.Errorf("missing bash code fence in Commands section")
	}
	fenced := section[fenceStart+len("```bash"):]
	fenceEnd := strings.Index(fenced, "```")
	if fenceEnd == -1 {
		return nil, fmt.Errorf("unterminated Commands code fence")
	}
	block := fenced[:fenceEnd]

	var paths []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || !strings.HasPrefix(line, "gallery ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		var parts []string
		for _, token := range fields[1:] {
			if strings.HasPrefix(token, "#") || strings.HasPrefix(token, "<") || strings.HasPrefix(token, "[") || strings.HasPrefix(token, "-") || strings.ContainsAny(token, "\"'") {
				break
			}
			parts = append(parts, token)
		}
		if len(parts) > 0 {
			paths = append(paths, strings.Join(parts, " "))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no command paths parsed from README Commands section")
	}

	return uniqueSorted(paths), nil
}

func parseReadmeEnvKeys(readme string) []string {
	re := regexp.MustCompile(`GALLERY_[A-Z0-9_]+`)
	return uniqueSorted(re.FindAllString(readme, -1))
}

func collectLeafCommandPaths(root *cobra.Command) []string {
	paths := make([]string, 0)

	var walk func(cmd *cobra.Command, prefix []string)
	walk = func(cmd *cobra.Command, prefix []string) {
		children := visibleChildren(cmd)
		if len(children) == 0 {
			if len(prefix) > 0 {
				paths = append(paths, strings.Join(prefix, " "))
			}
			return
		}
		for _, child := range children {
			walk(child, append(prefix, child.Name()))
		}
	}

	walk(root, nil)
	return uniqueSorted(paths)
}

func visibleChildren(cmd *cobra.Command) []*cobra.Command {
	children := cmd.Commands()
	filtered := make([]*cobra.Command, 0, len(children))
	for _, child := range children {
		if child.Hidden {
			continue
		}
		switch child.Name() {
		case "help", "completion":
			continue
		}
		filtered = append(filtered, child)
	}
	return filtered
}

func diff(a, b []string) []string {
	setB := make(map[string]struct{}, len(b))
	for _, item := range b {
		setB[item] = struct{}{}
	}
	out := make([]string, 0)
	for _, item := range a {
		if _, ok := setB[item]; !ok {
			out = append(out, item)
		}
	}
	return uniqueSorted(out)
}

func uniqueSorted(values []string) []string {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for value := range set {
		out = append(out, value)
	}
	slices.Sort(out)
	return out
}
