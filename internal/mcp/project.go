package mcp

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ProjectInfo describes the detected project.
type ProjectInfo struct {
	Name     string `json:"name"`
	RootPath string `json:"root_path"`
	Type     string `json:"type"`
}

// ProjectDetector derives project metadata from common build files.
type ProjectDetector struct {
	rootPath string
	logger   *slog.Logger
}

// NewProjectDetector builds a detector rooted at rootPath.
func NewProjectDetector(rootPath string, logger *slog.Logger) *ProjectDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectDetector{rootPath: rootPath, logger: logger}
}

var (
	artifactIDRe = regexp.MustCompile(`<artifactId>\s*([^<]+?)\s*</artifactId>`)
	gradleNameRe = regexp.MustCompile(`^\s*rootProject\.name\s*=\s*["']([^"']+)["']`)
)

// Detect probes build files in order pom.xml, gradle, package.json and
// falls back to the directory name when none declares a project name.
func (d *ProjectDetector) Detect() *ProjectInfo {
	info := &ProjectInfo{
		RootPath: d.rootPath,
		Name:     filepath.Base(d.rootPath),
		Type:     "unknown",
	}
	if d.rootPath == "" {
		info.Name = ""
		return info
	}

	apply := func(name, typ string) *ProjectInfo {
		if name != "" {
			info.Name = name
		}
		info.Type = typ
		d.logger.Debug("project detected",
			slog.String("name", info.Name),
			slog.String("type", info.Type))
		return info
	}

	if name, ok := d.detectMaven(); ok {
		return apply(name, "java")
	}
	if name, ok := d.detectGradle(); ok {
		return apply(name, "java")
	}
	if name, ok := d.detectPackageJSON(); ok {
		typ := "node"
		if d.hasTSConfig() {
			typ = "typescript"
		}
		return apply(name, typ)
	}
	return info
}

// detectMaven pulls the artifactId out of pom.xml. An artifactId
// inside a <parent> block names the parent POM and is skipped.
func (d *ProjectDetector) detectMaven() (string, bool) {
	file, err := os.Open(filepath.Join(d.rootPath, "pom.xml"))
	if err != nil {
		return "", false
	}
	defer func() { _ = file.Close() }()

	inParent := false
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := sc.Text()
		if strings.Contains(line, "<parent>") {
			inParent = true
		}
		if strings.Contains(line, "</parent>") {
			inParent = false
			continue
		}
		if inParent {
			continue
		}
		if m := artifactIDRe.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", true
}

// detectGradle reports whether a Gradle build file exists, with the
// project name from settings.gradle(.kts) when one declares it.
func (d *ProjectDetector) detectGradle() (string, bool) {
	present := false
	for _, f := range []string{"build.gradle", "build.gradle.kts"} {
		if _, err := os.Stat(filepath.Join(d.rootPath, f)); err == nil {
			present = true
			break
		}
	}
	if !present {
		return "", false
	}

	for _, f := range []string{"settings.gradle", "settings.gradle.kts"} {
		if name := scanGradleSettings(filepath.Join(d.rootPath, f)); name != "" {
			return name, true
		}
	}
	return "", true
}

func scanGradleSettings(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer func() { _ = file.Close() }()

	sc := bufio.NewScanner(file)
	for sc.Scan() {
		if m := gradleNameRe.FindStringSubmatch(sc.Text()); m != nil {
			return m[1]
		}
	}
	return ""
}

// detectPackageJSON reads the name field of package.json, unwrapping
// scoped names (@org/name becomes name).
func (d *ProjectDetector) detectPackageJSON() (string, bool) {
	data, err := os.ReadFile(filepath.Join(d.rootPath, "package.json"))
	if err != nil {
		return "", false
	}

	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", true
	}

	name := pkg.Name
	if i := strings.LastIndexByte(name, '/'); i >= 0 && strings.HasPrefix(name, "@") {
		name = name[i+1:]
	}
	return name, true
}

// hasTSConfig reports whether the project carries a TypeScript config.
func (d *ProjectDetector) hasTSConfig() bool {
	_, err := os.Stat(filepath.Join(d.rootPath, "tsconfig.json"))
	return err == nil
}
