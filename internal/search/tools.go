package search

import "strconv"

// tool is one external search engine variant. The set is closed:
// probing selects among these four, in preference order.
type tool interface {
	name() string
	buildArgs(q *Query, path string) []string
}

// toolOrder is the probe preference order, fastest first.
var toolOrder = []tool{ugrepTool{}, ripgrepTool{}, agTool{}, grepTool{}}

type ugrepTool struct{}

func (ugrepTool) name() string { return "ugrep" }

func (ugrepTool) buildArgs(q *Query, path string) []string {
	args := []string{"-rn"}
	if !q.CaseSensitive {
		args = append(args, "-i")
	}
	if q.ContextLines > 0 {
		n := strconv.Itoa(q.ContextLines)
		args = append(args, "-A", n, "-B", n)
	}
	if q.FilePattern != "" {
		args = append(args, "--include="+q.FilePattern)
	}
	if q.Fuzzy {
		args = append(args, "--fuzzy")
	}
	if q.Regex {
		args = append(args, "-E")
	} else {
		args = append(args, "-F")
	}
	if q.MaxLineLength > 0 {
		args = append(args, "--max-line-length="+strconv.Itoa(q.MaxLineLength))
	}
	return append(args, q.Pattern, path)
}

type ripgrepTool struct{}

func (ripgrepTool) name() string { return "rg" }

func (ripgrepTool) buildArgs(q *Query, path string) []string {
	args := []string{"-n", "--no-heading"}
	if !q.CaseSensitive {
		args = append(args, "-i")
	}
	if q.ContextLines > 0 {
		n := strconv.Itoa(q.ContextLines)
		args = append(args, "-A", n, "-B", n)
	}
	if q.FilePattern != "" {
		args = append(args, "-g", q.FilePattern)
	}
	if !q.Regex {
		// rg patterns are regular expressions unless pinned down.
		args = append(args, "-F")
	}
	if q.MaxLineLength > 0 {
		args = append(args, "-M", strconv.Itoa(q.MaxLineLength))
	}
	return append(args, q.Pattern, path)
}

type agTool struct{}

func (agTool) name() string { return "ag" }

func (agTool) buildArgs(q *Query, path string) []string {
	args := []string{"--line-numbers", "--nogroup"}
	if !q.CaseSensitive {
		args = append(args, "-i")
	}
	if q.ContextLines > 0 {
		n := strconv.Itoa(q.ContextLines)
		args = append(args, "-A", n, "-B", n)
	}
	if q.FilePattern != "" {
		args = append(args, "-G", q.FilePattern)
	}
	if !q.Regex {
		args = append(args, "-Q")
	}
	return append(args, q.Pattern, path)
}

type grepTool struct{}

func (grepTool) name() string { return "grep" }

func (grepTool) buildArgs(q *Query, path string) []string {
	args := []string{"-rn"}
	if !q.CaseSensitive {
		args = append(args, "-i")
	}
	if q.ContextLines > 0 {
		n := strconv.Itoa(q.ContextLines)
		args = append(args, "-A", n, "-B", n)
	}
	if q.Regex {
		args = append(args, "-E")
	} else {
		args = append(args, "-F")
	}
	if q.FilePattern != "" {
		args = append(args, "--include="+q.FilePattern)
	}
	return append(args, q.Pattern, path)
}
