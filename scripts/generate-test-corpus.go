//go:build ignore

// Generates a synthetic source corpus for benchmarking the indexer.
// The mix mirrors the projects codescope targets: mostly Java and
// TypeScript, some JavaScript, plus markdown the scanner must skip.
//
// Usage: go run scripts/generate-test-corpus.go -files 1000 -output testdata/bench
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

var (
	numFiles  = flag.Int("files", 1000, "How many files to generate")
	outputDir = flag.String("output", "testdata/bench", "Directory to write the corpus into")
	seed      = flag.Int64("seed", 42, "Seed for deterministic output")
)

var rng *rand.Rand

// Each template carries at least one intra-file call so the corpus
// exercises called_by edge recording, not just symbol extraction.
var javaTemplate = `package com.bench.%s;

import java.util.List;
import java.util.Map;
import java.util.Optional;

/**
 * %s handles %s concerns.
 */
public class %s {
    private final String id;
    private final Map<String, Object> settings;

    public %s(String id) {
        this.id = id;
        this.settings = new java.util.HashMap<>();
    }

    public Optional<String> %s(String input) {
        validate(input);
        return Optional.of(transform(input));
    }

    private void validate(String input) {
        if (input == null || input.isEmpty()) {
            throw new IllegalArgumentException("input required");
        }
    }

    private String transform(String input) {
        return id + ":" + input;
    }

    public List<String> settingKeys() {
        return List.copyOf(settings.keySet());
    }
}
`

var tsTemplate = `import { Logger } from "../logger";

export interface %sOptions {
  name: string;
  limit?: number;
}

export interface %sEntry {
  key: string;
  value: unknown;
  updatedAt: number;
}

export class %s {
  private entries = new Map<string, %sEntry>();

  constructor(private options: %sOptions, private log: Logger) {}

  put(key: string, value: unknown): void {
    this.evict();
    this.entries.set(key, { key, value, updatedAt: Date.now() });
  }

  get(key: string): %sEntry | undefined {
    return this.entries.get(key);
  }

  private evict(): void {
    const limit = this.options.limit ?? 1000;
    while (this.entries.size >= limit) {
      const oldest = this.entries.keys().next().value;
      if (oldest === undefined) break;
      this.entries.delete(oldest);
    }
  }
}

export function open%s(options: %sOptions, log: Logger): %s {
  return new %s(options, log);
}
`

var jsTemplate = `const EventEmitter = require("events");

class %s extends EventEmitter {
  constructor(options = {}) {
    super();
    this.name = options.name || "%s";
    this.entries = new Map();
  }

  %s(key, value) {
    this.entries.set(key, value);
    this.emit("updated", key);
    return this.entries.size;
  }

  lookup(key) {
    return this.entries.get(key);
  }
}

function create%s(options) {
  return new %s(options);
}

module.exports = { %s, create%s };
`

var mdTemplate = `# %s

%s provides %s support.

## Usage

See the package documentation for setup and examples. Configuration
lives in the project root; defaults are sensible for most setups.

| Option  | Default | Description                |
|---------|---------|----------------------------|
| timeout | 30      | Request timeout in seconds |
| retries | 3       | Number of retry attempts   |
`

// Name pools. Combinations of these read like real project code.
var (
	nouns = []string{
		"Handler", "Manager", "Service", "Controller", "Processor",
		"Engine", "Client", "Server", "Worker", "Factory",
		"Builder", "Parser", "Validator", "Formatter", "Converter",
		"Cache", "Store", "Queue", "Pool", "Buffer",
		"Router", "Dispatcher", "Scheduler", "Monitor", "Logger",
		"Auth", "User", "Session", "Token", "Config",
		"Data", "Event", "Message", "Request", "Response",
	}
	verbs = []string{
		"process", "handle", "execute", "run", "start",
		"stop", "create", "remove", "update", "read",
		"parse", "format", "validate", "convert", "transform",
		"send", "receive", "fetch", "store", "evaluate",
	}
	domains = []string{
		"authentication", "authorization", "caching", "logging", "monitoring",
		"messaging", "scheduling", "routing", "parsing", "validation",
		"serialization", "compression", "encryption", "hashing", "indexing",
		"searching", "filtering", "sorting", "pagination", "batching",
	}
)

// fileKind couples an output subdirectory with its corpus share and
// writer. Shares are percentages; the last kind takes the remainder.
type fileKind struct {
	dir   string
	share int
	write func(dir string, index int) error
}

func main() {
	flag.Parse()
	rng = rand.New(rand.NewSource(*seed))

	kinds := []fileKind{
		{"java", 40, writeJava},
		{"typescript", 30, writeTS},
		{"javascript", 20, writeJS},
		{"docs", 0, writeDoc},
	}

	counts := make([]int, len(kinds))
	remaining := *numFiles
	for i := range kinds[:len(kinds)-1] {
		counts[i] = *numFiles * kinds[i].share / 100
		remaining -= counts[i]
	}
	counts[len(kinds)-1] = remaining

	fmt.Printf("Generating %d files in %s...\n", *numFiles, *outputDir)

	written := 0
	for i, k := range kinds {
		dir := filepath.Join(*outputDir, k.dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", dir, err)
			os.Exit(1)
		}
		for n := 0; n < counts[i]; n++ {
			if err := k.write(dir, n); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing %s file %d: %v\n", k.dir, n, err)
				continue
			}
			written++
		}
	}

	fmt.Printf("Generated %d files successfully.\n", written)
}

func pick(pool []string) string {
	return pool[rng.Intn(len(pool))]
}

func writeJava(dir string, index int) error {
	noun, verb, domain := pick(nouns), pick(verbs), pick(domains)

	// Java wants the file named after its public class.
	class := fmt.Sprintf("%s%d", noun, index)
	src := fmt.Sprintf(javaTemplate, domain, class, domain, class, class, verb)
	return os.WriteFile(filepath.Join(dir, class+".java"), []byte(src), 0o644)
}

func writeTS(dir string, index int) error {
	noun := pick(nouns)
	src := fmt.Sprintf(tsTemplate,
		noun, noun,
		noun, noun, noun,
		noun,
		noun, noun, noun, noun,
	)
	return os.WriteFile(filepath.Join(dir, fmt.Sprintf("%s%d.ts", noun, index)), []byte(src), 0o644)
}

func writeJS(dir string, index int) error {
	noun, verb := pick(nouns), pick(verbs)
	src := fmt.Sprintf(jsTemplate,
		noun, noun,
		verb,
		noun, noun,
		noun, noun,
	)
	return os.WriteFile(filepath.Join(dir, fmt.Sprintf("%s%d.js", noun, index)), []byte(src), 0o644)
}

func writeDoc(dir string, index int) error {
	noun, domain := pick(nouns), pick(domains)
	src := fmt.Sprintf(mdTemplate, noun, noun, domain)
	return os.WriteFile(filepath.Join(dir, fmt.Sprintf("%s_%d.md", noun, index)), []byte(src), 0o644)
}
