package mcp

// SetProjectPathInput defines the input schema for the set_project_path tool.
type SetProjectPathInput struct {
	Path string `json:"path" jsonschema:"absolute path to the project directory"`
}

// FindFilesInput defines the input schema for the find_files tool.
type FindFilesInput struct {
	Pattern string `json:"pattern" jsonschema:"glob pattern to match files, e.g. '*.java' or '**/*.ts'"`
}

// SearchCodeInput defines the input schema for the search_code tool.
type SearchCodeInput struct {
	Pattern       string `json:"pattern" jsonschema:"text or regex pattern to search for"`
	CaseSensitive *bool  `json:"case_sensitive,omitempty" jsonschema:"whether the search is case-sensitive, default true"`
	ContextLines  int    `json:"context_lines,omitempty" jsonschema:"number of lines to show before/after matches"`
	FileGlob      string `json:"file_glob,omitempty" jsonschema:"glob pattern to limit the search to specific files"`
	Fuzzy         bool   `json:"fuzzy,omitempty" jsonschema:"enable fuzzy matching, best with ugrep"`
	Regex         bool   `json:"regex,omitempty" jsonschema:"treat pattern as a regular expression"`
	MaxLineLength int    `json:"max_line_length,omitempty" jsonschema:"maximum line length to display"`
}

// AnalyseFileInput defines the input schema for the analyse_file tool.
type AnalyseFileInput struct {
	FilePath string `json:"file_path" jsonschema:"path to the file, relative to the project root"`
}

// StructureInput defines the input schema for the get_project_structure tool (no parameters).
type StructureInput struct{}

// StatisticsInput defines the input schema for the get_statistics tool (no parameters).
type StatisticsInput struct{}

// RefreshIndexInput defines the input schema for the refresh_index tool (no parameters).
type RefreshIndexInput struct{}

// SymbolUsageInput defines the input schema for the find_symbol_usage tool.
type SymbolUsageInput struct {
	SymbolName string `json:"symbol_name" jsonschema:"name of the symbol to find"`
	SymbolType string `json:"symbol_type,omitempty" jsonschema:"optional filter by symbol kind: function, class, method, or interface"`
}

// FunctionsCallingInput defines the input schema for the find_functions_calling tool.
type FunctionsCallingInput struct {
	FunctionName string `json:"function_name" jsonschema:"name of the function to analyse"`
}

// FileImportsInput defines the input schema for the get_file_imports tool.
type FileImportsInput struct {
	FilePath string `json:"file_path" jsonschema:"path to the file, relative to the project root"`
}

// SearchInFileInput defines the input schema for the search_in_file tool.
type SearchInFileInput struct {
	FilePath      string `json:"file_path" jsonschema:"path to the file, relative to the project root"`
	Pattern       string `json:"pattern" jsonschema:"pattern to search for"`
	CaseSensitive bool   `json:"case_sensitive,omitempty" jsonschema:"whether the search is case-sensitive, default false"`
	Regex         bool   `json:"regex,omitempty" jsonschema:"treat pattern as a regular expression"`
}
