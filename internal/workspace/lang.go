package workspace

import (
	"path/filepath"
	"strings"
)

// PlainText is the language ID for files with no known language.
const PlainText = "plaintext"

// extToLanguage maps extensions to editor language IDs.
var extToLanguage = map[string]string{
	".go":    "go",
	".rb":    "ruby",
	".py":    "python",
	".rs":    "rust",
	".js":    "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".jsx":   "javascriptreact",
	".ts":    "typescript",
	".tsx":   "typescriptreact",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".hh":    "cpp",
	".cs":    "csharp",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".kts":   "kotlin",
	".scala": "scala",
	".m":     "objective-c",
	".mm":    "objective-cpp",
	".sh":    "shellscript",
	".bash":  "shellscript",
	".sql":   "sql",
	".lua":   "lua",
}

// LanguageForPath returns the editor language ID for path based on its extension, or PlainText.
func LanguageForPath(path string) string {
	if lang, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return PlainText
}

// IsSourcePath reports whether path has a known source-code extension.
func IsSourcePath(path string) bool {
	return LanguageForPath(path) != PlainText
}
