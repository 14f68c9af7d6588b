package utils

import (
	"path/filepath"
	"strings"
)

var languageMap = map[string]string{
	"go":     "go",
	"js":     "javascript",
	"mjs":    "javascript",
	"cjs":    "javascript",
	"ts":     "typescript",
	"jsx":    "jsx",
	"tsx":    "tsx",
	"py":     "python",
	"java":   "java",
	"c":      "c",
	"cpp":    "cpp",
	"cc":     "cpp",
	"cxx":    "cpp",
	"h":      "c",
	"hpp":    "cpp",
	"cs":     "csharp",
	"php":    "php",
	"rb":     "ruby",
	"rs":     "rust",
	"swift":  "swift",
	"kt":     "kotlin",
	"scala":  "scala",
	"sh":     "bash",
	"bash":   "bash",
	"zsh":    "bash",
	"ps1":    "powershell",
	"sql":    "sql",
	"html":   "html",
	"css":    "css",
	"scss":   "scss",
	"xml":    "xml",
	"json":   "json",
	"yaml":   "yaml",
	"yml":    "yaml",
	"toml":   "toml",
	"ini":    "ini",
	"md":     "markdown",
	"mk":     "makefile",
	"config": "ini",
}

var namedFiles = map[string]string{
	"dockerfile": "dockerfile",
	"makefile":   "makefile",
}

// DetectLanguageFromFilePath returns the markdown language identifier for a path, or an empty
// string for plain text.
func DetectLanguageFromFilePath(filePath string) string {
	base := strings.ToLower(filepath.Base(filePath))
	if language, exists := namedFiles[base]; exists {
		return language
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(base)), ".")
	if ext == "" {
		return ""
	}

	return languageMap[ext]
}

var skippedSuffixes = []string{
	".min.js", ".min.css", ".lock", ".sum", ".svg", ".png", ".jpg", ".jpeg", ".gif",
	".ico", ".pdf", ".zip", ".gz", ".tar", ".jar", ".woff", ".woff2", ".ttf", ".exe",
}

var skippedFiles = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
	"go.sum":            true,
}

var skippedDirs = []string{"vendor/", "node_modules/", "dist/", "build/", ".git/"}

// IsReviewable reports whether a changed file is worth sending through the analyzers.
// Generated, vendored and binary files are skipped.
func IsReviewable(filePath string) bool {
	lower := strings.ToLower(filePath)
	if skippedFiles[filepath.Base(lower)] {
		return false
	}
	for _, suffix := range skippedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	for _, dir := range skippedDirs {
		if strings.HasPrefix(lower, dir) || strings.Contains(lower, "/"+dir) {
			return false
		}
	}
	return true
}
