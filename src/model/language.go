package model

import (
	"path/filepath"
	"sort"
	"strings"
)

// Language identifiers
const (
	LanguagePython     = "python"
	LanguageJavaScript = "javascript"
	LanguageTypeScript = "typescript"
	LanguageJava       = "java"
	LanguageC          = "c"
	LanguageCPP        = "cpp"
	LanguageCSharp     = "csharp"
	LanguageGo         = "go"
	LanguageRuby       = "ruby"
	LanguagePHP        = "php"
	LanguageSwift      = "swift"
	LanguageRust       = "rust"
	LanguageKotlin     = "kotlin"
	LanguageScala      = "scala"
	LanguageLua        = "lua"
	LanguageObjC       = "objective-c"
	LanguageFortran    = "fortran"
	LanguageErlang     = "erlang"
	LanguageSolidity   = "solidity"
	LanguageUnknown    = "unknown"
)

// languageByExtension lists every extension the scanner accepts
var languageByExtension = map[string]string{
	".py":    LanguagePython,
	".pyw":   LanguagePython,
	".js":    LanguageJavaScript,
	".jsx":   LanguageJavaScript,
	".mjs":   LanguageJavaScript,
	".cjs":   LanguageJavaScript,
	".ts":    LanguageTypeScript,
	".tsx":   LanguageTypeScript,
	".java":  LanguageJava,
	".c":     LanguageC,
	".h":     LanguageC,
	".cpp":   LanguageCPP,
	".cc":    LanguageCPP,
	".cxx":   LanguageCPP,
	".hpp":   LanguageCPP,
	".hh":    LanguageCPP,
	".cs":    LanguageCSharp,
	".go":    LanguageGo,
	".rb":    LanguageRuby,
	".php":   LanguagePHP,
	".swift": LanguageSwift,
	".rs":    LanguageRust,
	".kt":    LanguageKotlin,
	".kts":   LanguageKotlin,
	".scala": LanguageScala,
	".lua":   LanguageLua,
	".m":     LanguageObjC,
	".f90":   LanguageFortran,
	".f":     LanguageFortran,
	".erl":   LanguageErlang,
	".sol":   LanguageSolidity,
}

// LanguageForExtension maps an extension (with leading dot) to a language id
func LanguageForExtension(ext string) string {
	if lang, ok := languageByExtension[strings.ToLower(ext)]; ok {
		return lang
	}
	return LanguageUnknown
}

// LanguageForPath derives the language from a file name
func LanguageForPath(path string) string {
	return LanguageForExtension(filepath.Ext(path))
}

// IsSupportedExtension reports whether files with ext are analyzed
func IsSupportedExtension(ext string) bool {
	_, ok := languageByExtension[strings.ToLower(ext)]
	return ok
}

// SupportedExtensions returns all accepted extensions sorted
func SupportedExtensions() []string {
	exts := make([]string, 0, len(languageByExtension))
	for ext := range languageByExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ExtensionsByLanguage groups supported extensions by language, each list sorted
func ExtensionsByLanguage() map[string][]string {
	out := make(map[string][]string)
	for _, ext := range SupportedExtensions() {
		lang := languageByExtension[ext]
		out[lang] = append(out[lang], ext)
	}
	return out
}
