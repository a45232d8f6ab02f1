package analyzer

import (
	"regexp"

	"dirmetrics/src/model"
)

// classPatterns match type declarations per language, one per line
var classPatterns = map[string]*regexp.Regexp{
	model.LanguagePython:     regexp.MustCompile(`(?m)^\s*class\s+\w+`),
	model.LanguageJavaScript: regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?class\s+\w+`),
	model.LanguageTypeScript: regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?(?:class|interface|enum)\s+\w+`),
	model.LanguageJava:       regexp.MustCompile(`(?m)^\s*(?:(?:public|private|protected|static|final|abstract|sealed)\s+)*(?:class|interface|enum|record)\s+\w+`),
	model.LanguageCSharp:     regexp.MustCompile(`(?m)^\s*(?:(?:public|private|protected|internal|static|sealed|abstract|partial)\s+)*(?:class|interface|struct|enum|record)\s+\w+`),
	model.LanguageKotlin:     regexp.MustCompile(`(?m)^\s*(?:(?:data|sealed|open|abstract|enum|private|internal)\s+)*(?:class|interface|object)\s+\w+`),
	model.LanguageScala:      regexp.MustCompile(`(?m)^\s*(?:(?:case|sealed|abstract|final)\s+)*(?:class|trait|object)\s+\w+`),
	model.LanguageCPP:        regexp.MustCompile(`(?m)^\s*(?:template\s*<[^>]*>\s*)?(?:class|struct)\s+\w+[^;]*$`),
	model.LanguageC:          regexp.MustCompile(`(?m)^\s*(?:typedef\s+)?struct\s+\w*\s*\{`),
	model.LanguageGo:         regexp.MustCompile(`(?m)^\s*type\s+\w+(?:\[[^\]]*\])?\s+(?:struct|interface)\b`),
	model.LanguageRust:       regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|trait)\s+\w+`),
	model.LanguageRuby:       regexp.MustCompile(`(?m)^\s*(?:class|module)\s+[A-Z]\w*`),
	model.LanguagePHP:        regexp.MustCompile(`(?m)^\s*(?:(?:abstract|final)\s+)?(?:class|interface|trait)\s+\w+`),
	model.LanguageSwift:      regexp.MustCompile(`(?m)^\s*(?:(?:public|private|internal|open|final)\s+)*(?:class|struct|enum|protocol)\s+\w+`),
	model.LanguageObjC:       regexp.MustCompile(`(?m)^\s*@(?:interface|protocol)\s+\w+`),
	model.LanguageSolidity:   regexp.MustCompile(`(?m)^\s*(?:abstract\s+)?(?:contract|interface|library)\s+\w+`),
	model.LanguageFortran:    regexp.MustCompile(`(?mi)^\s*type\s*(?:,\s*\w+\s*)*(?:::)?\s*\w+\s*$`),
}

// CountClasses counts class-like declarations in content for language.
// Languages without a pattern report 0.
func CountClasses(language string, content []byte) int {
	re, ok := classPatterns[language]
	if !ok {
		return 0
	}
	return len(re.FindAllIndex(content, -1))
}
