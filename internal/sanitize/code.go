package sanitize

import "regexp"

// Signatures typical of client-rendered script text. A candidate needs at
// least two independent matches (and minCodeLength characters) to be
// classified as code, so prose that happens to mention "function" or use
// braces once is not rejected.
var codeSignatures = []*regexp.Regexp{
	// Declarations
	regexp.MustCompile(`\bfunction\s+\w+\s*\(`),
	regexp.MustCompile(`\bfunction\s*\([^)]*\)\s*\{`),
	regexp.MustCompile(`\bvar\s+\w+\s*=`),
	regexp.MustCompile(`\blet\s+\w+\s*=`),
	regexp.MustCompile(`\bconst\s+\w+\s*=`),
	regexp.MustCompile(`\bclass\s+\w+\s*\{`),
	regexp.MustCompile(`=>\s*\{`),
	// DOM API calls
	regexp.MustCompile(`document\.getElementById\s*\(`),
	regexp.MustCompile(`document\.querySelector(All)?\s*\(`),
	regexp.MustCompile(`document\.createElement\s*\(`),
	regexp.MustCompile(`\.addEventListener\s*\(`),
	regexp.MustCompile(`window\.\w+\s*[=.(]`),
	regexp.MustCompile(`\.innerHTML\s*=`),
	regexp.MustCompile(`console\.(log|warn|error)\s*\(`),
	// Control flow with braces
	regexp.MustCompile(`\bif\s*\([^)]+\)\s*\{`),
	regexp.MustCompile(`\bfor\s*\([^)]*;[^)]*;[^)]*\)\s*\{`),
	regexp.MustCompile(`\bwhile\s*\([^)]+\)\s*\{`),
	regexp.MustCompile(`\bswitch\s*\([^)]+\)\s*\{`),
	regexp.MustCompile(`\btry\s*\{`),
	regexp.MustCompile(`\.catch\s*\(`),
	// Property assignment / module idioms
	regexp.MustCompile(`\w+\.prototype\.\w+`),
	regexp.MustCompile(`\bmodule\.exports\b`),
	regexp.MustCompile(`\brequire\s*\(\s*['"]`),
	regexp.MustCompile(`\bimport\s+[\w{},* ]+\s+from\s+['"]`),
	regexp.MustCompile(`\breturn\s+[\w.'"\[\]]+;`),
	regexp.MustCompile(`[!=]==`),
	regexp.MustCompile(`\w+\s*:\s*function\s*\(`),
	regexp.MustCompile(`\$\([^)]*\)\.`),
	regexp.MustCompile(`\w+\[['"][\w-]+['"]\]\s*=`),
}

const minCodeLength = 20

// LooksLikeCode reports whether text reads as programmatic script rather
// than prose. Strings under minCodeLength characters are never code.
func LooksLikeCode(text string) bool {
	if len(text) < minCodeLength {
		return false
	}

	matches := 0
	for _, sig := range codeSignatures {
		if sig.MatchString(text) {
			matches++
			if matches >= 2 {
				return true
			}
		}
	}
	return false
}
