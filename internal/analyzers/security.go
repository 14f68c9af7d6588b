package analyzers

import (
	"regexp"

	"github.com/agusespa/prsentinel/internal/types"
)

const securitySourceName = "security"

var securityRules = []lineRule{
	{
		code:         "hardcoded-secret",
		pattern:      regexp.MustCompile(`(?i)(password|passwd|secret|api[_-]?key|access[_-]?token|auth[_-]?token|private[_-]?key)["']?\s*[:=]\s*["'][^"'\s]{4,}["']`),
		severity:     types.SeverityCritical,
		category:     types.CategorySecurity,
		message:      "Hardcoded credential",
		suggestion:   "Load the secret from the environment or a secret manager and rotate the exposed value",
		scanComments: true,
	},
	{
		code:         "aws-access-key",
		pattern:      regexp.MustCompile(`\b(AKIA|ASIA)[0-9A-Z]{16}\b`),
		severity:     types.SeverityCritical,
		category:     types.CategorySecurity,
		message:      "AWS access key id committed to source",
		suggestion:   "Revoke the key and load credentials from the environment",
		scanComments: true,
	},
	{
		code:         "private-key-block",
		pattern:      regexp.MustCompile(`-----BEGIN (RSA |EC |OPENSSH |DSA )?PRIVATE KEY-----`),
		severity:     types.SeverityCritical,
		category:     types.CategorySecurity,
		message:      "Private key committed to source",
		suggestion:   "Remove the key from the repository history and rotate it",
		scanComments: true,
	},
	{
		code:       "sql-injection",
		pattern:    regexp.MustCompile("(?i)([\"'`]\\s*(select|insert|update|delete)\\s[^\"'`]*[\"'`]\\s*\\+)|(`\\s*(select|insert|update|delete)\\s[^`]*\\$\\{)|((sprintf|format)\\(\\s*[\"'`](select|insert|update|delete)\\s[^\"'`]*%[sv])|(f[\"'](select|insert|update|delete)\\s[^\"']*\\{)"),
		severity:   types.SeverityCritical,
		category:   types.CategorySecurity,
		message:    "SQL query built from string concatenation or interpolation",
		suggestion: "Use parameterized queries or prepared statements",
	},
	{
		code:       "eval-usage",
		pattern:    regexp.MustCompile(`(^|[^\w.])eval\s*\(|\bnew\s+Function\s*\(`),
		severity:   types.SeverityHigh,
		category:   types.CategorySecurity,
		message:    "Dynamic code evaluation",
		suggestion: "Avoid eval; parse the data explicitly",
	},
	{
		code:       "command-injection",
		pattern:    regexp.MustCompile("\\bexec(Sync)?\\s*\\([^)]*(\\+|\\$\\{)|\\bos\\.system\\s*\\(|\\bsubprocess\\.\\w+\\([^)]*shell\\s*=\\s*True|exec\\.Command\\(\\s*\"(sh|bash)\"\\s*,\\s*\"-c\""),
		severity:   types.SeverityHigh,
		category:   types.CategorySecurity,
		message:    "Shell command built from dynamic input",
		suggestion: "Pass arguments as a list and never through a shell",
	},
	{
		code:       "xss-inner-html",
		pattern:    regexp.MustCompile(`\.(innerHTML|outerHTML)\s*=|dangerouslySetInnerHTML|document\.write\s*\(`),
		severity:   types.SeverityMedium,
		category:   types.CategorySecurity,
		message:    "Unescaped HTML injection sink",
		suggestion: "Use textContent or sanitize the markup before inserting it",
	},
	{
		code:       "weak-hash",
		pattern:    regexp.MustCompile(`(?i)createHash\(\s*["'](md5|sha1)["']|hashlib\.(md5|sha1)\(|\b(md5|sha1)\.(New|Sum)\w*\(|MessageDigest\.getInstance\(\s*"(MD5|SHA-?1)"`),
		severity:   types.SeverityMedium,
		category:   types.CategorySecurity,
		message:    "Weak hash algorithm",
		suggestion: "Use SHA-256 or a password hashing function such as bcrypt or argon2",
	},
	{
		code:       "insecure-tls",
		pattern:    regexp.MustCompile(`InsecureSkipVerify:\s*true|rejectUnauthorized:\s*false|verify\s*=\s*False|NODE_TLS_REJECT_UNAUTHORIZED\s*=\s*["']?0`),
		severity:   types.SeverityHigh,
		category:   types.CategorySecurity,
		message:    "TLS certificate verification disabled",
		suggestion: "Keep certificate verification on and trust the required CA instead",
	},
}

// SecurityScanner matches well-known vulnerability and secret patterns in any language.
type SecurityScanner struct{}

func NewSecurityScanner() *SecurityScanner {
	return &SecurityScanner{}
}

func (s *SecurityScanner) Name() string {
	return securitySourceName
}

func (s *SecurityScanner) Analyze(content, filename, language string) ([]types.Issue, error) {
	return scanLines(securityRules, content, filename, language, s.Name()), nil
}
