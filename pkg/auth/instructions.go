package auth

import (
	"fmt"
	"io"
	"strings"
)

// CookieExportHint is the short explanation shown when no cookies are found
func CookieExportHint() string {
	return strings.Join([]string{
		"To export your Patreon cookies:",
		"  1. Log in to https://www.patreon.com in your browser",
		"  2. Export cookies for patreon.com as JSON with a cookie export extension",
		"  3. Save the file as cookies/cookies.json",
		"Or run: ptscraper auth browser chrome",
	}, "\n")
}

// ShowCookieExtractionGuide writes step-by-step instructions for getting a
// session cookie out of a browser
func ShowCookieExtractionGuide(w io.Writer) {
	p := func(format string, args ...interface{}) {
		fmt.Fprintf(w, format+"\n", args...)
	}

	p(strings.Repeat("=", 80))
	p("📚 PATREON COOKIE EXPORT GUIDE")
	p(strings.Repeat("=", 80))
	p("")
	p("This tool reads your Patreon session cookies to see the posts you can see.")
	p("")

	p("🌐 STEP 1: Open Patreon in your browser")
	p("   - Go to https://www.patreon.com and log in")
	p("   - Make sure your memberships page loads")
	p("")

	p("🍪 STEP 2: Export the cookies (pick one)")
	p("   METHOD A - Cookie export extension:")
	p("   1. Install a cookie export extension (e.g. \"Cookie-Editor\")")
	p("   2. Open it on patreon.com and export as JSON")
	p("   3. Save the result as cookies/cookies.json")
	p("      Both [ {...}, ... ] and { \"cookies\": [ ... ] } are accepted")
	p("")
	p("   METHOD B - Read them from the browser directly:")
	p("   ptscraper auth browser chrome      (or firefox, edge, brave, ...)")
	p("")
	p("   METHOD C - Paste the session cookie:")
	p("   1. F12 → Application/Storage → Cookies → https://www.patreon.com")
	p("   2. Copy the value of session_id")
	p("   3. Run: ptscraper auth login")
	p("")

	p("💡 TIPS:")
	p("   • session_id is the only cookie that is required")
	p("   • Cookies expire; re-export when the tool reports an authentication error")
	p("")

	p("⚠️  SECURITY WARNING:")
	p("   • These cookies give FULL access to your Patreon account")
	p("   • NEVER share them with anyone")
	p("   • Saved sessions are kept in the system keychain or an encrypted file")
	p("")
	p(strings.Repeat("=", 80))
}
