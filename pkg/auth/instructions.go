package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteTokenGuide explains how to copy the jst and mst cookies out of a
// logged-in browser session.
func WriteTokenGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "PARLER SESSION TOKEN GUIDE")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The client authenticates with the two cookies a browser receives")
	fmt.Fprintln(w, "after logging in to Parler.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 1: Log in at https://parler.com and open your feed")
	fmt.Fprintln(w, "STEP 2: Open Developer Tools (F12, or Cmd+Option+I on Mac)")
	fmt.Fprintln(w, "STEP 3: Go to Application (Chrome) or Storage (Firefox) > Cookies")
	fmt.Fprintln(w, "STEP 4: Select https://parler.com and copy these values:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "   jst   short-term session token, rotated by the server")
	fmt.Fprintln(w, "   mst   master session token, long lived")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "TIPS:")
	fmt.Fprintln(w, "   - Copy the whole value, without quotes or semicolons")
	io.WriteString(w, "   - URL-encoded characters such as %2F are part of the token\n")
	fmt.Fprintln(w, "   - A 401 from every endpoint means the tokens expired")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "WARNING: the mst token grants full access to the account.")
	fmt.Fprintln(w, "Never share it; this tool stores it encrypted or in the keychain.")
	fmt.Fprintln(w, rule)
}

// WriteQuickGuide prints a one-line reminder for experienced users.
func WriteQuickGuide(w io.Writer) {
	fmt.Fprintln(w, "F12 > Application > Cookies > parler.com: copy jst and mst (type 'help' for details)")
}
