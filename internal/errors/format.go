package errors

import "strings"

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorWhite = "\033[37m"
	colorGray  = "\033[90m"
	colorCyan  = "\033[36m"
	colorBold  = "\033[1m"
)

var colorEnabled = true

// DisableColors turns off ANSI colors in Format.
func DisableColors() {
	colorEnabled = false
}

// EnableColors turns on ANSI colors in Format.
func EnableColors() {
	colorEnabled = true
}

func color(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + colorReset
}

// Format renders the error for a terminal.
func (e *Error) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	if e.Code != "" {
		b.WriteString(color(colorRed+colorBold, "ERROR "))
		b.WriteString(color(colorWhite+colorBold, e.Code+": "))
	} else {
		b.WriteString(color(colorRed+colorBold, "ERROR: "))
	}
	b.WriteString(color(colorWhite, e.Message))
	b.WriteString("\n")

	if e.Detail != "" {
		b.WriteString("\n  ")
		b.WriteString(e.Detail)
		b.WriteString("\n")
	}
	if e.Wrapped != nil {
		b.WriteString("\n  ")
		b.WriteString(color(colorGray, "caused by: "+e.Wrapped.Error()))
		b.WriteString("\n")
	}
	if e.Suggestion != "" {
		b.WriteString("\n  ")
		b.WriteString(color(colorCyan, "Hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n")
	}
	return b.String()
}
