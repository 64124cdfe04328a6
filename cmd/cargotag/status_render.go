package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"cargotag/internal/location"
	"cargotag/internal/preflight"
	"cargotag/internal/services"
)

type statusKind int

const (
	statusOK statusKind = iota
	statusWarn
	statusFail
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

const (
	statusLabelWidth = 12
	statusIndent     = "  "
	digestPrefixLen  = 16
)

var statusStyles = map[statusKind]struct {
	tag   string
	color string
}{
	statusOK:   {"OK", ansiGreen},
	statusWarn: {"WARN", ansiYellow},
	statusFail: {"FAIL", ansiRed},
}

// renderStatusLine formats "  Label:       [KIND] message".
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	text := "[" + style.tag + "]"
	if message = strings.TrimSpace(message); message != "" {
		text += " " + message
	}
	line := renderField(label, text)
	if colorize && style.color != "" {
		return style.color + line + ansiReset
	}
	return line
}

// renderFailureLine reports err by its kind, plus the location reason when
// a location source gave up.
func renderFailureLine(label string, err error, colorize bool) string {
	message := services.Kind(err)
	if reason, ok := location.ReasonOf(err); ok {
		message += " (" + reason.String() + ")"
	}
	return renderStatusLine(label, statusFail, message, colorize)
}

// renderCheckLine shows one readiness check. Failed checks are warnings; none
// of them stops cargotag from running.
func renderCheckLine(r preflight.Result, colorize bool) string {
	if r.Passed {
		return renderStatusLine(r.Name, statusOK, r.Detail, colorize)
	}
	return renderStatusLine(r.Name, statusWarn, r.Detail, colorize)
}

func renderField(label, value string) string {
	return fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", value)
}

// shortDigest trims an artifact digest for summaries; --json keeps it whole.
func shortDigest(digest string) string {
	if len(digest) <= digestPrefixLen {
		return digest
	}
	return digest[:digestPrefixLen] + "…"
}

func renderSectionHeader(title string, colorize bool) []string {
	title = strings.TrimSpace(title)
	rule := strings.Repeat("─", len([]rune(title)))
	if colorize {
		return []string{ansiCyan + title + ansiReset, ansiCyan + rule + ansiReset}
	}
	return []string{title, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printLines(out io.Writer, lines ...string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
