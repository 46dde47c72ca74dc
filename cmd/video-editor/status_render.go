package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/ritchie-gr8/video-editor/internal/daemonctl"
	"github.com/ritchie-gr8/video-editor/internal/ipc"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 16
	statusIndent     = "  "
)

func renderStatus(out io.Writer, status *ipc.StatusResponse, colorize bool) {
	printSection(out, "System Status", colorize, daemonctl.BuildStatusLines(status))
	fmt.Fprintln(out)
	printSection(out, "Dependencies", colorize, daemonctl.BuildDependencyLines(status))

	if !status.Running {
		return
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Resize Queue", colorize) {
		fmt.Fprintln(out, line)
	}
	if rows := queueRows(status); len(rows) > 0 {
		fmt.Fprint(out, renderTable([]string{"#", "State", "Video", "Size", "Request"}, rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}))
	} else {
		fmt.Fprintln(out, "Queue is empty")
	}

	if status.Inline || len(status.Workers) == 0 {
		return
	}
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Workers", colorize) {
		fmt.Fprintln(out, line)
	}
	rows := make([][]string, 0, len(status.Workers))
	for _, w := range status.Workers {
		pid := "-"
		if w.PID > 0 {
			pid = strconv.Itoa(w.PID)
		}
		rows = append(rows, []string{strconv.Itoa(w.Slot), pid, strconv.FormatUint(w.Restarts, 10), w.StartedAt, w.LastExit})
	}
	fmt.Fprint(out, renderTable([]string{"Slot", "PID", "Restarts", "Started", "Last Exit"}, rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft}))
}

func queueRows(status *ipc.StatusResponse) [][]string {
	var rows [][]string
	if cur := status.Dispatcher.Current; cur != nil {
		rows = append(rows, []string{"0", "running", cur.VideoID, cur.Key, cur.RequestID})
	}
	for i, job := range status.Dispatcher.Pending {
		rows = append(rows, []string{strconv.Itoa(i + 1), "pending", job.VideoID, job.Key, job.RequestID})
	}
	return rows
}

func printSection(out io.Writer, title string, colorize bool, lines []daemonctl.StatusLine) {
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range lines {
		fmt.Fprintln(out, renderStatusLine(line.Label, statusKindFromSeverity(line.Severity), line.Detail, colorize))
	}
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindFromSeverity(severity string) statusKind {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "ok":
		return statusOK
	case "warn":
		return statusWarn
	case "error":
		return statusError
	default:
		return statusInfo
	}
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
