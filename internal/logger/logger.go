package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/AHGGG/nce-english-practices-sub006/internal/netutil"
	"rsc.io/qr"
)

var (
	mu      sync.Mutex
	noColor bool
)

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	white  = "\033[37m"

	// Teal shades (256-color)
	teal     = "\033[38;5;43m"
	deepTeal = "\033[38;5;30m"
	mint     = "\033[38;5;121m"
)

func init() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		noColor = true
	}
}

func c(code, text string) string {
	if noColor {
		return text
	}
	return code + text + reset
}

func ts() string {
	return c(dim, time.Now().Format("15:04:05"))
}

func write(format string, args ...interface{}) {
	mu.Lock()
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	mu.Unlock()
}

func Banner() {
	lines := "\n" +
		"  " + c(teal, `((`) + c(bold+white, ` NCE `) + c(teal, `))`) + "  " + c(bold+mint, "nce-practice") + "\n" +
		"   " + c(dim, "listen · look up · review") + "\n" +
		c(dim, " ─────────────────────────────────") + "\n"
	mu.Lock()
	fmt.Fprint(os.Stderr, lines)
	mu.Unlock()
}

func Info(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	write("%s  %s  %s", ts(), c(cyan, "~"), msg)
}

func Success(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	write("%s  %s  %s", ts(), c(green, "✓"), msg)
}

func Warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	write("%s  %s  %s", ts(), c(yellow, "⚠"), c(yellow, msg))
}

func Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	write("%s  %s  %s", ts(), c(red, "✗"), c(red, msg))
}

func Fatal(format string, args ...interface{}) {
	Error(format, args...)
	os.Exit(1)
}

// WS logs local UI push-channel lifecycle events.
func WS(event, detail string) {
	var icon string
	switch event {
	case "connected":
		icon = c(mint, "⚡")
	case "disconnected":
		icon = c(deepTeal, "·")
	default:
		icon = c(teal, "↔")
	}
	write("%s  %s %s %s",
		ts(),
		icon,
		c(teal, fmt.Sprintf("%-14s", "ws:"+event)),
		c(deepTeal, detail),
	)
}

// Stream logs upstream hydration-session events (open, start, end, error).
func Stream(event, detail string) {
	var icon string
	switch event {
	case "open", "start":
		icon = c(mint, "▶")
	case "end":
		icon = c(deepTeal, "■")
	case "error":
		icon = c(red, "✗")
	default:
		icon = c(teal, "≈")
	}
	write("%s  %s %s %s",
		ts(),
		icon,
		c(teal, fmt.Sprintf("%-14s", "stream:"+event)),
		c(dim, detail),
	)
}

func Listen(addr, url string, port int) {
	write("")
	write("%s  %s  Listening on %s", ts(), c(mint, "♪"), c(bold+white, addr))
	write("              %s  %s", c(dim, "→"), c(cyan, url))

	if lanIP := netutil.GetLANIP(); lanIP != "" {
		lanURL := fmt.Sprintf("http://%s:%d", lanIP, port)
		write("              %s  %s", c(dim, "→"), c(cyan, lanURL))
		write("")
		printQR(lanURL)
		write("              %s", c(dim, "Scan to practice from your phone"))
	}
	write("")
}

func printQR(url string) {
	code, err := qr.Encode(url, qr.L)
	if err != nil {
		return
	}

	size := code.Size
	quiet := 1
	full := size + quiet*2

	black := func(x, y int) bool {
		qx, qy := x-quiet, y-quiet
		if qx < 0 || qy < 0 || qx >= size || qy >= size {
			return false
		}
		return code.Black(qx, qy)
	}

	fg := "\033[38;5;43m"
	rst := "\033[0m"

	for y := 0; y < full; y += 2 {
		line := ""
		for x := 0; x < full; x++ {
			top := black(x, y)
			bot := y+1 < full && black(x, y+1)

			switch {
			case top && bot:
				line += "█"
			case top:
				line += "▀"
			case bot:
				line += "▄"
			default:
				line += " "
			}
		}
		mu.Lock()
		fmt.Fprintf(os.Stderr, "              %s%s%s\n", fg, line, rst)
		mu.Unlock()
	}
}

func Shutdown(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	write("")
	write("%s  %s  %s", ts(), c(dim, "~"), c(dim, msg))
}

func Bye() {
	write("%s  %s  %s", ts(), c(dim, "~"), c(dim, "Stopped. Keep listening!"))
	write("")
}

func HTTP(method, path string, status int, dur time.Duration) {
	statusStr := fmt.Sprintf("%d", status)
	var coloredStatus string
	switch {
	case status >= 400:
		coloredStatus = "\033[41;97m " + statusStr + " \033[0m"
	default:
		coloredStatus = c(dim+teal, statusStr)
	}

	mc := teal
	switch method {
	case "POST", "PUT", "PATCH":
		mc = mint
	case "DELETE":
		mc = red
	}

	write("%s  %s %s %s %s",
		ts(),
		c(mc, "["+method+"]"),
		coloredStatus,
		c(dim, path),
		c(dim, fmtDuration(dur)),
	)
}

func fmtDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		ms := float64(d.Microseconds()) / 1000.0
		if ms < 10 {
			return fmt.Sprintf("%.1fms", ms)
		}
		return fmt.Sprintf("%.0fms", ms)
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
