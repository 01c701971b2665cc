package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

func colorized() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func paint(color, s string) string {
	if !colorized() {
		return s
	}
	return color + s + reset
}

func logLine(color, level, tag, msg string) {
	ts := time.Now().Format("15:04:05")
	fmt.Printf("%s %s %s %s\n",
		paint(dim, ts),
		paint(color, fmt.Sprintf("%-5s", level)),
		paint(bold, "["+tag+"]"),
		msg)
}

// Info logs a neutral informational message.
func Info(tag, msg string) {
	logLine(cyan, "INFO", tag, msg)
}

// Success logs a completed operation.
func Success(tag, msg string) {
	logLine(green, "OK", tag, msg)
}

// Warn logs a recoverable problem.
func Warn(tag, msg string) {
	logLine(yellow, "WARN", tag, msg)
}

// Error logs a failure.
func Error(tag, msg string) {
	logLine(red, "ERROR", tag, msg)
}

// Banner prints the startup header with the build version.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	fmt.Println(paint(cyan, "⚡ NEM Price Bot "+version))
	fmt.Println(paint(dim, "AEMO dispatch prices → Telegram alerts"))
}

// Section prints a visual divider for a named phase.
func Section(name string) {
	fmt.Println(paint(bold, "── "+name+" ──"))
}

// Stats prints a key/value pair aligned under the current section.
func Stats(key string, value interface{}) {
	fmt.Printf("   %s %v\n", paint(dim, key+":"), value)
}
