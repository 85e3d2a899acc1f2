// Package ui provides colored terminal output for the CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgWhite)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	stepColor    = color.New(color.FgBlue)
	blueColor    = color.New(color.FgBlue)
	yellowColor  = color.New(color.FgYellow)
)

// Header prints a section header framed by a rule line.
func Header(text string) {
	line := strings.Repeat("=", headerWidth)
	headerColor.Println(line)
	headerColor.Println(center(text, headerWidth))
	headerColor.Println(line)
}

// Step prints a numbered progress step.
func Step(current, total int, text string) {
	stepColor.Printf("[%d/%d] ", current, total)
	fmt.Println(text)
}

// Success prints a confirmation message.
func Success(text string) {
	successColor.Printf("✓ %s\n", text)
}

// Info prints a neutral informational message.
func Info(text string) {
	infoColor.Println(text)
}

// Warning prints a non-fatal warning.
func Warning(text string) {
	warnColor.Printf("⚠ %s\n", text)
}

// Error prints an error message.
func Error(text string) {
	errorColor.Printf("✗ %s\n", text)
}

// BlueText prints text in blue.
func BlueText(text string) {
	blueColor.Println(text)
}

// YellowText prints text in yellow.
func YellowText(text string) {
	yellowColor.Println(text)
}

// center left-pads text toward the middle of width. Text wider than width is
// returned unchanged.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	return strings.Repeat(" ", (width-len(text))/2) + text
}
