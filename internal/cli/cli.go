// Package cli holds terminal output helpers for the non-TUI commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/buger/goterm"
	"github.com/fatih/color"
)

var (
	// Colors for different types of output
	itemColor      = color.New(color.FgCyan)                // Cyan for list items
	activeColor    = color.New(color.FgGreen, color.Bold)   // Green for the active selection
	titleColor     = color.New(color.FgMagenta, color.Bold) // Bold magenta for titles
	separatorColor = color.New(color.FgHiBlack)             // Dark grey for separators
	infoColor      = color.New(color.FgYellow)              // Yellow for status info

	width = goterm.Width()
)

// Separator printed to cli.
func Separator() {
	separator := strings.Repeat("-", width)
	separatorColor.Println(separator)
}

// Title printed to cli.
func Title(text string, args ...any) {
	title := "      " + fmt.Sprintf(text, args...) + "      "
	leftWidth := (width - len(title)) / 2
	separator1 := strings.Repeat("-", leftWidth)
	separator2 := strings.Repeat("-", width-len(title)-len(separator1))
	output := fmt.Sprintf("%s%s%s", separator1, title, separator2)
	titleColor.Println(output)
}

// Item printed to cli.
func Item(text string, args ...any) {
	itemColor.Printf(text, args...)
}

// ActiveItem printed to cli.
func ActiveItem(text string, args ...any) {
	activeColor.Printf(text, args...)
}

// Info printed to cli.
func Info(text string, args ...any) {
	infoColor.Printf(text, args...)
}

// QueryUser a yes/no question.
func QueryUser(question string) bool {
	surveyQuestion := &survey.Confirm{
		Message: question,
	}
	confirm := false
	survey.AskOne(surveyQuestion, &confirm)
	return confirm
}

// SelectMulti asks the user to pick any number of options.
func SelectMulti(message string, options, defaults []string) ([]string, error) {
	prompt := &survey.MultiSelect{
		Message: message,
		Options: options,
		Default: defaults,
	}
	var selected []string
	if err := survey.AskOne(prompt, &selected); err != nil {
		return nil, err
	}
	return selected, nil
}

// SelectOne asks the user to pick a single option.
func SelectOne(message string, options []string, defaultOption string) (string, error) {
	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: defaultOption,
	}
	var selected string
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}
	return selected, nil
}
