package main

import "github.com/fatih/color"

const (
	// Leading symbol for error/warning lines
	errorSymbol = "✗"
	okSymbol    = "✓"
)

func okMark() string   { return color.New(color.FgGreen).Sprint(okSymbol) }
func warnMark() string { return color.New(color.FgYellow).Sprint(errorSymbol) }
func failMark() string { return color.New(color.FgRed).Sprint(errorSymbol) }
