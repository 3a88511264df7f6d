package main

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")) // magenta
	seedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))            // gray
	verseStyle = lipgloss.NewStyle().Italic(true)

	poemBlockStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("5"))

	labelStyle = lipgloss.NewStyle().Bold(true).Width(16)
)
