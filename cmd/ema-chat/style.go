package main

import "github.com/charmbracelet/lipgloss"

type Style struct {
	Header           lipgloss.Style
	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	Role             lipgloss.Style
	Status           lipgloss.Style
	Warning          lipgloss.Style
	Input            lipgloss.Style
}

type BorderColors struct {
	User      string
	Assistant string
	Input     string
}

func DefaultStyles() *Style {
	lightModeColors := BorderColors{
		User:      "#87AFD7",
		Assistant: "#CCCCCC",
		Input:     "#FFB6C1", // Light pink
	}

	darkModeColors := BorderColors{
		User:      "#5F87AF",
		Assistant: "#444444",
		Input:     "#DD7090", // Desaturated pink for dark mode
	}

	return &Style{
		Header: lipgloss.NewStyle().Bold(true).Padding(0, 1),
		UserMessage: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			BorderForeground(lipgloss.AdaptiveColor{
				Light: lightModeColors.User,
				Dark:  darkModeColors.User,
			}),
		AssistantMessage: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			BorderForeground(lipgloss.AdaptiveColor{
				Light: lightModeColors.Assistant,
				Dark:  darkModeColors.Assistant,
			}),
		Role:    lipgloss.NewStyle().Faint(true),
		Status:  lipgloss.NewStyle().Faint(true).Padding(0, 1),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#AF5F00", Dark: "#FFAF5F"}).Padding(0, 1),
		Input: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.AdaptiveColor{
				Light: lightModeColors.Input,
				Dark:  darkModeColors.Input,
			}),
	}
}
