package chat

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	maxInputHeight = 10
	// title, error line, status bar and the input border
	chromeHeight = 5
)

// calculateTextAreaHeight determines the visual height of the textarea
// based on its content and wrapping
func (m *chatModel) calculateTextAreaHeight() int {
	content := m.textarea.Value()
	if content == "" {
		return 1
	}

	textWidth := m.textarea.Width()
	if textWidth <= 0 {
		textWidth = m.width - 4
		if textWidth <= 0 {
			textWidth = 80
		}
	}

	totalVisualLines := 0
	for _, line := range strings.Split(content, "\n") {
		// runewidth counts wide runes as two cells
		visualLines := (runewidth.StringWidth(line) + textWidth - 1) / textWidth
		if visualLines < 1 {
			visualLines = 1
		}
		totalVisualLines += visualLines
	}

	if totalVisualLines > maxInputHeight {
		return maxInputHeight
	}
	return totalVisualLines
}

// resizeInput fits the textarea to its content and gives the rest to the
// viewport
func (m *chatModel) resizeInput() {
	height := m.calculateTextAreaHeight()
	if m.textarea.Height() != height {
		m.textarea.SetHeight(height)
	}
	m.updateViewportHeight()
}

// updateViewportHeight adjusts the viewport height based on textarea size
func (m *chatModel) updateViewportHeight() {
	if m.height > 0 {
		height := m.height - m.textarea.Height() - chromeHeight
		if height < 1 {
			height = 1
		}
		m.viewport.Height = height
	}
}

// handleWindowResize updates all dimensions when window size changes
func (m *chatModel) handleWindowResize(width, height int) {
	m.width = width
	m.height = height

	// border and padding
	m.textarea.SetWidth(width - 4)
	m.textarea.SetHeight(m.calculateTextAreaHeight())

	m.viewport.Width = width
	m.updateViewportHeight()

	m.renderer = m.newRenderer(width)
	m.updateViewportContent()
}
