package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/closet/internal/tasks"
)

var _ list.Item = candidateItem{}

// candidateItem wraps [tasks.ItemResult] to implement [list.Item].
type candidateItem struct {
	item     tasks.ItemResult
	selected bool
}

func (i candidateItem) FilterValue() string { return i.item.Candidate.Description }

func (i candidateItem) Title() string {
	marker := "[ ]"
	if i.selected {
		marker = "[x]"
	}
	return fmt.Sprintf("%s %s", marker, i.item.Candidate.Description)
}

func (i candidateItem) Description() string {
	desc := string(i.item.Candidate.Category)
	if i.item.Candidate.Color != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.item.Candidate.Color)
	}
	if i.item.Err != "" {
		desc = fmt.Sprintf("%s • failed: %s", desc, i.item.Err)
	} else if i.item.LocalImagePath != "" {
		desc = fmt.Sprintf("%s • cached", desc)
	}
	return desc
}
