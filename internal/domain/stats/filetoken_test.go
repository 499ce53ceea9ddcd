package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileToken(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"empty", "", ""},
		{"no token", "New Tab", ""},
		{"bracketed document", "MicroStation - [plan_view.dgn]", "plan_view.dgn"},
		{"cyclone project", "site_scan - Cyclone 3DR", "site_scan"},
		{"revit model", "tower_structure.rvt - Autodesk Revit 2024", "tower_structure.rvt"},
		{"revit without vendor prefix", "bridge_deck - Revit", "bridge_deck"},
		{"blender file", "Blender [/home/jo/scenes/robot.blend]", "/home/jo/scenes/robot.blend"},
		{"teams chat", "Chat | Maria Lopez | Microsoft Teams", "Maria Lopez"},
		{"slack channel", "#site-updates | Slack", "#site-updates"},
		{"zoom meeting", "Zoom Meeting - Weekly Standup", "Weekly Standup"},
		{"editor file", "main.go - Visual Studio Code", "main.go"},
		{"spreadsheet", "budget 2025.xlsx - Excel", "budget 2025.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FileToken(tt.title))
		})
	}
}
