package main

import (
	"strings"

	"github.com/baaakgun4543/unlurk/internal/prompt"
)

// Sample is a benchmark context.
type Sample struct {
	Name    string
	Context prompt.Context
}

// Samples cover thread content below, near, and far beyond the truncation
// limit so prompt size varies across runs.
var Samples = []Sample{
	{
		Name: "bare",
		Context: prompt.Context{
			prompt.KeyCommunityName: "Gophers",
		},
	},
	{
		Name: "short",
		Context: prompt.Context{
			prompt.KeyUserName:      "Alice",
			prompt.KeyUserHistory:   []string{"distributed systems", "postgres"},
			prompt.KeyCommunityName: "Gophers",
			prompt.KeyCommunityTone: string(prompt.ToneSupportive),
			prompt.KeyThreadTitle:   "What are you building this week?",
			prompt.KeyThreadContent: "Share your side projects, big or small. Screenshots welcome!",
		},
	},
	{
		Name: "medium",
		Context: prompt.Context{
			prompt.KeyUserName:      "Bob",
			prompt.KeyUserHistory:   []string{"embedded", "rust", "home automation"},
			prompt.KeyCommunityName: "Homelab",
			prompt.KeyCommunityTone: string(prompt.ToneTechnical),
			prompt.KeyCurrentPage:   "https://forum.example/t/power-budget",
			prompt.KeyThreadTitle:   "Keeping a rack under 100W idle",
			prompt.KeyThreadContent: "I replaced two old servers with a pair of mini PCs and a small NAS. " +
				"Idle draw went from 230W to 85W. The hard part was finding a switch with decent " +
				"power management. Curious what everyone else is running and whether spinning " +
				"down disks has caused you any trouble with ZFS scrubs.",
		},
	},
	{
		Name: "long",
		Context: prompt.Context{
			prompt.KeyUserName:      "Chidi",
			prompt.KeyUserHistory:   []string{"philosophy", "ethics", "teaching"},
			prompt.KeyCommunityName: "Reading Circle",
			prompt.KeyCommunityTone: string(prompt.ToneCasual),
			prompt.KeyThreadTitle:   "Monthly pick: long discussion thread",
			prompt.KeyThreadContent: strings.Repeat("This month we read a book about moral decisions in everyday life. ", 30),
		},
	},
}
