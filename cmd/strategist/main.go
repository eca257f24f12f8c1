// Command strategist places internal links in articles with help from a
// language model.
//
// Usage:
//
//	strategist                     Interactive TUI
//	strategist serve               Run the analysis API
//	strategist projects            List projects
//	strategist export <project-id> Write a project's opportunities to CSV
//	strategist events              JSONL event log viewer
package main

func main() {
	Execute()
}
