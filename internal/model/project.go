// Package model provides the data types shared by the client, the gateway
// and the server: projects, articles, analysis results and export rows.
//
// JSON tags match the wire format of the link analysis API.
package model

import "time"

// ProjectStatus is reported by the server. Treated as opaque by the client.
type ProjectStatus string

const (
	ProjectCreated    ProjectStatus = "created"
	ProjectReady      ProjectStatus = "ready"
	ProjectProcessing ProjectStatus = "processing"
	ProjectCompleted  ProjectStatus = "completed"
)

// Project groups the articles of one upload.
type Project struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	TotalArticles     int           `json:"total_articles"`
	CompletedArticles int           `json:"completed_articles"`
	Status            ProjectStatus `json:"status"`
	CreatedAt         time.Time     `json:"created_at"`
}

// Progress returns "completed/total" for list rendering.
func (p Project) Progress() (done, total int) {
	return p.CompletedArticles, p.TotalArticles
}
