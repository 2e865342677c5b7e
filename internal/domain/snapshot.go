package domain

import "time"

// SnapshotMeta indexes one archived analytics report. The report body is
// stored separately under Location.
type SnapshotMeta struct {
	ID          string    `json:"id" dynamodbav:"id"`
	TenantID    string    `json:"tenantId" dynamodbav:"tenant_id"`
	CohortType  string    `json:"cohortType" dynamodbav:"cohort_type"`
	Days        int       `json:"days" dynamodbav:"days"`
	GeneratedAt time.Time `json:"generatedAt" dynamodbav:"generated_at"`
	Location    string    `json:"location" dynamodbav:"location"`
	Size        int64     `json:"size" dynamodbav:"size"`
}
