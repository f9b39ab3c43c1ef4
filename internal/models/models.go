package models

import (
	"time"

	"gorm.io/gorm"
)

// Employee represents a platform user. The manager graph is self-referential
// through ManagerID and is expected to be a forest; cycle handling lives in
// the scope service, not here.
type Employee struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	Name                  string         `gorm:"size:200;not null" json:"name"`
	Email                 string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password              string         `gorm:"size:255" json:"-"` // bcrypt hash
	Role                  string         `gorm:"size:50;default:employee" json:"role"` // manager, employee
	ManagerID             *uint          `gorm:"index" json:"manager_id"`
	IsAccountOwner        bool           `gorm:"default:false" json:"is_account_owner"`
	CanSetGlobalFrequency bool           `gorm:"default:false" json:"can_set_global_frequency"`
	CanViewOrgWide        bool           `gorm:"default:false" json:"can_view_org_wide"`
	CanManageSettings     bool           `gorm:"default:false" json:"can_manage_settings"`
	LastLogin             *time.Time     `json:"last_login"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

// Project groups goals and the employees assigned to them.
type Project struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"size:200;not null" json:"name"`
	Description string            `gorm:"type:text" json:"description"`
	Assignees   []ProjectAssignee `gorm:"foreignKey:ProjectID" json:"assignees,omitempty"`
	CreatedBy   uint              `json:"created_by"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	DeletedAt   gorm.DeletedAt    `gorm:"index" json:"-"`
}

// ProjectAssignee links an employee to a project.
type ProjectAssignee struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProjectID  uint      `gorm:"index;not null" json:"project_id"`
	EmployeeID uint      `gorm:"index;not null" json:"employee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Goal is an evaluable objective with weighted criteria. Criteria weights
// must sum to 100 at creation time; the aggregator still normalizes by the
// actual sum at evaluation time.
type Goal struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ProjectID    uint           `gorm:"index;not null" json:"project_id"`
	Project      *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Name         string         `gorm:"size:200;not null" json:"name"`
	Instructions string         `gorm:"type:text" json:"instructions"` // free text passed to the AI scorer
	Deadline     *time.Time     `json:"deadline"`
	Criteria     []Criterion    `gorm:"foreignKey:GoalID" json:"criteria,omitempty"`
	CreatedBy    uint           `json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Criterion is one weighted evaluation dimension of a goal.
type Criterion struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	GoalID uint   `gorm:"index;not null" json:"goal_id"`
	Name   string `gorm:"size:200;not null" json:"name"`
	Weight int    `gorm:"not null" json:"weight"` // integer percentage
}

// Report is one evaluated submission of report text against a single goal.
// The manager override fields are the only fields mutated after creation,
// always together: a score without reasoning is invalid.
type Report struct {
	ID                       uint             `gorm:"primaryKey" json:"id"`
	EmployeeID               uint             `gorm:"index;not null" json:"employee_id"`
	Employee                 *Employee        `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	GoalID                   uint             `gorm:"index;not null" json:"goal_id"`
	Goal                     *Goal            `gorm:"foreignKey:GoalID" json:"goal,omitempty"`
	ReportText               string           `gorm:"type:text" json:"report_text"`
	SubmissionDate           time.Time        `gorm:"index" json:"submission_date"`
	Reasoning                string           `gorm:"type:text" json:"reasoning"` // AI-produced
	EvaluationScore          float64          `json:"evaluation_score"`
	CriterionScores          []CriterionScore `gorm:"foreignKey:ReportID" json:"criterion_scores,omitempty"`
	ManagerOverallScore      *float64         `json:"manager_overall_score"`
	ManagerOverrideReasoning string           `gorm:"type:text" json:"manager_override_reasoning"`
	CreatedAt                time.Time        `json:"created_at"`
	UpdatedAt                time.Time        `json:"updated_at"`
	DeletedAt                gorm.DeletedAt   `gorm:"index" json:"-"`
}

// CriterionScore is one AI-assigned per-criterion score on a report.
type CriterionScore struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	ReportID      uint    `gorm:"index;not null" json:"report_id"`
	CriterionName string  `gorm:"size:200;not null" json:"criterion_name"`
	Score         float64 `json:"score"` // declared range [0,10], not clamped here
}

// ManagerSettings is the single organization-scoped settings row governing
// cadence and the late-submission policy.
type ManagerSettings struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	GlobalFrequency      bool      `gorm:"default:true" json:"global_frequency"`
	SelectedDays         string    `gorm:"size:200" json:"selected_days"` // comma-separated weekday names
	AllowLateSubmissions bool      `gorm:"default:true" json:"allow_late_submissions"`
	HolidayCountry       string    `gorm:"size:10;default:US" json:"holiday_country"` // reminder calendar
	WebhookEnabled       bool      `gorm:"default:false" json:"webhook_enabled"`
	WebhookURL           string    `gorm:"size:500" json:"webhook_url"`
	WebhookFormat        string    `gorm:"size:20;default:generic" json:"webhook_format"` // generic, slack
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// EmployeeFrequency is a per-employee cadence override. Most specific tier of
// the frequency precedence chain.
type EmployeeFrequency struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	EmployeeID   uint      `gorm:"uniqueIndex;not null" json:"employee_id"`
	SelectedDays string    `gorm:"size:200" json:"selected_days"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProjectFrequency is a per-project cadence override.
type ProjectFrequency struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProjectID    uint      `gorm:"uniqueIndex;not null" json:"project_id"`
	SelectedDays string    `gorm:"size:200" json:"selected_days"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Metric is an organization-selected standardized cross-project metric used
// in holistic score blending.
type Metric struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Description string         `gorm:"size:500" json:"description"`
	Selected    bool           `gorm:"default:false" json:"selected"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Invitation is a pending email invite into the organization.
type Invitation struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Email      string         `gorm:"size:255;not null" json:"email"`
	Token      string         `gorm:"uniqueIndex;size:64;not null" json:"-"`
	Role       string         `gorm:"size:50;default:employee" json:"role"`
	InvitedBy  uint           `json:"invited_by"`
	ExpiresAt  time.Time      `json:"expires_at"`
	AcceptedAt *time.Time     `json:"accepted_at"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// LLMConfig represents an AI scoring backend configuration (stored in database)
type LLMConfig struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Provider    string         `gorm:"size:50;default:openai" json:"provider"` // openai, azure, anthropic, gemini, ollama
	BaseURL     string         `gorm:"size:500" json:"base_url"`
	APIKey      string         `gorm:"size:500" json:"-"`
	APIKeyMask  string         `gorm:"-" json:"api_key_mask"` // For display only
	Model       string         `gorm:"size:100" json:"model"`
	MaxTokens   int            `gorm:"default:4096" json:"max_tokens"`
	Temperature float64        `gorm:"default:0.2" json:"temperature"`
	IsDefault   bool           `gorm:"default:false" json:"is_default"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// ActivityLog records notable engine actions: submissions, overrides, policy
// denials, settings changes.
type ActivityLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Level      string    `gorm:"size:20;index" json:"level"` // info, warning, error
	Module     string    `gorm:"size:100;index" json:"module"`
	Action     string    `gorm:"size:200;index" json:"action"`
	Message    string    `gorm:"type:text" json:"message"`
	EmployeeID *uint     `json:"employee_id"`
	IP         string    `gorm:"size:50" json:"ip"`
	Extra      string    `gorm:"type:text" json:"extra"` // JSON extra data
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName overrides
func (Employee) TableName() string          { return "employees" }
func (Project) TableName() string           { return "projects" }
func (ProjectAssignee) TableName() string   { return "project_assignees" }
func (Goal) TableName() string              { return "goals" }
func (Criterion) TableName() string         { return "criteria" }
func (Report) TableName() string            { return "reports" }
func (CriterionScore) TableName() string    { return "criterion_scores" }
func (ManagerSettings) TableName() string   { return "manager_settings" }
func (EmployeeFrequency) TableName() string { return "employee_frequencies" }
func (ProjectFrequency) TableName() string  { return "project_frequencies" }
func (Metric) TableName() string            { return "metrics" }
func (Invitation) TableName() string        { return "invitations" }
func (LLMConfig) TableName() string         { return "llm_configs" }
func (ActivityLog) TableName() string       { return "activity_logs" }

// MaskAPIKey returns masked API key for display
func (l *LLMConfig) MaskAPIKey() string {
	if len(l.APIKey) <= 8 {
		return "****"
	}
	return l.APIKey[:4] + "****" + l.APIKey[len(l.APIKey)-4:]
}

// HasOverride reports whether the manager override pair is set. The invariant
// is both-or-neither; this checks the authoritative score field.
func (r *Report) HasOverride() bool {
	return r.ManagerOverallScore != nil
}

// DisplayScore returns the override score when present, otherwise the AI
// evaluation score. Display precedence only; EvaluationScore is never mutated.
func (r *Report) DisplayScore() float64 {
	if r.ManagerOverallScore != nil {
		return *r.ManagerOverallScore
	}
	return r.EvaluationScore
}
