package store

import "time"

// Reference tables. Every soft-deletable entity carries an is_deleted flag;
// aggregation and enumeration always exclude flagged rows.

// Project is a top-level container for runs, cases and sessions.
type Project struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"index"`
	IsDeleted bool   `gorm:"index"`
	CreatedAt time.Time
}

// User is anyone who executes tests or authors cases.
type User struct {
	ID        uint `gorm:"primaryKey"`
	Name      string
	Email     string `gorm:"index"`
	IsDeleted bool
}

// Group is a named set of users. Membership is many-to-many via
// GroupMember; a user may belong to zero or many groups.
type Group struct {
	ID        uint `gorm:"primaryKey"`
	Name      string
	IsDeleted bool
}

// GroupMember links one user into one group.
type GroupMember struct {
	ID      uint `gorm:"primaryKey"`
	GroupID uint `gorm:"index:idx_group_members_group_user,unique"`
	UserID  uint `gorm:"index:idx_group_members_group_user,unique"`
}

// Status classifies an execution result. IsUntested marks the
// not-yet-terminal status that is excluded from all execution aggregation;
// IsPassed feeds the pass-rate numerator.
type Status struct {
	ID         uint `gorm:"primaryKey"`
	Name       string
	Color      string
	IsUntested bool
	IsPassed   bool
	IsDeleted  bool
}

// Template is a case layout definition.
type Template struct {
	ID        uint `gorm:"primaryKey"`
	Name      string
	IsDeleted bool
}

// Configuration is an execution environment variant (browser, OS, ...).
type Configuration struct {
	ID        uint `gorm:"primaryKey"`
	Name      string
	IsDeleted bool
}

// Milestone is a project-scoped delivery target runs are attached to.
type Milestone struct {
	ID        uint `gorm:"primaryKey"`
	ProjectID uint `gorm:"index"`
	Name      string
	IsDeleted bool
}

// Folder organizes cases within a project.
type Folder struct {
	ID        uint `gorm:"primaryKey"`
	ProjectID uint `gorm:"index"`
	Name      string
	IsDeleted bool
}

// TestRun is one planned execution of a set of cases.
type TestRun struct {
	ID          uint `gorm:"primaryKey"`
	ProjectID   uint `gorm:"index"`
	Name        string
	MilestoneID uint
	ConfigID    uint
	IsDeleted   bool `gorm:"index"`
}

// TestRunCase links one repository case into one run.
type TestRunCase struct {
	ID        uint `gorm:"primaryKey"`
	TestRunID uint `gorm:"index"`
	CaseID    uint `gorm:"index"`
}

// Session is an exploratory testing session.
type Session struct {
	ID        uint `gorm:"primaryKey"`
	ProjectID uint `gorm:"index"`
	Name      string
	IsDeleted bool
}

// Integration identifies the external tracker an issue came from.
type Integration struct {
	ID        uint `gorm:"primaryKey"`
	Name      string
	IsDeleted bool
}

// Fact tables.

// Execution is one recorded test-case execution result. Rows are written
// once and never mutated; they drop out of aggregation when their parent
// run or case is soft-deleted.
type Execution struct {
	ID            uint      `gorm:"primaryKey"`
	ExecutedAt    time.Time `gorm:"index"`
	ExecutedByID  uint      `gorm:"index"`
	StatusID      uint      `gorm:"index"`
	Elapsed       *int64
	TestRunID     uint `gorm:"index"`
	TestRunCaseID uint `gorm:"index"`
	ProjectID     uint `gorm:"index"`
	ConfigID      uint
	MilestoneID   uint
}

// CaseSource values are the closed provenance set for repository cases.
const (
	CaseSourceManual          = "manual"
	CaseSourceAPI             = "api"
	CaseSourceImport          = "import"
	CaseSourceAutomatedImport = "automated-import"
)

// Case is a test-case definition in the repository.
type Case struct {
	ID         uint      `gorm:"primaryKey"`
	CreatedAt  time.Time `gorm:"index"`
	CreatorID  uint      `gorm:"index"`
	ProjectID  uint      `gorm:"index"`
	TemplateID uint
	StateID    uint
	Source     string `gorm:"index"`
	Automated  bool
	FolderID   uint
	StepCount  int
	IsDeleted  bool `gorm:"index"`
}

// Issue is a tracked issue. It carries no direct project reference: the
// project is resolved transitively through whichever linked entity (case,
// session, run) the issue is attached to, first matching link wins. The
// indirection is long-standing data-model debt kept for compatibility.
type Issue struct {
	ID            uint      `gorm:"primaryKey"`
	CreatedAt     time.Time `gorm:"index"`
	CreatedByID   uint      `gorm:"index"`
	IntegrationID uint
	CaseID        *uint `gorm:"index"`
	SessionID     *uint `gorm:"index"`
	TestRunID     *uint `gorm:"index"`
}

// SessionResult is one exploratory session result, the session analogue of
// an Execution.
type SessionResult struct {
	ID          uint      `gorm:"primaryKey"`
	CreatedAt   time.Time `gorm:"index"`
	CreatedByID uint      `gorm:"index"`
	SessionID   uint      `gorm:"index"`
}
