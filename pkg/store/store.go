// Package store persists the test-management read models and exposes them
// to the report engine through a narrow read-only data source interface.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qaforge/reportoor/pkg/config"
	"github.com/qaforge/reportoor/pkg/report"
)

// Store provides access to the test-management database. It implements
// report.DataSource; the report engine only ever reads.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	// Insert writes fixture or imported rows. The report engine never
	// calls this.
	Insert(ctx context.Context, records ...any) error

	report.DataSource
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.DatabaseConfig
	db  *gorm.DB
}

// NewStore creates a Store backed by the configured database driver.
func NewStore(
	log logrus.FieldLogger,
	cfg *config.DatabaseConfig,
) Store {
	return &store{
		log: log.WithField("component", "store"),
		cfg: cfg,
	}
}

// Start opens the database connection and runs migrations.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	gormCfg := &gorm.Config{
		Logger: logger.Discard,
	}

	switch s.cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			s.cfg.Postgres.Host,
			s.cfg.Postgres.Port,
			s.cfg.Postgres.User,
			s.cfg.Postgres.Password,
			s.cfg.Postgres.Database,
			s.cfg.Postgres.SSLMode,
		)
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	s.db = db

	if err := s.db.WithContext(ctx).AutoMigrate(
		&Project{},
		&User{},
		&Group{},
		&GroupMember{},
		&Status{},
		&Template{},
		&Configuration{},
		&Milestone{},
		&Folder{},
		&TestRun{},
		&TestRunCase{},
		&Session{},
		&Integration{},
		&Execution{},
		&Case{},
		&Issue{},
		&SessionResult{},
	); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).
		Info("Database connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

// Insert writes rows of any model type.
func (s *store) Insert(ctx context.Context, records ...any) error {
	for _, rec := range records {
		if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
			return fmt.Errorf("inserting %T: %w", rec, err)
		}
	}

	return nil
}

// dateColumns maps filter field names onto database columns.
var dateColumns = map[string]string{
	"executedAt": "executed_at",
	"createdAt":  "created_at",
}

// applyDateFilter adds the half-open range predicate of a date filter to a
// query, qualified with the given table.
func applyDateFilter(
	q *gorm.DB, table string, filter report.DateFilter,
) (*gorm.DB, error) {
	if filter.IsZero() {
		return q, nil
	}

	column, ok := dateColumns[filter.Field]
	if !ok {
		return nil, fmt.Errorf("unknown date filter field %q", filter.Field)
	}

	qualified := table + "." + column

	if filter.Start != nil {
		q = q.Where(qualified+" >= ?", *filter.Start)
	}

	if filter.End != nil {
		q = q.Where(qualified+" < ?", *filter.End)
	}

	return q, nil
}

// Records returns the normalized rows of one fact table.
func (s *store) Records(
	ctx context.Context,
	entity report.Entity,
	scope report.Scope,
	filter report.DateFilter,
) ([]report.Record, error) {
	switch entity {
	case report.EntityExecution:
		return s.executionRecords(ctx, scope, filter)
	case report.EntityCase:
		return s.caseRecords(ctx, scope, filter)
	case report.EntityIssue:
		return s.issueRecords(ctx, scope, filter)
	case report.EntitySessionResult:
		return s.sessionResultRecords(ctx, scope, filter)
	}

	return nil, fmt.Errorf("unknown entity %q", entity)
}

// executionRow is the scan target for execution queries, carrying the
// joined status flags alongside the execution columns.
type executionRow struct {
	ID           uint
	ExecutedAt   time.Time
	ExecutedByID uint
	StatusID     uint
	Elapsed      *int64
	ProjectID    uint
	ConfigID     uint
	MilestoneID  uint
	StatusPassed bool
}

// executionRecords lists execution results. Rows attached to soft-deleted
// runs or cases are excluded, as are untested results — untested is not a
// terminal result and never participates in execution aggregation.
func (s *store) executionRecords(
	ctx context.Context, scope report.Scope, filter report.DateFilter,
) ([]report.Record, error) {
	q := s.db.WithContext(ctx).
		Model(&Execution{}).
		Select("executions.id, executions.executed_at, " +
			"executions.executed_by_id, executions.status_id, " +
			"executions.elapsed, executions.project_id, " +
			"executions.config_id, executions.milestone_id, " +
			"statuses.is_passed AS status_passed").
		Joins("JOIN statuses ON statuses.id = executions.status_id").
		Joins("JOIN test_runs ON test_runs.id = executions.test_run_id").
		Joins("JOIN test_run_cases ON "+
			"test_run_cases.id = executions.test_run_case_id").
		Joins("JOIN cases ON cases.id = test_run_cases.case_id").
		Where("statuses.is_untested = ?", false).
		Where("test_runs.is_deleted = ?", false).
		Where("cases.is_deleted = ?", false)

	if scope.ProjectSpecific() {
		q = q.Where("executions.project_id = ?", *scope.ProjectID)
	}

	q, err := applyDateFilter(q, "executions", filter)
	if err != nil {
		return nil, err
	}

	var rows []executionRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing executions: %w", err)
	}

	records := make([]report.Record, 0, len(rows))

	for _, row := range rows {
		records = append(records, report.Record{
			ID:          row.ID,
			At:          row.ExecutedAt,
			UserID:      row.ExecutedByID,
			ProjectID:   row.ProjectID,
			StatusID:    row.StatusID,
			ConfigID:    row.ConfigID,
			MilestoneID: row.MilestoneID,
			Elapsed:     row.Elapsed,
			Passed:      row.StatusPassed,
		})
	}

	return records, nil
}

// caseRecords lists repository case definitions, excluding soft-deleted
// cases.
func (s *store) caseRecords(
	ctx context.Context, scope report.Scope, filter report.DateFilter,
) ([]report.Record, error) {
	q := s.db.WithContext(ctx).
		Model(&Case{}).
		Where("cases.is_deleted = ?", false)

	if scope.ProjectSpecific() {
		q = q.Where("cases.project_id = ?", *scope.ProjectID)
	}

	q, err := applyDateFilter(q, "cases", filter)
	if err != nil {
		return nil, err
	}

	var cases []Case
	if err := q.Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}

	records := make([]report.Record, 0, len(cases))

	for _, c := range cases {
		records = append(records, report.Record{
			ID:         c.ID,
			At:         c.CreatedAt,
			UserID:     c.CreatorID,
			ProjectID:  c.ProjectID,
			TemplateID: c.TemplateID,
			StatusID:   c.StateID,
			Source:     c.Source,
			Automated:  c.Automated,
			StepCount:  c.StepCount,
		})
	}

	return records, nil
}

// issueRecords lists issues with their project resolved through the first
// matching linked entity: case, then session, then run.
func (s *store) issueRecords(
	ctx context.Context, scope report.Scope, filter report.DateFilter,
) ([]report.Record, error) {
	q := s.db.WithContext(ctx).Model(&Issue{})

	q, err := applyDateFilter(q, "issues", filter)
	if err != nil {
		return nil, err
	}

	var issues []Issue
	if err := q.Find(&issues).Error; err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}

	caseProjects, err := s.projectsByID(ctx, &Case{}, "cases")
	if err != nil {
		return nil, err
	}

	sessionProjects, err := s.projectsByID(ctx, &Session{}, "sessions")
	if err != nil {
		return nil, err
	}

	runProjects, err := s.projectsByID(ctx, &TestRun{}, "test_runs")
	if err != nil {
		return nil, err
	}

	records := make([]report.Record, 0, len(issues))

	for _, issue := range issues {
		projectID := resolveIssueProject(
			&issue, caseProjects, sessionProjects, runProjects,
		)

		if scope.ProjectSpecific() && projectID != *scope.ProjectID {
			continue
		}

		records = append(records, report.Record{
			ID:        issue.ID,
			At:        issue.CreatedAt,
			UserID:    issue.CreatedByID,
			ProjectID: projectID,
		})
	}

	return records, nil
}

// resolveIssueProject walks the issue's links in fixed order and returns
// the project of the first one that resolves. Issues with no resolvable
// link yield project 0 and surface as the "None" sentinel when grouped.
func resolveIssueProject(
	issue *Issue,
	caseProjects, sessionProjects, runProjects map[uint]uint,
) uint {
	if issue.CaseID != nil {
		if pid, ok := caseProjects[*issue.CaseID]; ok {
			return pid
		}
	}

	if issue.SessionID != nil {
		if pid, ok := sessionProjects[*issue.SessionID]; ok {
			return pid
		}
	}

	if issue.TestRunID != nil {
		if pid, ok := runProjects[*issue.TestRunID]; ok {
			return pid
		}
	}

	return 0
}

// projectLink is the scan target for id → project lookups.
type projectLink struct {
	ID        uint
	ProjectID uint
}

// projectsByID loads the id → project map of a linkable table, excluding
// soft-deleted rows.
func (s *store) projectsByID(
	ctx context.Context, model any, table string,
) (map[uint]uint, error) {
	var links []projectLink

	if err := s.db.WithContext(ctx).
		Model(model).
		Select(table + ".id, " + table + ".project_id").
		Where(table+".is_deleted = ?", false).
		Scan(&links).Error; err != nil {
		return nil, fmt.Errorf("loading %s project links: %w", table, err)
	}

	projects := make(map[uint]uint, len(links))
	for _, link := range links {
		projects[link.ID] = link.ProjectID
	}

	return projects, nil
}

// sessionResultRow is the scan target for session result queries.
type sessionResultRow struct {
	ID          uint
	CreatedAt   time.Time
	CreatedByID uint
	ProjectID   uint
}

// sessionResultRecords lists exploratory session results, excluding rows
// attached to soft-deleted sessions.
func (s *store) sessionResultRecords(
	ctx context.Context, scope report.Scope, filter report.DateFilter,
) ([]report.Record, error) {
	q := s.db.WithContext(ctx).
		Model(&SessionResult{}).
		Select("session_results.id, session_results.created_at, "+
			"session_results.created_by_id, sessions.project_id").
		Joins("JOIN sessions ON sessions.id = session_results.session_id").
		Where("sessions.is_deleted = ?", false)

	if scope.ProjectSpecific() {
		q = q.Where("sessions.project_id = ?", *scope.ProjectID)
	}

	q, err := applyDateFilter(q, "session_results", filter)
	if err != nil {
		return nil, err
	}

	var rows []sessionResultRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing session results: %w", err)
	}

	records := make([]report.Record, 0, len(rows))

	for _, row := range rows {
		records = append(records, report.Record{
			ID:        row.ID,
			At:        row.CreatedAt,
			UserID:    row.CreatedByID,
			ProjectID: row.ProjectID,
		})
	}

	return records, nil
}

// lookupModels maps each lookup onto its model and whether its options are
// project-scoped.
var lookupModels = map[report.Lookup]struct {
	model         any
	table         string
	hasColor      bool
	projectScoped bool
}{
	report.LookupStatus:        {model: &Status{}, table: "statuses", hasColor: true},
	report.LookupUser:          {model: &User{}, table: "users"},
	report.LookupGroup:         {model: &Group{}, table: "groups"},
	report.LookupProject:       {model: &Project{}, table: "projects"},
	report.LookupTemplate:      {model: &Template{}, table: "templates"},
	report.LookupConfiguration: {model: &Configuration{}, table: "configurations"},
	report.LookupMilestone:     {model: &Milestone{}, table: "milestones", projectScoped: true},
}

// Options enumerates one lookup table, excluding soft-deleted entries and
// honoring the project scope where the lookup is project-scoped.
func (s *store) Options(
	ctx context.Context, lookup report.Lookup, scope report.Scope,
) ([]report.Option, error) {
	spec, ok := lookupModels[lookup]
	if !ok {
		return nil, fmt.Errorf("unknown lookup %q", lookup)
	}

	selectCols := spec.table + ".id, " + spec.table + ".name"
	if spec.hasColor {
		selectCols += ", " + spec.table + ".color"
	}

	q := s.db.WithContext(ctx).
		Model(spec.model).
		Select(selectCols).
		Where(spec.table+".is_deleted = ?", false).
		Order(spec.table + ".id")

	if spec.projectScoped && scope.ProjectSpecific() {
		q = q.Where(spec.table+".project_id = ?", *scope.ProjectID)
	}

	var options []report.Option
	if err := q.Scan(&options).Error; err != nil {
		return nil, fmt.Errorf("listing %s options: %w", lookup, err)
	}

	return options, nil
}

// membershipRow is the scan target for group membership queries.
type membershipRow struct {
	UserID  uint
	GroupID uint
}

// GroupMemberships returns every user's group ids, excluding memberships
// of soft-deleted groups.
func (s *store) GroupMemberships(
	ctx context.Context,
) (map[uint][]uint, error) {
	var rows []membershipRow

	if err := s.db.WithContext(ctx).
		Model(&GroupMember{}).
		Select("group_members.user_id, group_members.group_id").
		Joins("JOIN groups ON groups.id = group_members.group_id").
		Where("groups.is_deleted = ?", false).
		Order("group_members.group_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing group memberships: %w", err)
	}

	memberships := make(map[uint][]uint)
	for _, row := range rows {
		memberships[row.UserID] = append(memberships[row.UserID], row.GroupID)
	}

	return memberships, nil
}
