// Package content serves the static sample data behind the dashboard pages
// and the per-device scratch state those pages accumulate.
package content

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"littlesteps/internal/models"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Area is one scored development area
type Area struct {
	Name  string `yaml:"name"`
	Score int    `yaml:"score"`
}

// ProgressNote is a recent achievement on the home page
type ProgressNote struct {
	Title string `yaml:"title"`
	When  string `yaml:"when"`
}

// Overview is the home page summary
type Overview struct {
	Development    int            `yaml:"development"`
	Areas          []Area         `yaml:"areas"`
	RecentProgress []ProgressNote `yaml:"recent_progress"`
	Notifications  int            `yaml:"notifications"`
}

// Metric is a named percentage with an optional change label
type Metric struct {
	Name   string `yaml:"name"`
	Value  int    `yaml:"value"`
	Change string `yaml:"change,omitempty"`
}

// Prediction is an estimated milestone date
type Prediction struct {
	Milestone  string `yaml:"milestone"`
	Current    int    `yaml:"current"`
	Expected   string `yaml:"expected"`
	Confidence string `yaml:"confidence"`
}

// Analysis backs the AI insights page
type Analysis struct {
	Score            int          `yaml:"score"`
	Change           string       `yaml:"change"`
	Summary          string       `yaml:"summary"`
	ActivityPatterns []Metric     `yaml:"activity_patterns"`
	ActivityNote     string       `yaml:"activity_note"`
	Trends           []Metric     `yaml:"trends"`
	TrendNote        string       `yaml:"trend_note"`
	Predictions      []Prediction `yaml:"predictions"`
	WeeklyActivities []string     `yaml:"weekly_activities"`
	LearningProgress int          `yaml:"learning_progress"`
}

// Instructor is shown on the training center page
type Instructor struct {
	Name      string `yaml:"name"`
	Specialty string `yaml:"specialty"`
	Courses   int    `yaml:"courses"`
}

// Catalog is the full set of sample content
type Catalog struct {
	Overview           Overview                    `yaml:"overview"`
	AgeGroups          []models.AgeGroup           `yaml:"age_groups"`
	ScreeningTools     []models.ScreeningTool      `yaml:"screening_tools"`
	Therapists         []models.Therapist          `yaml:"therapists"`
	ResourceCategories []string                    `yaml:"resource_categories"`
	Resources          []models.Resource           `yaml:"resources"`
	ForumGroups        []models.ForumGroup         `yaml:"forum_groups"`
	Posts              []models.Post               `yaml:"posts"`
	JournalEntries     []models.JournalEntry       `yaml:"journal_entries"`
	Activities         []models.Activity           `yaml:"activities"`
	GeneratedActivity  models.Activity             `yaml:"generated_activity"`
	Courses            []models.Course             `yaml:"courses"`
	Insights           map[string][]models.Insight `yaml:"insights"`
	Analysis           Analysis                    `yaml:"analysis"`
	Instructors        []Instructor                `yaml:"instructors"`
}

// Parse decodes and checks a catalog document
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return Parse(catalogYAML)
})

// Default returns the embedded catalog. It panics if the embedded document
// is invalid, which the package tests rule out.
func Default() *Catalog {
	c, err := defaultCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) validate() error {
	if len(c.AgeGroups) == 0 {
		return fmt.Errorf("catalog has no age groups")
	}
	seen := map[string]bool{}
	for _, g := range c.AgeGroups {
		if seen[g.Key] {
			return fmt.Errorf("duplicate age group %q", g.Key)
		}
		seen[g.Key] = true
		for _, m := range g.Milestones {
			switch m.Status {
			case models.MilestoneAchieved, models.MilestonePending, models.MilestoneConcern:
			default:
				return fmt.Errorf("milestone %s has invalid status %q", m.ID, m.Status)
			}
		}
	}
	for _, t := range c.Therapists {
		if len(t.Slots) == 0 || len(t.Modes) == 0 {
			return fmt.Errorf("therapist %s has no slots or modes", t.ID)
		}
	}
	for _, p := range c.Posts {
		if !slices.ContainsFunc(c.ForumGroups, func(g models.ForumGroup) bool { return g.Name == p.Group }) {
			return fmt.Errorf("post %s references unknown group %q", p.ID, p.Group)
		}
	}
	return nil
}

// AgeGroup looks up a milestone age group by key, e.g. "12-24"
func (c *Catalog) AgeGroup(key string) (models.AgeGroup, bool) {
	i := slices.IndexFunc(c.AgeGroups, func(g models.AgeGroup) bool { return g.Key == key })
	if i < 0 {
		return models.AgeGroup{}, false
	}
	return c.AgeGroups[i], true
}

// MilestonesFor returns the milestones of an age group, or nil
func (c *Catalog) MilestonesFor(key string) []models.Milestone {
	g, _ := c.AgeGroup(key)
	return g.Milestones
}

// Progress summarises achieved milestones in a group
type Progress struct {
	Achieved int
	Total    int
}

// Percent is the achieved share rounded down
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return p.Achieved * 100 / p.Total
}

// Progress counts achieved milestones in an age group
func (c *Catalog) Progress(key string) Progress {
	ms := c.MilestonesFor(key)
	p := Progress{Total: len(ms)}
	for _, m := range ms {
		if m.Status == models.MilestoneAchieved {
			p.Achieved++
		}
	}
	return p
}

// Therapist looks up a therapist by id
func (c *Catalog) Therapist(id string) (models.Therapist, bool) {
	i := slices.IndexFunc(c.Therapists, func(t models.Therapist) bool { return t.ID == id })
	if i < 0 {
		return models.Therapist{}, false
	}
	return c.Therapists[i], true
}

// TherapistsFor returns the therapists offering a session mode
func (c *Catalog) TherapistsFor(mode string) []models.Therapist {
	var out []models.Therapist
	for _, t := range c.Therapists {
		if slices.Contains(t.Modes, mode) {
			out = append(out, t)
		}
	}
	return out
}

// ResourcesIn filters the training library by category; "all" or "" keeps everything
func (c *Catalog) ResourcesIn(category string) []models.Resource {
	if category == "" || category == "all" {
		return slices.Clone(c.Resources)
	}
	var out []models.Resource
	for _, r := range c.Resources {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// ResourcesByType filters resources by media type (video, pdf)
func ResourcesByType(resources []models.Resource, kind string) []models.Resource {
	var out []models.Resource
	for _, r := range resources {
		if r.Type == kind {
			out = append(out, r)
		}
	}
	return out
}

// HasForumGroup reports whether name is a known discussion group
func (c *Catalog) HasForumGroup(name string) bool {
	return slices.ContainsFunc(c.ForumGroups, func(g models.ForumGroup) bool { return g.Name == name })
}

// PostsIn filters posts by group; "" keeps everything
func PostsIn(posts []models.Post, group string) []models.Post {
	if group == "" {
		return slices.Clone(posts)
	}
	var out []models.Post
	for _, p := range posts {
		if p.Group == group {
			out = append(out, p)
		}
	}
	return out
}

// RecommendedCourses returns courses flagged as recommended
func (c *Catalog) RecommendedCourses() []models.Course {
	var out []models.Course
	for _, course := range c.Courses {
		if course.Recommended {
			out = append(out, course)
		}
	}
	return out
}

// CoursesInProgress returns started but unfinished courses
func (c *Catalog) CoursesInProgress() []models.Course {
	var out []models.Course
	for _, course := range c.Courses {
		if course.Progress > 0 && course.Progress < 100 {
			out = append(out, course)
		}
	}
	return out
}

// CompletedCourses returns finished courses
func (c *Catalog) CompletedCourses() []models.Course {
	var out []models.Course
	for _, course := range c.Courses {
		if course.Progress >= 100 {
			out = append(out, course)
		}
	}
	return out
}

// InsightsFor returns the canned insight cards for a page or insights tab
func (c *Catalog) InsightsFor(page string) []models.Insight {
	return c.Insights[page]
}
