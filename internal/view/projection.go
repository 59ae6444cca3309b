// Package view derives display state from the raw task collection.
// Project and Summarize are pure: identical inputs always produce identical
// output, so they are unit-testable without mocking time (Summarize takes
// "now" as an explicit parameter for the overdue calculation).
package view

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/robby/taskdeck/internal/domain"
)

// Status filter values.
const (
	StatusAll       = "all"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Sort keys.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortTitle     = "title"
	SortTitleDesc = "title-desc"
	SortDueDate   = "dueDate"
	SortPriority  = "priority"
)

// CategoryAll and PriorityAll disable the respective exact-match filters.
const (
	CategoryAll = "all"
	PriorityAll = "all"
)

// FilterState is the pure UI filter state applied over the collection.
type FilterState struct {
	Query    string
	Status   string // all, active, completed
	Category string // exact category or "all"
	Priority string // High, Medium, Low or "all"
	Sort     string
}

// DefaultFilter matches everything, sorted newest first.
func DefaultFilter() FilterState {
	return FilterState{
		Status:   StatusAll,
		Category: CategoryAll,
		Priority: PriorityAll,
		Sort:     SortNewest,
	}
}

// Counts are the aggregates displayed on the stats header.
type Counts struct {
	Total     int
	Completed int
	Active    int
	Overdue   int
}

var titleCollator = collate.New(language.Und)

// Project applies the filter pipeline over the collection and returns the
// ordered sequence for display. The pipeline order is fixed: text search,
// status filter, category filter, priority filter, sort.
func Project(tasks []domain.Task, filter FilterState) []domain.Task {
	filtered := make([]domain.Task, 0, len(tasks))

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	for _, task := range tasks {
		if query != "" && !matchesQuery(task, query) {
			continue
		}
		switch filter.Status {
		case StatusActive:
			if task.Completed {
				continue
			}
		case StatusCompleted:
			if !task.Completed {
				continue
			}
		}
		if filter.Category != "" && filter.Category != CategoryAll {
			if task.Category == nil || *task.Category != filter.Category {
				continue
			}
		}
		if filter.Priority != "" && filter.Priority != PriorityAll {
			if task.Priority == nil || *task.Priority != filter.Priority {
				continue
			}
		}
		filtered = append(filtered, task)
	}

	sortTasks(filtered, filter.Sort)
	return filtered
}

// matchesQuery performs a case-insensitive substring match over title and
// description. An empty query matches everything (handled by the caller).
func matchesQuery(task domain.Task, query string) bool {
	if strings.Contains(strings.ToLower(task.Title), query) {
		return true
	}
	return task.Description != nil && strings.Contains(strings.ToLower(*task.Description), query)
}

func sortTasks(tasks []domain.Task, key string) {
	switch key {
	case SortNewest:
		sort.SliceStable(tasks, func(i, j int) bool {
			return parseTime(tasks[i].CreatedAt).After(parseTime(tasks[j].CreatedAt))
		})
	case SortOldest:
		sort.SliceStable(tasks, func(i, j int) bool {
			return parseTime(tasks[i].CreatedAt).Before(parseTime(tasks[j].CreatedAt))
		})
	case SortTitle:
		sort.SliceStable(tasks, func(i, j int) bool {
			return titleCollator.CompareString(tasks[i].Title, tasks[j].Title) < 0
		})
	case SortTitleDesc:
		sort.SliceStable(tasks, func(i, j int) bool {
			return titleCollator.CompareString(tasks[i].Title, tasks[j].Title) > 0
		})
	case SortDueDate:
		// Ascending; tasks without a due date sort last.
		sort.SliceStable(tasks, func(i, j int) bool {
			di, dj := tasks[i].DueDate, tasks[j].DueDate
			if di == nil {
				return false
			}
			if dj == nil {
				return true
			}
			return parseTime(*di).Before(parseTime(*dj))
		})
	case SortPriority:
		sort.SliceStable(tasks, func(i, j int) bool {
			return domain.PriorityRank(tasks[i].Priority) < domain.PriorityRank(tasks[j].Priority)
		})
	}
}

// Summarize computes the aggregate counts. A task is overdue when it is
// incomplete and its due date, at day granularity in now's location, is
// strictly before the current day.
func Summarize(tasks []domain.Task, now time.Time) Counts {
	counts := Counts{Total: len(tasks)}
	today := truncateToDay(now, now.Location())
	for _, task := range tasks {
		if task.Completed {
			counts.Completed++
			continue
		}
		if task.DueDate != nil {
			due := truncateToDay(parseTime(*task.DueDate), now.Location())
			if due.Before(today) {
				counts.Overdue++
			}
		}
	}
	counts.Active = counts.Total - counts.Completed
	return counts
}

// Categories returns the distinct non-empty categories in the collection,
// sorted, for populating the category filter choices.
func Categories(tasks []domain.Task) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, task := range tasks {
		if task.Category == nil || *task.Category == "" {
			continue
		}
		if !seen[*task.Category] {
			seen[*task.Category] = true
			categories = append(categories, *task.Category)
		}
	}
	sort.Strings(categories)
	return categories
}

// timeLayouts covers the backend's timestamp shapes: RFC3339, the naive
// ISO8601 it emits for UTC datetimes, and bare dates.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTime(value string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func truncateToDay(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
