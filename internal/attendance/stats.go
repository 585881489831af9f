package attendance

import (
	"fmt"

	"github.com/classecho/classecho/internal/model"
)

// recentLimit is how many recent entries each course carries in the
// course-wise breakdown.
const recentLimit = 10

// Stats is an attendance rollup over some scope of ledger entries.
type Stats struct {
	TotalClasses   int64   `json:"total_classes"`
	PresentClasses int64   `json:"present_classes"`
	Percentage     float64 `json:"percentage"`
}

// RecentEntry is a compact ledger entry for the course-wise breakdown.
type RecentEntry struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

// CourseStats is one course's rollup in a student's course-wise breakdown.
type CourseStats struct {
	CourseID   int64         `json:"course_id"`
	CourseCode string        `json:"course_code"`
	CourseName string        `json:"course_name"`
	Stats
	Recent []RecentEntry `json:"recent_attendance"`
}

func makeStats(total, present int64) Stats {
	s := Stats{TotalClasses: total, PresentClasses: present}
	if total > 0 {
		s.Percentage = float64(present) / float64(total) * 100
	}
	return s
}

// StudentStats returns a student's overall rollup, or the rollup for a
// single course when courseID is non-nil. Zero entries yields a zero
// percentage, never a division error.
func (s *Service) StudentStats(studentID int64, courseID *int64) (Stats, error) {
	total, present, err := s.ledger.Counts(studentID, courseID)
	if err != nil {
		return Stats{}, err
	}
	return makeStats(total, present), nil
}

// MeetingStats returns the rollup for one class meeting.
func (s *Service) MeetingStats(courseID int64, date, section string) (Stats, error) {
	total, present, err := s.ledger.CountsByCourseDate(courseID, date, section)
	if err != nil {
		return Stats{}, err
	}
	return makeStats(total, present), nil
}

// CourseWiseStats groups a student's entries by course and returns a
// rollup per course plus that course's most recent entries, newest
// date first.
func (s *Service) CourseWiseStats(studentID int64) ([]CourseStats, error) {
	entries, err := s.ledger.ListByStudent(studentID)
	if err != nil {
		return nil, err
	}

	byCourse := make(map[int64][]model.Attendance)
	var order []int64
	for _, e := range entries {
		if _, seen := byCourse[e.CourseID]; !seen {
			order = append(order, e.CourseID)
		}
		byCourse[e.CourseID] = append(byCourse[e.CourseID], e)
	}

	result := make([]CourseStats, 0, len(order))
	for _, courseID := range order {
		courseEntries := byCourse[courseID]

		course, err := s.courses.GetByID(courseID)
		if err != nil {
			return nil, err
		}
		if course == nil {
			return nil, fmt.Errorf("course %d: %w", courseID, ErrNotFound)
		}

		var present int64
		for _, e := range courseEntries {
			if e.Status == model.StatusPresent {
				present++
			}
		}

		// Entries arrive date-descending from the store.
		recent := make([]RecentEntry, 0, recentLimit)
		for _, e := range courseEntries {
			if len(recent) == recentLimit {
				break
			}
			recent = append(recent, RecentEntry{Date: e.Date, Status: e.Status})
		}

		result = append(result, CourseStats{
			CourseID:   course.ID,
			CourseCode: course.Code,
			CourseName: course.Name,
			Stats:      makeStats(int64(len(courseEntries)), present),
			Recent:     recent,
		})
	}
	return result, nil
}
