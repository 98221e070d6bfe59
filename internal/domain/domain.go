// Package domain holds the textbook fund entities shared by importers,
// reports and storage backends.
package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Building is a school site or the central fund, identified by a short code.
type Building struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Subject is unique by case-insensitive name.
type Subject struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BookTitle is one textbook edition scoped to a grade and subject.
type BookTitle struct {
	ID              int64  `json:"id"`
	ExternalKey     string `json:"external_key,omitempty"`
	ISBN            string `json:"isbn,omitempty"`
	Title           string `json:"title"`
	Authors         string `json:"authors,omitempty"`
	Publisher       string `json:"publisher,omitempty"`
	Year            *int   `json:"year,omitempty"`
	Grade           int    `json:"grade"`
	SubjectID       int64  `json:"subject_id"`
	ApprovedByOrder bool   `json:"approved_by_order"`
}

// Stock is the quantity of one title held by one building.
// MeshTotal and SuufTotal are the citywide and legacy export sub-totals.
type Stock struct {
	BuildingID       int64     `json:"building_id"`
	TitleID          int64     `json:"title_id"`
	Total            int       `json:"total"`
	Available        int       `json:"available"`
	InUse            int       `json:"in_use"`
	MeshTotal        int       `json:"mesh_total"`
	SuufTotal        int       `json:"suuf_total"`
	IssuedToStudents int       `json:"issued_to_students"`
	InCabinets       int       `json:"in_cabinets"`
	Note             string    `json:"note,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// StockLine is a stock record joined with its title and subject name.
type StockLine struct {
	Stock
	Title   BookTitle `json:"title"`
	Subject string    `json:"subject"`
}

// CurriculumItem says every student of Grade studying SubjectID needs
// PerStudent copies of TitleID.
type CurriculumItem struct {
	Grade      int   `json:"grade"`
	SubjectID  int64 `json:"subject_id"`
	TitleID    int64 `json:"title_id"`
	PerStudent int   `json:"per_student"`
}

// CurriculumLine is a curriculum item joined with its subject and title.
type CurriculumLine struct {
	CurriculumItem
	Subject     string `json:"subject"`
	Title       string `json:"title"`
	ISBN        string `json:"isbn,omitempty"`
	ExternalKey string `json:"external_key,omitempty"`
}

// ClassGroup is the headcount of one grade+letter cohort.
type ClassGroup struct {
	BuildingID int64  `json:"building_id"`
	Grade      int    `json:"grade"`
	Letter     string `json:"letter"`
	Students   int    `json:"students"`
}

// FutureClassGroup is a projected cohort for a future academic year.
type FutureClassGroup struct {
	BuildingID   int64  `json:"building_id"`
	AcademicYear int    `json:"academic_year"`
	Grade        int    `json:"grade"`
	Letter       string `json:"letter"`
	Students     int    `json:"students"`
}

// EnrollmentScope distinguishes current and projected enrollment.
type EnrollmentScope string

const (
	ScopeCurrent EnrollmentScope = "current"
	ScopeFuture  EnrollmentScope = "future"
)

// Enrollment change actions.
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// EnrollmentChange records one headcount change.
type EnrollmentChange struct {
	Scope        EnrollmentScope `json:"scope"`
	Action       string          `json:"action"`
	BuildingID   int64           `json:"building_id"`
	AcademicYear int             `json:"academic_year,omitempty"`
	Grade        int             `json:"grade"`
	Letter       string          `json:"letter"`
	OldStudents  *int            `json:"old_students,omitempty"`
	NewStudents  int             `json:"new_students"`
	Source       string          `json:"source"`
	ChangedAt    time.Time       `json:"changed_at"`
}

// WriteOff records copies removed from a building's stock.
type WriteOff struct {
	ID         int64     `json:"id"`
	BuildingID int64     `json:"building_id"`
	TitleID    int64     `json:"title_id"`
	Count      int       `json:"count"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// MovementType classifies a stock movement.
type MovementType string

const (
	MovementTransfer   MovementType = "TRANSFER"
	MovementIssue      MovementType = "ISSUE"
	MovementReturn     MovementType = "RETURN"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// Movement records copies leaving a building, and entering another one for
// transfers.
type Movement struct {
	ID             int64        `json:"id"`
	Type           MovementType `json:"type"`
	FromBuildingID int64        `json:"from_building_id"`
	ToBuildingID   *int64       `json:"to_building_id,omitempty"`
	TitleID        int64        `json:"title_id"`
	Count          int          `json:"count"`
	Note           string       `json:"note,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// WriteOffNote is the movement note of a write-off.
func WriteOffNote(reason string) string {
	return "Списание: " + reason
}

// FoldKey returns the case-folded, trimmed form of s used for
// case-insensitive identity comparisons.
func FoldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// NormalizeLetter uppercases a class letter.
func NormalizeLetter(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
