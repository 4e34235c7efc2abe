package roster

import "time"

// Tier cut-offs used by dashboards and report colouring
const (
	LowThreshold      = 75.0
	CriticalThreshold = 65.0
)

// Student is identified by its registration number. It is never modified after creation.
type Student struct {
	ID             int64     `json:"id" db:"id"`
	AdmissionNo    string    `json:"admission_no" db:"admission_no"`
	RegistrationNo string    `json:"registration_no" db:"registration_no"`
	Name           string    `json:"name" db:"name"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Course is identified by its code; the name is descriptive only.
type Course struct {
	ID        int64     `json:"id" db:"id"`
	Code      string    `json:"code" db:"course_code"`
	Name      string    `json:"name" db:"course_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AttendanceRecord is unique per (StudentID, CourseID).
type AttendanceRecord struct {
	ID         int64     `json:"id" db:"id"`
	StudentID  int64     `json:"student_id" db:"student_id"`
	CourseID   int64     `json:"course_id" db:"course_id"`
	Attended   int       `json:"attended_periods" db:"attended_periods"`
	Conducted  int       `json:"conducted_periods" db:"conducted_periods"`
	Percentage float64   `json:"attendance_percentage" db:"attendance_percentage"`
	UploadDate time.Time `json:"upload_date" db:"upload_date"`
}

// BelowThreshold reports whether the record is in the low-attendance tier.
func (r AttendanceRecord) BelowThreshold() bool {
	return r.Percentage < LowThreshold
}

// AttendanceView is an attendance record joined with its student and course.
type AttendanceView struct {
	ID             int64   `db:"id"`
	StudentID      int64   `db:"student_id"`
	CourseID       int64   `db:"course_id"`
	RegistrationNo string  `db:"registration_no"`
	AdmissionNo    string  `db:"admission_no"`
	StudentName    string  `db:"student_name"`
	CourseCode     string  `db:"course_code"`
	CourseName     string  `db:"course_name"`
	Attended       int     `db:"attended_periods"`
	Conducted      int     `db:"conducted_periods"`
	Percentage     float64 `db:"attendance_percentage"`
}

// ExportRow is the flat shape handed to the API and to report sinks.
type ExportRow struct {
	ID             int64   `json:"id,omitempty"`
	SerialNo       int     `json:"S.No"`
	RegistrationNo string  `json:"Registration No"`
	StudentName    string  `json:"Student Name"`
	CourseCode     string  `json:"Course Code"`
	CourseName     string  `json:"Course Name"`
	Attended       int     `json:"Attended Periods"`
	Conducted      int     `json:"Conducted Periods"`
	Percentage     float64 `json:"Attendance %"`

	// RawPercentage is the unrounded value, used for tier colouring.
	RawPercentage float64 `json:"-"`
}

// ExportColumns lists the file export headers in order.
var ExportColumns = []string{
	"S.No",
	"Registration No",
	"Student Name",
	"Course Code",
	"Course Name",
	"Attended Periods",
	"Conducted Periods",
	"Attendance %",
}

// Values returns the row's cells in ExportColumns order.
func (r ExportRow) Values() []interface{} {
	return []interface{}{
		r.SerialNo,
		r.RegistrationNo,
		r.StudentName,
		r.CourseCode,
		r.CourseName,
		r.Attended,
		r.Conducted,
		r.Percentage,
	}
}
