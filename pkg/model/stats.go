package model

// Overview is the headline block of the HR dashboard.
type Overview struct {
	TotalEmployees  int `json:"totalEmployees"`
	ActiveEmployees int `json:"activeEmployees"`
	TotalTeams      int `json:"totalTeams"`
	TotalTasks      int `json:"totalTasks"`
	ActiveTasks     int `json:"activeTasks"`
	CompletedTasks  int `json:"completedTasks"`
	PendingLeaves   int `json:"pendingLeaves"`
	PresentToday    int `json:"presentToday"`
}

type LeaveTypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
	Days  int    `json:"days"`
}

type LeaveStats struct {
	Year   int              `json:"year"`
	ByType []LeaveTypeCount `json:"byType"`
}

type AttendanceStats struct {
	Month   int `json:"month"`
	Year    int `json:"year"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	OnLeave int `json:"onLeave"`
}

type TeamPerformance struct {
	Team        string  `json:"team"`
	Performance float64 `json:"performance"`
}

type DepartmentCount struct {
	Department string `json:"department"`
	Employees  int    `json:"employees"`
}
