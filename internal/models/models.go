package models

import (
	"database/sql"
	"strings"
	"time"
)

// Format tampilan yang dipakai serializer di bawah.
const (
	TaskAddedLayout = "2006-01-02 15:04"
	UserDateLayout  = "01-02-2006 03:04 PM"
)

type User struct {
	ID               int
	Username         string
	Name             string
	Email            string
	Password         string
	ResetToken       sql.NullString
	ResetTokenExpiry sql.NullTime
	DateCreated      time.Time
}

// ToSafeMap mengembalikan profil user tanpa field kredensial.
func (u *User) ToSafeMap() map[string]interface{} {
	return map[string]interface{}{
		"id":           u.ID,
		"username":     u.Username,
		"name":         u.Name,
		"email":        u.Email,
		"date_created": u.DateCreated.Format(UserDateLayout),
	}
}

type Task struct {
	ID        int
	UserID    int
	Title     string
	DueDate   sql.NullString
	Priority  string
	Done      bool
	DateAdded time.Time
}

// ToMap memisahkan due_date kanonik menjadi tanggal + jam untuk response.
// Transformasi ini hanya untuk presentasi, state tersimpan tidak berubah.
func (t *Task) ToMap() map[string]interface{} {
	dueDate, dueTime := SplitDueDate(t.DueDate.String)
	return map[string]interface{}{
		"id":         t.ID,
		"title":      t.Title,
		"due_date":   dueDate,
		"due_time":   dueTime,
		"priority":   t.Priority,
		"done":       t.Done,
		"date_added": t.DateAdded.Format(TaskAddedLayout),
	}
}

type CollabList struct {
	ID        int
	Name      string
	OwnerID   int
	CreatedAt time.Time
}

// CollabMember adalah baris join (list_id, user_id).
// Owner tidak pernah punya baris member; haknya dihitung dari owner_id.
type CollabMember struct {
	ID     int
	ListID int
	UserID int
}

type CollabTask struct {
	ID        int
	ListID    int
	Title     string
	DueDate   sql.NullString
	Priority  string
	Done      bool
	DateAdded time.Time
}

func (t *CollabTask) ToMap() map[string]interface{} {
	dueDate, dueTime := SplitDueDate(t.DueDate.String)
	return map[string]interface{}{
		"id":         t.ID,
		"list_id":    t.ListID,
		"title":      t.Title,
		"due_date":   dueDate,
		"due_time":   dueTime,
		"priority":   t.Priority,
		"done":       t.Done,
		"date_added": t.DateAdded.Format(TaskAddedLayout),
	}
}

// CombineDueDate menggabungkan tanggal dan jam menjadi satu field kanonik
// "YYYY-MM-DD[ HH:MM]". Jam tanpa tanggal diabaikan; tanpa keduanya hasilnya
// NULL.
func CombineDueDate(dueDate, dueTime string) sql.NullString {
	dueDate = strings.TrimSpace(dueDate)
	dueTime = strings.TrimSpace(dueTime)

	switch {
	case dueDate != "" && dueTime != "":
		return sql.NullString{String: dueDate + " " + dueTime, Valid: true}
	case dueDate != "":
		return sql.NullString{String: dueDate, Valid: true}
	default:
		return sql.NullString{}
	}
}

// SplitDueDate memecah field kanonik kembali menjadi tanggal dan jam.
func SplitDueDate(due string) (string, string) {
	if due == "" {
		return "", ""
	}
	parts := strings.SplitN(due, " ", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], ""
}

// ValidPriority memeriksa nilai priority yang diterima dari request.
func ValidPriority(priority string) bool {
	switch priority {
	case "High", "Mid", "Low":
		return true
	default:
		return false
	}
}

// TaskOrderClause memetakan mode sort ke klausa ORDER BY.
// "due" mengurutkan field kanonik secara leksikografis (aman secara
// kronologis untuk "YYYY-MM-DD HH:MM"), NULL selalu paling akhir.
// "priority" stabil lewat tiebreak id; nilai tak dikenal jatuh setelah Low.
// Mode lain (termasuk default) mengurutkan dari yang terbaru ditambahkan.
func TaskOrderClause(sort string) string {
	switch sort {
	case "due":
		return "ORDER BY due_date ASC NULLS LAST, id ASC"
	case "priority":
		return "ORDER BY CASE priority WHEN 'High' THEN 1 WHEN 'Mid' THEN 2 WHEN 'Low' THEN 3 ELSE 4 END, id ASC"
	default:
		return "ORDER BY date_added DESC, id DESC"
	}
}
