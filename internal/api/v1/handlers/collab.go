package handlers

import (
	"database/sql"
	"strings"

	"todo-collab/internal/config"
	"todo-collab/internal/models"
	"todo-collab/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// authorizeCollab adalah satu-satunya sumber kebenaran untuk akses list
// bersama: user boleh masuk jika dia owner ATAU punya baris member.
// List yang tidak ada dan list yang terlarang sama-sama menghasilkan nil,
// supaya keberadaan list tidak bocor ke user yang tidak berhak.
func authorizeCollab(userID, listID int) *models.CollabList {
	var cl models.CollabList
	err := config.DB.QueryRow(
		"SELECT id, name, owner_id, created_at FROM collab_lists WHERE id = $1",
		listID).Scan(&cl.ID, &cl.Name, &cl.OwnerID, &cl.CreatedAt)
	if err != nil {
		return nil
	}

	if cl.OwnerID == userID {
		return &cl
	}

	var memberID int
	err = config.DB.QueryRow(
		"SELECT id FROM collab_members WHERE list_id = $1 AND user_id = $2",
		listID, userID).Scan(&memberID)
	if err != nil {
		return nil
	}
	return &cl
}

// ownedList mengambil list hanya jika user adalah owner-nya.
// Dipakai untuk operasi tier owner: rename, delete, kelola member.
func ownedList(userID, listID int) *models.CollabList {
	var cl models.CollabList
	err := config.DB.QueryRow(
		"SELECT id, name, owner_id, created_at FROM collab_lists WHERE id = $1 AND owner_id = $2",
		listID, userID).Scan(&cl.ID, &cl.Name, &cl.OwnerID, &cl.CreatedAt)
	if err != nil {
		return nil
	}
	return &cl
}

func notAllowed(c *fiber.Ctx) error {
	return c.Status(403).JSON(fiber.Map{
		"message": "Not allowed",
		"success": false,
		"status":  403,
	})
}

// GetCollabLists mengembalikan list yang dimiliki user lalu list di mana
// user menjadi member, masing-masing dengan username owner-nya.
func GetCollabLists(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	// list milik sendiri dulu, baru list sebagai member
	rows, err := config.DB.Query(`
		SELECT cl.id, cl.name, u.username, 0 AS tier
		FROM collab_lists cl
		JOIN users u ON u.id = cl.owner_id
		WHERE cl.owner_id = $1
		UNION ALL
		SELECT cl.id, cl.name, u.username, 1 AS tier
		FROM collab_lists cl
		JOIN collab_members cm ON cm.list_id = cl.id
		JOIN users u ON u.id = cl.owner_id
		WHERE cm.user_id = $1 AND cl.owner_id != $1
		ORDER BY tier, id`,
		userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching collab lists", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching lists",
			"success": false,
			"status":  500,
		})
	}
	defer rows.Close()

	lists := []fiber.Map{}
	for rows.Next() {
		var id, tier int
		var name, ownerUsername string
		if err := rows.Scan(&id, &name, &ownerUsername, &tier); err != nil {
			logger.ErrorLogger.Error("Error scanning collab lists", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error scanning lists",
				"success": false,
				"status":  500,
			})
		}
		lists = append(lists, fiber.Map{
			"id":             id,
			"name":           name,
			"owner_username": ownerUsername,
		})
	}
	if err = rows.Err(); err != nil {
		logger.ErrorLogger.Error("Error iterating over collab lists", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error iterating over lists",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Lists fetched successfully",
		"success": true,
		"status":  200,
		"data":    fiber.Map{"lists": lists},
	})
}

// CreateCollabList membuat list bersama baru dengan user sebagai owner.
func CreateCollabList(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	type CreateListRequest struct {
		Name string `json:"name"`
	}

	var req CreateListRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create list", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(400).JSON(fiber.Map{
			"message": "List name required",
			"success": false,
			"status":  400,
		})
	}

	var listID int
	err := config.DB.QueryRow(
		"INSERT INTO collab_lists (name, owner_id) VALUES ($1, $2) RETURNING id",
		name, userID).Scan(&listID)
	if err != nil {
		logger.ErrorLogger.Error("Error creating list", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating list",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Collab list created", zap.Int("list_id", listID), zap.Int("owner_id", userID))
	return c.Status(201).JSON(fiber.Map{
		"message": "List created",
		"success": true,
		"status":  201,
		"id":      listID,
	})
}

// RenameCollabList hanya boleh dilakukan owner.
func RenameCollabList(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	listID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid list ID",
			"success": false,
			"status":  400,
		})
	}

	type RenameRequest struct {
		Name string `json:"name"`
	}

	var req RenameRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in rename list", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(400).JSON(fiber.Map{
			"message": "Name required",
			"success": false,
			"status":  400,
		})
	}

	if ownedList(userID, listID) == nil {
		logger.SecurityLogger.Warn("Rename rejected", zap.Int("list_id", listID), zap.Int("user_id", userID))
		return c.Status(403).JSON(fiber.Map{
			"message": "Only owner can rename this list",
			"success": false,
			"status":  403,
		})
	}

	if _, err := config.DB.Exec(
		"UPDATE collab_lists SET name = $1 WHERE id = $2", name, listID); err != nil {
		logger.ErrorLogger.Error("Error renaming list", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error renaming list",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Collab list renamed", zap.Int("list_id", listID))
	return c.JSON(fiber.Map{
		"message": "Renamed",
		"success": true,
		"status":  200,
	})
}

// DeleteCollabList menghapus list beserta seluruh task dan membership-nya.
// Urutan penghapusan menjaga referential integrity: tasks, members, list.
func DeleteCollabList(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	listID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid list ID",
			"success": false,
			"status":  400,
		})
	}

	if ownedList(userID, listID) == nil {
		logger.SecurityLogger.Warn("Delete rejected", zap.Int("list_id", listID), zap.Int("user_id", userID))
		return c.Status(403).JSON(fiber.Map{
			"message": "Only owner can delete",
			"success": false,
			"status":  403,
		})
	}

	tx, err := config.DB.Begin()
	if err != nil {
		logger.ErrorLogger.Error("Error starting transaction", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting list",
			"success": false,
			"status":  500,
		})
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM collab_tasks WHERE list_id = $1",
		"DELETE FROM collab_members WHERE list_id = $1",
		"DELETE FROM collab_lists WHERE id = $1",
	} {
		if _, err := tx.Exec(stmt, listID); err != nil {
			logger.ErrorLogger.Error("Error deleting list", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error deleting list",
				"success": false,
				"status":  500,
			})
		}
	}
	if err := tx.Commit(); err != nil {
		logger.ErrorLogger.Error("Error committing delete", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting list",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Collab list deleted", zap.Int("list_id", listID))
	return c.JSON(fiber.Map{
		"message": "Deleted",
		"success": true,
		"status":  200,
	})
}

// AddCollabMember menambahkan user lain sebagai member. Hanya owner yang
// boleh; menambah member yang sudah ada adalah error, bukan no-op.
func AddCollabMember(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	listID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid list ID",
			"success": false,
			"status":  400,
		})
	}

	if ownedList(userID, listID) == nil {
		logger.SecurityLogger.Warn("Add member rejected", zap.Int("list_id", listID), zap.Int("user_id", userID))
		return c.Status(403).JSON(fiber.Map{
			"message": "Only owner can add collaborators",
			"success": false,
			"status":  403,
		})
	}

	type AddMemberRequest struct {
		Username string `json:"username"`
	}

	var req AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in add member", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))

	var targetID int
	err = config.DB.QueryRow(
		"SELECT id FROM users WHERE username = $1", username).Scan(&targetID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"message": "User not found",
			"success": false,
			"status":  404,
		})
	}

	_, err = config.DB.Exec(
		"INSERT INTO collab_members (list_id, user_id) VALUES ($1, $2)",
		listID, targetID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return c.Status(409).JSON(fiber.Map{
				"message": "Already added",
				"success": false,
				"status":  409,
			})
		}
		logger.ErrorLogger.Error("Error adding member", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error adding member",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Collaborator added", zap.Int("list_id", listID), zap.Int("member_id", targetID))
	return c.JSON(fiber.Map{
		"message": "Collaborator added",
		"success": true,
		"status":  200,
	})
}

// RemoveCollabMember mencabut membership seorang user. Hanya owner.
func RemoveCollabMember(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	listID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid list ID",
			"success": false,
			"status":  400,
		})
	}

	if ownedList(userID, listID) == nil {
		logger.SecurityLogger.Warn("Remove member rejected", zap.Int("list_id", listID), zap.Int("user_id", userID))
		return c.Status(403).JSON(fiber.Map{
			"message": "Only owner can remove collaborators",
			"success": false,
			"status":  403,
		})
	}

	username := strings.ToLower(strings.TrimSpace(c.Params("username")))

	var targetID int
	err = config.DB.QueryRow(
		"SELECT id FROM users WHERE username = $1", username).Scan(&targetID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"message": "User not found",
			"success": false,
			"status":  404,
		})
	}

	res, err := config.DB.Exec(
		"DELETE FROM collab_members WHERE list_id = $1 AND user_id = $2",
		listID, targetID)
	if err != nil {
		logger.ErrorLogger.Error("Error removing member", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error removing member",
			"success": false,
			"status":  500,
		})
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return c.Status(404).JSON(fiber.Map{
			"message": "User not collaborator",
			"success": false,
			"status":  404,
		})
	}

	logger.AuditLogger.Info("Collaborator removed", zap.Int("list_id", listID), zap.Int("member_id", targetID))
	return c.JSON(fiber.Map{
		"message": "Removed",
		"success": true,
		"status":  200,
	})
}

// GetCollabMembers bisa diakses owner maupun member. Flag is_owner
// menunjukkan apakah requester adalah owner list ini.
func GetCollabMembers(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	listID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid list ID",
			"success": false,
			"status":  400,
		})
	}

	cl := authorizeCollab(userID, listID)
	if cl == nil {
		return notAllowed(c)
	}

	rows, err := config.DB.Query(`
		SELECT u.username
		FROM users u
		JOIN collab_members cm ON cm.user_id = u.id
		WHERE cm.list_id = $1
		ORDER BY u.username`,
		listID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching members", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching members",
			"success": false,
			"status":  500,
		})
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			logger.ErrorLogger.Error("Error scanning members", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error scanning members",
				"success": false,
				"status":  500,
			})
		}
		members = append(members, username)
	}
	if err = rows.Err(); err != nil {
		logger.ErrorLogger.Error("Error iterating over members", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error iterating over members",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Members fetched successfully",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"members":  members,
			"is_owner": cl.OwnerID == userID,
		},
	})
}

// ListCollabTasks mengambil task sebuah list; sort sama dengan task pribadi.
func ListCollabTasks(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	listID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid list ID",
			"success": false,
			"status":  400,
		})
	}

	if authorizeCollab(userID, listID) == nil {
		return notAllowed(c)
	}

	sort := c.Query("sort", "added")
	query := "SELECT id, list_id, title, due_date, priority, done, date_added FROM collab_tasks WHERE list_id = $1 " +
		models.TaskOrderClause(sort)

	rows, err := config.DB.Query(query, listID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching collab tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching tasks",
			"success": false,
			"status":  500,
		})
	}
	defer rows.Close()

	tasks := []map[string]interface{}{}
	for rows.Next() {
		var task models.CollabTask
		err := rows.Scan(&task.ID, &task.ListID, &task.Title, &task.DueDate, &task.Priority, &task.Done, &task.DateAdded)
		if err != nil {
			logger.ErrorLogger.Error("Error scanning collab tasks", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error scanning tasks",
				"success": false,
				"status":  500,
			})
		}
		tasks = append(tasks, task.ToMap())
	}
	if err = rows.Err(); err != nil {
		logger.ErrorLogger.Error("Error iterating over collab tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error iterating over tasks",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Tasks fetched successfully",
		"success": true,
		"status":  200,
		"data":    tasks,
	})
}

// CreateCollabTask membuat task di list bersama. Owner maupun member boleh.
func CreateCollabTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	listID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid list ID",
			"success": false,
			"status":  400,
		})
	}

	if authorizeCollab(userID, listID) == nil {
		return notAllowed(c)
	}

	type TaskRequest struct {
		Title    string `json:"title"`
		DueDate  string `json:"due_date"`
		DueTime  string `json:"due_time"`
		Priority string `json:"priority"`
	}

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create collab task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return c.Status(400).JSON(fiber.Map{
			"message": "Title required",
			"success": false,
			"status":  400,
		})
	}

	priority := req.Priority
	if priority == "" {
		priority = "Mid"
	}
	if !models.ValidPriority(priority) {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid priority",
			"success": false,
			"status":  400,
		})
	}

	due := models.CombineDueDate(req.DueDate, req.DueTime)

	var taskID int
	err = config.DB.QueryRow(
		"INSERT INTO collab_tasks (list_id, title, due_date, priority) VALUES ($1, $2, $3, $4) RETURNING id",
		listID, title, due, priority,
	).Scan(&taskID)
	if err != nil {
		logger.ErrorLogger.Error("Error creating collab task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating task",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Collab task created", zap.Int("task_id", taskID), zap.Int("list_id", listID))
	return c.Status(201).JSON(fiber.Map{
		"message": "Task added",
		"success": true,
		"status":  201,
		"id":      taskID,
	})
}

// UpdateCollabTask mengubah sebagian field task bersama. List ditemukan
// lewat task-nya, lalu akses diperiksa via authorizeCollab.
func UpdateCollabTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	taskID, err := c.ParamsInt("task_id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid task ID",
			"success": false,
			"status":  400,
		})
	}

	var task models.CollabTask
	err = config.DB.QueryRow(
		"SELECT id, list_id, title, due_date, priority, done FROM collab_tasks WHERE id = $1",
		taskID).Scan(&task.ID, &task.ListID, &task.Title, &task.DueDate, &task.Priority, &task.Done)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{
				"message": "Task not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error fetching collab task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching task",
			"success": false,
			"status":  500,
		})
	}

	if authorizeCollab(userID, task.ListID) == nil {
		return notAllowed(c)
	}

	// pointer (*) untuk menandakan bahwa field bisa kosong
	type UpdateTaskRequest struct {
		Title    *string `json:"title"`
		Priority *string `json:"priority"`
		DueDate  *string `json:"due_date"`
		DueTime  *string `json:"due_time"`
		Done     *bool   `json:"done"`
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in update collab task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	// validasi semua field dulu; baru setelah lolos semua ditulis sekali,
	// supaya request yang sebagian invalid tidak meninggalkan perubahan parsial
	title := task.Title
	if req.Title != nil {
		title = strings.TrimSpace(*req.Title)
		if title == "" {
			return c.Status(400).JSON(fiber.Map{
				"message": "Title required",
				"success": false,
				"status":  400,
			})
		}
	}

	priority := task.Priority
	if req.Priority != nil {
		if !models.ValidPriority(*req.Priority) {
			return c.Status(400).JSON(fiber.Map{
				"message": "Invalid priority",
				"success": false,
				"status":  400,
			})
		}
		priority = *req.Priority
	}

	due := task.DueDate
	if req.DueDate != nil || req.DueTime != nil {
		var dueDate, dueTime string
		if req.DueDate != nil {
			dueDate = *req.DueDate
		}
		if req.DueTime != nil {
			dueTime = *req.DueTime
		}
		if combined := models.CombineDueDate(dueDate, dueTime); combined.Valid {
			due = combined
		}
	}

	done := task.Done
	if req.Done != nil {
		done = *req.Done
	}

	if _, err := config.DB.Exec(
		"UPDATE collab_tasks SET title = $1, priority = $2, due_date = $3, done = $4 WHERE id = $5",
		title, priority, due, done, taskID); err != nil {
		logger.ErrorLogger.Error("Error updating collab task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating task",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Collab task updated", zap.Int("task_id", taskID))
	return c.JSON(fiber.Map{
		"message": "Updated",
		"success": true,
		"status":  200,
	})
}

// DeleteCollabTask menghapus task dari sebuah list bersama.
func DeleteCollabTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	listID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid list ID",
			"success": false,
			"status":  400,
		})
	}
	taskID, err := c.ParamsInt("task_id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid task ID",
			"success": false,
			"status":  400,
		})
	}

	if authorizeCollab(userID, listID) == nil {
		return notAllowed(c)
	}

	res, err := config.DB.Exec(
		"DELETE FROM collab_tasks WHERE id = $1 AND list_id = $2", taskID, listID)
	if err != nil {
		logger.ErrorLogger.Error("Error deleting collab task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting task",
			"success": false,
			"status":  500,
		})
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return c.Status(404).JSON(fiber.Map{
			"message": "Task not found",
			"success": false,
			"status":  404,
		})
	}

	logger.AuditLogger.Info("Collab task deleted", zap.Int("task_id", taskID))
	return c.JSON(fiber.Map{
		"message": "Deleted",
		"success": true,
		"status":  200,
	})
}
